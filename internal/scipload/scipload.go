// Package scipload builds the symbol table and reference graph from a
// precomputed SCIP index instead of parsed sources. Compiler-backed
// indexers resolve references exactly, so maps built this way carry no
// name-resolution guesswork.
package scipload

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"repomap/internal/config"
	"repomap/internal/errors"
	"repomap/internal/graph"
	"repomap/internal/parser"
	"repomap/internal/symbols"
)

// SymbolRoles bit marking a definition occurrence.
const symbolRoleDefinition int32 = 1

// Index is the load result, shaped to feed the same ranking and
// rendering path as parsed sources.
type Index struct {
	Table     *symbols.Table
	Edges     []graph.Edge
	Tool      string
	Documents int
	// External counts references pointing at symbols the index does not
	// define, mostly framework and package types.
	External int
}

// Load reads a SCIP protobuf index and converts it into a symbol table
// and reference edges. Documents are processed in path order so ids and
// edge order never depend on indexer output order.
func Load(path string, rules []config.CategoryRule, logger *slog.Logger) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ScipLoadFailed,
			fmt.Sprintf("reading SCIP index %s", path), err)
	}

	var raw scippb.Index
	if err := proto.Unmarshal(data, &raw); err != nil {
		return nil, errors.New(errors.ScipLoadFailed,
			fmt.Sprintf("parsing SCIP index %s", path), err)
	}
	if len(raw.Documents) == 0 {
		return nil, errors.New(errors.ScipLoadFailed,
			fmt.Sprintf("SCIP index %s contains no documents", path), nil)
	}

	docs := make([]*scippb.Document, len(raw.Documents))
	copy(docs, raw.Documents)
	sort.Slice(docs, func(i, j int) bool { return docs[i].RelativePath < docs[j].RelativePath })

	b := &builder{rules: rules, qualByScip: make(map[string]string)}
	results := make([]symbols.FileResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, b.document(doc))
	}
	table, _ := symbols.Merge(results)

	edges, external := b.linkReferences(table, docs)

	tool := ""
	if raw.Metadata != nil && raw.Metadata.ToolInfo != nil {
		tool = raw.Metadata.ToolInfo.Name
	}
	logger.Info("SCIP index loaded",
		"path", path,
		"tool", tool,
		"documents", len(docs),
		"symbols", table.Len(),
		"edges", len(edges))

	return &Index{
		Table:     table,
		Edges:     edges,
		Tool:      tool,
		Documents: len(docs),
		External:  external,
	}, nil
}

type builder struct {
	rules      []config.CategoryRule
	qualByScip map[string]string // scip symbol -> qualified name
}

// document converts one SCIP document into a file result for the merge.
// Enclosing types are emitted before their members, synthesizing any
// type the document references members of but never declares itself.
func (b *builder) document(doc *scippb.Document) symbols.FileResult {
	defLines := make(map[string]int)
	for _, occ := range doc.Occurrences {
		if occ.SymbolRoles&symbolRoleDefinition != 0 && len(occ.Range) > 0 {
			defLines[occ.Symbol] = int(occ.Range[0]) + 1
		}
	}

	var parsed []scipSymbol
	for _, info := range doc.Symbols {
		if ps, ok := parseSymbol(info); ok {
			parsed = append(parsed, ps)
		}
	}
	// Shorter paths first puts every type ahead of its members.
	sort.SliceStable(parsed, func(i, j int) bool {
		if len(parsed[i].path) != len(parsed[j].path) {
			return len(parsed[i].path) < len(parsed[j].path)
		}
		return parsed[i].raw < parsed[j].raw
	})

	res := symbols.FileResult{File: doc.RelativePath}
	local := make(map[string]int)
	for _, ps := range parsed {
		b.emit(&res, local, ps, defLines[ps.raw], doc.RelativePath)
	}
	return res
}

// scipSymbol is one parsed SCIP symbol: its namespace module, the type
// and member name chain inside it, and the kind of the last element.
type scipSymbol struct {
	raw    string
	module string
	path   []string
	kind   symbols.Kind
}

// parseSymbol splits a SCIP symbol string into scheme, package and
// descriptor fields and decodes the descriptor chain. Locals, pure
// namespace symbols and descriptors outside the type/member grammar
// are not rankable and report !ok.
func parseSymbol(info *scippb.SymbolInformation) (scipSymbol, bool) {
	raw := info.Symbol
	if strings.HasPrefix(raw, "local ") {
		return scipSymbol{}, false
	}
	// scheme manager package version descriptor, version sometimes absent
	parts := strings.SplitN(raw, " ", 5)
	if len(parts) < 4 {
		return scipSymbol{}, false
	}
	descriptor := parts[len(parts)-1]

	segs, ok := splitDescriptor(descriptor)
	if !ok {
		return scipSymbol{}, false
	}
	// Member segments are only valid in final position.
	for _, s := range segs[:len(segs)-1] {
		if s.marker != '/' && s.marker != '#' {
			return scipSymbol{}, false
		}
	}

	var nsParts, path []string
	for _, s := range segs {
		if s.marker == '/' {
			nsParts = append(nsParts, s.name)
		} else {
			path = append(path, s.name)
		}
	}
	if len(path) == 0 {
		return scipSymbol{}, false
	}

	module := symbols.RootModule
	if len(nsParts) > 0 {
		module = strings.Join(nsParts, ".")
	}

	return scipSymbol{
		raw:    raw,
		module: module,
		path:   path,
		kind:   kindOf(info.Kind, segs[len(segs)-1]),
	}, true
}

// emit appends the symbol and any missing enclosing types to the file
// result, then records its qualified name for the reference pass.
func (b *builder) emit(res *symbols.FileResult, local map[string]int, ps scipSymbol, line int, file string) {
	category := symbols.Categorize(file, ps.module, b.rules)
	owner := -1
	qualified := ""
	if ps.module != symbols.RootModule {
		qualified = ps.module
	}

	for i, name := range ps.path {
		if qualified == "" {
			qualified = name
		} else {
			qualified = qualified + "." + name
		}
		idx, ok := local[qualified]
		if !ok {
			sym := symbols.Symbol{
				Name:      name,
				Qualified: qualified,
				File:      file,
				Module:    ps.module,
				Category:  category,
				Owner:     owner,
			}
			if i == len(ps.path)-1 {
				sym.Kind = ps.kind
				sym.Line = line
			} else if parser.IsInterfaceName(name) {
				sym.Kind = symbols.KindInterface
			} else {
				sym.Kind = symbols.KindClass
			}
			if sym.Kind.IsType() {
				sym.Signature = sym.Kind.String() + " " + name
			} else {
				sig := symbols.MemberSig{Kind: sym.Kind, Name: name}
				sym.Signature = sig.String()
				if owner >= 0 {
					res.Symbols[owner].Members = append(res.Symbols[owner].Members, sig)
				}
			}
			idx = len(res.Symbols)
			res.Symbols = append(res.Symbols, sym)
			local[qualified] = idx
		}
		owner = idx
	}

	b.qualByScip[ps.raw] = qualified
}

// linkReferences turns non-definition occurrences into edges. Each
// reference is attributed to the nearest declaration above it in the
// same document; references landing before any declaration, such as
// attribute usage on the namespace, are dropped.
func (b *builder) linkReferences(table *symbols.Table, docs []*scippb.Document) ([]graph.Edge, int) {
	ids := make(map[string]int, len(b.qualByScip))
	for scip, qualified := range b.qualByScip {
		if id, ok := table.LookupQualified(qualified); ok {
			ids[scip] = id
		}
	}

	set := &edgeSet{index: make(map[edgeKey]int)}
	external := 0

	for _, doc := range docs {
		var defs []defSpan
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&symbolRoleDefinition == 0 || len(occ.Range) == 0 {
				continue
			}
			if id, ok := ids[occ.Symbol]; ok {
				defs = append(defs, defSpan{line: int(occ.Range[0]), id: id})
			}
		}
		sort.Slice(defs, func(i, j int) bool { return defs[i].line < defs[j].line })

		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&symbolRoleDefinition != 0 || len(occ.Range) == 0 {
				continue
			}
			if strings.HasPrefix(occ.Symbol, "local ") {
				continue
			}
			target, ok := ids[occ.Symbol]
			if !ok {
				external++
				continue
			}
			src, ok := enclosingDef(defs, int(occ.Range[0]))
			if !ok {
				continue
			}
			kind := graph.EdgeUses
			if table.Get(target).Kind == symbols.KindMethod {
				kind = graph.EdgeCalls
			}
			set.add(src, target, kind)
		}

		// Declared implementation relationships carry the inheritance
		// edges occurrences alone cannot distinguish.
		for _, info := range doc.Symbols {
			src, ok := ids[info.Symbol]
			if !ok || !table.Get(src).Kind.IsType() {
				continue
			}
			for _, rel := range info.Relationships {
				if !rel.IsImplementation {
					continue
				}
				target, ok := ids[rel.Symbol]
				if !ok {
					continue
				}
				kind := graph.EdgeInherits
				if table.Get(target).Kind == symbols.KindInterface {
					kind = graph.EdgeImplements
				}
				set.add(src, target, kind)
			}
		}
	}

	return set.edges, external
}

type defSpan struct {
	line int
	id   int
}

func enclosingDef(defs []defSpan, line int) (int, bool) {
	i := sort.Search(len(defs), func(i int) bool { return defs[i].line > line }) - 1
	if i < 0 {
		return 0, false
	}
	return defs[i].id, true
}

type edgeKey struct {
	source int
	target int
	kind   graph.EdgeKind
}

// edgeSet deduplicates edges by (source, target, kind) in
// first-occurrence order, accumulating multiplicity.
type edgeSet struct {
	edges []graph.Edge
	index map[edgeKey]int
}

func (s *edgeSet) add(source, target int, kind graph.EdgeKind) {
	if source == target {
		return
	}
	key := edgeKey{source, target, kind}
	if i, ok := s.index[key]; ok {
		s.edges[i].Multiplicity++
		return
	}
	s.index[key] = len(s.edges)
	s.edges = append(s.edges, graph.Edge{Source: source, Target: target, Kind: kind, Multiplicity: 1})
}

// segment is one element of a descriptor chain, tagged with the marker
// that closed it: '/' namespace, '#' type, '(' method, '.' term.
type segment struct {
	name   string
	marker byte
}

// splitDescriptor walks a SCIP descriptor suffix chain. Parameter,
// type-parameter, macro and meta segments describe symbols the map does
// not rank and report !ok, as does any descriptor that fails to end in
// a marker.
func splitDescriptor(desc string) ([]segment, bool) {
	var segs []segment
	for i := 0; i < len(desc); {
		var name string
		if desc[i] == '`' {
			j := strings.IndexByte(desc[i+1:], '`')
			if j < 0 {
				return nil, false
			}
			name = desc[i+1 : i+1+j]
			i += j + 2
		} else {
			j := i
			for j < len(desc) && !isMarker(desc[j]) {
				j++
			}
			name = desc[i:j]
			i = j
		}
		if i >= len(desc) || name == "" {
			return nil, false
		}
		switch desc[i] {
		case '/', '#', '.':
			segs = append(segs, segment{name, desc[i]})
			i++
		case '(':
			// method, optionally with a disambiguator inside the parens
			end := strings.IndexByte(desc[i:], ')')
			if end < 0 {
				return nil, false
			}
			i += end + 1
			if i >= len(desc) || desc[i] != '.' {
				return nil, false
			}
			i++
			segs = append(segs, segment{name, '('})
		default:
			return nil, false
		}
	}
	return segs, len(segs) > 0
}

func isMarker(c byte) bool {
	switch c {
	case '/', '#', '.', '(', ')', '[', ']', ':', '!', '`':
		return true
	}
	return false
}

// kindOf maps a SCIP SymbolInformation.Kind onto the table's kind
// space, falling back to the descriptor marker when the indexer left
// the field unset.
func kindOf(kind scippb.SymbolInformation_Kind, last segment) symbols.Kind {
	switch kind {
	case scippb.SymbolInformation_Class, scippb.SymbolInformation_Object,
		scippb.SymbolInformation_Delegate:
		return symbols.KindClass
	case scippb.SymbolInformation_Interface, scippb.SymbolInformation_Protocol,
		scippb.SymbolInformation_Trait:
		return symbols.KindInterface
	case scippb.SymbolInformation_Struct:
		return symbols.KindStruct
	case scippb.SymbolInformation_Enum:
		return symbols.KindEnum
	case scippb.SymbolInformation_Method, scippb.SymbolInformation_Constructor,
		scippb.SymbolInformation_Function, scippb.SymbolInformation_StaticMethod,
		scippb.SymbolInformation_AbstractMethod:
		return symbols.KindMethod
	case scippb.SymbolInformation_Property, scippb.SymbolInformation_Getter,
		scippb.SymbolInformation_Setter, scippb.SymbolInformation_StaticProperty:
		return symbols.KindProperty
	case scippb.SymbolInformation_Field, scippb.SymbolInformation_EnumMember,
		scippb.SymbolInformation_StaticField, scippb.SymbolInformation_Constant:
		return symbols.KindField
	}
	switch last.marker {
	case '#':
		if parser.IsInterfaceName(last.name) {
			return symbols.KindInterface
		}
		return symbols.KindClass
	case '(':
		return symbols.KindMethod
	}
	return symbols.KindProperty
}
