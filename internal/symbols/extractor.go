package symbols

import (
	"path"
	"strings"

	"repomap/internal/config"
	"repomap/internal/graph"
	"repomap/internal/parser"
	"repomap/internal/source"
)

// RootModule is the module label for files directly under the source
// root.
const RootModule = "(root)"

// RawRef is an unresolved reference found during extraction. Source is
// a symbol id, local to the file result until Merge remaps it; Target
// is the referenced name, possibly a dotted receiver.name pair.
type RawRef struct {
	Source int
	Kind   graph.EdgeKind
	Target string
	Line   int
}

// FileResult is one file's extraction output before merging.
type FileResult struct {
	File    string
	Symbols []Symbol
	Refs    []RawRef
}

// Extract walks one file's parse nodes and produces its symbols and raw
// references. Symbol owners and reference sources are indices into the
// result's own symbol slice.
func Extract(file source.File, nodes []parser.Node, categories []config.CategoryRule) FileResult {
	module := ModulePath(file.Path)
	ex := extraction{
		nodes:    nodes,
		module:   module,
		category: Categorize(file.Path, module, categories),
		file:     file.Path,
		nodeSym:  make([]int, len(nodes)),
	}
	for i := range ex.nodeSym {
		ex.nodeSym[i] = -1
	}

	for i, n := range nodes {
		switch n.Kind {
		case parser.NodeClass, parser.NodeInterface, parser.NodeStruct, parser.NodeEnum:
			ex.typeSymbol(i, n)
		case parser.NodeMethod, parser.NodeProperty, parser.NodeField:
			ex.memberSymbol(i, n)
		case parser.NodeBaseType:
			ex.baseRef(n)
		case parser.NodeTypeRef:
			ex.useRef(n)
		case parser.NodeInvocation, parser.NodeIdentifier:
			ex.callRef(n)
		case parser.NodeError:
			// Malformed region, already isolated by the parser.
		}
	}

	return FileResult{File: file.Path, Symbols: ex.symbols, Refs: ex.refs}
}

type extraction struct {
	nodes    []parser.Node
	module   string
	category string
	file     string

	symbols []Symbol
	refs    []RawRef
	nodeSym []int // node index -> local symbol index, -1 if none
	// Types that already emitted their single inherits edge.
	inherited map[int]bool
}

var kindByNode = map[parser.NodeKind]Kind{
	parser.NodeClass:     KindClass,
	parser.NodeInterface: KindInterface,
	parser.NodeStruct:    KindStruct,
	parser.NodeEnum:      KindEnum,
	parser.NodeMethod:    KindMethod,
	parser.NodeProperty:  KindProperty,
	parser.NodeField:     KindField,
}

func (ex *extraction) typeSymbol(idx int, n parser.Node) {
	owner := ex.nearestSymbol(n.Parent)
	ex.nodeSym[idx] = len(ex.symbols)
	ex.symbols = append(ex.symbols, Symbol{
		Name:      n.Name,
		Qualified: ex.qualify(owner, n.Name),
		Kind:      kindByNode[n.Kind],
		File:      ex.file,
		Line:      n.Line,
		EndLine:   n.EndLine,
		Module:    ex.module,
		Category:  ex.category,
		Owner:     owner,
		Modifiers: n.Modifiers,
		Signature: typeSignature(n),
	})
}

// typeSignature renders the declaration line shown in the signature
// layer, e.g. "public class GameManager". Base types are appended to it
// as their nodes arrive.
func typeSignature(n parser.Node) string {
	parts := append(append([]string{}, n.Modifiers...), kindByNode[n.Kind].String(), n.Name)
	return strings.Join(parts, " ")
}

// memberSymbol records a method, property or field declared directly on
// a type. Members nested anywhere else (locals, top-level statements)
// produce no symbol; their bodies still contribute references through
// the enclosing scope walk.
func (ex *extraction) memberSymbol(idx int, n parser.Node) {
	owner := ex.nearestSymbol(n.Parent)
	if owner < 0 || !ex.symbols[owner].Kind.IsType() {
		return
	}

	kind := kindByNode[n.Kind]
	sig := MemberSig{
		Kind:      kind,
		Name:      n.Name,
		Params:    n.Params,
		Return:    parser.CollapseGenerics(n.Type),
		Modifiers: n.Modifiers,
	}

	ex.nodeSym[idx] = len(ex.symbols)
	ex.symbols = append(ex.symbols, Symbol{
		Name:      n.Name,
		Qualified: ex.qualify(owner, n.Name),
		Kind:      kind,
		File:      ex.file,
		Line:      n.Line,
		EndLine:   n.EndLine,
		Module:    ex.module,
		Category:  ex.category,
		Owner:     owner,
		Modifiers: n.Modifiers,
		Signature: sig.String(),
	})

	if ex.renderable(owner, n) {
		ex.symbols[owner].Members = append(ex.symbols[owner].Members, sig)
	}
}

// renderable reports whether a member belongs on its type's displayed
// signature list. Interface members carry no modifiers but are public.
func (ex *extraction) renderable(owner int, n parser.Node) bool {
	if ex.symbols[owner].Kind == KindInterface {
		return true
	}
	return n.HasModifier("public")
}

func (ex *extraction) baseRef(n parser.Node) {
	typeIdx := ex.nodeSym[n.Parent]
	if typeIdx < 0 {
		return
	}

	// All bases show in the signature display, resolvable or not.
	sym := &ex.symbols[typeIdx]
	if strings.Contains(sym.Signature, " : ") {
		sym.Signature += ", " + n.Name
	} else {
		sym.Signature += " : " + n.Name
	}

	target := parser.StripGenerics(n.Name)
	if target == "" || strings.Contains(target, ".") {
		// Namespace-qualified bases point outside the analyzed set.
		return
	}

	kind := graph.EdgeInherits
	if parser.IsInterfaceName(target) {
		kind = graph.EdgeImplements
	} else {
		// Single inheritance: one base class per type, extras dropped.
		if ex.inherited == nil {
			ex.inherited = make(map[int]bool)
		}
		if ex.inherited[typeIdx] {
			return
		}
		ex.inherited[typeIdx] = true
	}

	ex.refs = append(ex.refs, RawRef{Source: typeIdx, Kind: kind, Target: target, Line: n.Line})
}

func (ex *extraction) useRef(n parser.Node) {
	src := ex.nearestType(n.Parent)
	if src < 0 {
		return
	}
	ex.refs = append(ex.refs, RawRef{Source: src, Kind: graph.EdgeUses, Target: n.Name, Line: n.Line})
}

// callRef attributes a call to the nearest enclosing method, falling
// back to the enclosing type for constructor bodies, field
// initializers and property accessors.
func (ex *extraction) callRef(n parser.Node) {
	src := ex.nearestMethod(n.Parent)
	if src < 0 {
		src = ex.nearestType(n.Parent)
	}
	if src < 0 {
		return
	}
	ex.refs = append(ex.refs, RawRef{Source: src, Kind: graph.EdgeCalls, Target: n.Name, Line: n.Line})
}

func (ex *extraction) qualify(owner int, name string) string {
	if owner >= 0 {
		return ex.symbols[owner].Qualified + "." + name
	}
	if ex.module == RootModule {
		return name
	}
	return ex.module + "." + name
}

func (ex *extraction) nearestSymbol(parent int) int {
	for p := parent; p >= 0; p = ex.nodes[p].Parent {
		if ex.nodeSym[p] >= 0 {
			return ex.nodeSym[p]
		}
	}
	return -1
}

func (ex *extraction) nearestType(parent int) int {
	for p := parent; p >= 0; p = ex.nodes[p].Parent {
		if s := ex.nodeSym[p]; s >= 0 && ex.symbols[s].Kind.IsType() {
			return s
		}
	}
	return -1
}

func (ex *extraction) nearestMethod(parent int) int {
	for p := parent; p >= 0; p = ex.nodes[p].Parent {
		if s := ex.nodeSym[p]; s >= 0 && ex.symbols[s].Kind == KindMethod {
			return s
		}
	}
	return -1
}

// ModulePath derives the dotted module label from a file's
// slash-separated path relative to the source root.
func ModulePath(relPath string) string {
	dir := path.Dir(relPath)
	if dir == "." || dir == "/" {
		return RootModule
	}
	return strings.ReplaceAll(dir, "/", ".")
}

// Categorize labels a file by the first matching category rule, falling
// back to the top module segment.
func Categorize(relPath, module string, rules []config.CategoryRule) string {
	for _, rule := range rules {
		for _, pat := range rule.Patterns {
			if matchesCategory(pat, relPath) {
				return rule.Name
			}
		}
	}
	if module == RootModule {
		return RootModule
	}
	first, _, _ := strings.Cut(module, ".")
	return first
}

// matchesCategory treats patterns containing glob metacharacters as
// path globs; a plain pattern matches when any path segment starts
// with it, so `Player` covers both Player.cs and PlayerInput.cs.
func matchesCategory(pat, relPath string) bool {
	if strings.ContainsAny(pat, "*?[") {
		return source.Match(pat, relPath)
	}
	for _, seg := range strings.Split(relPath, "/") {
		if strings.HasPrefix(seg, pat) {
			return true
		}
	}
	return false
}
