package parser

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// Regex is the fallback parser used when tree-sitter is not compiled in.
// It recognizes declarations by line shape and is deliberately
// best-effort: attribute-heavy or generic-call code loses some
// references, but declarations and inheritance survive.
type Regex struct{}

// NewRegex creates the regex fallback parser.
func NewRegex() *Regex {
	return &Regex{}
}

func (r *Regex) Name() string { return "regex" }

var (
	attrPrefix = `(?:\[[^\]]*\][ \t]*)*`
	typeText   = `[A-Za-z_][\w.]*(?:<[^(){;]*>)?(?:\[[^\]]*\])?\??`

	typeDeclRe = regexp.MustCompile(`(?m)^[ \t]*` + attrPrefix +
		`((?:(?:public|private|protected|internal|abstract|sealed|static|partial|new|unsafe|readonly|ref)\s+)*)` +
		`(class|interface|struct|enum|record)\s+([A-Za-z_]\w*)\s*(?:<[^(){;]*>)?\s*(?:\([^)]*\))?` +
		`\s*(?::\s*([^{;]+?))?(?:\s*where\b[^{;]*)?\s*(\{|;)`)

	methodDeclRe = regexp.MustCompile(`(?m)^[ \t]*` + attrPrefix +
		`((?:(?:public|private|protected|internal|static|virtual|override|sealed|abstract|async|partial|extern|new|unsafe)\s+)*)` +
		`(` + typeText + `)\s+([A-Za-z_]\w*)\s*(?:<[^>(]*>)?\s*\(([^)]*)\)` +
		`(?:\s*where\b[^{;]*)?\s*(\{|=>|;)`)

	propertyDeclRe = regexp.MustCompile(`(?m)^[ \t]*` + attrPrefix +
		`((?:(?:public|private|protected|internal|static|virtual|override|sealed|abstract|new|required)\s+)+)` +
		`(` + typeText + `)\s+([A-Za-z_]\w*)\s*(\{\s*(?:get|set|init)|=>)`)

	fieldDeclRe = regexp.MustCompile(`(?m)^[ \t]*` + attrPrefix +
		`((?:(?:public|private|protected|internal|static|readonly|const|volatile|new)\s+)+)` +
		`(` + typeText + `)\s+([A-Za-z_]\w*(?:\s*,\s*[A-Za-z_]\w*)*)\s*(?:=[^;]*)?;`)

	newExprRe    = regexp.MustCompile(`\bnew\s+([A-Za-z_][\w.]*(?:<[^(){;]*>)?)\s*[({\[]`)
	invocationRe = regexp.MustCompile(`([A-Za-z_]\w*(?:\s*\.\s*[A-Za-z_]\w*)*)\s*\(`)
)

var typeKindByKeyword = map[string]NodeKind{
	"class":     NodeClass,
	"record":    NodeClass,
	"interface": NodeInterface,
	"struct":    NodeStruct,
	"enum":      NodeEnum,
}

// regexDecl is one matched declaration before node emission. Ranged
// declarations track their body span for parent assignment.
type regexDecl struct {
	node      Node
	start     int
	bodyStart int
	bodyEnd   int
	nameOff   int
	baseText  string
	paramText string
	names     []string // field declarator names
}

// Parse produces the node sequence for one file.
func (r *Regex) Parse(ctx context.Context, text string) ([]Node, error) {
	stripped := stripNoise(text)
	lines := newLineIndex(stripped)

	decls := r.collectDecls(stripped, lines)
	sort.SliceStable(decls, func(i, j int) bool { return decls[i].start < decls[j].start })

	var nodes []Node

	// Emit declarations in source order, resolving parents with a scope
	// stack over the matched body ranges.
	type scope struct {
		idx int
		end int
	}
	var stack []scope
	indexOf := make([]int, len(decls))

	for i := range decls {
		d := &decls[i]
		for len(stack) > 0 && stack[len(stack)-1].end <= d.start {
			stack = stack[:len(stack)-1]
		}
		parent := -1
		if len(stack) > 0 {
			parent = stack[len(stack)-1].idx
		}

		switch d.node.Kind {
		case NodeField:
			for _, name := range d.names {
				fd := d.node
				fd.Name = name
				fd.Parent = parent
				nodes = append(nodes, fd)
			}
			indexOf[i] = len(nodes) - 1
			for _, id := range typeIdentifiers(d.node.Type) {
				nodes = append(nodes, Node{Kind: NodeTypeRef, Name: id, Line: d.node.Line, Parent: indexOf[i]})
			}
			continue
		case NodeMethod:
			d.node.Parent = parent
			nodes = append(nodes, d.node)
			idx := len(nodes) - 1
			indexOf[i] = idx
			params, typeIDs := splitParams(d.paramText)
			nodes[idx].Params = params
			for _, id := range typeIDs {
				nodes = append(nodes, Node{Kind: NodeTypeRef, Name: id, Line: d.node.Line, Parent: idx})
			}
		case NodeProperty:
			d.node.Parent = parent
			nodes = append(nodes, d.node)
			indexOf[i] = len(nodes) - 1
			for _, id := range typeIdentifiers(d.node.Type) {
				nodes = append(nodes, Node{Kind: NodeTypeRef, Name: id, Line: d.node.Line, Parent: indexOf[i]})
			}
		default: // type declarations
			d.node.Parent = parent
			nodes = append(nodes, d.node)
			idx := len(nodes) - 1
			indexOf[i] = idx
			for _, base := range splitBaseList(d.baseText) {
				nodes = append(nodes, Node{Kind: NodeBaseType, Name: base, Line: d.node.Line, Parent: idx})
			}
		}

		if d.bodyEnd > d.bodyStart {
			stack = append(stack, scope{idx: indexOf[i], end: d.bodyEnd})
		}
	}

	nodes = append(nodes, r.collectExprs(stripped, lines, decls, indexOf)...)
	return nodes, nil
}

func (r *Regex) collectDecls(stripped string, lines *lineIndex) []regexDecl {
	var decls []regexDecl

	for _, m := range typeDeclRe.FindAllStringSubmatchIndex(stripped, -1) {
		kind := typeKindByKeyword[sub(stripped, m, 2)]
		name := sub(stripped, m, 3)
		bodyStart, bodyEnd := m[1], m[1]
		if stripped[m[1]-1] == '{' {
			bodyStart = m[1]
			bodyEnd = matchBrace(stripped, m[1]-1)
		}
		decls = append(decls, regexDecl{
			node: Node{
				Kind:      kind,
				Name:      name,
				Modifiers: strings.Fields(sub(stripped, m, 1)),
				Line:      lines.lineOf(m[0]),
				EndLine:   lines.lineOf(bodyEnd),
			},
			start:     m[0],
			bodyStart: bodyStart,
			bodyEnd:   bodyEnd,
			nameOff:   m[6],
			baseText:  sub(stripped, m, 4),
		})
	}

	for _, m := range methodDeclRe.FindAllStringSubmatchIndex(stripped, -1) {
		retType := sub(stripped, m, 2)
		if root := identRe.FindString(retType); root == "" || csharpKeywords[root] {
			continue
		}
		bodyStart, bodyEnd := m[1], m[1]
		switch delim := sub(stripped, m, 5); delim {
		case "{":
			bodyEnd = matchBrace(stripped, m[1]-1)
		case "=>":
			bodyEnd = endOfStatement(stripped, m[1])
		}
		decls = append(decls, regexDecl{
			node: Node{
				Kind:      NodeMethod,
				Name:      sub(stripped, m, 3),
				Type:      retType,
				Modifiers: strings.Fields(sub(stripped, m, 1)),
				Line:      lines.lineOf(m[0]),
				EndLine:   lines.lineOf(bodyEnd),
			},
			start:     m[0],
			bodyStart: bodyStart,
			bodyEnd:   bodyEnd,
			nameOff:   m[6],
			paramText: sub(stripped, m, 4),
		})
	}

	for _, m := range propertyDeclRe.FindAllStringSubmatchIndex(stripped, -1) {
		propType := sub(stripped, m, 2)
		if root := identRe.FindString(propType); root == "" || csharpKeywords[root] {
			continue
		}
		bodyStart, bodyEnd := m[1], m[1]
		if strings.HasPrefix(sub(stripped, m, 4), "{") {
			bodyEnd = matchBrace(stripped, m[8])
		} else {
			bodyEnd = endOfStatement(stripped, m[1])
		}
		decls = append(decls, regexDecl{
			node: Node{
				Kind:      NodeProperty,
				Name:      sub(stripped, m, 3),
				Type:      propType,
				Modifiers: strings.Fields(sub(stripped, m, 1)),
				Line:      lines.lineOf(m[0]),
				EndLine:   lines.lineOf(bodyEnd),
			},
			start:     m[0],
			bodyStart: bodyStart,
			bodyEnd:   bodyEnd,
			nameOff:   m[6],
		})
	}

	for _, m := range fieldDeclRe.FindAllStringSubmatchIndex(stripped, -1) {
		fieldType := sub(stripped, m, 2)
		if root := identRe.FindString(fieldType); root == "" || csharpKeywords[root] {
			continue
		}
		var names []string
		for _, n := range strings.Split(sub(stripped, m, 3), ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		decls = append(decls, regexDecl{
			node: Node{
				Kind:      NodeField,
				Type:      fieldType,
				Modifiers: strings.Fields(sub(stripped, m, 1)),
				Line:      lines.lineOf(m[0]),
				EndLine:   lines.lineOf(m[1]),
			},
			start: m[0],
			names: names,
		})
	}

	return decls
}

// collectExprs finds call and object-creation expressions and parents
// them on the innermost enclosing declaration body.
func (r *Regex) collectExprs(stripped string, lines *lineIndex, decls []regexDecl, indexOf []int) []Node {
	skip := make(map[int]bool)
	for _, d := range decls {
		if d.nameOff > 0 {
			skip[d.nameOff] = true
		}
	}

	type expr struct {
		off  int
		node Node
	}
	var exprs []expr

	for _, m := range newExprRe.FindAllStringSubmatchIndex(stripped, -1) {
		typText := sub(stripped, m, 1)
		skip[m[2]] = true
		outer := outerTypeName(typText)
		if outer == "" || predefinedTypes[outer] {
			continue
		}
		line := lines.lineOf(m[0])
		exprs = append(exprs, expr{off: m[0], node: Node{Kind: NodeInvocation, Name: outer, Line: line}})
		for _, id := range typeIdentifiers(typText) {
			if id != outer {
				exprs = append(exprs, expr{off: m[0], node: Node{Kind: NodeTypeRef, Name: id, Line: line}})
			}
		}
	}

	for _, m := range invocationRe.FindAllStringSubmatchIndex(stripped, -1) {
		if skip[m[2]] {
			continue
		}
		callee := calleeText(sub(stripped, m, 1))
		if callee == "" {
			continue
		}
		exprs = append(exprs, expr{off: m[0], node: Node{Kind: NodeInvocation, Name: callee, Line: lines.lineOf(m[0])}})
	}

	sort.SliceStable(exprs, func(i, j int) bool { return exprs[i].off < exprs[j].off })

	var nodes []Node
	for _, e := range exprs {
		e.node.Parent = innermostDecl(decls, indexOf, e.off)
		nodes = append(nodes, e.node)
	}
	return nodes
}

// innermostDecl returns the node index of the smallest declaration body
// containing the offset, or -1.
func innermostDecl(decls []regexDecl, indexOf []int, off int) int {
	best := -1
	bestSize := -1
	for i, d := range decls {
		if d.bodyEnd <= d.bodyStart || off < d.bodyStart || off >= d.bodyEnd {
			continue
		}
		size := d.bodyEnd - d.bodyStart
		if best == -1 || size < bestSize {
			best = indexOf[i]
			bestSize = size
		}
	}
	return best
}

func sub(s string, m []int, group int) string {
	if m[2*group] < 0 {
		return ""
	}
	return s[m[2*group]:m[2*group+1]]
}

// matchBrace returns the offset just past the brace matching the one at
// open, or len(s) when unbalanced.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(s)
}

func endOfStatement(s string, from int) int {
	if i := strings.IndexByte(s[from:], ';'); i >= 0 {
		return from + i + 1
	}
	return len(s)
}

// splitParams splits a parameter list on top-level commas and returns
// the display form plus the declared type names.
func splitParams(paramText string) (string, []string) {
	paramText = strings.TrimSpace(paramText)
	if paramText == "" {
		return "", nil
	}

	var params []string
	var current strings.Builder
	depth := 0
	for _, r := range paramText {
		switch r {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				params = append(params, current.String())
				current.Reset()
				continue
			}
		}
		current.WriteRune(r)
	}
	params = append(params, current.String())

	var display []string
	var typeIDs []string
	seen := make(map[string]bool)
	for _, p := range params {
		if i := topLevelIndex(p, '='); i >= 0 {
			p = p[:i]
		}
		pType, pName := splitTypeAndName(p)
		if pName == "" {
			continue
		}
		if pType != "" {
			display = append(display, CollapseGenerics(pType)+" "+pName)
		} else {
			display = append(display, pName)
		}
		for _, id := range typeIdentifiers(pType) {
			if !seen[id] {
				seen[id] = true
				typeIDs = append(typeIDs, id)
			}
		}
	}
	return joinComma(display), typeIDs
}

// splitTypeAndName splits one parameter at the last whitespace outside
// generic arguments: `Dictionary<string, int> map` gives the full
// generic type and the name.
func splitTypeAndName(param string) (string, string) {
	param = strings.TrimSpace(param)
	depth := 0
	last := -1
	for i, r := range param {
		switch r {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			if depth > 0 {
				depth--
			}
		case ' ', '\t', '\n':
			if depth == 0 {
				last = i
			}
		}
	}
	if last < 0 {
		return "", param
	}
	return strings.TrimSpace(param[:last]), strings.TrimSpace(param[last+1:])
}

func topLevelIndex(s string, target byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			if depth > 0 {
				depth--
			}
		case target:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

type lineIndex struct {
	newlines []int
}

func newLineIndex(s string) *lineIndex {
	var nl []int
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			nl = append(nl, i)
		}
	}
	return &lineIndex{newlines: nl}
}

func (l *lineIndex) lineOf(off int) int {
	lo, hi := 0, len(l.newlines)
	for lo < hi {
		mid := (lo + hi) / 2
		if l.newlines[mid] < off {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo + 1
}

// stripNoise blanks comments and string literals so declaration regexes
// and brace matching never trip on their contents. Newlines survive so
// offsets keep their line numbers.
func stripNoise(src string) string {
	out := []byte(src)
	i := 0
	n := len(src)

	blank := func(from, to int) {
		for j := from; j < to && j < n; j++ {
			if out[j] != '\n' {
				out[j] = ' '
			}
		}
	}

	for i < n {
		c := src[i]
		switch {
		case c == '/' && i+1 < n && src[i+1] == '/':
			j := i
			for j < n && src[j] != '\n' {
				j++
			}
			blank(i, j)
			i = j
		case c == '/' && i+1 < n && src[i+1] == '*':
			j := strings.Index(src[i+2:], "*/")
			end := n
			if j >= 0 {
				end = i + 2 + j + 2
			}
			blank(i, end)
			i = end
		case c == '"':
			verbatim := i > 0 && src[i-1] == '@' || i > 1 && src[i-1] == '$' && src[i-2] == '@'
			j := i + 1
			for j < n {
				if verbatim {
					if src[j] == '"' {
						if j+1 < n && src[j+1] == '"' {
							j += 2
							continue
						}
						break
					}
				} else {
					if src[j] == '\\' {
						j += 2
						continue
					}
					if src[j] == '"' || src[j] == '\n' {
						break
					}
				}
				j++
			}
			if j < n && src[j] == '"' {
				j++
			}
			blank(i, j)
			i = j
		case c == '\'':
			j := i + 1
			for j < n && src[j] != '\'' && src[j] != '\n' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j < n && src[j] == '\'' {
				j++
			}
			blank(i, j)
			i = j
		default:
			i++
		}
	}
	return string(out)
}
