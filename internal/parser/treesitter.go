//go:build cgo

package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// TreeSitter parses C# with the tree-sitter grammar.
type TreeSitter struct{}

func treeSitterAvailable() bool { return true }

func newTreeSitter() Parser { return NewTreeSitter() }

// NewTreeSitter creates the tree-sitter backed parser.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{}
}

func (t *TreeSitter) Name() string { return "tree-sitter" }

// Parse produces the node sequence for one file. A sitter.Parser is not
// safe for concurrent use, so each call builds its own.
func (t *TreeSitter) Parse(ctx context.Context, text string) ([]Node, error) {
	p := sitter.NewParser()
	p.SetLanguage(csharp.GetLanguage())

	src := []byte(text)
	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}

	w := &tsWalker{src: src}
	w.walk(tree.RootNode(), -1)
	return w.nodes, nil
}

type tsWalker struct {
	src   []byte
	nodes []Node
}

func (w *tsWalker) add(n Node) int {
	w.nodes = append(w.nodes, n)
	return len(w.nodes) - 1
}

func (w *tsWalker) text(n *sitter.Node) string {
	return string(w.src[n.StartByte():n.EndByte()])
}

func (w *tsWalker) fieldText(n *sitter.Node, field string) string {
	if c := n.ChildByFieldName(field); c != nil {
		return w.text(c)
	}
	return ""
}

func startLine(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }
func endLine(n *sitter.Node) int   { return int(n.EndPoint().Row) + 1 }

func (w *tsWalker) walk(n *sitter.Node, parent int) {
	switch n.Type() {
	case "class_declaration", "record_declaration":
		w.typeDecl(n, parent, NodeClass)
	case "interface_declaration":
		w.typeDecl(n, parent, NodeInterface)
	case "struct_declaration":
		w.typeDecl(n, parent, NodeStruct)
	case "enum_declaration":
		w.typeDecl(n, parent, NodeEnum)
	case "base_list":
		w.baseList(n, parent)
	case "method_declaration":
		w.methodDecl(n, parent)
	case "property_declaration":
		w.propertyDecl(n, parent)
	case "field_declaration":
		w.fieldDecl(n, parent)
	case "invocation_expression":
		w.invocation(n, parent)
	case "member_access_expression":
		w.memberAccess(n, parent)
	case "object_creation_expression":
		w.objectCreation(n, parent)
	case "ERROR":
		// Malformed region: mark it and skip its contents.
		w.add(Node{Kind: NodeError, Line: startLine(n), EndLine: endLine(n), Parent: parent})
	default:
		w.walkChildren(n, parent)
	}
}

func (w *tsWalker) walkChildren(n *sitter.Node, parent int) {
	for i := uint32(0); i < n.ChildCount(); i++ {
		if c := n.Child(int(i)); c != nil {
			w.walk(c, parent)
		}
	}
}

func (w *tsWalker) modifiers(n *sitter.Node) []string {
	var mods []string
	for i := uint32(0); i < n.ChildCount(); i++ {
		c := n.Child(int(i))
		if c != nil && c.Type() == "modifier" {
			mods = append(mods, w.text(c))
		}
	}
	return mods
}

func (w *tsWalker) typeDecl(n *sitter.Node, parent int, kind NodeKind) {
	name := w.fieldText(n, "name")
	if name == "" {
		w.walkChildren(n, parent)
		return
	}
	idx := w.add(Node{
		Kind:      kind,
		Name:      name,
		Modifiers: w.modifiers(n),
		Line:      startLine(n),
		EndLine:   endLine(n),
		Parent:    parent,
	})
	w.walkChildren(n, idx)
}

func (w *tsWalker) baseList(n *sitter.Node, parent int) {
	for i := uint32(0); i < n.ChildCount(); i++ {
		c := n.Child(int(i))
		if c == nil || !c.IsNamed() {
			continue
		}
		text := w.text(c)
		if c.Type() == "primary_constructor_base_type" {
			text = w.fieldText(c, "type")
		}
		for _, base := range splitBaseList(text) {
			w.add(Node{
				Kind:   NodeBaseType,
				Name:   base,
				Line:   startLine(c),
				Parent: parent,
			})
		}
	}
}

func (w *tsWalker) methodDecl(n *sitter.Node, parent int) {
	name := w.fieldText(n, "name")
	if name == "" {
		return
	}
	retType := w.fieldText(n, "type")
	params, paramTypes := w.parameters(n.ChildByFieldName("parameters"))

	idx := w.add(Node{
		Kind:      NodeMethod,
		Name:      name,
		Type:      retType,
		Params:    params,
		Modifiers: w.modifiers(n),
		Line:      startLine(n),
		EndLine:   endLine(n),
		Parent:    parent,
	})
	for _, id := range paramTypes {
		w.add(Node{Kind: NodeTypeRef, Name: id, Line: startLine(n), Parent: idx})
	}
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body, idx)
	}
	for i := uint32(0); i < n.ChildCount(); i++ {
		c := n.Child(int(i))
		if c != nil && c.Type() == "arrow_expression_clause" {
			w.walk(c, idx)
		}
	}
}

// parameters renders a parameter list for display and collects the
// declared type names it references.
func (w *tsWalker) parameters(list *sitter.Node) (string, []string) {
	if list == nil {
		return "", nil
	}
	var display []string
	var typeIDs []string
	seen := make(map[string]bool)

	for i := uint32(0); i < list.ChildCount(); i++ {
		c := list.Child(int(i))
		if c == nil || c.Type() != "parameter" {
			continue
		}
		pType := w.fieldText(c, "type")
		pName := w.fieldText(c, "name")
		switch {
		case pType != "" && pName != "":
			display = append(display, CollapseGenerics(pType)+" "+pName)
		case pName != "":
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

func (w *tsWalker) propertyDecl(n *sitter.Node, parent int) {
	name := w.fieldText(n, "name")
	if name == "" {
		return
	}
	propType := w.fieldText(n, "type")
	idx := w.add(Node{
		Kind:      NodeProperty,
		Name:      name,
		Type:      propType,
		Modifiers: w.modifiers(n),
		Line:      startLine(n),
		EndLine:   endLine(n),
		Parent:    parent,
	})
	for _, id := range typeIdentifiers(propType) {
		w.add(Node{Kind: NodeTypeRef, Name: id, Line: startLine(n), Parent: idx})
	}
	// Accessor bodies can carry calls.
	for i := uint32(0); i < n.ChildCount(); i++ {
		c := n.Child(int(i))
		if c != nil && (c.Type() == "accessor_list" || c.Type() == "arrow_expression_clause") {
			w.walk(c, idx)
		}
	}
}

func (w *tsWalker) fieldDecl(n *sitter.Node, parent int) {
	var decl *sitter.Node
	for i := uint32(0); i < n.ChildCount(); i++ {
		c := n.Child(int(i))
		if c != nil && c.Type() == "variable_declaration" {
			decl = c
			break
		}
	}
	if decl == nil {
		return
	}
	fieldType := w.fieldText(decl, "type")
	mods := w.modifiers(n)
	first := -1

	for i := uint32(0); i < decl.ChildCount(); i++ {
		c := decl.Child(int(i))
		if c == nil || c.Type() != "variable_declarator" {
			continue
		}
		name := w.fieldText(c, "name")
		if name == "" {
			name = w.firstIdentifier(c)
		}
		if name == "" {
			continue
		}
		idx := w.add(Node{
			Kind:      NodeField,
			Name:      name,
			Type:      fieldType,
			Modifiers: mods,
			Line:      startLine(c),
			EndLine:   endLine(c),
			Parent:    parent,
		})
		if first == -1 {
			first = idx
		}
	}
	if first == -1 {
		return
	}
	for _, id := range typeIdentifiers(fieldType) {
		w.add(Node{Kind: NodeTypeRef, Name: id, Line: startLine(n), Parent: first})
	}
	// Walk initializers for nested calls.
	w.walkChildren(decl, first)
}

func (w *tsWalker) firstIdentifier(n *sitter.Node) string {
	for i := uint32(0); i < n.ChildCount(); i++ {
		c := n.Child(int(i))
		if c != nil && c.Type() == "identifier" {
			return w.text(c)
		}
	}
	return ""
}

func (w *tsWalker) invocation(n *sitter.Node, parent int) {
	fn := n.ChildByFieldName("function")
	if fn != nil {
		if callee := calleeText(w.text(fn)); callee != "" {
			w.add(Node{
				Kind:   NodeInvocation,
				Name:   callee,
				Line:   startLine(n),
				Parent: parent,
			})
		}
		w.consumeCallee(fn, parent)
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		w.walk(args, parent)
	}
}

// consumeCallee descends a callee chain without re-emitting the member
// accesses that are part of the callee itself. Nested invocations inside
// the receiver are still independent references.
func (w *tsWalker) consumeCallee(fn *sitter.Node, parent int) {
	switch fn.Type() {
	case "member_access_expression":
		if obj := fn.ChildByFieldName("expression"); obj != nil {
			w.consumeCallee(obj, parent)
		}
	case "identifier", "generic_name", "this_expression", "base_expression":
		// Leaf of the callee chain.
	default:
		w.walk(fn, parent)
	}
}

func (w *tsWalker) memberAccess(n *sitter.Node, parent int) {
	if name := calleeText(w.text(n)); name != "" {
		w.add(Node{
			Kind:   NodeIdentifier,
			Name:   name,
			Line:   startLine(n),
			Parent: parent,
		})
	}
	if obj := n.ChildByFieldName("expression"); obj != nil {
		w.consumeCallee(obj, parent)
	}
}

func (w *tsWalker) objectCreation(n *sitter.Node, parent int) {
	typeText := w.fieldText(n, "type")
	if outer := outerTypeName(typeText); outer != "" {
		w.add(Node{
			Kind:   NodeInvocation,
			Name:   outer,
			Line:   startLine(n),
			Parent: parent,
		})
		// Generic arguments of the constructed type are used types.
		for _, id := range typeIdentifiers(typeText) {
			if id == outer {
				continue
			}
			w.add(Node{Kind: NodeTypeRef, Name: id, Line: startLine(n), Parent: parent})
		}
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		w.walk(args, parent)
	}
	if init := n.ChildByFieldName("initializer"); init != nil {
		w.walk(init, parent)
	}
}
