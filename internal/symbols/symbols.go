// Package symbols builds the symbol table the map is ranked and
// rendered from. Extraction runs per file over parser output; an
// explicit merge step then folds the per-file results into one
// append-only table addressed by integer id.
package symbols

import (
	"strings"
)

// Kind classifies a declared symbol.
type Kind int

const (
	KindClass Kind = iota
	KindInterface
	KindStruct
	KindEnum
	KindMethod
	KindProperty
	KindField
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindMethod:
		return "method"
	case KindProperty:
		return "property"
	case KindField:
		return "field"
	}
	return "unknown"
}

// IsType reports whether the kind declares a type rather than a member.
func (k Kind) IsType() bool {
	switch k {
	case KindClass, KindInterface, KindStruct, KindEnum:
		return true
	}
	return false
}

// MemberSig is one renderable member signature on a type symbol.
// Presentation data only; resolution never reads it.
type MemberSig struct {
	Kind      Kind
	Name      string
	Params    string
	Return    string
	Modifiers []string
}

func (m MemberSig) String() string {
	var b strings.Builder
	for _, mod := range m.Modifiers {
		b.WriteString(mod)
		b.WriteByte(' ')
	}
	if m.Return != "" {
		b.WriteString(m.Return)
		b.WriteByte(' ')
	}
	b.WriteString(m.Name)
	if m.Kind == KindMethod {
		b.WriteByte('(')
		b.WriteString(m.Params)
		b.WriteByte(')')
	}
	return b.String()
}

// Symbol is one declared entity. Symbols are created during extraction
// and never modified after the merge; importance scores live in the
// ranker's output, not here.
type Symbol struct {
	ID        int
	Name      string
	Qualified string
	Kind      Kind
	File      string
	Line      int
	EndLine   int
	Module    string
	Category  string
	Owner     int // enclosing symbol id, -1 at top level
	Modifiers []string
	Signature string      // display signature, member symbols only
	Members   []MemberSig // renderable members, type symbols only
}

// Table is the append-only symbol arena. Ids are indices into the
// arena, so edge endpoints and ranked entries address symbols without
// holding references.
type Table struct {
	symbols     []Symbol
	byKey       map[string]int   // qualified + kind, the identity key
	byQualified map[string]int   // first symbol declared per qualified name
	byName      map[string][]int // simple name, in declaration order
}

func NewTable() *Table {
	return &Table{
		byKey:       make(map[string]int),
		byQualified: make(map[string]int),
		byName:      make(map[string][]int),
	}
}

func (t *Table) Len() int { return len(t.symbols) }

// Get returns the symbol with the given id. The pointer aliases the
// arena; treat it as read-only.
func (t *Table) Get(id int) *Symbol { return &t.symbols[id] }

// All returns the arena in id order. Callers must not modify it.
func (t *Table) All() []Symbol { return t.symbols }

// LookupQualified returns the id of the first symbol declared with the
// given qualified name.
func (t *Table) LookupQualified(qualified string) (int, bool) {
	id, ok := t.byQualified[qualified]
	return id, ok
}

// ByName returns the ids of all symbols sharing a simple name, in
// declaration order.
func (t *Table) ByName(name string) []int { return t.byName[name] }

// Names returns the display name per id, aligned with the arena.
func (t *Table) Names() []string {
	names := make([]string, len(t.symbols))
	for i, s := range t.symbols {
		names[i] = s.Name
	}
	return names
}

// Modules returns the distinct module labels in first-seen order.
func (t *Table) Modules() []string {
	var modules []string
	seen := make(map[string]bool)
	for _, s := range t.symbols {
		if !seen[s.Module] {
			seen[s.Module] = true
			modules = append(modules, s.Module)
		}
	}
	return modules
}
