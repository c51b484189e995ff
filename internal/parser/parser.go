// Package parser turns C# source text into a flat sequence of typed nodes.
//
// Two implementations share the contract: a tree-sitter grammar (cgo
// builds) and a regex fallback that is always available. Both are
// side-effect-free and parse files independently, so callers may parse
// in parallel.
package parser

import (
	"context"
	"errors"
	"log/slog"
)

// ErrUnavailable is returned by parser constructors whose backing
// implementation was not compiled in.
var ErrUnavailable = errors.New("parser: tree-sitter support requires cgo")

// NodeKind identifies what a parse node represents. The set is closed;
// consumers switch exhaustively over it.
type NodeKind int

const (
	NodeClass NodeKind = iota
	NodeInterface
	NodeStruct
	NodeEnum
	NodeMethod
	NodeProperty
	NodeField
	NodeBaseType
	NodeInvocation
	NodeTypeRef
	NodeIdentifier
	NodeError
)

func (k NodeKind) String() string {
	switch k {
	case NodeClass:
		return "class"
	case NodeInterface:
		return "interface"
	case NodeStruct:
		return "struct"
	case NodeEnum:
		return "enum"
	case NodeMethod:
		return "method"
	case NodeProperty:
		return "property"
	case NodeField:
		return "field"
	case NodeBaseType:
		return "base_type"
	case NodeInvocation:
		return "invocation"
	case NodeTypeRef:
		return "type_ref"
	case NodeIdentifier:
		return "identifier"
	case NodeError:
		return "error"
	default:
		return "unknown"
	}
}

// Node is one element of a file's flat parse result.
//
// Field use by kind:
//   - declarations (class, interface, struct, enum, method, property,
//     field): Name is the declared name, Type the return or value type,
//     Params the method parameter list, Modifiers the declared modifiers.
//   - base_type: Name is the base entry with generics collapsed to <T>.
//   - invocation: Name is the normalized callee, at most `receiver.name`.
//   - type_ref: Name is a single referenced type name.
//   - identifier: Name is a member access outside call position.
//
// Parent is the index of the enclosing declaration node within the same
// slice, or -1 at file level. Error-marked regions yield an error node
// and are otherwise skipped.
type Node struct {
	Kind      NodeKind
	Name      string
	Type      string
	Params    string
	Modifiers []string
	Line      int
	EndLine   int
	Parent    int
}

// IsDeclaration reports whether the node declares a symbol.
func (n Node) IsDeclaration() bool {
	switch n.Kind {
	case NodeClass, NodeInterface, NodeStruct, NodeEnum, NodeMethod, NodeProperty, NodeField:
		return true
	case NodeBaseType, NodeInvocation, NodeTypeRef, NodeIdentifier, NodeError:
		return false
	default:
		return false
	}
}

// IsType reports whether the node declares a type.
func (n Node) IsType() bool {
	switch n.Kind {
	case NodeClass, NodeInterface, NodeStruct, NodeEnum:
		return true
	default:
		return false
	}
}

// HasModifier reports whether the declaration carries the modifier.
func (n Node) HasModifier(mod string) bool {
	for _, m := range n.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// Parser turns one file's text into its node sequence.
type Parser interface {
	Name() string
	Parse(ctx context.Context, text string) ([]Node, error)
}

// New returns the tree-sitter parser when available and falls back to
// the regex parser otherwise, mirroring how analysis degrades when the
// grammar is not compiled in.
func New(logger *slog.Logger) Parser {
	if treeSitterAvailable() {
		return newTreeSitter()
	}
	logger.Warn("tree-sitter unavailable, falling back to regex parsing")
	return NewRegex()
}
