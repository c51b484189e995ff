//go:build !cgo

package parser

import "context"

// TreeSitter parses C# with the tree-sitter grammar.
// This is a stub implementation for non-cgo builds.
type TreeSitter struct{}

func treeSitterAvailable() bool { return false }

func newTreeSitter() Parser { return nil }

// NewTreeSitter creates the tree-sitter backed parser.
// Returns nil when cgo is disabled.
func NewTreeSitter() *TreeSitter {
	return nil
}

func (t *TreeSitter) Name() string { return "tree-sitter" }

// Parse reports ErrUnavailable when cgo is disabled.
func (t *TreeSitter) Parse(ctx context.Context, text string) ([]Node, error) {
	return nil, ErrUnavailable
}
