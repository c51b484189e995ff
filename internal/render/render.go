// Package render formats the ranked symbol graph into the three
// token-budgeted map layers.
package render

import (
	"time"

	"repomap/internal/config"
	"repomap/internal/graph"
	"repomap/internal/symbols"
)

// TokenCounter measures text against a layer budget. Callers can plug
// in a precise tokenizer; ApproxTokens is the default.
type TokenCounter func(text string) int

// ApproxTokens estimates tokens at four characters apiece.
func ApproxTokens(text string) int { return len(text) / 4 }

// Snapshot is the immutable pipeline state the renderer reads: the
// merged symbol table, the resolved reference graph and the ranking
// over it. Date and Commit only feed the document headers.
type Snapshot struct {
	Table  *symbols.Table
	Graph  *graph.Graph
	Ranked *graph.Result
	Commit string
	Date   time.Time
}

// Renderer produces the three map layers under the configured token
// budgets.
type Renderer struct {
	cfg   *config.Config
	count TokenCounter
}

// New creates a renderer. A nil counter falls back to ApproxTokens.
func New(cfg *config.Config, count TokenCounter) *Renderer {
	if count == nil {
		count = ApproxTokens
	}
	return &Renderer{cfg: cfg, count: count}
}

// budgetDoc accumulates a document from atomic units under a token
// budget. The header is always written; each later unit is measured
// together with the accumulated text and rejected when it would push
// the document over budget.
type budgetDoc struct {
	text   string
	budget int
	count  TokenCounter
}

func newBudgetDoc(header string, budget int, count TokenCounter) *budgetDoc {
	return &budgetDoc{text: header, budget: budget, count: count}
}

// add appends the unit when it fits. A false return means the layer is
// full and greedy selection stops.
func (d *budgetDoc) add(unit string) bool {
	if d.count(d.text+unit) > d.budget {
		return false
	}
	d.text += unit
	return true
}

func shortCommit(commit string) string {
	if commit == "" {
		return "unknown"
	}
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
