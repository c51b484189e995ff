package render

import (
	"fmt"
	"strings"

	"repomap/internal/graph"
)

// Relations renders the L3 layer: the reference neighborhood of each
// ranked symbol. Symbols without edges are skipped; a symbol's whole
// block is the atomic budget unit.
func (r *Renderer) Relations(s Snapshot) string {
	header := fmt.Sprintf("# %s Repo Map (L3)\n\n## Reference Graph\n\n", r.cfg.ProjectName)
	doc := newBudgetDoc(header, r.cfg.Tokens.L3Relations, r.count)

	for _, rs := range s.Ranked.Ranked {
		out := s.Graph.Outgoing(rs.ID)
		in := s.Graph.Incoming(rs.ID)
		if len(out) == 0 && len(in) == 0 {
			continue
		}
		sym := s.Table.Get(rs.ID)

		var b strings.Builder
		fmt.Fprintf(&b, "%s (refs: %d, rank: %s)\n", sym.Qualified, weightSum(in), FormatFloat(rs.Score))
		for i, e := range out {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "  -> %s (%s%s)\n", s.Table.Get(e.Target).Qualified, e.Kind, multSuffix(e.Multiplicity))
		}
		for i, e := range in {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "  <- %s (%s%s)\n", s.Table.Get(e.Source).Qualified, e.Kind, multSuffix(e.Multiplicity))
		}
		b.WriteString("\n")

		if !doc.add(b.String()) {
			break
		}
	}

	return doc.text
}

// weightSum is the total occurrence count behind a set of edges, shown
// as the refs count.
func weightSum(edges []graph.Edge) int {
	total := 0
	for _, e := range edges {
		total += e.Multiplicity
	}
	return total
}

func multSuffix(multiplicity int) string {
	if multiplicity <= 1 {
		return ""
	}
	return fmt.Sprintf(" x%d", multiplicity)
}
