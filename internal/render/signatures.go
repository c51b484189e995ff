package render

import (
	"fmt"
	"strings"
)

// memberBulletLimit caps how many member lines a type block carries in
// the signature layer.
const memberBulletLimit = 5

// Signatures renders the L2 layer: every ranked type with its declared
// signature and member list, in descending score order. One type block
// is the atomic budget unit; a block that does not fit whole ends the
// layer.
func (r *Renderer) Signatures(s Snapshot) string {
	header := fmt.Sprintf("# %s Repo Map (L2)\n\n", r.cfg.ProjectName)
	doc := newBudgetDoc(header, r.cfg.Tokens.L2Signatures, r.count)

	for _, rs := range s.Ranked.Ranked {
		sym := s.Table.Get(rs.ID)
		if !sym.Kind.IsType() {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "## %s (rank: %s)\n", sym.Qualified, FormatFloat(rs.Score))
		fmt.Fprintf(&b, "%s\n", sym.Signature)
		for i, m := range sym.Members {
			if i == memberBulletLimit {
				break
			}
			fmt.Fprintf(&b, "- %s\n", m.String())
		}
		b.WriteString("\n")

		if !doc.add(b.String()) {
			break
		}
	}

	return doc.text
}
