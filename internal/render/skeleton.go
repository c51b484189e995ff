package render

import (
	"fmt"
	"sort"
	"strings"

	"repomap/internal/symbols"
)

const entryTableLimit = 20

// Skeleton renders the L1 layer: per-category module summaries followed
// by a table of the top ranked entry types. Categories are ordered by
// type count descending, modules inside a category by accumulated
// score. Each category section and each table row is one budget unit.
func (r *Renderer) Skeleton(s Snapshot) string {
	var hdr strings.Builder
	fmt.Fprintf(&hdr, "# %s Repo Map (L1)\n", r.cfg.ProjectName)
	fmt.Fprintf(&hdr, "> Generated: %s | Commit: %s\n\n", s.Date.Format("2006-01-02"), shortCommit(s.Commit))
	fmt.Fprintf(&hdr, "## Module Overview (%d modules)\n\n", len(s.Table.Modules()))

	doc := newBudgetDoc(hdr.String(), r.cfg.Tokens.L1Skeleton, r.count)

	for _, cat := range r.categorize(s) {
		var sec strings.Builder
		fmt.Fprintf(&sec, "### %s\n", cat.name)
		for i, m := range cat.modules {
			if i == 10 {
				break
			}
			fmt.Fprintf(&sec, "- %s (%d classes)\n", moduleLabel(m.name), m.count)
		}
		sec.WriteString("\n")
		if !doc.add(sec.String()) {
			break
		}
	}

	var entries []symbols.Symbol
	for _, rs := range s.Ranked.Ranked {
		if sym := s.Table.Get(rs.ID); sym.Kind.IsType() {
			entries = append(entries, *sym)
			if len(entries) == entryTableLimit {
				break
			}
		}
	}
	if len(entries) > 0 {
		head := "### Core Entry Classes\n" +
			"| Module | Entry Class | Key Methods | Role |\n" +
			"|--------|-------------|-------------|------|\n"
		if doc.add(head) {
			for _, sym := range entries {
				row := fmt.Sprintf("| %s | %s | %s | %s, highly referenced |\n",
					sym.Module, sym.Name, keyMethods(sym), sym.Category)
				if !doc.add(row) {
					break
				}
			}
		}
	}

	return doc.text
}

type categoryGroup struct {
	name    string
	count   int
	modules []*moduleGroup
}

type moduleGroup struct {
	name  string
	count int
	score float64
}

// categorize buckets type symbols by category and module in arena
// order, then sorts for display. Ties fall back to names so the layout
// is stable across runs.
func (r *Renderer) categorize(s Snapshot) []categoryGroup {
	var cats []categoryGroup
	catIdx := make(map[string]int)

	for _, sym := range s.Table.All() {
		if !sym.Kind.IsType() {
			continue
		}
		ci, ok := catIdx[sym.Category]
		if !ok {
			ci = len(cats)
			catIdx[sym.Category] = ci
			cats = append(cats, categoryGroup{name: sym.Category})
		}
		cat := &cats[ci]
		cat.count++

		var mod *moduleGroup
		for _, m := range cat.modules {
			if m.name == sym.Module {
				mod = m
				break
			}
		}
		if mod == nil {
			mod = &moduleGroup{name: sym.Module}
			cat.modules = append(cat.modules, mod)
		}
		mod.count++
		mod.score += s.Ranked.Scores[sym.ID]
	}

	sort.Slice(cats, func(i, j int) bool {
		if cats[i].count != cats[j].count {
			return cats[i].count > cats[j].count
		}
		return cats[i].name < cats[j].name
	})
	for _, cat := range cats {
		mods := cat.modules
		sort.Slice(mods, func(i, j int) bool {
			if mods[i].score != mods[j].score {
				return mods[i].score > mods[j].score
			}
			return mods[i].name < mods[j].name
		})
	}
	return cats
}

func moduleLabel(module string) string {
	if module == symbols.RootModule {
		return module
	}
	return strings.ReplaceAll(module, ".", "/") + "/"
}

// keyMethods lists up to three method names from the displayed member
// signatures.
func keyMethods(sym symbols.Symbol) string {
	var names []string
	for _, m := range sym.Members {
		if m.Kind != symbols.KindMethod {
			continue
		}
		names = append(names, m.Name)
		if len(names) == 3 {
			break
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
