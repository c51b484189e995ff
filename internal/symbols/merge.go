package symbols

// Merge folds per-file extraction results into a single table,
// remapping symbol owners and reference sources to global ids. Results
// must arrive in sorted file order; identity is qualified name plus
// kind, so partial declarations of the same type collapse into one
// symbol whose member list is the union and whose declaring file is the
// first encountered.
func Merge(results []FileResult) (*Table, []RawRef) {
	t := NewTable()
	var refs []RawRef

	for _, res := range results {
		remap := make([]int, len(res.Symbols))
		for i, sym := range res.Symbols {
			// Owners precede their members within a file result.
			if sym.Owner >= 0 {
				sym.Owner = remap[sym.Owner]
			}
			remap[i] = t.merge(sym)
		}
		for _, ref := range res.Refs {
			ref.Source = remap[ref.Source]
			refs = append(refs, ref)
		}
	}

	return t, refs
}

func (t *Table) merge(sym Symbol) int {
	key := sym.Qualified + "\x00" + sym.Kind.String()
	if id, ok := t.byKey[key]; ok {
		t.symbols[id].Members = unionMembers(t.symbols[id].Members, sym.Members)
		return id
	}

	sym.ID = len(t.symbols)
	t.symbols = append(t.symbols, sym)
	t.byKey[key] = sym.ID
	if _, ok := t.byQualified[sym.Qualified]; !ok {
		t.byQualified[sym.Qualified] = sym.ID
	}
	t.byName[sym.Name] = append(t.byName[sym.Name], sym.ID)
	return sym.ID
}

// unionMembers appends incoming members in order, dropping any whose
// rendered signature already appears. Re-parses of the same declaration
// must not double the member list.
func unionMembers(have, incoming []MemberSig) []MemberSig {
	if len(incoming) == 0 {
		return have
	}
	seen := make(map[string]bool, len(have))
	for _, m := range have {
		seen[m.String()] = true
	}
	for _, m := range incoming {
		if seen[m.String()] {
			continue
		}
		seen[m.String()] = true
		have = append(have, m)
	}
	return have
}
