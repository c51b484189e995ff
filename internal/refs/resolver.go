// Package refs resolves the raw references collected during extraction
// into weighted edges over symbol ids.
package refs

import (
	"strings"

	"repomap/internal/graph"
	"repomap/internal/symbols"
)

// Resolution is the outcome of resolving all raw references. Edges are
// deduplicated by (source, target, kind) in first-occurrence order with
// multiplicity accumulated per extra occurrence.
type Resolution struct {
	Edges      []graph.Edge
	Resolved   int
	Unresolved int
}

type edgeKey struct {
	source int
	target int
	kind   graph.EdgeKind
}

type resolver struct {
	table *symbols.Table
	edges []graph.Edge
	index map[edgeKey]int
}

// Resolve maps every raw reference onto declared symbols. Names outside
// the analyzed set resolve to nothing and are dropped; only their
// aggregate count is kept, since most of them point at engine or
// framework types. Self references resolve but produce no edge.
func Resolve(table *symbols.Table, raw []symbols.RawRef) Resolution {
	r := &resolver{table: table, index: make(map[edgeKey]int)}
	var res Resolution
	for _, ref := range raw {
		target, ok := r.resolve(ref)
		if !ok {
			res.Unresolved++
			continue
		}
		res.Resolved++
		r.add(ref.Source, target, ref.Kind)
	}
	res.Edges = r.edges
	return res
}

func (r *resolver) resolve(ref symbols.RawRef) (int, bool) {
	src := r.table.Get(ref.Source)
	switch ref.Kind {
	case graph.EdgeCalls:
		return r.resolveCall(src, ref.Target)
	case graph.EdgeUses, graph.EdgeInherits, graph.EdgeImplements:
		return r.lookup(ref.Target, src.Module, symbols.Kind.IsType)
	}
	return 0, false
}

// resolveCall handles both bare and receiver-qualified callees. A bare
// callee is first looked up as a member of the enclosing type, which
// also covers constructor calls to nested types. For a dotted callee
// the receiver is resolved as a type and the member looked up inside
// it, falling back to the type itself when the member is not declared
// there, and to a global member search when the receiver is a local
// variable or an external type.
func (r *resolver) resolveCall(src *symbols.Symbol, target string) (int, bool) {
	recv, member, dotted := strings.Cut(target, ".")
	if !dotted {
		if owner := r.enclosingType(src); owner != nil {
			if id, ok := r.table.LookupQualified(owner.Qualified + "." + target); ok {
				return id, true
			}
		}
		return r.lookup(target, src.Module, anyKind)
	}
	if tid, ok := r.lookup(recv, src.Module, symbols.Kind.IsType); ok {
		owner := r.table.Get(tid)
		if id, ok := r.table.LookupQualified(owner.Qualified + "." + member); ok {
			return id, true
		}
		return tid, true
	}
	return r.lookup(member, src.Module, anyKind)
}

// lookup implements two-pass name resolution: an exact qualified match
// inside the caller's own module, then a global simple-name search that
// prefers the caller's module and otherwise takes the first declared
// candidate.
func (r *resolver) lookup(name, module string, match func(symbols.Kind) bool) (int, bool) {
	if id, ok := r.table.LookupQualified(qualifiedIn(module, name)); ok && match(r.table.Get(id).Kind) {
		return id, true
	}
	first := -1
	for _, id := range r.table.ByName(name) {
		if !match(r.table.Get(id).Kind) {
			continue
		}
		if r.table.Get(id).Module == module {
			return id, true
		}
		if first < 0 {
			first = id
		}
	}
	return first, first >= 0
}

func (r *resolver) enclosingType(sym *symbols.Symbol) *symbols.Symbol {
	for s := sym; ; s = r.table.Get(s.Owner) {
		if s.Kind.IsType() {
			return s
		}
		if s.Owner < 0 {
			return nil
		}
	}
}

func (r *resolver) add(source, target int, kind graph.EdgeKind) {
	if source == target {
		return
	}
	key := edgeKey{source, target, kind}
	if i, ok := r.index[key]; ok {
		r.edges[i].Multiplicity++
		return
	}
	r.index[key] = len(r.edges)
	r.edges = append(r.edges, graph.Edge{Source: source, Target: target, Kind: kind, Multiplicity: 1})
}

func qualifiedIn(module, name string) string {
	if module == symbols.RootModule {
		return name
	}
	return module + "." + name
}

func anyKind(symbols.Kind) bool { return true }
