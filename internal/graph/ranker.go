package graph

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"repomap/internal/config"
)

// RankedSymbol is one symbol's final position in the importance order.
type RankedSymbol struct {
	ID    int
	Score float64
	Rank  int // 1-based position
}

// Result carries the full ranking outcome plus convergence metadata.
type Result struct {
	Ranked     []RankedSymbol
	Scores     []float64 // indexed by symbol id
	Iterations int
	Converged  bool
}

// Rank runs a PageRank-style power iteration over the reference graph.
// Importance flows from a referencing symbol to the symbols it
// references, so heavily referenced symbols accumulate score. Sink
// symbols spread their mass uniformly across all symbols, keeping total
// mass at 1. After the iteration each matching boost rule multiplies
// into its symbol's score and the vector is renormalized.
//
// names supplies the display name per symbol id for boost matching. The
// config must have passed validation; Rank applies no defaults.
func Rank(g *Graph, names []string, cfg config.RankConfig, boosts []config.BoostRule) Result {
	n := g.NumNodes()
	if n == 0 {
		return Result{Converged: true}
	}

	damping := cfg.Damping

	// Total outgoing weight per source, for normalizing distributions.
	outWeight := make([]float64, n)
	for _, e := range g.Edges() {
		outWeight[e.Source] += float64(e.Multiplicity)
	}

	scores := make([]float64, n)
	next := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}

	var iterations int
	var converged bool
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		iterations = iter + 1

		sinkMass := 0.0
		for i, w := range outWeight {
			if w == 0 {
				sinkMass += scores[i]
			}
		}
		base := (1-damping)/float64(n) + damping*sinkMass/float64(n)
		for i := range next {
			next[i] = base
		}
		for _, e := range g.Edges() {
			next[e.Target] += damping * scores[e.Source] * float64(e.Multiplicity) / outWeight[e.Source]
		}

		// L1 distance between successive vectors.
		delta := 0.0
		for i := range next {
			delta += abs(next[i] - scores[i])
		}
		scores, next = next, scores

		if delta < cfg.Tolerance {
			converged = true
			break
		}
	}

	applyBoosts(scores, names, boosts)

	ranked := make([]RankedSymbol, n)
	for i, s := range scores {
		ranked[i] = RankedSymbol{ID: i, Score: s}
	}
	// Ties break on id so the order is identical across runs.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return Result{
		Ranked:     ranked,
		Scores:     scores,
		Iterations: iterations,
		Converged:  converged,
	}
}

// applyBoosts multiplies each symbol's score by the product of its
// matching rules' factors, then renormalizes the vector to sum to 1.
func applyBoosts(scores []float64, names []string, boosts []config.BoostRule) {
	if len(boosts) == 0 {
		return
	}
	for i := range scores {
		if i >= len(names) {
			break
		}
		factor := 1.0
		for _, rule := range boosts {
			if matchesBoost(rule, names[i]) {
				factor *= rule.Boost
			}
		}
		scores[i] *= factor
	}

	total := 0.0
	for _, s := range scores {
		total += s
	}
	if total <= 0 {
		return
	}
	for i := range scores {
		scores[i] /= total
	}
}

func matchesBoost(rule config.BoostRule, name string) bool {
	switch rule.Match {
	case config.MatchPrefix:
		// The prefix must end on a PascalCase boundary, so a pattern of
		// "S" picks up SGameService but not Sprite.
		if !strings.HasPrefix(name, rule.Pattern) || len(name) <= len(rule.Pattern) {
			return false
		}
		r, _ := utf8.DecodeRuneInString(name[len(rule.Pattern):])
		return unicode.IsUpper(r)
	case config.MatchSuffix:
		return strings.HasSuffix(name, rule.Pattern)
	}
	return false
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
