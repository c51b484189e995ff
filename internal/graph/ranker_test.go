package graph

import (
	"math"
	"testing"

	"repomap/internal/config"
)

func rankConfig() config.RankConfig {
	return config.DefaultConfig().Rank
}

func sum(scores []float64) float64 {
	total := 0.0
	for _, s := range scores {
		total += s
	}
	return total
}

func rankOf(res Result, id int) int {
	for _, r := range res.Ranked {
		if r.ID == id {
			return r.Rank
		}
	}
	return -1
}

func TestRank_Empty(t *testing.T) {
	res := Rank(New(0, nil), nil, rankConfig(), nil)
	if len(res.Ranked) != 0 || len(res.Scores) != 0 {
		t.Fatalf("empty graph ranked = %v", res.Ranked)
	}
	if !res.Converged {
		t.Error("empty graph should report converged")
	}
}

func TestRank_ScoresSumToOne(t *testing.T) {
	edges := []Edge{
		{Source: 0, Target: 1, Kind: EdgeCalls, Multiplicity: 2},
		{Source: 0, Target: 2, Kind: EdgeUses, Multiplicity: 1},
		{Source: 3, Target: 1, Kind: EdgeCalls, Multiplicity: 1},
		{Source: 4, Target: 0, Kind: EdgeInherits, Multiplicity: 1},
	}
	res := Rank(New(5, edges), make([]string, 5), rankConfig(), nil)

	if got := sum(res.Scores); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("score sum = %v, want 1.0", got)
	}
	if !res.Converged {
		t.Errorf("did not converge in %d iterations", res.Iterations)
	}
}

func TestRank_ReferencedOutranksReferencer(t *testing.T) {
	// Alpha(0) owns Foo(1), Beta(2) owns Bar(3); Foo calls Bar.
	edges := []Edge{
		{Source: 1, Target: 3, Kind: EdgeCalls, Multiplicity: 1},
	}
	res := Rank(New(4, edges), make([]string, 4), rankConfig(), nil)

	if res.Scores[3] <= res.Scores[1] {
		t.Errorf("called method score %v <= caller score %v", res.Scores[3], res.Scores[1])
	}
	if res.Scores[2] < res.Scores[0] {
		t.Errorf("Beta score %v < Alpha score %v", res.Scores[2], res.Scores[0])
	}
	if got := sum(res.Scores); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("score sum = %v, want 1.0", got)
	}
}

func TestRank_SinksPreserveMass(t *testing.T) {
	// No edges at all: every symbol is a sink.
	res := Rank(New(4, nil), make([]string, 4), rankConfig(), nil)

	if got := sum(res.Scores); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("score sum = %v, want 1.0", got)
	}
	for i, s := range res.Scores {
		if math.Abs(s-0.25) > 1e-9 {
			t.Errorf("score[%d] = %v, want uniform 0.25", i, s)
		}
	}
}

func TestRank_MultiplicityWeighting(t *testing.T) {
	edges := []Edge{
		{Source: 0, Target: 1, Kind: EdgeCalls, Multiplicity: 3},
		{Source: 0, Target: 2, Kind: EdgeCalls, Multiplicity: 1},
	}
	res := Rank(New(3, edges), make([]string, 3), rankConfig(), nil)

	if res.Scores[1] <= res.Scores[2] {
		t.Errorf("heavier edge target %v <= lighter target %v", res.Scores[1], res.Scores[2])
	}
}

func TestRank_TieBreakByID(t *testing.T) {
	res := Rank(New(3, nil), make([]string, 3), rankConfig(), nil)

	for i, r := range res.Ranked {
		if r.ID != i || r.Rank != i+1 {
			t.Errorf("ranked[%d] = id %d rank %d, want id %d rank %d", i, r.ID, r.Rank, i, i+1)
		}
	}
}

func TestRank_IterationCap(t *testing.T) {
	cfg := rankConfig()
	cfg.MaxIterations = 1
	cfg.Tolerance = 1e-300

	edges := []Edge{{Source: 0, Target: 1, Kind: EdgeCalls, Multiplicity: 1}}
	res := Rank(New(2, edges), make([]string, 2), cfg, nil)

	if res.Converged {
		t.Error("one iteration should not converge")
	}
	if res.Iterations != 1 {
		t.Errorf("iterations = %d, want 1", res.Iterations)
	}
	if got := sum(res.Scores); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("score sum = %v, want 1.0 even without convergence", got)
	}
}

func TestApplyBoosts(t *testing.T) {
	scores := []float64{0.5, 0.5}
	names := []string{"GameManager", "Player"}
	boosts := []config.BoostRule{
		{Match: config.MatchSuffix, Pattern: "Manager", Boost: 1.5},
	}

	applyBoosts(scores, names, boosts)

	if math.Abs(scores[0]-0.6) > 1e-9 {
		t.Errorf("boosted score = %v, want 0.6", scores[0])
	}
	if math.Abs(scores[1]-0.4) > 1e-9 {
		t.Errorf("unboosted score = %v, want 0.4", scores[1])
	}
	if got := sum(scores); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("score sum after boost = %v, want 1.0", got)
	}
}

func TestApplyBoosts_ProductOfMatchingRules(t *testing.T) {
	scores := []float64{0.5, 0.5}
	names := []string{"GameManager", "Player"}
	boosts := []config.BoostRule{
		{Match: config.MatchSuffix, Pattern: "Manager", Boost: 1.5},
		{Match: config.MatchPrefix, Pattern: "Game", Boost: 2.0},
	}

	applyBoosts(scores, names, boosts)

	// Factor 3.0 against 1.0: 1.5/2.0 after renormalization.
	if math.Abs(scores[0]-0.75) > 1e-9 {
		t.Errorf("double-boosted score = %v, want 0.75", scores[0])
	}
}

func TestMatchesBoost_PrefixNeedsCaseBoundary(t *testing.T) {
	rule := config.BoostRule{Match: config.MatchPrefix, Pattern: "S", Boost: 2.0}

	for name, want := range map[string]bool{
		"SGameService": true,
		"SUI":          true,
		"Sprite":       false, // lowercase after the prefix
		"S":            false, // nothing after the prefix
		"Player":       false,
	} {
		if got := matchesBoost(rule, name); got != want {
			t.Errorf("matchesBoost(S, %q) = %v, want %v", name, got, want)
		}
	}
}

func TestRank_BoostRaisesRank(t *testing.T) {
	// Player is referenced twice, GameManager once: Player ranks higher
	// until the suffix boost flips the order.
	names := []string{"Player", "GameManager", "Enemy"}
	edges := []Edge{
		{Source: 2, Target: 0, Kind: EdgeCalls, Multiplicity: 2},
		{Source: 2, Target: 1, Kind: EdgeCalls, Multiplicity: 1},
	}

	plain := Rank(New(3, edges), names, rankConfig(), nil)
	if rankOf(plain, 0) >= rankOf(plain, 1) {
		t.Fatalf("precondition failed: Player rank %d, GameManager rank %d", rankOf(plain, 0), rankOf(plain, 1))
	}

	boosted := Rank(New(3, edges), names, rankConfig(), []config.BoostRule{
		{Match: config.MatchSuffix, Pattern: "Manager", Boost: 5.0},
	})
	if rankOf(boosted, 1) >= rankOf(boosted, 0) {
		t.Errorf("GameManager rank %d not above Player rank %d after boost", rankOf(boosted, 1), rankOf(boosted, 0))
	}
	if boosted.Scores[1] <= plain.Scores[1] {
		t.Errorf("boosted score %v <= unboosted %v", boosted.Scores[1], plain.Scores[1])
	}
	if got := sum(boosted.Scores); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("score sum after boost = %v, want 1.0", got)
	}
}
