package gnd

import (
	"context"
	"testing"

	"github.com/matzehuels/dismantle/pkg/dismantle"
	"github.com/matzehuels/dismantle/pkg/errors"
	"github.com/matzehuels/dismantle/pkg/graph"
)

func buildGraph(t *testing.T, edges []graph.Edge) *graph.Graph {
	t.Helper()
	g, err := graph.Build(edges)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g
}

func pathGraph(t *testing.T, n int) *graph.Graph {
	t.Helper()
	edges := make([]graph.Edge, 0, n-1)
	for i := 0; i < n-1; i++ {
		edges = append(edges, graph.Edge{U: i, V: i + 1})
	}
	return buildGraph(t, edges)
}

func cliqueGraph(t *testing.T, n int) *graph.Graph {
	t.Helper()
	var edges []graph.Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, graph.Edge{U: i, V: j})
		}
	}
	return buildGraph(t, edges)
}

func TestOptions_Invalid(t *testing.T) {
	cases := []Options{
		{Candidates: -1},
		{MinSize: 1},
		{Parallelism: -2},
		{EarlyStopAUC: -0.5},
	}
	for i, opts := range cases {
		if err := opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidOptions) {
			t.Errorf("case %d: error = %v, want INVALID_OPTIONS", i, err)
		}
	}
}

func TestDismantle_CliqueFallback(t *testing.T) {
	g := cliqueGraph(t, 4)

	out, err := Dismantle(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Dismantle() error = %v", err)
	}

	// A clique admits no useful bipartition: every balanced part's boundary
	// is the whole part, so the highest-degree fallback must fire.
	if out.FallbackSteps == 0 {
		t.Error("FallbackSteps = 0, want at least one on a clique")
	}
	if len(out.Sequence) != 4 {
		t.Fatalf("len(Sequence) = %d, want 4", len(out.Sequence))
	}

	removals, err := dismantle.Evaluate(g, out.Sequence)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	want := []int{3, 2, 1, 0}
	for i, r := range removals {
		if r.Giant != want[i] {
			t.Errorf("step %d: giant = %d, want %d", r.Step, r.Giant, want[i])
		}
	}
}

func TestDismantle_PathSplitsEarly(t *testing.T) {
	g := pathGraph(t, 5)

	out, err := Dismantle(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Dismantle() error = %v", err)
	}
	if len(out.Sequence) != 5 {
		t.Fatalf("len(Sequence) = %d, want 5", len(out.Sequence))
	}

	removals, err := dismantle.Evaluate(g, out.Sequence)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if removals[1].Giant > 2 {
		t.Errorf("giant after 2 removals = %d, want <= 2", removals[1].Giant)
	}
	if removals[len(removals)-1].Giant != 0 {
		t.Errorf("final giant = %d, want 0", removals[len(removals)-1].Giant)
	}
}

func TestDismantle_Deterministic(t *testing.T) {
	g := pathGraph(t, 9)

	a, err := Dismantle(context.Background(), g, Options{Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Dismantle(context.Background(), g, Options{Seed: 7, Parallelism: 1})
	if err != nil {
		t.Fatal(err)
	}

	if a.Seed != b.Seed {
		t.Errorf("winner seeds differ: %d vs %d", a.Seed, b.Seed)
	}
	if len(a.Sequence) != len(b.Sequence) {
		t.Fatalf("sequence lengths differ: %d vs %d", len(a.Sequence), len(b.Sequence))
	}
	for i := range a.Sequence {
		if a.Sequence[i] != b.Sequence[i] {
			t.Fatalf("sequences differ at %d: %v vs %v", i, a.Sequence, b.Sequence)
		}
	}
}

func TestDismantle_DisjointComponents(t *testing.T) {
	// Two triangles; both must be dismantled.
	g := buildGraph(t, []graph.Edge{
		{U: 0, V: 1}, {U: 1, V: 2}, {U: 0, V: 2},
		{U: 3, V: 4}, {U: 4, V: 5}, {U: 3, V: 5},
	})

	out, err := Dismantle(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Dismantle() error = %v", err)
	}
	if len(out.Sequence) != 6 {
		t.Fatalf("len(Sequence) = %d, want 6", len(out.Sequence))
	}

	removals, err := dismantle.Evaluate(g, out.Sequence)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if removals[len(removals)-1].Giant != 0 {
		t.Errorf("final giant = %d, want 0", removals[len(removals)-1].Giant)
	}
}

func TestDismantle_EarlyStop(t *testing.T) {
	g := pathGraph(t, 9)

	// A bound no curve can miss: the first finishing candidate wins and the
	// rest are cancelled. The outcome must still be a full valid sequence.
	out, err := Dismantle(context.Background(), g, Options{Candidates: 8, EarlyStopAUC: 100})
	if err != nil {
		t.Fatalf("Dismantle() error = %v", err)
	}
	if len(out.Sequence) != 9 {
		t.Fatalf("len(Sequence) = %d, want 9", len(out.Sequence))
	}

	removals, err := dismantle.Evaluate(g, out.Sequence)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if removals[len(removals)-1].Giant != 0 {
		t.Errorf("final giant = %d, want 0", removals[len(removals)-1].Giant)
	}
}

func TestDismantle_Cancellation(t *testing.T) {
	g := pathGraph(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Dismantle(ctx, g, Options{})
	if !errors.Is(err, errors.ErrCodeResourceExhausted) {
		t.Errorf("Dismantle() error = %v, want RESOURCE_EXHAUSTED", err)
	}
}
