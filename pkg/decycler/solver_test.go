package decycler

import (
	"context"
	"testing"

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

// Triangle 0-1-2 with a pendant node 3 hanging off node 0.
func lollipopGraph(t *testing.T) *graph.Graph {
	t.Helper()
	return buildGraph(t, []graph.Edge{
		{U: 0, V: 1}, {U: 1, V: 2}, {U: 0, V: 2}, {U: 0, V: 3},
	})
}

func TestOptions_Defaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", opts.MaxDepth, DefaultMaxDepth)
	}
	if opts.Mode != SelectThreshold || opts.ScoreThreshold != DefaultThreshold {
		t.Errorf("Mode, threshold = %q, %v; want threshold, %v", opts.Mode, opts.ScoreThreshold, DefaultThreshold)
	}
	if opts.Parallelism < 1 {
		t.Errorf("Parallelism = %d, want >= 1", opts.Parallelism)
	}
	if opts.Logger == nil {
		t.Error("Logger = nil, want discard logger")
	}
}

func TestOptions_Invalid(t *testing.T) {
	cases := []Options{
		{MaxDepth: -1},
		{Tolerance: -1},
		{MaxIterations: -5},
		{RemovalCost: -2},
		{Mode: SelectTopK},     // k missing
		{Mode: "percentile"},   // unknown mode
		{ScoreThreshold: 1.5},
	}
	for i, opts := range cases {
		if err := opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidOptions) {
			t.Errorf("case %d: error = %v, want INVALID_OPTIONS", i, err)
		}
	}
}

func TestSolver_StateMachine(t *testing.T) {
	g := lollipopGraph(t)
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	s := NewSolver(g, opts)
	if s.State() != StateUninitialized {
		t.Fatalf("State() = %v before Run, want uninitialized", s.State())
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.State() != StateConverged {
		t.Errorf("State() = %v, want converged (max delta %g)", s.State(), s.MaxDelta())
	}
	if s.Sweeps() < 1 {
		t.Errorf("Sweeps() = %d, want >= 1", s.Sweeps())
	}
	if s.MaxDelta() >= opts.Tolerance {
		t.Errorf("MaxDelta() = %g, want < %g", s.MaxDelta(), opts.Tolerance)
	}
}

func TestSolver_IterationCap(t *testing.T) {
	g := lollipopGraph(t)
	opts := Options{MaxIterations: 1}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	s := NewSolver(g, opts)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.State() != StateMaxIterations {
		t.Errorf("State() = %v, want max_iterations", s.State())
	}
	// Scores are still available as a best-effort estimate.
	scores := s.Scores()
	if len(scores) != g.NodeCount() {
		t.Errorf("len(scores) = %d, want %d", len(scores), g.NodeCount())
	}
}

func TestSolver_Cancellation(t *testing.T) {
	g := lollipopGraph(t)
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSolver(g, opts)
	err := s.Run(ctx)
	if !errors.Is(err, errors.ErrCodeResourceExhausted) {
		t.Errorf("Run() error = %v, want RESOURCE_EXHAUSTED", err)
	}
}

func TestScores_RangeAndHubPreference(t *testing.T) {
	g := lollipopGraph(t)
	out, err := Decycle(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Decycle() error = %v", err)
	}

	argmax := 0
	for u, sc := range out.Scores {
		if sc < 0 || sc > 1 {
			t.Errorf("score[%d] = %v outside [0,1]", u, sc)
		}
		if sc > out.Scores[argmax] {
			argmax = u
		}
	}
	// Node 0 sits on the cycle and carries the pendant; it is the most
	// constrained node and must outrank the leaf.
	if argmax != 0 {
		t.Errorf("argmax score = node %d, want 0 (scores %v)", argmax, out.Scores)
	}
	if out.Scores[0] <= out.Scores[3] {
		t.Errorf("scores[0] = %v <= scores[3] = %v, want cycle hub above leaf",
			out.Scores[0], out.Scores[3])
	}
}

func TestDecycle_Deterministic(t *testing.T) {
	g := lollipopGraph(t)

	a, err := Decycle(context.Background(), g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Decycle(context.Background(), g, Options{Parallelism: 1})
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Scores) != len(b.Scores) {
		t.Fatalf("score lengths differ: %d vs %d", len(a.Scores), len(b.Scores))
	}
	for u := range a.Scores {
		if a.Scores[u] != b.Scores[u] {
			t.Errorf("scores[%d] differ across runs: %v vs %v", u, a.Scores[u], b.Scores[u])
		}
	}
	if a.Sweeps != b.Sweeps {
		t.Errorf("sweep counts differ: %d vs %d", a.Sweeps, b.Sweeps)
	}
}

func TestDecycle_ThresholdOnTreeSelectsNothing(t *testing.T) {
	g := pathGraph(t, 5)
	out, err := Decycle(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Decycle() error = %v", err)
	}
	// A tree needs no feedback-vertex removals; all marginals stay far
	// below the default threshold.
	if len(out.Targets) != 0 {
		t.Errorf("Targets = %v, want none on a tree", out.Targets)
	}
}

func TestSelect_TopKOrderAndTies(t *testing.T) {
	g := pathGraph(t, 5)
	opts := Options{Mode: SelectTopK, TopK: 3}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	// Distinct scores: straight descending order.
	got := Select(g, []float64{0.1, 0.5, 0.9, 0.3, 0.2}, opts)
	want := []int{2, 1, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Select() = %v, want %v", got, want)
		}
	}

	// All-equal scores: degree breaks ties (interior nodes first), then id.
	got = Select(g, []float64{0.5, 0.5, 0.5, 0.5, 0.5}, opts)
	want = []int{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Select() with ties = %v, want %v", got, want)
		}
	}
}

func TestSelect_TopKClamped(t *testing.T) {
	g := pathGraph(t, 3)
	opts := Options{Mode: SelectTopK, TopK: 10}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	got := Select(g, []float64{0.1, 0.2, 0.3}, opts)
	if len(got) != 3 {
		t.Errorf("len(Select()) = %d, want 3", len(got))
	}
}
