package pipeline

import (
	"context"
	"testing"

	"github.com/matzehuels/dismantle/pkg/cache"
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

// Two triangles joined by a bridge node 3: 0-1-2 triangle, 4-5-6 triangle,
// node 3 connects 2 and 4.
func barbellGraph(t *testing.T) *graph.Graph {
	t.Helper()
	return buildGraph(t, []graph.Edge{
		{U: 0, V: 1}, {U: 1, V: 2}, {U: 0, V: 2},
		{U: 2, V: 3}, {U: 3, V: 4},
		{U: 4, V: 5}, {U: 5, V: 6}, {U: 4, V: 6},
	})
}

func TestOptions_Defaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Strategy != StrategyDecycler {
		t.Errorf("Strategy = %q, want %q", opts.Strategy, StrategyDecycler)
	}
	if opts.ReinsertLimit != DefaultReinsertLimit {
		t.Errorf("ReinsertLimit = %v, want %v", opts.ReinsertLimit, DefaultReinsertLimit)
	}
	if opts.MaxNodes != DefaultMaxNodes {
		t.Errorf("MaxNodes = %d, want %d", opts.MaxNodes, DefaultMaxNodes)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptions_Idempotent(t *testing.T) {
	opts := Options{Strategy: StrategyGND, Seed: 7}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first ValidateAndSetDefaults() error = %v", err)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second ValidateAndSetDefaults() error = %v", err)
	}
}

func TestOptions_InvalidStrategy(t *testing.T) {
	opts := Options{Strategy: "pagerank"}
	err := opts.ValidateAndSetDefaults()
	if !errors.Is(err, errors.ErrCodeInvalidStrategy) {
		t.Fatalf("error = %v, want INVALID_STRATEGY", err)
	}
}

func TestOptions_InvalidSubOptions(t *testing.T) {
	opts := Options{Strategy: StrategyDecycler, Tolerance: -1}
	err := opts.ValidateAndSetDefaults()
	if !errors.Is(err, errors.ErrCodeInvalidOptions) {
		t.Fatalf("error = %v, want INVALID_OPTIONS", err)
	}
}

func TestExecute_AllStrategies(t *testing.T) {
	g := barbellGraph(t)
	runner := NewRunner(nil, nil, nil)

	for _, strategy := range []string{StrategyDecycler, StrategyGND, StrategyDegree} {
		t.Run(strategy, func(t *testing.T) {
			run, err := runner.Execute(context.Background(), g, Options{Strategy: strategy, Seed: 1})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			res := run.Result
			if res.Strategy != strategy {
				t.Errorf("Strategy = %q, want %q", res.Strategy, strategy)
			}
			if len(res.Sequence) != g.NodeCount() {
				t.Fatalf("len(Sequence) = %d, want %d", len(res.Sequence), g.NodeCount())
			}
			// Removing everything must drive the giant component to zero,
			// and the curve must never increase.
			last := res.Removals[len(res.Removals)-1]
			if last.Giant != 0 {
				t.Errorf("final giant = %d, want 0", last.Giant)
			}
			prev := g.NodeCount()
			for _, r := range res.Removals {
				if r.Giant > prev {
					t.Errorf("step %d: giant %d > previous %d", r.Step, r.Giant, prev)
				}
				prev = r.Giant
			}
			if res.AUC <= 0 {
				t.Errorf("AUC = %v, want > 0", res.AUC)
			}
		})
	}
}

func TestExecute_BridgeRemovedEarly(t *testing.T) {
	// The decycler pipeline should remove the bridge node 3 (or a triangle
	// node) before the graph is half gone: the giant must drop to <= 3
	// within the first three removals.
	g := barbellGraph(t)
	runner := NewRunner(nil, nil, nil)

	run, err := runner.Execute(context.Background(), g, Options{Strategy: StrategyDecycler})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if run.Result.Removals[2].Giant > 3 {
		t.Errorf("giant after 3 removals = %d, want <= 3", run.Result.Removals[2].Giant)
	}
}

func TestExecute_Deterministic(t *testing.T) {
	g := barbellGraph(t)
	runner := NewRunner(nil, nil, nil)

	for _, strategy := range []string{StrategyDecycler, StrategyGND} {
		opts := Options{Strategy: strategy, Seed: 3}
		a, err := runner.Execute(context.Background(), g, opts)
		if err != nil {
			t.Fatalf("first Execute() error = %v", err)
		}
		b, err := runner.Execute(context.Background(), g, Options{Strategy: strategy, Seed: 3, Refresh: true})
		if err != nil {
			t.Fatalf("second Execute() error = %v", err)
		}
		if len(a.Result.Sequence) != len(b.Result.Sequence) {
			t.Fatalf("%s: sequence lengths differ: %d vs %d", strategy, len(a.Result.Sequence), len(b.Result.Sequence))
		}
		for i := range a.Result.Sequence {
			if a.Result.Sequence[i] != b.Result.Sequence[i] {
				t.Fatalf("%s: sequences diverge at %d: %d vs %d",
					strategy, i, a.Result.Sequence[i], b.Result.Sequence[i])
			}
		}
	}
}

func TestExecute_CacheHit(t *testing.T) {
	g := barbellGraph(t)
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	opts := Options{Strategy: StrategyDegree}
	first, err := runner.Execute(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if first.CacheHit {
		t.Error("first run should not be a cache hit")
	}

	second, err := runner.Execute(context.Background(), g, Options{Strategy: StrategyDegree})
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !second.CacheHit {
		t.Error("second run should be a cache hit")
	}
	if second.Result.AUC != first.Result.AUC {
		t.Errorf("cached AUC = %v, want %v", second.Result.AUC, first.Result.AUC)
	}
	if second.GraphHash != first.GraphHash {
		t.Errorf("graph hash changed between runs: %q vs %q", second.GraphHash, first.GraphHash)
	}
}

func TestExecute_PartialResultOnAbort(t *testing.T) {
	// A run aborted before the solver converges still yields a usable
	// sequence: the targeted set is kept as-is (reinsertion needs a live
	// context) and completed with the residual order.
	g := barbellGraph(t)
	runner := NewRunner(nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := runner.Execute(ctx, g, Options{Strategy: StrategyDecycler, Mode: "topk", TopK: 2})
	if !errors.Is(err, errors.ErrCodeResourceExhausted) {
		t.Fatalf("error = %v, want RESOURCE_EXHAUSTED", err)
	}
	if run == nil || run.Result == nil {
		t.Fatal("aborted run should still carry a partial result")
	}
	res := run.Result
	if res.Converged {
		t.Error("Converged = true, want false on an aborted run")
	}
	if len(res.Sequence) != g.NodeCount() {
		t.Errorf("len(Sequence) = %d, want %d", len(res.Sequence), g.NodeCount())
	}
	if last := res.Removals[len(res.Removals)-1]; last.Giant != 0 {
		t.Errorf("final giant = %d, want 0", last.Giant)
	}
}

func TestExecute_GraphCachedByHash(t *testing.T) {
	g := barbellGraph(t)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	run, err := runner.Execute(context.Background(), g, Options{Strategy: StrategyDegree})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got, err := runner.LoadGraph(context.Background(), run.GraphHash)
	if err != nil {
		t.Fatalf("LoadGraph() error = %v", err)
	}
	if got.NodeCount() != g.NodeCount() || got.EdgeCount() != g.EdgeCount() {
		t.Errorf("loaded graph is %d nodes / %d edges, want %d / %d",
			got.NodeCount(), got.EdgeCount(), g.NodeCount(), g.EdgeCount())
	}

	if _, err := runner.LoadGraph(context.Background(), "no-such-hash"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown hash: error = %v, want NOT_FOUND", err)
	}
}

func TestExecute_MaxNodesGuard(t *testing.T) {
	g := barbellGraph(t)
	runner := NewRunner(nil, nil, nil)

	_, err := runner.Execute(context.Background(), g, Options{MaxNodes: 3})
	if !errors.Is(err, errors.ErrCodeResourceExhausted) {
		t.Fatalf("error = %v, want RESOURCE_EXHAUSTED", err)
	}
}

func TestExecute_ReinsertionDisabled(t *testing.T) {
	g := barbellGraph(t)
	runner := NewRunner(nil, nil, nil)

	run, err := runner.Execute(context.Background(), g, Options{ReinsertLimit: -1})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(run.Result.Sequence) != g.NodeCount() {
		t.Errorf("len(Sequence) = %d, want %d", len(run.Result.Sequence), g.NodeCount())
	}
}
