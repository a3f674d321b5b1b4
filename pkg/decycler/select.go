package decycler

import (
	"context"
	"sort"

	"github.com/matzehuels/dismantle/pkg/errors"
	"github.com/matzehuels/dismantle/pkg/graph"
)

// Outcome is the decycler's contribution to a dismantling run: the targeted
// removal set in removal order, the full score vector, and solver telemetry.
type Outcome struct {
	// Targets is the selected removal set ordered by descending score, ties
	// broken by higher degree then lower identifier.
	Targets []int
	// Scores holds the removal marginal of every node.
	Scores []float64

	Sweeps    int
	MaxDelta  float64
	Converged bool
}

// Select cuts the targeted set out of a score vector. Threshold mode keeps
// all nodes at or above the threshold and may return an empty set; top-k
// mode always returns min(k, n) nodes.
func Select(g *graph.Graph, scores []float64, opts Options) []int {
	order := make([]int, g.NodeCount())
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		u, v := order[i], order[j]
		if scores[u] != scores[v] {
			return scores[u] > scores[v]
		}
		if g.Degree(u) != g.Degree(v) {
			return g.Degree(u) > g.Degree(v)
		}
		return u < v
	})

	switch opts.Mode {
	case SelectTopK:
		k := opts.TopK
		if k > len(order) {
			k = len(order)
		}
		return order[:k]
	default:
		cut := len(order)
		for i, u := range order {
			if scores[u] < opts.ScoreThreshold {
				cut = i
				break
			}
		}
		return order[:cut]
	}
}

// Decycle runs the solver to (approximate) convergence and selects the
// targeted removal set.
func Decycle(ctx context.Context, g *graph.Graph, opts Options) (*Outcome, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	solver := NewSolver(g, opts)
	runErr := solver.Run(ctx)
	if runErr != nil && !errors.Is(runErr, errors.ErrCodeResourceExhausted) {
		return nil, runErr
	}
	// On a deadline abort the messages so far are still the best estimate;
	// return them alongside the error so callers can keep a partial result.

	scores := solver.Scores()
	out := &Outcome{
		Targets:   Select(g, scores, opts),
		Scores:    scores,
		Sweeps:    solver.Sweeps(),
		MaxDelta:  solver.MaxDelta(),
		Converged: solver.State() == StateConverged,
	}
	opts.Logger.Info("decycler finished",
		"targets", len(out.Targets),
		"sweeps", out.Sweeps,
		"converged", out.Converged)
	return out, runErr
}
