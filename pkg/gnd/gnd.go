// Package gnd dismantles a graph by recursive bisection. Each step grows a
// balanced part with a seeded breadth-first search, removes the boundary
// nodes separating it from the rest, and recurses on the resulting pieces.
// Several independently seeded candidates run in parallel and the one with
// the best removal curve wins, so a single unlucky seed cannot dominate.
package gnd

import (
	"context"
	"io"
	"math/rand"
	"runtime"
	"sort"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/dismantle/pkg/dismantle"
	"github.com/matzehuels/dismantle/pkg/errors"
	"github.com/matzehuels/dismantle/pkg/graph"
)

// Defaults for dismantler options.
const (
	DefaultCandidates = 4
	DefaultMinSize    = 3
	DefaultSeed       = 42
)

// Options configure the ensemble dismantler.
type Options struct {
	// Candidates is the number of independently seeded runs.
	Candidates int
	// Seed feeds candidate i with Seed+i, making the whole ensemble
	// reproducible.
	Seed int64
	// MinSize stops the recursion: components smaller than this are left
	// for the residual completion phase.
	MinSize int
	// Parallelism bounds concurrent candidate runs; 0 means GOMAXPROCS.
	Parallelism int

	// EarlyStopAUC accepts the first candidate whose curve reaches this AUC
	// or better and cancels the rest. Zero runs every candidate to the end.
	EarlyStopAUC float64

	Logger *charmlog.Logger
}

// ValidateAndSetDefaults fills zero values and rejects inconsistent options
// with INVALID_OPTIONS.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Candidates == 0 {
		o.Candidates = DefaultCandidates
	}
	if o.Candidates < 1 {
		return errors.New(errors.ErrCodeInvalidOptions, "candidates must be >= 1, got %d", o.Candidates)
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.MinSize == 0 {
		o.MinSize = DefaultMinSize
	}
	if o.MinSize < 2 {
		return errors.New(errors.ErrCodeInvalidOptions, "min size must be >= 2, got %d", o.MinSize)
	}
	if o.Parallelism == 0 {
		o.Parallelism = runtime.GOMAXPROCS(0)
	}
	if o.Parallelism < 1 {
		return errors.New(errors.ErrCodeInvalidOptions, "parallelism must be >= 1, got %d", o.Parallelism)
	}
	if o.EarlyStopAUC < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "early stop AUC must be >= 0, got %g", o.EarlyStopAUC)
	}
	if o.Logger == nil {
		o.Logger = charmlog.New(io.Discard)
	}
	return nil
}

// Outcome is the winning candidate of an ensemble run.
type Outcome struct {
	// Sequence is the full-length removal order: targeted separator
	// removals followed by the residual completion.
	Sequence []int
	// Targeted is the number of leading separator removals.
	Targeted int
	// FallbackSteps counts degenerate partitions absorbed by removing the
	// highest-degree node instead.
	FallbackSteps int
	// Seed identifies the winning candidate.
	Seed int64
}

type candidate struct {
	outcome Outcome
	result  *dismantle.Result
}

// Dismantle runs the candidate ensemble and returns the best outcome under
// the curve ordering (lower AUC, then shorter targeted prefix, then lower
// peak giant).
func Dismantle(ctx context.Context, g *graph.Graph, opts Options) (*Outcome, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	cands := make([]*candidate, opts.Candidates)
	runCtx, stopEarly := context.WithCancel(ctx)
	defer stopEarly()
	var goodEnough atomic.Bool

	eg, egCtx := errgroup.WithContext(runCtx)
	eg.SetLimit(opts.Parallelism)
	for i := 0; i < opts.Candidates; i++ {
		eg.Go(func() error {
			seed := opts.Seed + int64(i)
			order, fallbacks, err := runCandidate(egCtx, g, seed, opts.MinSize)
			if err != nil {
				// A candidate cancelled by an early-stop winner is not a
				// failure; only a real deadline or cancel propagates.
				if goodEnough.Load() && ctx.Err() == nil {
					return nil
				}
				return err
			}

			active := graph.NewActiveSet(g)
			for _, u := range order {
				active.Remove(u)
			}
			seq := append(order, dismantle.ResidualOrder(g, active)...)
			res, err := dismantle.Finalize(g, "gnd", seq, nil, 0)
			if err != nil {
				return err
			}
			cands[i] = &candidate{
				outcome: Outcome{
					Sequence:      seq,
					Targeted:      len(order),
					FallbackSteps: fallbacks,
					Seed:          seed,
				},
				result: res,
			}
			if opts.EarlyStopAUC > 0 && res.AUC <= opts.EarlyStopAUC {
				opts.Logger.Debug("early stop reached", "seed", seed, "auc", res.AUC)
				goodEnough.Store(true)
				stopEarly()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var best *candidate
	for _, c := range cands {
		if c == nil {
			continue // cancelled by an early-stop winner
		}
		if best == nil || dismantle.Better(c.result, best.result) {
			best = c
		}
	}
	if best == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no candidate finished")
	}
	opts.Logger.Info("ensemble finished",
		"candidates", opts.Candidates,
		"winner_seed", best.outcome.Seed,
		"auc", best.result.AUC,
		"fallbacks", best.outcome.FallbackSteps)
	return &best.outcome, nil
}

// runCandidate removes separators recursively until every component is
// smaller than minSize, returning the removal order and fallback count.
func runCandidate(ctx context.Context, g *graph.Graph, seed int64, minSize int) ([]int, int, error) {
	rng := rand.New(rand.NewSource(seed))
	active := graph.NewActiveSet(g)
	var order []int
	fallbacks := 0

	var recurse func(comp []int) error
	recurse = func(comp []int) error {
		if len(comp) < minSize {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeResourceExhausted, err, "dismantler aborted after %d removals", len(order))
		}

		sep := bisect(g, active, comp, rng)
		if len(sep) == 0 || 2*len(sep) >= len(comp) {
			// No bipartition pays off (dense components, near-cliques).
			// Remove the busiest node instead.
			sep = []int{maxActiveDegree(g, active, comp)}
			fallbacks++
		}

		for _, u := range sep {
			order = append(order, u)
			active.Remove(u)
		}

		parts := components(g, active, comp)
		sort.Slice(parts, func(i, j int) bool {
			if len(parts[i]) != len(parts[j]) {
				return len(parts[i]) > len(parts[j])
			}
			return parts[i][0] < parts[j][0]
		})
		for _, p := range parts {
			if err := recurse(p); err != nil {
				return err
			}
		}
		return nil
	}

	for _, comp := range components(g, active, nil) {
		if err := recurse(comp); err != nil {
			return nil, 0, err
		}
	}
	return order, fallbacks, nil
}

// bisect grows a part of about half the component from a random seed node
// and returns the part's boundary: its nodes with an active neighbor on the
// far side, in ascending identifier order.
func bisect(g *graph.Graph, active *graph.ActiveSet, comp []int, rng *rand.Rand) []int {
	half := (len(comp) + 1) / 2
	start := comp[rng.Intn(len(comp))]

	inPart := make(map[int]bool, half)
	inPart[start] = true
	queue := []int{start}
	for len(queue) > 0 && len(inPart) < half {
		u := queue[0]
		queue = queue[1:]
		for _, v := range g.Neighbors(u) {
			w := int(v)
			if active.Active(w) && !inPart[w] {
				inPart[w] = true
				queue = append(queue, w)
				if len(inPart) == half {
					break
				}
			}
		}
	}

	var sep []int
	for u := range inPart {
		for _, v := range g.Neighbors(u) {
			w := int(v)
			if active.Active(w) && !inPart[w] {
				sep = append(sep, u)
				break
			}
		}
	}
	sort.Ints(sep)
	return sep
}

// maxActiveDegree returns the component node with the most active
// neighbors, ties by lower identifier.
func maxActiveDegree(g *graph.Graph, active *graph.ActiveSet, comp []int) int {
	best := comp[0]
	for _, u := range comp[1:] {
		du, db := active.ActiveDegree(u), active.ActiveDegree(best)
		if du > db || (du == db && u < best) {
			best = u
		}
	}
	return best
}

// components returns the connected components of the active subgraph,
// restricted to within when non-nil.
func components(g *graph.Graph, active *graph.ActiveSet, within []int) [][]int {
	var scan []int
	if within != nil {
		scan = within
	} else {
		scan = make([]int, 0, active.Count())
		for u := 0; u < g.NodeCount(); u++ {
			if active.Active(u) {
				scan = append(scan, u)
			}
		}
	}

	seen := make(map[int]bool, len(scan))
	var comps [][]int
	for _, s := range scan {
		if !active.Active(s) || seen[s] {
			continue
		}
		var comp []int
		queue := []int{s}
		seen[s] = true
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			comp = append(comp, u)
			for _, v := range g.Neighbors(u) {
				w := int(v)
				if active.Active(w) && !seen[w] {
					seen[w] = true
					queue = append(queue, w)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}
