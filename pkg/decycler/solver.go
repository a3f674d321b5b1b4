package decycler

import (
	"context"
	"io"
	"math"
	"runtime"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/dismantle/pkg/errors"
	"github.com/matzehuels/dismantle/pkg/graph"
	"github.com/matzehuels/dismantle/pkg/observability"
)

// floorEps is the smallest belief entry kept after normalization. It keeps
// log-domain products finite on deep or degree-skewed graphs.
const floorEps = 1e-30

// Defaults for solver options.
const (
	DefaultMaxDepth      = 10
	DefaultTolerance     = 1e-4
	DefaultMaxIterations = 500
	DefaultRemovalCost   = 3.0
	DefaultThreshold     = 0.5
)

// SelectMode chooses how the targeted removal set is cut from the scores.
type SelectMode string

const (
	// SelectThreshold keeps every node whose score is >= ScoreThreshold.
	SelectThreshold SelectMode = "threshold"
	// SelectTopK keeps the TopK highest-scoring nodes.
	SelectTopK SelectMode = "topk"
)

// State tracks the solver lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateIterating
	StateConverged
	StateMaxIterations
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateMaxIterations:
		return "max_iterations"
	default:
		return "unknown"
	}
}

// Options configure the solver and the selection stage.
type Options struct {
	// MaxDepth is D, the deepest allowed tree level in the residual forest.
	MaxDepth int
	// Tolerance stops the sweep loop once the largest per-entry message
	// change falls below it.
	Tolerance float64
	// MaxIterations caps the number of sweeps; hitting the cap returns the
	// current scores with Converged=false.
	MaxIterations int
	// RemovalCost is the exponential penalty mu on removing a node: the
	// prior weight of the removed state is exp(-mu).
	RemovalCost float64

	Mode           SelectMode
	ScoreThreshold float64
	TopK           int

	// Parallelism bounds the worker count per sweep; 0 means GOMAXPROCS.
	Parallelism int

	Logger *charmlog.Logger
}

// ValidateAndSetDefaults fills zero values and rejects inconsistent options
// with INVALID_OPTIONS.
func (o *Options) ValidateAndSetDefaults() error {
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxDepth < 1 {
		return errors.New(errors.ErrCodeInvalidOptions, "max depth must be >= 1, got %d", o.MaxDepth)
	}
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Tolerance < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "tolerance must be positive, got %g", o.Tolerance)
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.MaxIterations < 1 {
		return errors.New(errors.ErrCodeInvalidOptions, "max iterations must be >= 1, got %d", o.MaxIterations)
	}
	if o.RemovalCost == 0 {
		o.RemovalCost = DefaultRemovalCost
	}
	if o.RemovalCost < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "removal cost must be positive, got %g", o.RemovalCost)
	}
	if o.Mode == "" {
		o.Mode = SelectThreshold
	}
	switch o.Mode {
	case SelectThreshold:
		if o.ScoreThreshold == 0 {
			o.ScoreThreshold = DefaultThreshold
		}
		if o.ScoreThreshold < 0 || o.ScoreThreshold > 1 {
			return errors.New(errors.ErrCodeInvalidOptions, "score threshold must be in [0,1], got %g", o.ScoreThreshold)
		}
	case SelectTopK:
		if o.TopK < 1 {
			return errors.New(errors.ErrCodeInvalidOptions, "top-k selection needs k >= 1, got %d", o.TopK)
		}
	default:
		return errors.New(errors.ErrCodeInvalidOptions, "unknown select mode %q", o.Mode)
	}
	if o.Parallelism == 0 {
		o.Parallelism = runtime.GOMAXPROCS(0)
	}
	if o.Parallelism < 1 {
		return errors.New(errors.ErrCodeInvalidOptions, "parallelism must be >= 1, got %d", o.Parallelism)
	}
	if o.Logger == nil {
		o.Logger = charmlog.New(io.Discard)
	}
	return nil
}

// Solver holds the message arena for one graph. Messages live in two flat
// arrays of arcCount*(D+1) floats so a sweep writes next from cur without
// aliasing (Jacobi update).
type Solver struct {
	g    *graph.Graph
	opts Options

	cur, next []float64 // arc a occupies [a*(D+1), (a+1)*(D+1))
	totals    []float64 // per-node log-domain products, n*(D+1)

	state    State
	sweeps   int
	maxDelta float64
}

// NewSolver allocates a solver. opts must already be validated.
func NewSolver(g *graph.Graph, opts Options) *Solver {
	width := opts.MaxDepth + 1
	s := &Solver{
		g:      g,
		opts:   opts,
		cur:    make([]float64, g.ArcCount()*width),
		next:   make([]float64, g.ArcCount()*width),
		totals: make([]float64, g.NodeCount()*width),
		state:  StateUninitialized,
	}
	s.Reset()
	return s
}

// Reset reinitializes all messages to the uniform distribution so the solver
// can be rerun from scratch.
func (s *Solver) Reset() {
	width := s.opts.MaxDepth + 1
	uniform := 1.0 / float64(width)
	for i := range s.cur {
		s.cur[i] = uniform
	}
	s.state = StateUninitialized
	s.sweeps = 0
	s.maxDelta = math.Inf(1)
}

// State returns the solver's lifecycle state.
func (s *Solver) State() State { return s.state }

// Sweeps returns the number of completed sweeps.
func (s *Solver) Sweeps() int { return s.sweeps }

// MaxDelta returns the largest per-entry change of the last sweep.
func (s *Solver) MaxDelta() float64 { return s.maxDelta }

// Run iterates sweeps until convergence or the iteration cap. The context is
// checked between sweeps; cancellation aborts with the wrapped cause.
func (s *Solver) Run(ctx context.Context) error {
	s.state = StateIterating
	for s.sweeps < s.opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeResourceExhausted, err, "solver aborted after %d sweeps", s.sweeps)
		}
		if err := s.sweep(ctx); err != nil {
			return err
		}
		s.sweeps++
		observability.Solver().OnSweep(ctx, s.sweeps, s.maxDelta)
		if s.sweeps%50 == 0 {
			s.opts.Logger.Debug("solver progress", "sweeps", s.sweeps, "max_delta", s.maxDelta)
		}
		if s.maxDelta < s.opts.Tolerance {
			s.state = StateConverged
			s.opts.Logger.Debug("solver converged", "sweeps", s.sweeps, "max_delta", s.maxDelta)
			observability.Solver().OnStop(ctx, s.sweeps, true)
			return nil
		}
	}
	s.state = StateMaxIterations
	s.opts.Logger.Warn("solver hit iteration cap", "sweeps", s.sweeps, "max_delta", s.maxDelta)
	observability.Solver().OnStop(ctx, s.sweeps, false)
	return nil
}

// sweep performs one synchronous update of every arc message. Phase one
// accumulates per-node log-domain products over all incoming arcs; phase two
// derives each outgoing message by excluding the reverse arc's contribution.
func (s *Solver) sweep(ctx context.Context) error {
	n := s.g.NodeCount()
	arcs := s.g.ArcCount()
	width := s.opts.MaxDepth + 1
	workers := s.opts.Parallelism

	eg, _ := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		eg.Go(func() error {
			prefix := make([]float64, width)
			for u := lo; u < hi; u++ {
				t := s.totals[u*width : (u+1)*width]
				for d := 1; d < width; d++ {
					t[d] = 0
				}
				alo, ahi := s.g.Arcs(u)
				for a := alo; a < ahi; a++ {
					in := s.g.Reverse(a)
					s.prefixLogs(in, prefix)
					for d := 1; d < width; d++ {
						t[d] += prefix[d]
					}
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	logW0 := -s.opts.RemovalCost
	deltas := make([]float64, workers)
	eg, _ = errgroup.WithContext(ctx)
	chunk = (arcs + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, arcs)
		if lo >= hi {
			break
		}
		eg.Go(func() error {
			prefix := make([]float64, width)
			vals := make([]float64, width)
			local := 0.0
			for a := lo; a < hi; a++ {
				u := s.g.Source(int32(a))
				t := s.totals[u*width : (u+1)*width]
				s.prefixLogs(s.g.Reverse(int32(a)), prefix)

				vals[0] = logW0
				maxVal := logW0
				for d := 1; d < width; d++ {
					vals[d] = t[d] - prefix[d]
					if vals[d] > maxVal {
						maxVal = vals[d]
					}
				}

				sum := 0.0
				for d := 0; d < width; d++ {
					vals[d] = math.Exp(vals[d] - maxVal)
					sum += vals[d]
				}

				out := s.next[a*width : (a+1)*width]
				old := s.cur[a*width : (a+1)*width]
				for d := 0; d < width; d++ {
					v := vals[d] / sum
					if v < floorEps {
						v = floorEps
					}
					out[d] = v
					if diff := math.Abs(v - old[d]); diff > local {
						local = diff
					}
				}
			}
			deltas[w] = local
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	s.cur, s.next = s.next, s.cur
	s.maxDelta = 0
	for _, d := range deltas {
		if d > s.maxDelta {
			s.maxDelta = d
		}
	}
	return nil
}

// prefixLogs fills out[d] = log(m[0] + sum of m[1..d-1]) for the message on
// arc a, the log-weight of the arc's source sitting strictly above depth d
// or being removed. out[0] is unused.
func (s *Solver) prefixLogs(a int32, out []float64) {
	width := s.opts.MaxDepth + 1
	m := s.cur[int(a)*width : (int(a)+1)*width]
	acc := m[0]
	for d := 1; d < width; d++ {
		v := acc
		if v < floorEps {
			v = floorEps
		}
		out[d] = math.Log(v)
		acc += m[d]
	}
}

// Scores computes the per-node removal marginal from the current messages:
// the belief that the node takes state 0. Values are in [0,1].
func (s *Solver) Scores() []float64 {
	n := s.g.NodeCount()
	width := s.opts.MaxDepth + 1
	logW0 := -s.opts.RemovalCost

	scores := make([]float64, n)
	prefix := make([]float64, width)
	vals := make([]float64, width)
	for u := 0; u < n; u++ {
		for d := 1; d < width; d++ {
			vals[d] = 0
		}
		alo, ahi := s.g.Arcs(u)
		for a := alo; a < ahi; a++ {
			s.prefixLogs(s.g.Reverse(a), prefix)
			for d := 1; d < width; d++ {
				vals[d] += prefix[d]
			}
		}

		vals[0] = logW0
		maxVal := logW0
		for d := 1; d < width; d++ {
			if vals[d] > maxVal {
				maxVal = vals[d]
			}
		}
		sum := 0.0
		for d := 0; d < width; d++ {
			sum += math.Exp(vals[d] - maxVal)
		}
		scores[u] = math.Exp(vals[0]-maxVal) / sum
	}
	return scores
}
