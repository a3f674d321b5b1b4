package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dismantle/pkg/cache"
	"github.com/matzehuels/dismantle/pkg/decycler"
	"github.com/matzehuels/dismantle/pkg/dismantle"
	"github.com/matzehuels/dismantle/pkg/errors"
	"github.com/matzehuels/dismantle/pkg/gnd"
	"github.com/matzehuels/dismantle/pkg/graph"
	"github.com/matzehuels/dismantle/pkg/observability"
	"github.com/matzehuels/dismantle/pkg/reinsert"
)

// Runner executes dismantling runs with result caching.
//
// The Runner is stateless except for the cache and logger - it holds no
// per-run data, so multiple goroutines can share one Runner with different
// graphs and options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching (NullCache), a
// nil keyer selects the default key scheme.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Run is the outcome of Runner.Execute.
type Run struct {
	// Result is the strategy's dismantling result.
	Result *dismantle.Result

	// GraphHash is the content hash of the input graph, usable as a cache
	// or results-store key.
	GraphHash string

	// CacheHit reports whether the result came from the cache.
	CacheHit bool
}

// Execute runs the configured strategy on g and evaluates the removal curve.
//
// Results are cached under the graph content hash plus the full option
// fingerprint. When the run aborts with RESOURCE_EXHAUSTED after the solver
// produced usable scores, the partial result is returned alongside the
// error; every other error returns no result.
func (r *Runner) Execute(ctx context.Context, g *graph.Graph, opts Options) (*Run, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	if opts.MaxNodes > 0 && g.NodeCount() > opts.MaxNodes {
		return nil, errors.New(errors.ErrCodeResourceExhausted,
			"graph has %d nodes, limit is %d", g.NodeCount(), opts.MaxNodes)
	}

	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, err
	}
	run := &Run{GraphHash: cache.Hash(graphData)}
	cacheKey := r.Keyer.ResultKey(run.GraphHash, opts.ResultKeyOpts())

	// Graphs are content-addressed, so storing under the hash lets later
	// calls (LoadGraph, the API's graph_hash field) reference the graph
	// without resending the edge list.
	if err := r.Cache.Set(ctx, r.Keyer.GraphKey(run.GraphHash), graphData, cache.GraphTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "graph", len(graphData))
	}

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached dismantle.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "result")
				run.Result = &cached
				run.CacheHit = true
				return run, nil
			}
			// Corrupt entry: recompute and overwrite below.
		}
		observability.Cache().OnCacheMiss(ctx, "result")
	}

	start := time.Now()
	observability.Run().OnRunStart(ctx, opts.Strategy, g.NodeCount(), g.EdgeCount())

	result, runErr := r.dispatch(ctx, g, opts)

	var (
		removals int
		auc      float64
	)
	if result != nil {
		removals = len(result.Sequence)
		auc = result.AUC
	}
	observability.Run().OnRunComplete(ctx, opts.Strategy, removals, auc, time.Since(start), runErr)

	if runErr != nil {
		run.Result = result // may carry a partial result
		return run, runErr
	}
	run.Result = result

	r.Logger.Info("run finished",
		"strategy", opts.Strategy,
		"nodes", g.NodeCount(),
		"auc", result.AUC,
		"converged", result.Converged,
		"duration", time.Since(start))

	if data, err := json.Marshal(result); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.ResultTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "result", len(data))
		}
	}
	return run, nil
}

// dispatch runs the selected strategy and returns the finalized result.
func (r *Runner) dispatch(ctx context.Context, g *graph.Graph, opts Options) (*dismantle.Result, error) {
	stopSize := dismantle.StopSize(g.NodeCount(), opts.Threshold)

	switch opts.Strategy {
	case StrategyDecycler:
		return r.runDecycler(ctx, g, opts, stopSize)
	case StrategyGND:
		return r.runGND(ctx, g, opts, stopSize)
	case StrategyDegree:
		return r.runDegree(g, opts, stopSize)
	default:
		return nil, errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %q", opts.Strategy)
	}
}

// runDecycler executes solve -> reinsert -> residual completion -> evaluate.
func (r *Runner) runDecycler(ctx context.Context, g *graph.Graph, opts Options, stopSize int) (*dismantle.Result, error) {
	predStart := time.Now()
	out, solveErr := decycler.Decycle(ctx, g, opts.DecyclerOptions())
	if out == nil {
		return nil, solveErr
	}
	predTime := time.Since(predStart)

	dismStart := time.Now()
	refined := append([]int(nil), out.Targets...)
	var reinserted int
	if solveErr == nil {
		// On an abort the context is already dead, so reinsertion is skipped
		// and the targeted set stands as the partial answer.
		limit := dismantle.StopSize(g.NodeCount(), opts.ReinsertLimit)
		if opts.ReinsertLimit < 0 {
			limit = 0
		}
		var err error
		refined, reinserted, err = reinsert.Refine(ctx, g, out.Targets, out.Scores, limit, opts.Logger)
		if err != nil {
			return nil, err
		}
	}
	if reinserted > 0 {
		opts.Logger.Debug("reinsertion shrank removal set",
			"before", len(out.Targets), "after", len(refined))
	}

	active := graph.NewActiveSet(g)
	for _, u := range refined {
		active.Remove(u)
	}
	seq := append(refined, dismantle.ResidualOrder(g, active)...)

	res, err := dismantle.Finalize(g, StrategyDecycler, seq, out.Scores, stopSize)
	if err != nil {
		return nil, err
	}
	res.Converged = out.Converged
	res.PredictionTime = predTime
	res.DismantleTime = time.Since(dismStart)
	// solveErr is only non-nil for a deadline abort; the scores are still
	// the best estimate at that point, so the result rides along.
	return res, solveErr
}

// runGND executes the candidate ensemble and re-evaluates the winner against
// the configured stop threshold.
func (r *Runner) runGND(ctx context.Context, g *graph.Graph, opts Options, stopSize int) (*dismantle.Result, error) {
	dismStart := time.Now()
	out, err := gnd.Dismantle(ctx, g, opts.GNDOptions())
	if err != nil {
		return nil, err
	}

	res, err := dismantle.Finalize(g, StrategyGND, out.Sequence, nil, stopSize)
	if err != nil {
		return nil, err
	}
	res.FallbackSteps = out.FallbackSteps
	res.DismantleTime = time.Since(dismStart)
	return res, nil
}

// runDegree removes every node by static degree, highest first. No
// prediction stage; the whole order is known upfront.
func (r *Runner) runDegree(g *graph.Graph, opts Options, stopSize int) (*dismantle.Result, error) {
	dismStart := time.Now()
	seq := dismantle.Complete(g, nil)

	scores := make([]float64, g.NodeCount())
	for u := range scores {
		scores[u] = float64(g.Degree(u))
	}

	res, err := dismantle.Finalize(g, StrategyDegree, seq, scores, stopSize)
	if err != nil {
		return nil, err
	}
	res.DismantleTime = time.Since(dismStart)
	return res, nil
}

// LoadGraph fetches a previously executed graph by its content hash. Fails
// with NOT_FOUND when the cache has no entry for the hash (including when
// caching is disabled).
func (r *Runner) LoadGraph(ctx context.Context, hash string) (*graph.Graph, error) {
	data, hit, err := r.Cache.Get(ctx, r.Keyer.GraphKey(hash))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load graph %s", hash)
	}
	if !hit {
		return nil, errors.New(errors.ErrCodeNotFound, "no cached graph with hash %s", hash)
	}
	return graph.ReadGraph(bytes.NewReader(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
