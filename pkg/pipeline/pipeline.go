// Package pipeline orchestrates complete dismantling runs.
//
// A [Runner] ties together graph input, strategy execution, curve
// evaluation, and result caching so CLI, HTTP API, and library callers all
// share one code path. Strategies are interchangeable: every run produces a
// [dismantle.Result] regardless of which algorithm computed the order.
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Strategy: pipeline.StrategyDecycler}
//	run, err := runner.Execute(ctx, g, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(run.Result.AUC)
package pipeline

import (
	"io"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dismantle/pkg/cache"
	"github.com/matzehuels/dismantle/pkg/decycler"
	"github.com/matzehuels/dismantle/pkg/errors"
	"github.com/matzehuels/dismantle/pkg/gnd"
)

// Strategy names accepted by Options.Strategy.
const (
	// StrategyDecycler runs the message-passing solver followed by greedy
	// reinsertion. The default and usually the strongest strategy on sparse
	// graphs.
	StrategyDecycler = "decycler"

	// StrategyGND runs the generalized ensemble dismantler: several
	// independently seeded partition-and-remove candidates, best curve wins.
	StrategyGND = "gnd"

	// StrategyDegree removes nodes by static degree, highest first. The
	// cheap baseline every benchmark needs.
	StrategyDegree = "degree"
)

// ValidStrategies is the set of accepted strategy names.
var ValidStrategies = map[string]bool{
	StrategyDecycler: true,
	StrategyGND:      true,
	StrategyDegree:   true,
}

// Defaults applied by ValidateAndSetDefaults.
const (
	// DefaultReinsertLimit caps reinsertion-merged components at this
	// fraction of N.
	DefaultReinsertLimit = 0.01

	// DefaultThreshold is the giant-component stop fraction reported as the
	// run's target step.
	DefaultThreshold = 0.01

	// DefaultMaxNodes guards against accidentally feeding a graph the
	// configured deployment cannot afford. Zero disables the guard; this
	// default is deliberately generous for CLI use.
	DefaultMaxNodes = 5_000_000
)

// Options configures one dismantling run. The zero value plus
// ValidateAndSetDefaults gives the standard decycler pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	Strategy string `json:"strategy,omitempty"`

	// Solver options (decycler strategy).
	MaxDepth      int     `json:"max_depth,omitempty"`
	Tolerance     float64 `json:"tolerance,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty"`
	RemovalCost   float64 `json:"removal_cost,omitempty"`

	// Selection options (decycler strategy).
	Mode           string  `json:"mode,omitempty"` // "threshold" or "topk"
	ScoreThreshold float64 `json:"score_threshold,omitempty"`
	TopK           int     `json:"top_k,omitempty"`

	// ReinsertLimit is the reinsertion budget as a fraction of N: a removed
	// node comes back when the component it would re-join stays at or below
	// ceil(N * ReinsertLimit). Negative disables reinsertion.
	ReinsertLimit float64 `json:"reinsert_limit,omitempty"`

	// Ensemble options (gnd strategy).
	Candidates int   `json:"candidates,omitempty"`
	Seed       int64 `json:"seed,omitempty"`
	MinSize    int   `json:"min_size,omitempty"`

	// EarlyStopAUC accepts the first ensemble candidate reaching this AUC or
	// better instead of running all of them. Zero disables early stopping.
	EarlyStopAUC float64 `json:"early_stop_auc,omitempty"`

	// Threshold is the giant-component stop fraction: the result reports
	// the first step at which the giant shrank to ceil(N * Threshold).
	Threshold float64 `json:"threshold,omitempty"`

	// MaxNodes rejects graphs larger than this with RESOURCE_EXHAUSTED
	// before any work starts. Zero applies DefaultMaxNodes; negative
	// disables the guard.
	MaxNodes int `json:"max_nodes,omitempty"`

	// Parallelism bounds worker counts in the solver and the ensemble.
	// Zero means GOMAXPROCS.
	Parallelism int `json:"parallelism,omitempty"`

	// Refresh bypasses the result cache for this run.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized).
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks fields and applies defaults. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Strategy == "" {
		o.Strategy = StrategyDecycler
	}
	if !ValidStrategies[o.Strategy] {
		return errors.New(errors.ErrCodeInvalidStrategy,
			"unknown strategy %q (must be one of: decycler, gnd, degree)", o.Strategy)
	}

	if o.ReinsertLimit == 0 {
		o.ReinsertLimit = DefaultReinsertLimit
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Threshold < 0 || o.Threshold > 1 {
		return errors.New(errors.ErrCodeInvalidOptions, "threshold must be in [0,1], got %g", o.Threshold)
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.Parallelism == 0 {
		o.Parallelism = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	// Validate strategy sub-options eagerly so bad parameters fail before
	// any graph work, not in the middle of a run.
	switch o.Strategy {
	case StrategyDecycler:
		d := o.DecyclerOptions()
		if err := d.ValidateAndSetDefaults(); err != nil {
			return err
		}
	case StrategyGND:
		g := o.GNDOptions()
		if err := g.ValidateAndSetDefaults(); err != nil {
			return err
		}
	}

	o.validated = true
	return nil
}

// DecyclerOptions maps the pipeline options onto the solver's option set.
func (o *Options) DecyclerOptions() decycler.Options {
	return decycler.Options{
		MaxDepth:       o.MaxDepth,
		Tolerance:      o.Tolerance,
		MaxIterations:  o.MaxIterations,
		RemovalCost:    o.RemovalCost,
		Mode:           decycler.SelectMode(o.Mode),
		ScoreThreshold: o.ScoreThreshold,
		TopK:           o.TopK,
		Parallelism:    o.Parallelism,
		Logger:         o.Logger,
	}
}

// GNDOptions maps the pipeline options onto the ensemble's option set.
func (o *Options) GNDOptions() gnd.Options {
	return gnd.Options{
		Candidates:   o.Candidates,
		Seed:         o.Seed,
		MinSize:      o.MinSize,
		Parallelism:  o.Parallelism,
		EarlyStopAUC: o.EarlyStopAUC,
		Logger:       o.Logger,
	}
}

// ResultKeyOpts returns the cache-key fingerprint for these options. Every
// field that can change the output sequence must be represented.
func (o *Options) ResultKeyOpts() cache.ResultKeyOpts {
	return cache.ResultKeyOpts{
		Strategy:       o.Strategy,
		MaxDepth:       o.MaxDepth,
		Tolerance:      o.Tolerance,
		MaxIterations:  o.MaxIterations,
		RemovalCost:    o.RemovalCost,
		Mode:           o.Mode,
		ScoreThreshold: o.ScoreThreshold,
		TopK:           o.TopK,
		Candidates:     o.Candidates,
		Seed:           o.Seed,
		MinSize:        o.MinSize,
		EarlyStopAUC:   o.EarlyStopAUC,
		ReinsertLimit:  o.ReinsertLimit,
		Threshold:      o.Threshold,
	}
}
