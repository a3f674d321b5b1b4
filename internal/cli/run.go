package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dismantle/pkg/export"
	"github.com/matzehuels/dismantle/pkg/graph"
	"github.com/matzehuels/dismantle/pkg/pipeline"
	"github.com/matzehuels/dismantle/pkg/results"
)

// runCommand creates the run command, the CLI's main entry point.
func (c *CLI) runCommand() *cobra.Command {
	var (
		configPath string
		output     string
		csvPath    string
		noCache    bool
		save       bool
	)
	flags := runFlags{}

	cmd := &cobra.Command{
		Use:   "run [graph-file]",
		Short: "Compute a dismantling sequence for a graph",
		Long: `Compute a dismantling sequence for a graph.

The graph file is either a text edge list (one "u v" pair per line, '#' and
'%' comments allowed) or a JSON object with "nodes" and "edges". Node
identifiers must be dense integers starting at 0.

The result - removal order, per-step component sizes, and area under the
giant-component curve - prints as a summary by default; use --output for the
full JSON record and --csv for a plottable curve.

Results are cached locally keyed on graph content and parameters, so
repeated runs with identical inputs return instantly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			opts := cfg.PipelineOptions()
			flags.apply(cmd, &opts)
			return c.runDismantle(cmd.Context(), args[0], opts, cfg, runOutput{
				output:  output,
				csvPath: csvPath,
				noCache: noCache,
				save:    save,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to dismantle.toml (default: search standard locations)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the full result as JSON to this file ('-' for stdout)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the removal curve as CSV to this file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")
	cmd.Flags().BoolVar(&save, "save", false, "persist the run to the configured results store")
	flags.register(cmd)

	return cmd
}

// runFlags holds the engine parameter flags so changed-flag detection can
// distinguish "flag left at default" from "flag set to the default value".
type runFlags struct {
	strategy       string
	maxDepth       int
	tolerance      float64
	maxIterations  int
	removalCost    float64
	mode           string
	scoreThreshold float64
	topK           int
	reinsertLimit  float64
	candidates     int
	seed           int64
	minSize        int
	earlyStopAUC   float64
	threshold      float64
	parallelism    int
	refresh        bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", pipeline.StrategyDecycler, "strategy: decycler, gnd, degree")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "solver: maximum tree depth D")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "solver: convergence tolerance")
	cmd.Flags().IntVar(&f.maxIterations, "max-iterations", 0, "solver: sweep cap")
	cmd.Flags().Float64Var(&f.removalCost, "removal-cost", 0, "solver: removal penalty mu")
	cmd.Flags().StringVar(&f.mode, "mode", "", "selection mode: threshold, topk")
	cmd.Flags().Float64Var(&f.scoreThreshold, "score-threshold", 0, "selection: minimum removal score")
	cmd.Flags().IntVar(&f.topK, "top-k", 0, "selection: number of nodes in topk mode")
	cmd.Flags().Float64Var(&f.reinsertLimit, "reinsert-limit", 0, "reinsertion budget as a fraction of N (negative disables)")
	cmd.Flags().IntVar(&f.candidates, "candidates", 0, "gnd: ensemble candidate count")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "gnd: base random seed")
	cmd.Flags().IntVar(&f.minSize, "min-size", 0, "gnd: recursion stops below this component size")
	cmd.Flags().Float64Var(&f.earlyStopAUC, "early-stop-auc", 0, "gnd: accept the first candidate at or below this AUC")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "giant-component stop fraction for the reported target step")
	cmd.Flags().IntVar(&f.parallelism, "parallelism", 0, "worker count (0 = all cores)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even if a cached result exists")
}

// apply copies flag values over the config-derived options, but only for
// flags the user actually set.
func (f *runFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	set := cmd.Flags().Changed
	if set("strategy") || opts.Strategy == "" {
		opts.Strategy = f.strategy
	}
	if set("max-depth") {
		opts.MaxDepth = f.maxDepth
	}
	if set("tolerance") {
		opts.Tolerance = f.tolerance
	}
	if set("max-iterations") {
		opts.MaxIterations = f.maxIterations
	}
	if set("removal-cost") {
		opts.RemovalCost = f.removalCost
	}
	if set("mode") {
		opts.Mode = f.mode
	}
	if set("score-threshold") {
		opts.ScoreThreshold = f.scoreThreshold
	}
	if set("top-k") {
		opts.TopK = f.topK
	}
	if set("reinsert-limit") {
		opts.ReinsertLimit = f.reinsertLimit
	}
	if set("candidates") {
		opts.Candidates = f.candidates
	}
	if set("seed") {
		opts.Seed = f.seed
	}
	if set("min-size") {
		opts.MinSize = f.minSize
	}
	if set("early-stop-auc") {
		opts.EarlyStopAUC = f.earlyStopAUC
	}
	if set("threshold") {
		opts.Threshold = f.threshold
	}
	if set("parallelism") {
		opts.Parallelism = f.parallelism
	}
	opts.Refresh = f.refresh
}

// runOutput bundles the output-side options of the run command.
type runOutput struct {
	output  string
	csvPath string
	noCache bool
	save    bool
}

// runDismantle loads the graph, executes the pipeline, and writes outputs.
func (c *CLI) runDismantle(ctx context.Context, input string, opts pipeline.Options, cfg *Config, out runOutput) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}
	if stats := g.Stats(); stats.SelfLoops > 0 || stats.Duplicates > 0 {
		c.Logger.Warn("dropped malformed edges",
			"self_loops", stats.SelfLoops, "duplicates", stats.Duplicates)
	}
	c.Logger.Info("loaded graph", "file", input, "nodes", g.NodeCount(), "edges", g.EdgeCount())

	runner, err := c.newRunner(ctx, cfg.Cache, out.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	run, err := runner.Execute(ctx, g, opts)
	if err != nil {
		return err
	}
	res := run.Result

	c.Logger.Info("dismantling finished",
		"strategy", res.Strategy,
		"auc", fmt.Sprintf("%.4f", res.AUC),
		"target_step", res.TargetStep,
		"converged", res.Converged,
		"cached", run.CacheHit)
	if !res.Converged {
		c.Logger.Warn("solver did not converge; result is the best current estimate")
	}

	if out.save {
		store, err := newStore(ctx, cfg.Results)
		if err != nil {
			return fmt.Errorf("initialize results store: %w", err)
		}
		if store == nil {
			c.Logger.Warn("--save set but no results backend configured")
		} else {
			defer store.Close(ctx)
			rec := results.NewRun(run.GraphHash, input, g.NodeCount(), g.EdgeCount(), res)
			if err := store.Save(ctx, rec); err != nil {
				return fmt.Errorf("save run: %w", err)
			}
			c.Logger.Info("run saved", "id", rec.ID)
		}
	}

	if out.csvPath != "" {
		if err := export.WriteCurveCSVFile(out.csvPath, res, g.NodeCount()); err != nil {
			return err
		}
		c.Logger.Info("curve written", "file", out.csvPath)
	}

	switch out.output {
	case "":
		printSummary(res, g.NodeCount())
	case "-":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		f, err := os.Create(out.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", out.output, err)
		}
		defer f.Close()
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
		c.Logger.Info("result written", "file", out.output)
	}
	return nil
}
