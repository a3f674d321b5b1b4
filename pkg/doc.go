// Package pkg provides the core libraries of the dismantle network
// dismantling engine.
//
// # Overview
//
// Dismantle computes ordered node-removal sequences that fragment a network
// as quickly as possible, measured by the area under the curve of
// giant-component size versus nodes removed. The pkg directory is organized
// into three main areas:
//
//  1. Domain logic (graph model, strategies, evaluation)
//  2. Infrastructure (caching, run persistence, observability)
//  3. Orchestration (the pipeline runner shared by CLI and HTTP API)
//
// # Architecture
//
// The typical data flow through a run:
//
//	Edge list (file or HTTP body)
//	         ↓
//	    [graph] package (CSR build + validation)
//	         ↓
//	    [decycler] / [gnd] package (removal prediction)
//	         ↓
//	    [reinsert] + [dismantle] package (refinement + evaluation)
//	         ↓
//	    JSON/CSV/DOT/SVG output
//
// # Quick Start
//
// Run the decycler strategy on an edge list and evaluate the curve:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/dismantle/pkg/graph"
//	    "github.com/matzehuels/dismantle/pkg/pipeline"
//	)
//
//	// 1. Build the graph
//	g, _ := graph.Build([]graph.Edge{{U: 0, V: 1}, {U: 1, V: 2}, {U: 2, V: 0}, {U: 2, V: 3}, {U: 3, V: 4}})
//
//	// 2. Run a strategy
//	runner := pipeline.NewRunner(nil, nil, nil)
//	run, _ := runner.Execute(context.Background(), g, pipeline.Options{
//	    Strategy: pipeline.StrategyDecycler,
//	})
//
//	// 3. Inspect the removal curve
//	for _, step := range run.Result.Removals {
//	    fmt.Println(step.Node, step.Giant)
//	}
//
// # Main Packages
//
// ## Domain Logic
//
// [graph] - Immutable CSR graph built from edge lists, with the active-set
// view and union-find connectivity tracking used to evaluate removal orders.
//
// [decycler] - Message-passing solver that scores nodes by their marginal
// for breaking all cycles, plus threshold/top-k target selection.
//
// [reinsert] - Greedy reinsertion that prunes a removal set back down while
// keeping every surviving component below a size limit.
//
// [gnd] - Ensemble dismantler that recursively bisects components via seeded
// BFS and removes boundary separators, keeping the best of several seeds.
//
// [dismantle] - Shared evaluation: sequence validation, curve and AUC
// computation, residual completion, and result finalization.
//
// ## Infrastructure
//
// [cache] - Result caching keyed by graph content hash plus option
// fingerprint. File backend for the CLI, Redis for server deployments,
// null for tests.
//
// [results] - Run persistence (JSONL file store, MongoDB store) backing the
// results CLI commands and the /api/runs endpoints.
//
// [observability] - Hook registry for run, solver, and cache events. All
// hooks default to no-ops.
//
// [errors] - Structured error codes shared by the CLI, HTTP API, and
// library callers.
//
// ## Orchestration and Output
//
// [pipeline] - The runner tying everything together: option validation,
// caching, strategy dispatch, and curve evaluation. Used by CLI, HTTP API,
// and library callers alike.
//
// [export] - Removal-curve CSV and Graphviz DOT/SVG rendering of dismantled
// graphs.
//
// [buildinfo] - Version metadata injected at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/decycler/... # Specific package
//	go test -run Example       # Examples only
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/dismantle/pkg/graph
// [decycler]: https://pkg.go.dev/github.com/matzehuels/dismantle/pkg/decycler
// [reinsert]: https://pkg.go.dev/github.com/matzehuels/dismantle/pkg/reinsert
// [gnd]: https://pkg.go.dev/github.com/matzehuels/dismantle/pkg/gnd
// [dismantle]: https://pkg.go.dev/github.com/matzehuels/dismantle/pkg/dismantle
// [cache]: https://pkg.go.dev/github.com/matzehuels/dismantle/pkg/cache
// [results]: https://pkg.go.dev/github.com/matzehuels/dismantle/pkg/results
// [observability]: https://pkg.go.dev/github.com/matzehuels/dismantle/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/dismantle/pkg/errors
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/dismantle/pkg/pipeline
// [export]: https://pkg.go.dev/github.com/matzehuels/dismantle/pkg/export
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/dismantle/pkg/buildinfo
package pkg
