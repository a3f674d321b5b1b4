// Package observability provides hooks for metrics and tracing backends.
//
// The engine itself stays free of observability framework dependencies;
// instead, the binary registers hook implementations at startup and the
// library emits events through them. Defaults are no-ops, so a host that
// never registers anything pays one interface call per event.
//
// Register hooks before any run starts:
//
//	observability.SetRunHooks(&myRunHooks{})
//	observability.SetSolverHooks(&mySolverHooks{})
package observability

import (
	"context"
	"sync"
	"time"
)

// RunHooks receives events spanning a whole dismantling run.
type RunHooks interface {
	// OnRunStart fires when a strategy begins on a graph.
	OnRunStart(ctx context.Context, strategy string, nodes, edges int)

	// OnRunComplete fires when the run finishes, with the resulting AUC and
	// removal count. err is non-nil when the run aborted.
	OnRunComplete(ctx context.Context, strategy string, removals int, auc float64, duration time.Duration, err error)
}

// SolverHooks receives events from the message-passing solver.
type SolverHooks interface {
	// OnSweep fires after every completed sweep with the max message delta.
	OnSweep(ctx context.Context, sweep int, maxDelta float64)

	// OnStop fires once when the solver stops iterating. converged is false
	// when the iteration cap was hit first.
	OnStop(ctx context.Context, sweeps int, converged bool)
}

// CacheHooks receives events from result-cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopRunHooks is a no-op implementation of RunHooks.
type NoopRunHooks struct{}

func (NoopRunHooks) OnRunStart(context.Context, string, int, int) {}
func (NoopRunHooks) OnRunComplete(context.Context, string, int, float64, time.Duration, error) {
}

// NoopSolverHooks is a no-op implementation of SolverHooks.
type NoopSolverHooks struct{}

func (NoopSolverHooks) OnSweep(context.Context, int, float64) {}
func (NoopSolverHooks) OnStop(context.Context, int, bool)     {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	runHooks    RunHooks    = NoopRunHooks{}
	solverHooks SolverHooks = NoopSolverHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetRunHooks registers custom run hooks. Call once at startup before any
// run begins.
func SetRunHooks(h RunHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		runHooks = h
	}
}

// SetSolverHooks registers custom solver hooks. Call once at startup before
// any run begins.
func SetSolverHooks(h SolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		solverHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Call once at startup before
// any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Run returns the registered run hooks.
func Run() RunHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return runHooks
}

// Solver returns the registered solver hooks.
func Solver() SolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return solverHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op defaults. Primarily useful for tests.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	runHooks = NoopRunHooks{}
	solverHooks = NoopSolverHooks{}
	cacheHooks = NoopCacheHooks{}
}
