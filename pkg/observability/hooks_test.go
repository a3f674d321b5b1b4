package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopRunHooks{}
	r.OnRunStart(ctx, "decycler", 1000, 2500)
	r.OnRunComplete(ctx, "decycler", 400, 12.5, time.Second, nil)

	s := NoopSolverHooks{}
	s.OnSweep(ctx, 1, 0.25)
	s.OnStop(ctx, 120, true)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "graph")
	c.OnCacheMiss(ctx, "result")
	c.OnCacheSet(ctx, "result", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Run().(NoopRunHooks); !ok {
		t.Error("Run() should return NoopRunHooks by default")
	}
	if _, ok := Solver().(NoopSolverHooks); !ok {
		t.Error("Solver() should return NoopSolverHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customRun := &testRunHooks{}
	SetRunHooks(customRun)
	if Run() != customRun {
		t.Error("SetRunHooks should set custom hooks")
	}

	customSolver := &testSolverHooks{}
	SetSolverHooks(customSolver)
	if Solver() != customSolver {
		t.Error("SetSolverHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Run().(NoopRunHooks); !ok {
		t.Error("Reset() should restore NoopRunHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testRunHooks{}
	SetRunHooks(custom)

	SetRunHooks(nil)

	if Run() != custom {
		t.Error("SetRunHooks(nil) should be ignored")
	}

	Reset()
}

type testRunHooks struct{ NoopRunHooks }
type testSolverHooks struct{ NoopSolverHooks }
type testCacheHooks struct{ NoopCacheHooks }
