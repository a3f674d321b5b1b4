package dismantle

import (
	"testing"

	"github.com/matzehuels/dismantle/pkg/graph"
)

func TestResidualOrder_PathSplitsMiddleFirst(t *testing.T) {
	g := pathGraph(t, 5)
	active := graph.NewActiveSet(g)

	order := ResidualOrder(g, active)
	if len(order) != 5 {
		t.Fatalf("len(order) = %d, want 5", len(order))
	}
	// Node 2 halves the path; nothing else leaves pieces smaller than 3.
	if order[0] != 2 {
		t.Errorf("order[0] = %d, want 2", order[0])
	}

	removals, err := Evaluate(g, order)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if removals[1].Giant > 2 {
		t.Errorf("giant after 2 removals = %d, want <= 2", removals[1].Giant)
	}
}

func TestResidualOrder_SkipsRemovedNodes(t *testing.T) {
	g := pathGraph(t, 5)
	active := graph.NewActiveSet(g)
	active.Remove(2)

	order := ResidualOrder(g, active)
	if len(order) != 4 {
		t.Fatalf("len(order) = %d, want 4", len(order))
	}
	for _, u := range order {
		if u == 2 {
			t.Fatal("order contains an already removed node")
		}
	}
	// Both halves have size 2; the {0,1} half is processed first and its
	// higher-degree node leads.
	if order[0] != 1 {
		t.Errorf("order[0] = %d, want 1", order[0])
	}
}

func TestResidualOrder_LeavesInputIntact(t *testing.T) {
	g := pathGraph(t, 5)
	active := graph.NewActiveSet(g)

	_ = ResidualOrder(g, active)
	if active.Count() != 5 {
		t.Errorf("active count = %d after ResidualOrder, want 5", active.Count())
	}
}
