package graph_test

import (
	"fmt"

	"github.com/matzehuels/dismantle/pkg/graph"
)

func ExampleBuild() {
	// A triangle with one self-loop and one duplicate edge in the input.
	g, err := graph.Build([]graph.Edge{
		{U: 0, V: 1},
		{U: 1, V: 2},
		{U: 2, V: 0},
		{U: 2, V: 2}, // self-loop, dropped
		{U: 1, V: 0}, // duplicate of 0-1, dropped
	})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("nodes:", g.NodeCount())
	fmt.Println("edges:", g.EdgeCount())
	fmt.Println("self-loops dropped:", g.Stats().SelfLoops)
	fmt.Println("duplicates dropped:", g.Stats().Duplicates)
	// Output:
	// nodes: 3
	// edges: 3
	// self-loops dropped: 1
	// duplicates dropped: 1
}

func ExampleComponents() {
	// A path 0-1-2-3-4, activated one node at a time.
	g, _ := graph.Build([]graph.Edge{
		{U: 0, V: 1}, {U: 1, V: 2}, {U: 2, V: 3}, {U: 3, V: 4},
	})

	comps := graph.NewComponents(g)
	comps.Activate(0)
	comps.Activate(1)
	comps.Activate(3)
	fmt.Printf("components=%d giant=%d second=%d\n", comps.Count(), comps.Giant(), comps.Second())

	// Activating 2 bridges the two components.
	comps.Activate(2)
	fmt.Printf("components=%d giant=%d second=%d\n", comps.Count(), comps.Giant(), comps.Second())
	// Output:
	// components=2 giant=2 second=1
	// components=1 giant=4 second=0
}
