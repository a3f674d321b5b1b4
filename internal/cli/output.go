package cli

import (
	"fmt"

	"github.com/matzehuels/dismantle/pkg/dismantle"
)

// printSummary prints the human-readable run summary to stdout.
func printSummary(res *dismantle.Result, n int) {
	fmt.Printf("strategy:     %s\n", res.Strategy)
	fmt.Printf("nodes:        %d\n", n)
	fmt.Printf("auc:          %.4f\n", res.AUC)
	fmt.Printf("converged:    %v\n", res.Converged)
	if res.TargetStep > 0 {
		fmt.Printf("target step:  %d (%.1f%% of nodes removed)\n",
			res.TargetStep, 100*float64(res.TargetStep)/float64(n))
	}
	if res.FallbackSteps > 0 {
		fmt.Printf("fallbacks:    %d\n", res.FallbackSteps)
	}
	fmt.Printf("slcc peak:    step %d (giant %d, second %d)\n",
		res.PeakSecondStep, res.GiantAtPeak, res.SecondAtPeak)

	head := res.Removals
	if len(head) > 10 {
		head = head[:10]
	}
	fmt.Println("first removals:")
	for _, r := range head {
		fmt.Printf("  %4d  node %-8d giant %-8d second %d\n", r.Step, r.Node, r.Giant, r.Second)
	}
	if len(res.Removals) > 10 {
		fmt.Printf("  ... %d more\n", len(res.Removals)-10)
	}
}
