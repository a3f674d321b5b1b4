package dismantle

import (
	"math"
	"sort"
	"time"

	"github.com/matzehuels/dismantle/pkg/errors"
	"github.com/matzehuels/dismantle/pkg/graph"
)

// Removal is one step of a removal sequence together with the component
// statistics of the residual graph after the step.
type Removal struct {
	Step   int     `json:"step" bson:"step"`     // 1-based removal index
	Node   int     `json:"node" bson:"node"`     // removed node identifier
	Score  float64 `json:"score" bson:"score"`   // strategy's score for the node
	Giant  int     `json:"giant" bson:"giant"`   // largest component size after removal
	Second int     `json:"second" bson:"second"` // second-largest component size after removal
}

// Result is the outcome of one dismantling run. All strategies return this
// shape, which makes them interchangeable and comparable.
type Result struct {
	Strategy string    `json:"strategy" bson:"strategy"`
	Sequence []int     `json:"sequence" bson:"sequence"`
	Removals []Removal `json:"removals" bson:"removals"`

	// AUC is the sum over removal steps of the giant-component fraction,
	// the optimization objective (lower is better).
	AUC float64 `json:"auc" bson:"auc"`

	// Converged is false when the message-passing stage stopped at its
	// iteration cap. The result is still the best current estimate.
	Converged bool `json:"converged" bson:"converged"`

	// TargetStep is the first step at which the giant component reached the
	// configured stop size, or 0 if no target was configured.
	TargetStep int `json:"target_step,omitempty" bson:"target_step,omitempty"`

	// FallbackSteps counts degenerate-partition fallbacks absorbed by GND.
	FallbackSteps int `json:"fallback_steps,omitempty" bson:"fallback_steps,omitempty"`

	// Peak of the second-largest component over the run, a standard
	// dismantling diagnostic: the percolation transition happens near it.
	PeakSecondStep int `json:"slcc_peak_step" bson:"slcc_peak_step"`
	GiantAtPeak    int `json:"giant_at_peak" bson:"giant_at_peak"`
	SecondAtPeak   int `json:"second_at_peak" bson:"second_at_peak"`

	PredictionTime time.Duration `json:"prediction_time" bson:"prediction_time"`
	DismantleTime  time.Duration `json:"dismantle_time" bson:"dismantle_time"`
}

// StopSize translates a giant-component threshold fraction into an absolute
// size: dismantling may stop once the giant component is <= StopSize.
// A zero or negative threshold means full dismantling (stop size 0).
func StopSize(n int, threshold float64) int {
	if threshold <= 0 {
		return 0
	}
	return int(math.Ceil(float64(n) * threshold))
}

// ValidateSequence checks that seq contains only in-range identifiers with no
// repeats. Fails with INVALID_SEQUENCE.
func ValidateSequence(g *graph.Graph, seq []int) error {
	seen := make([]bool, g.NodeCount())
	for i, u := range seq {
		if u < 0 || u >= g.NodeCount() {
			return errors.New(errors.ErrCodeInvalidSequence, "position %d: node %d out of range [0,%d)", i, u, g.NodeCount())
		}
		if seen[u] {
			return errors.New(errors.ErrCodeInvalidSequence, "position %d: node %d repeated", i, u)
		}
		seen[u] = true
	}
	return nil
}

// Complete extends seq with every node not yet in it, ordered by descending
// degree then ascending identifier. The returned sequence has length N and
// removing it entirely always drives the giant component to zero.
func Complete(g *graph.Graph, seq []int) []int {
	n := g.NodeCount()
	in := make([]bool, n)
	for _, u := range seq {
		in[u] = true
	}
	rest := make([]int, 0, n-len(seq))
	for u := 0; u < n; u++ {
		if !in[u] {
			rest = append(rest, u)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		di, dj := g.Degree(rest[i]), g.Degree(rest[j])
		if di != dj {
			return di > dj
		}
		return rest[i] < rest[j]
	})
	out := make([]int, 0, n)
	out = append(out, seq...)
	return append(out, rest...)
}

// Evaluate computes per-prefix component statistics for a removal order.
//
// The order is processed back-to-front: nodes are activated into a fresh
// union-find structure, so prefix k's statistics are read off just before
// activating the k-th removed node. Nodes never appearing in seq are
// activated first (they are present throughout).
func Evaluate(g *graph.Graph, seq []int) ([]Removal, error) {
	if err := ValidateSequence(g, seq); err != nil {
		return nil, err
	}

	comps := graph.NewComponents(g)
	inSeq := make([]bool, g.NodeCount())
	for _, u := range seq {
		inSeq[u] = true
	}
	for u := 0; u < g.NodeCount(); u++ {
		if !inSeq[u] {
			comps.Activate(u)
		}
	}

	removals := make([]Removal, len(seq))
	for k := len(seq) - 1; k >= 0; k-- {
		// comps currently holds the residual graph after removing seq[:k+1].
		removals[k] = Removal{
			Step:   k + 1,
			Node:   seq[k],
			Giant:  comps.Giant(),
			Second: comps.Second(),
		}
		comps.Activate(seq[k])
	}
	return removals, nil
}

// AUC returns the area under the giant-component curve: the sum over steps
// of giant/n, with unit step width. Matches the discrete integral used by
// the benchmarking convention this engine follows.
func AUC(removals []Removal, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range removals {
		sum += float64(r.Giant) / float64(n)
	}
	return sum
}

// Finalize assembles a Result from a removal order and fills in the curve,
// AUC, peak statistics and the target step for the given stop size.
func Finalize(g *graph.Graph, strategy string, seq []int, scores []float64, stopSize int) (*Result, error) {
	removals, err := Evaluate(g, seq)
	if err != nil {
		return nil, err
	}
	if scores != nil {
		for i := range removals {
			removals[i].Score = scores[removals[i].Node]
		}
	}

	res := &Result{
		Strategy:  strategy,
		Sequence:  seq,
		Removals:  removals,
		AUC:       AUC(removals, g.NodeCount()),
		Converged: true,
	}

	for _, r := range removals {
		if r.Second > res.SecondAtPeak {
			res.SecondAtPeak = r.Second
			res.GiantAtPeak = r.Giant
			res.PeakSecondStep = r.Step
		}
	}
	if stopSize > 0 {
		for _, r := range removals {
			if r.Giant <= stopSize {
				res.TargetStep = r.Step
				break
			}
		}
	}
	return res, nil
}

// Better reports whether a beats b under the candidate ordering: lower AUC,
// ties broken by shorter sequence, then by lower peak giant size.
func Better(a, b *Result) bool {
	if a.AUC != b.AUC {
		return a.AUC < b.AUC
	}
	if len(a.Sequence) != len(b.Sequence) {
		return len(a.Sequence) < len(b.Sequence)
	}
	return a.GiantAtPeak < b.GiantAtPeak
}
