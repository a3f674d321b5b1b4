// Package dismantle defines the output contract shared by every dismantling
// strategy: ordered removal sequences, per-prefix component statistics, and
// the area-under-curve objective.
//
// Every strategy (decycler+reinsertion, GND, degree baseline) produces a
// [Result]: the removal order plus, for each prefix length, the giant and
// second-largest component sizes of the residual graph. Results are therefore
// directly comparable across strategies; lower [Result.AUC] is better.
//
// # Curve evaluation
//
// [Evaluate] computes the per-prefix statistics for a fixed removal order in
// near-linear time by processing the order back-to-front: nodes are activated
// into a union-find structure instead of being deleted, so the whole curve
// costs O((N+E) α) rather than one connectivity pass per removal step.
package dismantle
