// Package decycler scores nodes for removal with a message-passing solver.
//
// The solver treats dismantling as a feedback-vertex-set problem: a graph
// whose residual is a forest of bounded-depth trees has no giant component
// once the trees are broken. Each directed arc carries a belief vector over
// D+1 states: state 0 means the arc's source is removed, state d in 1..D
// means the source is present at depth d of a rooted tree. Beliefs are
// updated with synchronous (Jacobi) sweeps until the largest per-entry
// change falls below a tolerance, or an iteration cap is reached.
//
// Per-node marginals yield a removal score in [0,1]; [Decycle] selects the
// targeted set by score threshold or top-k and orders it by descending
// score. The solver is fully deterministic: no randomness enters the
// updates, so identical inputs always produce identical scores.
package decycler
