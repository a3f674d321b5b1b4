// Package graph provides the static undirected graph model shared by all
// dismantling strategies.
//
// A [Graph] is built once from an edge list and is immutable in topology
// afterwards. Removal of nodes is always logical: strategies track their own
// active set and the adjacency structure is safely shared between concurrent
// runs and ensemble candidates.
//
// # Representation
//
// Adjacency is stored in compressed sparse row form: one flattened neighbor
// array indexed by per-node offsets. Every (node, neighbor) slot doubles as a
// directed arc identifier, so per-direction state (such as the decycler's
// cavity messages) can live in one contiguous array indexed by arc id. The
// reverse arc of any arc is resolvable in O(1).
//
// # Connectivity
//
// [Components] is the shared incremental-connectivity primitive: a union-find
// structure over an activated subset of nodes. It only supports activation
// (adding a node and merging it with its activated neighbors), which is
// exactly what removal sequences need when they are evaluated back-to-front.
// See [Components.Activate].
//
// # Building
//
//	g, err := graph.Build([]graph.Edge{{U: 0, V: 1}, {U: 1, V: 2}})
//	if err != nil { ... }
//	g.NodeCount() // 3
//
// Self-loops are dropped and parallel edges deduplicated during Build; the
// counts are recorded in [Graph.Stats] for diagnostics.
package graph
