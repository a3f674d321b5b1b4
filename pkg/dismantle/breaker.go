package dismantle

import (
	"sort"

	"github.com/matzehuels/dismantle/pkg/graph"
)

// exactSplitCap bounds the component size for which the residual breaker
// evaluates every candidate splitter exhaustively. Larger components fall
// back to the highest-active-degree node.
const exactSplitCap = 512

// ResidualOrder returns a removal order for every node still active after
// the targeted phase of a strategy. Components are split recursively: the
// node whose removal minimizes the largest remaining piece is taken first
// (exhaustively for small components, by highest active degree above
// exactSplitCap), then the resulting pieces are processed largest-first.
//
// The order is deterministic: splitter ties break by higher degree then
// lower identifier, and equally-sized pieces by lowest contained identifier.
func ResidualOrder(g *graph.Graph, active *graph.ActiveSet) []int {
	work := active.Clone()
	order := make([]int, 0, work.Count())

	comps := activeComponents(g, work, nil)
	sortComponents(comps)
	for _, comp := range comps {
		breakComponent(g, work, comp, &order)
	}
	return order
}

// breakComponent appends a removal order for one connected component.
func breakComponent(g *graph.Graph, work *graph.ActiveSet, comp []int, order *[]int) {
	if len(comp) == 0 {
		return
	}
	if len(comp) <= 2 {
		sort.Slice(comp, func(i, j int) bool {
			di, dj := g.Degree(comp[i]), g.Degree(comp[j])
			if di != dj {
				return di > dj
			}
			return comp[i] < comp[j]
		})
		for _, u := range comp {
			*order = append(*order, u)
			work.Remove(u)
		}
		return
	}

	split := pickSplitter(g, work, comp)
	*order = append(*order, split)
	work.Remove(split)

	sub := activeComponents(g, work, comp)
	sortComponents(sub)
	for _, c := range sub {
		breakComponent(g, work, c, order)
	}
}

// pickSplitter chooses the node to remove from comp.
func pickSplitter(g *graph.Graph, work *graph.ActiveSet, comp []int) int {
	if len(comp) > exactSplitCap {
		best := comp[0]
		for _, u := range comp[1:] {
			du, db := work.ActiveDegree(u), work.ActiveDegree(best)
			if du > db || (du == db && u < best) {
				best = u
			}
		}
		return best
	}

	best, bestPiece := -1, 0
	for _, u := range comp {
		piece := largestPieceWithout(g, work, comp, u)
		if best == -1 || piece < bestPiece {
			best, bestPiece = u, piece
			continue
		}
		if piece == bestPiece {
			du, db := g.Degree(u), g.Degree(best)
			if du > db || (du == db && u < best) {
				best = u
			}
		}
	}
	return best
}

// largestPieceWithout returns the largest connected piece of comp after
// hypothetically removing node skip.
func largestPieceWithout(g *graph.Graph, work *graph.ActiveSet, comp []int, skip int) int {
	seen := make(map[int]bool, len(comp))
	seen[skip] = true
	largest := 0
	for _, s := range comp {
		if seen[s] {
			continue
		}
		size := 0
		queue := []int{s}
		seen[s] = true
		for len(queue) > 0 {
			u := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			size++
			for _, v := range g.Neighbors(u) {
				w := int(v)
				if work.Active(w) && !seen[w] {
					seen[w] = true
					queue = append(queue, w)
				}
			}
		}
		if size > largest {
			largest = size
		}
	}
	return largest
}

// activeComponents returns the connected components of the active subgraph.
// If within is non-nil, the search is restricted to those nodes; otherwise
// all active nodes are scanned in ascending order.
func activeComponents(g *graph.Graph, work *graph.ActiveSet, within []int) [][]int {
	var scan []int
	if within != nil {
		scan = within
	} else {
		scan = make([]int, 0, work.Count())
		for u := 0; u < g.NodeCount(); u++ {
			if work.Active(u) {
				scan = append(scan, u)
			}
		}
	}

	seen := make(map[int]bool, len(scan))
	var comps [][]int
	for _, s := range scan {
		if !work.Active(s) || seen[s] {
			continue
		}
		var comp []int
		queue := []int{s}
		seen[s] = true
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			comp = append(comp, u)
			for _, v := range g.Neighbors(u) {
				w := int(v)
				if work.Active(w) && !seen[w] {
					seen[w] = true
					queue = append(queue, w)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

// sortComponents orders components by descending size, ties by the lowest
// contained identifier (components are BFS-discovered so index 0 is the
// smallest identifier reached first from an ascending scan).
func sortComponents(comps [][]int) {
	sort.Slice(comps, func(i, j int) bool {
		if len(comps[i]) != len(comps[j]) {
			return len(comps[i]) > len(comps[j])
		}
		return comps[i][0] < comps[j][0]
	})
}
