// Package reinsert refines a removal set by greedily undoing removals that
// turned out to be unnecessary. Candidates are tried from least to most
// promising removal; a node is put back whenever the component it would glue
// together stays at or below a size limit. The refined set is always a
// subset of the input, so refinement can only lower the removal count.
package reinsert

import (
	"context"
	"io"
	"sort"

	charmlog "github.com/charmbracelet/log"

	"github.com/matzehuels/dismantle/pkg/errors"
	"github.com/matzehuels/dismantle/pkg/graph"
)

// Refine returns the removal sequence with reinsertable nodes dropped,
// preserving the relative order of the survivors, together with the number
// of reinserted nodes.
//
// Candidates are probed in ascending score order (ties by lower identifier);
// with nil scores, ascending degree is used instead. A candidate is
// reinserted iff the merged component it would create has size <= limit.
// limit <= 0 disables reinsertion.
func Refine(ctx context.Context, g *graph.Graph, removed []int, scores []float64, limit int, logger *charmlog.Logger) ([]int, int, error) {
	if logger == nil {
		logger = charmlog.New(io.Discard)
	}
	if err := validate(g, removed); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || len(removed) == 0 {
		out := make([]int, len(removed))
		copy(out, removed)
		return out, 0, nil
	}

	comps := graph.NewComponents(g)
	inRemoved := make([]bool, g.NodeCount())
	for _, u := range removed {
		inRemoved[u] = true
	}
	for u := 0; u < g.NodeCount(); u++ {
		if !inRemoved[u] {
			comps.Activate(u)
		}
	}

	order := candidateOrder(g, removed, scores)
	back := make([]bool, g.NodeCount())
	count := 0
	roots := make([]int, 0, 8)

	for i, u := range order {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, errors.Wrap(errors.ErrCodeResourceExhausted, err, "reinsertion aborted at candidate %d", i)
			}
		}

		// Probe the merge without committing: collect distinct component
		// roots among active neighbors and sum their sizes.
		merged := 1
		roots = roots[:0]
		for _, v := range g.Neighbors(u) {
			w := int(v)
			if !comps.Present(w) {
				continue
			}
			r := comps.Root(w)
			known := false
			for _, seen := range roots {
				if seen == r {
					known = true
					break
				}
			}
			if !known {
				roots = append(roots, r)
				merged += comps.SizeOf(w)
			}
		}

		if merged <= limit {
			comps.Activate(u)
			back[u] = true
			count++
		}
	}

	refined := make([]int, 0, len(removed)-count)
	for _, u := range removed {
		if !back[u] {
			refined = append(refined, u)
		}
	}
	logger.Debug("reinsertion done", "reinserted", count, "remaining", len(refined), "limit", limit)
	return refined, count, nil
}

func validate(g *graph.Graph, removed []int) error {
	seen := make([]bool, g.NodeCount())
	for i, u := range removed {
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

// candidateOrder sorts the removed nodes from least to most promising
// removal, so the nodes whose removal bought the least get the first chance
// to come back.
func candidateOrder(g *graph.Graph, removed []int, scores []float64) []int {
	order := make([]int, len(removed))
	copy(order, removed)

	sort.Slice(order, func(i, j int) bool {
		u, v := order[i], order[j]
		if scores != nil && scores[u] != scores[v] {
			return scores[u] < scores[v]
		}
		if scores == nil && g.Degree(u) != g.Degree(v) {
			return g.Degree(u) < g.Degree(v)
		}
		return u < v
	})
	return order
}
