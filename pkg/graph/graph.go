package graph

import (
	"slices"
	"sort"

	"github.com/matzehuels/dismantle/pkg/errors"
)

// Edge is an unordered pair of node identifiers.
// The canonical form stored by Build has U < V.
type Edge struct {
	U int `json:"u" bson:"u"`
	V int `json:"v" bson:"v"`
}

// BuildStats records input anomalies tolerated during Build.
type BuildStats struct {
	SelfLoops  int // dropped self-loop edges
	Duplicates int // dropped parallel edges
}

// Graph is a static undirected graph in compressed sparse row form.
// The zero value is not usable - use Build.
//
// Node identifiers are dense in [0, NodeCount). Arc identifiers are dense in
// [0, ArcCount) where arc a runs from its source node to Target(a); each
// undirected edge contributes two arcs, one per direction.
//
// Graph is immutable after Build and safe for concurrent use.
type Graph struct {
	n       int
	offsets []int32 // len n+1; arcs of node u are [offsets[u], offsets[u+1])
	targets []int32 // arc -> target node
	sources []int32 // arc -> source node (for flat parallel iteration)
	reverse []int32 // arc -> opposite-direction arc
	edges   []Edge  // canonical deduplicated edge list, U < V, sorted
	stats   BuildStats
}

// buildConfig holds optional Build parameters.
type buildConfig struct {
	nodeCount int
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// WithNodeCount fixes the node count instead of inferring it from the highest
// identifier in the edge list. Build fails with INVALID_INPUT if an edge
// references a node >= n.
func WithNodeCount(n int) BuildOption {
	return func(c *buildConfig) { c.nodeCount = n }
}

// Build constructs a Graph from an edge list.
//
// Self-loops are dropped and parallel edges deduplicated; both are counted in
// Stats. Build fails with INVALID_INPUT if the edge list is empty or an
// identifier is negative or out of range.
func Build(edges []Edge, opts ...BuildOption) (*Graph, error) {
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(edges) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "edge list is empty")
	}
	if cfg.nodeCount < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "node count %d is negative", cfg.nodeCount)
	}

	maxID := -1
	for _, e := range edges {
		if e.U < 0 || e.V < 0 {
			return nil, errors.New(errors.ErrCodeInvalidEdge, "edge %d-%d has a negative identifier", e.U, e.V)
		}
		if e.U > maxID {
			maxID = e.U
		}
		if e.V > maxID {
			maxID = e.V
		}
	}

	n := maxID + 1
	if cfg.nodeCount > 0 {
		if maxID >= cfg.nodeCount {
			return nil, errors.New(errors.ErrCodeInvalidEdge,
				"edge references node %d, graph has %d nodes", maxID, cfg.nodeCount)
		}
		n = cfg.nodeCount
	}

	g := &Graph{n: n}

	// Canonicalize (U < V), drop self-loops, sort, deduplicate.
	canon := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.U == e.V {
			g.stats.SelfLoops++
			continue
		}
		if e.U > e.V {
			e.U, e.V = e.V, e.U
		}
		canon = append(canon, e)
	}
	sort.Slice(canon, func(i, j int) bool {
		if canon[i].U != canon[j].U {
			return canon[i].U < canon[j].U
		}
		return canon[i].V < canon[j].V
	})
	canon = slices.Compact(canon)
	g.stats.Duplicates = len(edges) - g.stats.SelfLoops - len(canon)
	g.edges = canon

	// Count degrees, then fill the CSR arrays.
	deg := make([]int32, n)
	for _, e := range canon {
		deg[e.U]++
		deg[e.V]++
	}
	g.offsets = make([]int32, n+1)
	for u := 0; u < n; u++ {
		g.offsets[u+1] = g.offsets[u] + deg[u]
	}

	m := int(g.offsets[n])
	g.targets = make([]int32, m)
	g.sources = make([]int32, m)
	fill := make([]int32, n)
	copy(fill, g.offsets[:n])
	for _, e := range canon {
		g.targets[fill[e.U]] = int32(e.V)
		g.sources[fill[e.U]] = int32(e.U)
		fill[e.U]++
		g.targets[fill[e.V]] = int32(e.U)
		g.sources[fill[e.V]] = int32(e.V)
		fill[e.V]++
	}

	// Neighbor slices are sorted ascending because the edge list was sorted,
	// so the reverse arc is found by binary search in the target's slice.
	g.reverse = make([]int32, m)
	for a := 0; a < m; a++ {
		u, v := g.sources[a], g.targets[a]
		lo, hi := g.offsets[v], g.offsets[v+1]
		pos, _ := slices.BinarySearch(g.targets[lo:hi], u)
		g.reverse[a] = lo + int32(pos)
	}

	return g, nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return g.n }

// EdgeCount returns the number of undirected edges after deduplication.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// ArcCount returns the number of directed arcs (twice the edge count).
func (g *Graph) ArcCount() int { return len(g.targets) }

// Degree returns the degree of node u.
func (g *Graph) Degree(u int) int {
	return int(g.offsets[u+1] - g.offsets[u])
}

// Neighbors returns the neighbors of u as a read-only view, sorted ascending.
// The slice aliases internal storage and must not be modified.
func (g *Graph) Neighbors(u int) []int32 {
	return g.targets[g.offsets[u]:g.offsets[u+1]]
}

// Arcs returns the arc id range [lo, hi) of the arcs leaving u.
// Arc lo+i points at Neighbors(u)[i].
func (g *Graph) Arcs(u int) (lo, hi int32) {
	return g.offsets[u], g.offsets[u+1]
}

// Source returns the source node of arc a.
func (g *Graph) Source(a int32) int { return int(g.sources[a]) }

// Target returns the target node of arc a.
func (g *Graph) Target(a int32) int { return int(g.targets[a]) }

// Reverse returns the arc running opposite to a.
func (g *Graph) Reverse(a int32) int32 { return g.reverse[a] }

// Edges returns a copy of the canonical edge list (U < V, sorted).
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Stats returns the input anomalies recorded during Build.
func (g *Graph) Stats() BuildStats { return g.stats }
