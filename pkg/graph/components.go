package graph

// Components is an incremental union-find over an activated subset of nodes.
//
// It supports one mutation only: Activate, which adds a node and merges it
// with its already-activated neighbors. Removal sequences are evaluated by
// activating nodes back-to-front, which turns node deletion into node
// insertion - the classic offline trick for decremental connectivity.
//
// The structure additionally tracks the sizes of the largest and
// second-largest components, the statistics every dismantling strategy
// reports per removal step.
//
// Components is not safe for concurrent use; each candidate owns its own.
type Components struct {
	g       *Graph
	parent  []int32
	size    []int32
	present []bool
	counts  []int32 // counts[s] = number of components of exactly size s
	maxSize int32
	comps   int
}

// NewComponents returns an empty Components over g (no node activated).
func NewComponents(g *Graph) *Components {
	n := g.NodeCount()
	c := &Components{
		g:       g,
		parent:  make([]int32, n),
		size:    make([]int32, n),
		present: make([]bool, n),
		counts:  make([]int32, n+1),
	}
	return c
}

// Reset returns the structure to the empty state without reallocating.
func (c *Components) Reset() {
	for i := range c.present {
		c.present[i] = false
		c.size[i] = 0
	}
	for i := range c.counts {
		c.counts[i] = 0
	}
	c.maxSize = 0
	c.comps = 0
}

// Activate adds node u as a singleton component and unions it with every
// already-activated neighbor. Activating a present node is a no-op.
func (c *Components) Activate(u int) {
	if c.present[u] {
		return
	}
	c.present[u] = true
	c.parent[u] = int32(u)
	c.size[u] = 1
	c.counts[1]++
	c.comps++
	if c.maxSize < 1 {
		c.maxSize = 1
	}
	for _, v := range c.g.Neighbors(u) {
		if c.present[v] {
			c.union(int32(u), v)
		}
	}
}

// Present reports whether node u has been activated.
func (c *Components) Present(u int) bool { return c.present[u] }

// Count returns the number of components among activated nodes.
func (c *Components) Count() int { return c.comps }

// Giant returns the size of the largest component (0 when empty).
func (c *Components) Giant() int { return int(c.maxSize) }

// Second returns the size of the second-largest component (0 if fewer than
// two components exist).
func (c *Components) Second() int {
	if c.comps < 2 {
		return 0
	}
	if c.counts[c.maxSize] >= 2 {
		return int(c.maxSize)
	}
	for s := c.maxSize - 1; s >= 1; s-- {
		if c.counts[s] > 0 {
			return int(s)
		}
	}
	return 0
}

// SizeOf returns the size of the component containing u, or 0 if u is not
// activated.
func (c *Components) SizeOf(u int) int {
	if !c.present[u] {
		return 0
	}
	return int(c.size[c.find(int32(u))])
}

// Root returns the canonical representative of u's component.
// Only meaningful for activated nodes.
func (c *Components) Root(u int) int {
	return int(c.find(int32(u)))
}

// find with path halving.
func (c *Components) find(u int32) int32 {
	for c.parent[u] != u {
		c.parent[u] = c.parent[c.parent[u]]
		u = c.parent[u]
	}
	return u
}

// union by size, keeping counts and maxSize in sync.
func (c *Components) union(a, b int32) {
	ra, rb := c.find(a), c.find(b)
	if ra == rb {
		return
	}
	if c.size[ra] < c.size[rb] {
		ra, rb = rb, ra
	}
	sa, sb := c.size[ra], c.size[rb]
	c.counts[sa]--
	c.counts[sb]--
	c.parent[rb] = ra
	c.size[ra] = sa + sb
	c.counts[sa+sb]++
	c.comps--
	if sa+sb > c.maxSize {
		c.maxSize = sa + sb
	}
}

// ActivateSet activates every node marked active in a, in ascending order.
// Useful to seed the structure with the current residual graph before
// probing single reinsertions.
func (c *Components) ActivateSet(a *ActiveSet) {
	for u := 0; u < c.g.NodeCount(); u++ {
		if a.Active(u) {
			c.Activate(u)
		}
	}
}
