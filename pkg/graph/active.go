package graph

// ActiveSet tracks which nodes of a shared Graph are still present.
// Each run (and each ensemble candidate) owns its private ActiveSet while
// the adjacency structure is shared read-only.
//
// ActiveSet is not safe for concurrent use.
type ActiveSet struct {
	g      *Graph
	active []bool
	count  int
}

// NewActiveSet returns an ActiveSet with every node active.
func NewActiveSet(g *Graph) *ActiveSet {
	a := &ActiveSet{
		g:      g,
		active: make([]bool, g.NodeCount()),
		count:  g.NodeCount(),
	}
	for i := range a.active {
		a.active[i] = true
	}
	return a
}

// Clone returns an independent copy sharing the same Graph.
func (a *ActiveSet) Clone() *ActiveSet {
	cp := &ActiveSet{
		g:      a.g,
		active: make([]bool, len(a.active)),
		count:  a.count,
	}
	copy(cp.active, a.active)
	return cp
}

// Graph returns the shared topology.
func (a *ActiveSet) Graph() *Graph { return a.g }

// Active reports whether node u is present.
func (a *ActiveSet) Active(u int) bool { return a.active[u] }

// Count returns the number of active nodes.
func (a *ActiveSet) Count() int { return a.count }

// Remove deactivates node u. Removing an already-removed node is a no-op.
func (a *ActiveSet) Remove(u int) {
	if a.active[u] {
		a.active[u] = false
		a.count--
	}
}

// Restore reactivates node u. Restoring an active node is a no-op.
func (a *ActiveSet) Restore(u int) {
	if !a.active[u] {
		a.active[u] = true
		a.count++
	}
}

// ActiveDegree returns the number of active neighbors of u.
func (a *ActiveSet) ActiveDegree(u int) int {
	d := 0
	for _, v := range a.g.Neighbors(u) {
		if a.active[v] {
			d++
		}
	}
	return d
}
