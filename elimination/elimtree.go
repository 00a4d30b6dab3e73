package elimination

import (
	"sort"

	"github.com/tjpotts/isam2/values"
)

const noParent = values.Slot(-1)

// elimTree is the symbolic elimination tree over a fixed local ordering:
// for each slot, its parent is the lowest-indexed later slot it shares a
// (possibly fill-in) factor with.
type elimTree struct {
	parent   map[values.Slot]values.Slot
	children map[values.Slot][]values.Slot
	roots    []values.Slot
}

// buildElimTree simulates symbolic elimination over slots 0..n-1 using
// adjacency (mutated in place with fill-in edges, mirroring
// ordering/greedy.go's fill-in simulation but against a fixed order rather
// than a degree heuristic).
func buildElimTree(n int, adjacency map[values.Slot]map[values.Slot]struct{}) *elimTree {
	t := &elimTree{
		parent:   make(map[values.Slot]values.Slot, n),
		children: make(map[values.Slot][]values.Slot, n),
	}

	for v := values.Slot(0); int(v) < n; v++ {
		var higher []values.Slot
		for w := range adjacency[v] {
			if w > v {
				higher = append(higher, w)
			}
		}
		sort.Slice(higher, func(a, b int) bool { return higher[a] < higher[b] })

		if len(higher) == 0 {
			t.parent[v] = noParent
			t.roots = append(t.roots, v)
			continue
		}
		p := higher[0]
		t.parent[v] = p
		t.children[p] = append(t.children[p], v)

		for i := 0; i < len(higher); i++ {
			for j := i + 1; j < len(higher); j++ {
				a, b := higher[i], higher[j]
				ensureAdj(adjacency, a, b)
				ensureAdj(adjacency, b, a)
			}
		}
	}

	for v := range t.children {
		sort.Slice(t.children[v], func(a, b int) bool { return t.children[v][a] < t.children[v][b] })
	}
	sort.Slice(t.roots, func(a, b int) bool { return t.roots[a] < t.roots[b] })
	return t
}

func ensureAdj(adjacency map[values.Slot]map[values.Slot]struct{}, a, b values.Slot) {
	if adjacency[a] == nil {
		adjacency[a] = make(map[values.Slot]struct{})
	}
	adjacency[a][b] = struct{}{}
}
