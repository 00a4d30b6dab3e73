package ordering

import (
	"container/heap"

	"github.com/tjpotts/isam2/values"
)

// Graph is the minimal adjacency view Order needs: the set of variables and,
// for each variable, the other variables it shares at least one factor with.
// Callers (elimination, isam2) adapt their factor graphs to this interface
// rather than this package depending on the factor representation.
type Graph interface {
	Variables() []values.Key
	Neighbors(key values.Key) []values.Key
}

// Order produces a fill-reducing elimination order for g: a permutation of
// g.Variables() such that earlier keys tend to have smaller fill-in when
// eliminated first. This stands in for a production-grade COLAMD-style
// symbolic ordering — it is a deterministic greedy minimum-degree heuristic,
// not a claim of optimality.
//
// Keys in constrainedLast are always ordered after every unconstrained key,
// in the order given, so that constrained variables land adjacent to the
// tree's root rather than scattered through the interior.
//
// Algorithm (classical greedy minimum degree):
//  1. Build a working adjacency graph from g.
//  2. Repeatedly pick the unconstrained remaining vertex of smallest degree,
//     append it to the order, connect its remaining neighbors pairwise
//     (simulating the fill-in elimination would introduce), and remove it.
//  3. Once only constrained vertices remain, append them in the caller's
//     given order (they are ordered last regardless of degree, so that they
//     land adjacent to the root).
//
// Complexity: O(n log n + sum of degree^2) in the worst case, dominated by
// the fill-in edges introduced during elimination.
func Order(g Graph, constrainedLast []values.Key) []values.Key {
	constrained := make(map[values.Key]bool, len(constrainedLast))
	for _, k := range constrainedLast {
		constrained[k] = true
	}

	adj := make(map[values.Key]map[values.Key]struct{})
	var allVars []values.Key
	for _, k := range g.Variables() {
		allVars = append(allVars, k)
		if _, ok := adj[k]; !ok {
			adj[k] = make(map[values.Key]struct{})
		}
		for _, nb := range g.Neighbors(k) {
			if nb == k {
				continue
			}
			adj[k][nb] = struct{}{}
			if _, ok := adj[nb]; !ok {
				adj[nb] = make(map[values.Key]struct{})
			}
			adj[nb][k] = struct{}{}
		}
	}

	pq := make(degreePQ, 0, len(allVars))
	remaining := make(map[values.Key]bool, len(allVars))
	for _, k := range allVars {
		if constrained[k] {
			continue
		}
		remaining[k] = true
		heap.Push(&pq, &degreeItem{key: k, degree: len(adj[k])})
	}
	heap.Init(&pq)

	order := make([]values.Key, 0, len(allVars))
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*degreeItem)
		if !remaining[item.key] {
			continue // stale lazy-decrease-key entry
		}
		if item.degree != len(adj[item.key]) {
			// degree changed since this entry was pushed; re-push current value.
			heap.Push(&pq, &degreeItem{key: item.key, degree: len(adj[item.key])})
			continue
		}

		// Eliminate item.key: connect its remaining neighbors pairwise, then drop it.
		k := item.key
		delete(remaining, k)
		order = append(order, k)

		var neighbors []values.Key
		for nb := range adj[k] {
			if remaining[nb] {
				neighbors = append(neighbors, nb)
			}
		}
		for i := 0; i < len(neighbors); i++ {
			for j := i + 1; j < len(neighbors); j++ {
				a, b := neighbors[i], neighbors[j]
				adj[a][b] = struct{}{}
				adj[b][a] = struct{}{}
			}
			delete(adj[neighbors[i]], k)
			heap.Push(&pq, &degreeItem{key: neighbors[i], degree: len(adj[neighbors[i]])})
		}
	}

	order = append(order, constrainedLast...)
	return order
}

// degreeItem is one entry in the minimum-degree priority queue.
type degreeItem struct {
	key    values.Key
	degree int
}

// degreePQ is a min-heap of *degreeItem ordered by ascending degree, using a
// lazy-decrease-key discipline: rather than mutating an existing heap entry
// in place, a fresher entry is pushed and stale ones are discarded on Pop.
type degreePQ []*degreeItem

func (pq degreePQ) Len() int            { return len(pq) }
func (pq degreePQ) Less(i, j int) bool  { return pq[i].degree < pq[j].degree }
func (pq degreePQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *degreePQ) Push(x interface{}) { *pq = append(*pq, x.(*degreeItem)) }
func (pq *degreePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
