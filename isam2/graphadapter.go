package isam2

import (
	"github.com/tjpotts/isam2/linear"
	"github.com/tjpotts/isam2/ordering"
	"github.com/tjpotts/isam2/values"
)

// localGraph adapts one update's local factor set into the ordering.Graph
// interface ordering.Order needs: the variables being locally re-eliminated
// (L), and their adjacency restricted to L (a boundary factor's separator
// variables outside L are visible in its block list but are not themselves
// members of L, so they never enter the local ordering).
type localGraph struct {
	keys      []values.Key
	neighbors map[values.Key]map[values.Key]struct{}
}

// newLocalGraph builds a localGraph over keys, with adjacency derived from
// every factor in localFactors that touches two or more members of keys.
// globalOrd resolves each factor's slot-labeled blocks back to Keys.
func newLocalGraph(globalOrd *ordering.Ordering, localFactors []*linear.Jacobian, keys []values.Key) *localGraph {
	g := &localGraph{
		keys:      append([]values.Key(nil), keys...),
		neighbors: make(map[values.Key]map[values.Key]struct{}, len(keys)),
	}
	inSet := make(map[values.Key]bool, len(keys))
	for _, k := range keys {
		inSet[k] = true
		g.neighbors[k] = make(map[values.Key]struct{})
	}

	for _, f := range localFactors {
		var touched []values.Key
		for _, s := range f.Vars() {
			k, err := globalOrd.KeyOf(s)
			if err != nil {
				continue
			}
			if inSet[k] {
				touched = append(touched, k)
			}
		}
		for _, a := range touched {
			for _, b := range touched {
				if a != b {
					g.neighbors[a][b] = struct{}{}
				}
			}
		}
	}
	return g
}

func (g *localGraph) Variables() []values.Key { return g.keys }

func (g *localGraph) Neighbors(key values.Key) []values.Key {
	set := g.neighbors[key]
	out := make([]values.Key, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
