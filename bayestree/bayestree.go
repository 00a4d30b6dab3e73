package bayestree

import (
	"github.com/tjpotts/isam2/clique"
	"github.com/tjpotts/isam2/values"
)

// BayesTree is a rooted forest of cliques backed by a clique.Arena. The
// running-intersection property (a variable appearing in two cliques also
// appears in every clique on the path between them) and the
// coverage/partition property (every variable's frontal assignment is
// unique and their union covers the whole problem) are properties of the
// cliques the elimination engine hands this type; BayesTree itself only
// manages the parent/child graph over them.
type BayesTree struct {
	arena *clique.Arena
	roots []clique.ID
}

// New returns an empty Bayes tree.
func New() *BayesTree {
	return &BayesTree{arena: clique.NewArena()}
}

// Arena exposes the underlying clique storage.
func (t *BayesTree) Arena() *clique.Arena { return t.arena }

// CliquesCount returns the total number of live cliques.
func (t *BayesTree) CliquesCount() int { return t.arena.Len() }

// Root returns the primary root clique ID, or 0 if the tree is empty. A
// Bayes tree is typically a single tree, but can briefly hold several roots
// (e.g. immediately after a detach, before reattachment completes); callers
// that need every root should use Roots instead.
func (t *BayesTree) Root() clique.ID {
	if len(t.roots) == 0 {
		return 0
	}
	return t.roots[0]
}

// Roots returns every current root ID.
func (t *BayesTree) Roots() []clique.ID {
	return append([]clique.ID(nil), t.roots...)
}

// Get returns the clique for id.
func (t *BayesTree) Get(id clique.ID) (*clique.Clique, bool) {
	return t.arena.Get(id)
}

// Traversal returns every clique ID in root-first (pre-order) order across
// the whole forest.
func (t *BayesTree) Traversal() []clique.ID {
	var out []clique.ID
	var visit func(id clique.ID)
	visit = func(id clique.ID) {
		c, ok := t.arena.Get(id)
		if !ok {
			return
		}
		out = append(out, id)
		for _, child := range c.Children {
			visit(child)
		}
	}
	for _, r := range t.roots {
		visit(r)
	}
	return out
}

// Clone returns an independent deep copy: every clique is CloneDeep'd via
// the underlying arena's Clone, and the root list is copied by value. Used
// to prepare a working copy on the side for transactional Update semantics.
func (t *BayesTree) Clone() *BayesTree {
	return &BayesTree{arena: t.arena.Clone(), roots: append([]clique.ID(nil), t.roots...)}
}

// Attach inserts newCliques into the arena, linking cliques[i] as a child of
// parents[i] (parents[i] == 0 means cliques[i] becomes a new root). Returns
// the assigned IDs in the same order as cliques.
func (t *BayesTree) Attach(cliques []*clique.Clique, parents []clique.ID) []clique.ID {
	ids := make([]clique.ID, len(cliques))
	for i, c := range cliques {
		c.Parent = parents[i]
		id := t.arena.Add(c)
		ids[i] = id
		if parents[i] == 0 {
			t.roots = append(t.roots, id)
		} else if parent, ok := t.arena.Get(parents[i]); ok {
			parent.Children = append(parent.Children, id)
		}
	}
	return ids
}

// ReattachOrphan links a previously detached orphan (currently a temporary
// root) as a child of newParent, removing it from the root list.
func (t *BayesTree) ReattachOrphan(orphan, newParent clique.ID) {
	c, ok := t.arena.Get(orphan)
	if !ok {
		return
	}
	c.Parent = newParent
	if parent, ok := t.arena.Get(newParent); ok {
		parent.Children = append(parent.Children, orphan)
	}
	for i, r := range t.roots {
		if r == orphan {
			t.roots = append(t.roots[:i], t.roots[i+1:]...)
			break
		}
	}
}

// DetachSubtreeAbove walks, for every clique holding a frontal in marked, the
// full path from that clique up to its tree root, and removes every clique
// on any such path from the arena entirely (they are about to be
// re-eliminated from their constituent factors). It returns the orphans:
// cliques whose parent was removed but which were not themselves on any
// marked path. Orphans are detached (Parent reset to 0, added to the root
// list) so ReattachOrphan can later re-hang them under newly built cliques;
// their cached factors are the boundary factors summarizing the discarded
// subtree, and feed back into the next elimination as ordinary residual
// factors on the variables the removed cliques used to separate.
func (t *BayesTree) DetachSubtreeAbove(marked map[values.Slot]bool) []clique.ID {
	removed := make(map[clique.ID]bool)

	markPathToRoot := func(id clique.ID) {
		for id != 0 {
			if removed[id] {
				return
			}
			removed[id] = true
			c, ok := t.arena.Get(id)
			if !ok {
				return
			}
			id = c.Parent
		}
	}

	for _, id := range t.arena.IDs() {
		c, ok := t.arena.Get(id)
		if !ok {
			continue
		}
		for _, f := range c.Frontals() {
			if marked[f] {
				markPathToRoot(id)
				break
			}
		}
	}

	var orphans []clique.ID
	for id := range removed {
		c, ok := t.arena.Get(id)
		if !ok {
			continue
		}
		for _, child := range c.Children {
			if !removed[child] {
				orphans = append(orphans, child)
			}
		}
	}

	for _, id := range orphans {
		c, _ := t.arena.Get(id)
		c.Parent = 0
		t.roots = append(t.roots, id)
	}

	newRoots := t.roots[:0]
	for _, r := range t.roots {
		if !removed[r] {
			newRoots = append(newRoots, r)
		}
	}
	t.roots = newRoots

	for id := range removed {
		t.arena.Remove(id)
	}

	return orphans
}
