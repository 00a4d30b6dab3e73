package clique

// Arena owns every live Clique by ID. IDs are never reused within one
// Arena's lifetime, so a stale ID held after Remove reliably reports
// "not found" rather than silently resolving to an unrelated clique —
// an arena-of-indices representation in place of owning parent pointers,
// so a clique can reference its parent without the two owning each other.
type Arena struct {
	cliques map[ID]*Clique
	nextID  ID
}

// NewArena returns an empty Arena.
func NewArena() *Arena {
	return &Arena{cliques: make(map[ID]*Clique), nextID: 1}
}

// Add inserts c and returns its new ID.
func (a *Arena) Add(c *Clique) ID {
	id := a.nextID
	a.nextID++
	a.cliques[id] = c
	return id
}

// Get returns the clique for id, or ok=false if id is unknown (never
// assigned, or removed).
func (a *Arena) Get(id ID) (*Clique, bool) {
	c, ok := a.cliques[id]
	return c, ok
}

// Remove discards the clique at id. It does not touch Parent/Children
// bookkeeping on other cliques — callers are responsible for detaching
// links before removal.
func (a *Arena) Remove(id ID) {
	delete(a.cliques, id)
}

// Len returns the number of live cliques.
func (a *Arena) Len() int {
	return len(a.cliques)
}

// IDs returns every live clique ID, in unspecified order.
func (a *Arena) IDs() []ID {
	out := make([]ID, 0, len(a.cliques))
	for id := range a.cliques {
		out = append(out, id)
	}
	return out
}

// Clone returns a deep copy of the arena: every clique is CloneDeep'd, IDs
// and the parent/child graph are preserved exactly, so the clone is
// independent of the original's future mutation.
func (a *Arena) Clone() *Arena {
	out := &Arena{cliques: make(map[ID]*Clique, len(a.cliques)), nextID: a.nextID}
	for id, c := range a.cliques {
		out.cliques[id] = c.CloneDeep()
	}
	return out
}
