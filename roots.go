package dagmem

import "github.com/nodeforge/dagmem/internal/nodeset"

// Roots is the "enumerable, externally-maintained root set" the
// collector needs from the environment (spec §6). Each invokes fn once
// per root node at the start of a collection cycle.
type Roots interface {
	Each(fn func(Node))
}

// SliceRoots adapts a plain slice of node pointers into [Roots]. It does
// not deduplicate; callers who may add the same root twice should use
// [RootSet] instead.
type SliceRoots[P Node] []P

// Each implements [Roots].
func (s SliceRoots[P]) Each(fn func(Node)) {
	for _, p := range s {
		fn(p)
	}
}

// RootSet is a deduplicating set of root node pointers, backed by
// internal/nodeset's maphash-driven open-addressing table. It is the
// concrete convenience implementation of [Roots] clients can reach for
// instead of maintaining their own enumerable set.
type RootSet[P interface {
	comparable
	Node
}] struct {
	set *nodeset.Set[P]
}

// NewRootSet creates an empty RootSet.
func NewRootSet[P interface {
	comparable
	Node
}]() *RootSet[P] {
	return &RootSet[P]{set: nodeset.New[P]()}
}

// Add inserts p into the set, reporting whether it was not already
// present.
func (r *RootSet[P]) Add(p P) bool { return r.set.Add(p) }

// Remove deletes p from the set, reporting whether it was present.
func (r *RootSet[P]) Remove(p P) bool { return r.set.Remove(p) }

// Len returns the number of roots currently held.
func (r *RootSet[P]) Len() int { return r.set.Len() }

// Each implements [Roots].
func (r *RootSet[P]) Each(fn func(Node)) {
	r.set.Each(func(p P) { fn(p) })
}
