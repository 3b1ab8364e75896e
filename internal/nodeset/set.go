// Package nodeset provides a small open-addressing set of comparable
// keys (in practice, node pointers), hashed with dolthub/maphash the
// same way the teacher's pkg/arena/swiss map drives its probe sequence.
//
// Its one call site is deduplicating root pointers in [dagmem.RootSet].
package nodeset

import "github.com/dolthub/maphash"

const (
	minBuckets  = 8
	maxLoadPct  = 70
	tombstone   = -1
	emptySlot   = 0
	occupiedTag = 1
)

// Set is an unordered set of K, backed by a linear-probed open
// addressing table.
type Set[K comparable] struct {
	hash  maphash.Hasher[K]
	keys  []K
	state []int8 // emptySlot, occupiedTag, or tombstone per index
	count int
	tombs int
}

// New creates an empty Set.
func New[K comparable]() *Set[K] {
	return &Set[K]{hash: maphash.NewHasher[K]()}
}

// Len returns the number of keys currently in the set.
func (s *Set[K]) Len() int { return s.count }

// Contains reports whether k is present in the set.
func (s *Set[K]) Contains(k K) bool {
	if len(s.keys) == 0 {
		return false
	}
	idx, found := s.find(k)
	return found && idx >= 0
}

// Add inserts k into the set. Returns true if k was not already
// present.
func (s *Set[K]) Add(k K) bool {
	if len(s.keys) == 0 {
		s.grow(minBuckets)
	} else if (s.count+s.tombs+1)*100 >= len(s.keys)*maxLoadPct {
		s.grow(len(s.keys) * 2)
	}

	idx, found := s.find(k)
	if found {
		return false
	}

	s.keys[idx] = k
	s.state[idx] = occupiedTag
	s.count++
	return true
}

// Remove deletes k from the set. Returns true if k was present.
func (s *Set[K]) Remove(k K) bool {
	if len(s.keys) == 0 {
		return false
	}

	idx, found := s.find(k)
	if !found {
		return false
	}

	var zero K
	s.keys[idx] = zero
	s.state[idx] = tombstone
	s.count--
	s.tombs++
	return true
}

// Each calls fn once for every key currently in the set, in unspecified
// order.
func (s *Set[K]) Each(fn func(K)) {
	for i, st := range s.state {
		if st == occupiedTag {
			fn(s.keys[i])
		}
	}
}

// find locates k's slot. The returned bool reports whether k is
// present; when it is false, idx is the first empty-or-tombstoned slot
// k may be inserted into.
func (s *Set[K]) find(k K) (idx int, found bool) {
	mask := uint64(len(s.keys) - 1)
	i := s.hash.Hash(k) & mask
	firstFree := -1

	for {
		switch s.state[i] {
		case emptySlot:
			if firstFree >= 0 {
				return firstFree, false
			}
			return int(i), false
		case tombstone:
			if firstFree < 0 {
				firstFree = int(i)
			}
		case occupiedTag:
			if s.keys[i] == k {
				return int(i), true
			}
		}
		i = (i + 1) & mask
	}
}

func (s *Set[K]) grow(newSize int) {
	if newSize < minBuckets {
		newSize = minBuckets
	}

	old := s.keys
	oldState := s.state

	s.keys = make([]K, newSize)
	s.state = make([]int8, newSize)
	s.count = 0
	s.tombs = 0

	for i, st := range oldState {
		if st == occupiedTag {
			idx, _ := s.find(old[i])
			s.keys[idx] = old[i]
			s.state[idx] = occupiedTag
			s.count++
		}
	}
}
