// Package arena implements the non-moving, lazily-swept bump allocator
// that backs dagmem's node slots (spec §4.1).
//
// An Arena is a singly linked list of fixed-capacity blocks of node
// slots. Allocation walks forward from a bump cursor, clearing stale
// MARKED bits and running destructors on reclaimed slots as it goes
// (the "lazy sweep"); when the cursor runs off the end of the list, the
// allocator either advances into an already-allocated block, consumes
// the reserved tail of the last block, or grows the list.
//
// Arena is not safe for concurrent use; it is owned by exactly one
// goroutine, matching the spec's single-threaded collector model.
package arena

import (
	"math"

	"github.com/nodeforge/dagmem/internal/debug"
	"github.com/nodeforge/dagmem/internal/flags"
)

// Slot is the method set a node pointer must provide for the arena to
// manage its lifecycle. It does not depend on the node's own type
// parameter, which is what lets [Arena] stay generic over both N and
// the pointer type P without a self-referential constraint cycle.
type Slot interface {
	// Head returns the mutable flag header for this slot.
	Head() *flags.Header

	// Destroy runs the slot's destructor. Called at most once between
	// an allocation and the slot's eventual reuse.
	Destroy()
}

// block is one fixed-capacity run of node storage. Blocks are never
// freed or reallocated once appended, so a pointer into slots remains
// valid (and at a stable address) for the arena's lifetime.
type block[N any] struct {
	slots []N
	next  *block[N]
}

func newBlock[N any](size int) *block[N] {
	return &block[N]{slots: make([]N, size)}
}

// Arena is a non-moving bump allocator over a linked list of node
// blocks. N is the concrete node type; P is its pointer type, which
// must implement [Slot].
type Arena[N any, P interface {
	*N
	Slot
}] struct {
	firstArena, lastArena, currentArena *block[N]
	nrArenas                            int

	nextNode, endPointer int // indices into currentArena.slots
	consumedReserve      bool

	lastActiveArena *block[N]
	lastActiveNode  int

	arenaSize   int
	reserveSize int

	needCollect bool
}

// New creates an empty Arena. arenaSize is the number of node slots per
// block (ARENA_SIZE in the spec); reserveSize is the number of slots
// kept in reserve at the tail of the last block (RESERVE_SIZE).
func New[N any, P interface {
	*N
	Slot
}](arenaSize, reserveSize int) *Arena[N, P] {
	debug.Assert(arenaSize > 0, "arenaSize must be positive")
	debug.Assert(reserveSize >= 0 && reserveSize < arenaSize, "reserveSize must be in [0, arenaSize)")

	return &Arena[N, P]{
		arenaSize:   arenaSize,
		reserveSize: reserveSize,
	}
}

// NrArenas returns the number of blocks currently in the list.
func (a *Arena[N, P]) NrArenas() int { return a.nrArenas }

// ArenaSize returns the configured slot count per block.
func (a *Arena[N, P]) ArenaSize() int { return a.arenaSize }

// ReserveSize returns the configured reserve tail size.
func (a *Arena[N, P]) ReserveSize() int { return a.reserveSize }

// CurrentIsFirstArena reports whether the bump cursor is in the first
// block of the list.
func (a *Arena[N, P]) CurrentIsFirstArena() bool { return a.currentArena == a.firstArena }

// NextSlotIndex returns the bump cursor's index within the current
// block.
func (a *Arena[N, P]) NextSlotIndex() int { return a.nextNode }

// NeedToCollectGarbage reports whether this allocator has flagged a
// collection as necessary.
func (a *Arena[N, P]) NeedToCollectGarbage() bool { return a.needCollect }

// ClearNeedToCollectGarbage clears the flag. Called by the collection
// driver once a cycle completes.
func (a *Arena[N, P]) ClearNeedToCollectGarbage() { a.needCollect = false }

// Allocate returns a fresh or reclaimed node slot, per the fast/slow
// path described in spec §4.1. It never fails; on exhaustion it grows
// the arena list.
func (a *Arena[N, P]) Allocate() P {
	for {
		if p, ok := a.sweepStep(); ok {
			debug.Log(nil, "arena.allocate", "reused slot, next=%d end=%d", a.nextNode, a.endPointer)
			return p
		}

		if a.firstArena == nil {
			b := newBlock[N](a.arenaSize)
			a.appendArena(b)
			a.enterArena(b)
			return a.bumpFirstSlot()
		}

		if succ := a.currentArena.next; succ != nil {
			a.enterArena(succ)
			continue
		}

		// currentArena is the tail.
		if !a.consumedReserve {
			a.needCollect = true
			a.consumedReserve = true
			a.endPointer = a.arenaSize
			debug.Log(nil, "arena.allocate", "consuming reserve tail")
			continue
		}

		b := newBlock[N](a.arenaSize)
		a.appendArena(b)
		a.enterArena(b)
		return a.bumpFirstSlot()
	}
}

// sweepStep performs the lazy-sweep walk from the current cursor to
// end_pointer, returning the first reusable slot it finds.
func (a *Arena[N, P]) sweepStep() (P, bool) {
	for a.nextNode < a.endPointer {
		idx := a.nextNode
		p := P(&a.currentArena.slots[idx])
		h := p.Head()

		if h.Marked() {
			h.SetMarked(false)
			a.nextNode++
			continue
		}

		if h.NeedsDestruction() {
			p.Destroy()
			h.SetNeedsDestruction(false)
		}

		a.nextNode = idx + 1
		return p, true
	}

	var zero P
	return zero, false
}

func (a *Arena[N, P]) bumpFirstSlot() P {
	p := P(&a.currentArena.slots[0])
	a.nextNode = 1
	return p
}

func (a *Arena[N, P]) appendArena(b *block[N]) {
	if a.firstArena == nil {
		a.firstArena = b
	} else {
		a.lastArena.next = b
	}
	a.lastArena = b
	a.nrArenas++
}

// enterArena makes b the current block, positioning the cursor at its
// start. Non-tail blocks offer their full capacity; the tail keeps its
// reserve held back until consumed.
func (a *Arena[N, P]) enterArena(b *block[N]) {
	a.currentArena = b
	a.nextNode = 0
	a.consumedReserve = false
	if b == a.lastArena {
		a.endPointer = a.arenaSize - a.reserveSize
	} else {
		a.endPointer = a.arenaSize
	}
}

// EagerSweep walks from the current bump cursor through the high-water
// mark left by the previous cycle (last_active_arena/last_active_node),
// destroying unreachable NEEDS_DESTRUCTION slots and clearing stale
// MARKED bits. It records a new high-water mark for the next cycle.
//
// This is the collection driver's first step (spec §4.3 step 1); it is
// distinct from the lazy sweep performed during allocation, and exists
// to bound how far a future lazy sweep or eager sweep ever needs to
// walk.
func (a *Arena[N, P]) EagerSweep() {
	if a.lastActiveArena == nil {
		a.lastActiveArena = a.currentArena
		a.lastActiveNode = a.nextNode
	}

	var newActiveArena *block[N]
	newActiveNode := 0

	scanArena := a.currentArena
	scanIdx := a.nextNode

	for scanArena != nil {
		limit := a.arenaSize
		atBoundary := scanArena == a.lastActiveArena
		if atBoundary {
			limit = a.lastActiveNode
		}

		for scanIdx < limit {
			p := P(&scanArena.slots[scanIdx])
			h := p.Head()

			switch {
			case h.Marked():
				h.SetMarked(false)
				newActiveArena, newActiveNode = scanArena, scanIdx+1
			case h.NeedsDestruction():
				p.Destroy()
				h.SetNeedsDestruction(false)
				newActiveArena, newActiveNode = scanArena, scanIdx+1
			}

			scanIdx++
		}

		if atBoundary {
			break
		}

		scanArena = scanArena.next
		scanIdx = 0
	}

	if newActiveArena == nil {
		newActiveArena, newActiveNode = a.currentArena, a.nextNode
	}

	a.lastActiveArena, a.lastActiveNode = newActiveArena, newActiveNode
	debug.Log(nil, "arena.eager-sweep", "new high water mark at node %d", newActiveNode)
}

// Resize grows the arena list so it has at least
// ceil(nrNodesInUse*slopFactor/arenaSize) blocks, per spec §4.1's
// arena-resize policy.
func (a *Arena[N, P]) Resize(nrNodesInUse int, slopFactor float64) {
	needed := int(math.Ceil(float64(nrNodesInUse) * slopFactor / float64(a.arenaSize)))
	for a.nrArenas < needed {
		b := newBlock[N](a.arenaSize)
		a.appendArena(b)
	}
}

// ResetAfterMark returns the bump cursor to the very first block, per
// spec §4.1's post-mark reset.
func (a *Arena[N, P]) ResetAfterMark() {
	if a.firstArena == nil {
		return
	}
	a.enterArena(a.firstArena)
}
