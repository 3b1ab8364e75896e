package arena_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"

	"github.com/nodeforge/dagmem/internal/arena"
	"github.com/nodeforge/dagmem/internal/flags"
)

// testNode is a minimal node type satisfying arena.Slot, with a counter
// tracking how many times Destroy has run (for the "destructor exactly
// once" property).
type testNode struct {
	flags.Header
	destroyed int
	payload   int
}

func (n *testNode) Head() *flags.Header { return &n.Header }
func (n *testNode) Destroy()            { n.destroyed++ }

func newArena() *arena.Arena[testNode, *testNode] {
	return arena.New[testNode, *testNode](4, 1)
}

func TestArenaNoGCFill(t *testing.T) {
	Convey("Given a fresh Arena sized 4 with reserve 1", t, func() {
		a := newArena()

		Convey("When allocating 3 nodes", func() {
			for i := 0; i < 3; i++ {
				p := a.Allocate()
				So(p, ShouldNotBeNil)
			}

			Convey("Then no collection is flagged", func() {
				So(a.NeedToCollectGarbage(), ShouldBeFalse)
			})

			Convey("Then exactly one arena exists", func() {
				So(a.NrArenas(), ShouldEqual, 1)
			})

			Convey("Then the bump cursor sits at slot 3", func() {
				So(a.NextSlotIndex(), ShouldEqual, 3)
			})
		})
	})
}

func TestArenaTriggerViaExhaustion(t *testing.T) {
	Convey("Given a fresh Arena sized 4 with reserve 1", t, func() {
		a := newArena()

		Convey("When allocating 4 nodes", func() {
			for i := 0; i < 4; i++ {
				a.Allocate()
			}

			Convey("need_to_collect_garbage becomes true", func() {
				So(a.NeedToCollectGarbage(), ShouldBeTrue)
			})

			Convey("After an eager sweep, resize, and reset with nothing reachable", func() {
				a.EagerSweep()
				a.Resize(0, 2.0)
				a.ResetAfterMark()

				So(a.NrArenas(), ShouldBeGreaterThanOrEqualTo, 1)
				So(a.CurrentIsFirstArena(), ShouldBeTrue)
				So(a.NextSlotIndex(), ShouldEqual, 0)
			})
		})
	})
}

func TestArenaGrowsOnExhaustion(t *testing.T) {
	a := newArena()

	// ARENA_SIZE=4, RESERVE_SIZE=1: three ordinary slots, one reserve
	// slot, then growth. Simulate the mutator never freeing anything by
	// marking every returned node immediately so the lazy sweep can't
	// reclaim it.
	var nodes []*testNode
	for i := 0; i < 5; i++ {
		p := a.Allocate()
		p.SetMarked(true)
		nodes = append(nodes, p)
	}

	assert.Equal(t, 2, a.NrArenas(), "allocating node ARENA_SIZE+1 should grow the list exactly once")

	for i, n := range nodes {
		for j, m := range nodes {
			if i != j {
				assert.NotSame(t, n, m)
			}
		}
	}
}

func TestArenaDestructorRunsOnce(t *testing.T) {
	a := newArena()

	p := a.Allocate()
	p.SetNeedsDestruction(true)
	// Leave unmarked: unreachable by the time the allocator revisits it.

	for i := 0; i < 3; i++ {
		a.Allocate()
	}

	// A 5th allocation walks back over slot 0 (ARENA_SIZE=4, so after 4
	// allocations the reserve is consumed and the cursor wraps via the
	// eager-sweep/reset cycle in real use; here we drive the lazy sweep
	// directly by resetting the cursor as collection would).
	a.EagerSweep()
	a.Resize(0, 2.0)
	a.ResetAfterMark()

	reused := a.Allocate()
	assert.Same(t, p, reused)
	assert.Equal(t, 1, p.destroyed)
	assert.False(t, reused.NeedsDestruction())

	// Revisiting it again must not run the destructor a second time.
	a.EagerSweep()
	a.Resize(0, 2.0)
	a.ResetAfterMark()
	a.Allocate()
	assert.Equal(t, 1, p.destroyed)
}

func TestArenaEagerSweepClearsMarkedBits(t *testing.T) {
	a := newArena()

	p1 := a.Allocate()
	_ = a.Allocate()

	// Cycle 1: nothing stale yet, so the eager sweep here is a no-op; it
	// just records today's cursor as the high-water mark.
	a.EagerSweep()

	// Cycle 1's mark phase finds p1 reachable.
	p1.SetMarked(true)
	a.Resize(1, 2.0)
	a.ResetAfterMark()

	// Cycle 2 begins before the mutator ever revisits slot 0, so the lazy
	// sweep inside Allocate never had a chance to clear it. Eager sweep
	// must clear the stale bit left over from cycle 1's mark phase.
	a.EagerSweep()

	assert.False(t, p1.Marked(), "eager sweep clears stale MARKED bits left from a prior cycle")
}

func TestArenaInvariantBelowNextNodeIsUnmarked(t *testing.T) {
	a := newArena()

	var marked []*testNode
	for i := 0; i < 3; i++ {
		p := a.Allocate()
		p.SetMarked(true)
		marked = append(marked, p)
	}

	a.EagerSweep()
	a.Resize(0, 2.0)
	a.ResetAfterMark()

	// After reset, nothing below next_node (which is 0) can violate the
	// invariant trivially; allocate a couple more and check the
	// invariant holds for slots already walked. The lazy sweep clears and
	// skips the three marked slots and hands out slot 3 (the reserve); the
	// second allocation grows the list and takes slot 0 of the new block.
	for i := 0; i < 2; i++ {
		a.Allocate()
	}
	for _, p := range marked {
		assert.False(t, p.Marked())
	}
	assert.Equal(t, 1, a.NextSlotIndex())
}
