// Package dagmem implements a mark-and-sweep garbage collector for a DAG
// of uniformly-typed nodes, paired with a copying bucket allocator for
// the variable-sized auxiliary storage those nodes own. [Collector] is
// the entry point; [Node] is the contract a node type must satisfy to be
// managed by one.
package dagmem

import (
	"github.com/timandy/routine"

	"github.com/nodeforge/dagmem/internal/arena"
	"github.com/nodeforge/dagmem/internal/bucket"
	"github.com/nodeforge/dagmem/internal/debug"
)

// Collector owns one arena of N-typed node slots and one bucket
// allocator of auxiliary storage, and drives the collection cycle that
// keeps both bounded. N is the concrete node type; P is its pointer
// type, which must implement [Node].
//
// A Collector is not safe for concurrent use. It records the goroutine
// that created it and, in debug builds, asserts that AllocateDAGNode,
// AllocateStorage and OkToCollectGarbage are called from that same
// goroutine (the read-only accessors are not checked) — the spec's single-owner-thread
// requirement (§5) turned into a checked invariant rather than a
// documentation comment.
type Collector[N any, P interface {
	*N
	Node
}] struct {
	nodes   *arena.Arena[N, P]
	storage *bucket.Allocator
	opts    Options

	owner      int64
	collecting bool
}

// NewCollector creates an empty Collector. A zero-valued or
// partially-populated opts is filled in from [DefaultOptions].
func NewCollector[N any, P interface {
	*N
	Node
}](opts Options) *Collector[N, P] {
	opts = opts.withDefaults()

	return &Collector[N, P]{
		nodes:   arena.New[N, P](opts.ArenaSize, opts.ReserveSize),
		storage: bucket.NewAllocator(opts.MinBucketSize, opts.BucketMultiplier, opts.InitialTarget),
		opts:    opts,
		owner:   routine.Goid(),
	}
}

func (c *Collector[N, P]) checkOwner(op string) {
	debug.Assert(routine.Goid() == c.owner, "%s called from goroutine %d, owned by %d", op, routine.Goid(), c.owner)
}

// AllocateDAGNode returns a fresh or reclaimed node slot (spec §6,
// allocate_dag_node). It never fails; on exhaustion the underlying arena
// grows.
func (c *Collector[N, P]) AllocateDAGNode() P {
	c.checkOwner("AllocateDAGNode")
	p := c.nodes.Allocate()
	debug.Log(nil, "collector.allocate-node", "node=%p", p)
	return p
}

// AllocateStorage returns bytesNeeded contiguous bytes of auxiliary
// storage for a node under construction (spec §6: exposed to node
// implementations, not general clients). The returned slice is valid
// until the next collection.
func (c *Collector[N, P]) AllocateStorage(bytesNeeded int) []byte {
	c.checkOwner("AllocateStorage")
	if c.opts.MaxStorageSize > 0 && bytesNeeded > c.opts.MaxStorageSize {
		panic(&StorageLimitError{Requested: bytesNeeded, Limit: c.opts.MaxStorageSize})
	}
	return c.storage.Allocate(bytesNeeded)
}

// WantToCollectGarbage reports whether either allocator has flagged a
// collection as necessary (spec §6, want_to_collect_garbage).
func (c *Collector[N, P]) WantToCollectGarbage() bool {
	return c.nodes.NeedToCollectGarbage() || c.storage.NeedToCollectGarbage()
}

// OkToCollectGarbage is the mutator's promise that no stale references
// into bucket storage or unmarked node fields are held (spec §6,
// ok_to_collect_garbage). If a collection is flagged, it runs to
// completion before returning; otherwise it is a no-op. Calling it while
// a collection is already in progress (possible only via a node's Mark
// implementation misbehaving) is a no-op rather than a nested collection
// — the re-entrancy guard spec §5 requires.
func (c *Collector[N, P]) OkToCollectGarbage(roots Roots) {
	c.checkOwner("OkToCollectGarbage")

	if c.collecting || !c.WantToCollectGarbage() {
		return
	}

	c.collectGarbage(roots)
}

// collectGarbage is the seven-step cycle of spec §4.3.
func (c *Collector[N, P]) collectGarbage(roots Roots) {
	c.collecting = true
	defer func() { c.collecting = false }()

	debug.Log(nil, "collector.collect", "cycle starting")

	// 1. Eager arena sweep.
	c.nodes.EagerSweep()

	// 2. Bucket list swap. 3. Reset counters (storage_in_use resets as
	// part of BeginCycle; nr_nodes_in_use lives on the Marker below).
	oldInUse := c.storage.BeginCycle()

	marker := &Marker{storage: c.storage, maxStorageSize: c.opts.MaxStorageSize}

	// 4. Mark every root, recursively.
	roots.Each(marker.Visit)

	// 5. Sweep buckets: recycle the old in-use list onto unused_list.
	c.storage.EndCycle(oldInUse)

	// 6. Arena resize and reset.
	c.nodes.Resize(marker.NrNodesInUse(), c.opts.SlopFactor)
	c.nodes.ResetAfterMark()
	c.storage.AdjustTarget(c.opts.MinTarget, c.opts.StorageSlop)

	// 7. Clear flags.
	c.nodes.ClearNeedToCollectGarbage()
	c.storage.ClearNeedToCollectGarbage()

	debug.Log(nil, "collector.collect", "cycle complete, nr_nodes_in_use=%d storage_in_use=%d",
		marker.NrNodesInUse(), c.storage.StorageInUse())
}

// NrArenas returns the number of arena blocks currently allocated.
// Exposed for tests and diagnostics; not part of the spec's three public
// operations.
func (c *Collector[N, P]) NrArenas() int { return c.nodes.NrArenas() }

// StorageInUse returns bytes of auxiliary storage handed out since the
// last cycle reset. Exposed for tests and diagnostics.
func (c *Collector[N, P]) StorageInUse() int { return c.storage.StorageInUse() }
