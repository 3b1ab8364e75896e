package dagmem

import (
	"fmt"

	"github.com/nodeforge/dagmem/internal/bucket"
	"github.com/nodeforge/dagmem/internal/debug"
	"github.com/nodeforge/dagmem/internal/xerrors"
)

// Node is the contract a DAG node's pointer type must satisfy for a
// [Collector] to manage it (spec §6, "required contract from node
// implementations").
type Node interface {
	// Head returns the node's flag header.
	Head() *Header

	// Destroy runs when the allocator reclaims a non-MARKED slot that
	// carries NEEDS_DESTRUCTION. Must not fail; destructors are expected
	// to be infallible (spec §7).
	Destroy()

	// Mark performs the mark-and-copy step of spec §4.3 step 4: it is
	// called once per node per cycle, after the node has already been
	// flagged MARKED and counted by the caller. Implementations must
	// reallocate any owned storage via m.AllocateStorage, copy the old
	// contents across, repair their own stored pointer, and recurse into
	// child nodes by calling m.Visit (never the child's Mark directly) so
	// that cyclic graphs terminate.
	Mark(m *Marker)
}

// StorageLimitError reports that a node tried to allocate more auxiliary
// storage than the collector's configured ceiling allows. It is not part
// of the spec's core error model (§7 treats this as an ordinary
// programming error) but is surfaced as a typed, inspectable value —
// via panic, since [Node.Mark] has no error return — so a caller who
// configured Options.MaxStorageSize can recover and diagnose it instead
// of staring at an unexplained panic.
type StorageLimitError struct {
	Requested int
	Limit     int
}

func (e *StorageLimitError) Error() string {
	return fmt.Sprintf("dagmem: requested storage of %d bytes exceeds configured limit of %d bytes", e.Requested, e.Limit)
}

// AsStorageLimitError unwraps err looking for a *StorageLimitError, the
// same way a caller would use errors.As directly, but saving them the
// boilerplate of declaring the target variable themselves. Most callers
// will use it on a recovered panic value from [Collector.AllocateStorage]
// or [Marker.AllocateStorage]:
//
//	defer func() {
//		if r := recover(); r != nil {
//			if err, ok := r.(error); ok {
//				if limitErr, ok := dagmem.AsStorageLimitError(err); ok {
//					// handle limitErr.Requested / limitErr.Limit
//				}
//			}
//		}
//	}()
func AsStorageLimitError(err error) (*StorageLimitError, bool) {
	return xerrors.AsA[*StorageLimitError](err)
}

// Marker drives the mark phase of a single collection cycle (spec §4.3
// step 4). It is only ever valid for the duration of one
// [Collector.OkToCollectGarbage] call; node implementations must not
// retain one past their Mark method returning.
type Marker struct {
	storage        *bucket.Allocator
	maxStorageSize int
	nrNodesInUse   int
}

// Visit marks n reachable if it is not already, counting it and invoking
// its type-specific Mark. Idempotent: a node whose MARKED bit is already
// set returns immediately, which is what lets cyclic graphs terminate
// (spec §9, "Cyclic node graphs").
func (m *Marker) Visit(n Node) {
	h := n.Head()
	if h.Marked() {
		return
	}

	h.SetMarked(true)
	m.nrNodesInUse++
	debug.Log(nil, "marker.visit", "node=%p nr_nodes_in_use=%d", n, m.nrNodesInUse)
	n.Mark(m)
}

// AllocateStorage reallocates bytesNeeded bytes of auxiliary storage for
// the node currently being marked, for use inside [Node.Mark]'s copy
// step. The returned slice is valid until the next collection.
func (m *Marker) AllocateStorage(bytesNeeded int) []byte {
	if m.maxStorageSize > 0 && bytesNeeded > m.maxStorageSize {
		panic(&StorageLimitError{Requested: bytesNeeded, Limit: m.maxStorageSize})
	}
	return m.storage.Allocate(bytesNeeded)
}

// NrNodesInUse returns the number of distinct nodes visited so far this
// cycle. Only meaningful while a collection is in progress; read by
// [Collector.collectGarbage] at the end of marking to drive the arena
// resize policy (spec §4.1, "Arena resize policy").
func (m *Marker) NrNodesInUse() int { return m.nrNodesInUse }
