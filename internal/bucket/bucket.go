// Package bucket implements the copying allocator that serves node-owned
// auxiliary storage (spec §4.2). Storage is handed out by bumping a
// cursor through variable-capacity byte regions ("buckets"); buckets
// are never individually freed, only recycled wholesale at the end of a
// collection cycle.
package bucket

import (
	"github.com/nodeforge/dagmem/internal/debug"
	"github.com/nodeforge/dagmem/internal/layout"
)

// Bucket is one variable-capacity byte region.
type Bucket struct {
	data      []byte
	bytesFree int
	nextFree  int
	next      *Bucket
}

func newBucket(capacity int) *Bucket {
	return &Bucket{data: make([]byte, capacity), bytesFree: capacity}
}

// Capacity returns the bucket's total size in bytes.
func (b *Bucket) Capacity() int { return len(b.data) }

// BytesFree returns the bucket's remaining unallocated bytes.
func (b *Bucket) BytesFree() int { return b.bytesFree }

func (b *Bucket) alloc(n int) []byte {
	p := b.data[b.nextFree : b.nextFree+n : b.nextFree+n]
	b.nextFree += n
	b.bytesFree -= n
	return p
}

func (b *Bucket) resetForReuse() {
	b.bytesFree = len(b.data)
	b.nextFree = 0
}

// Allocator is the bucket allocator: two linked lists of buckets
// (bucketList currently serving allocations, unusedList empty and
// reserved for the next cycle) plus the storage-pressure counters that
// drive the need-to-collect flag.
type Allocator struct {
	bucketList, unusedList *Bucket
	nrBuckets              int

	minBucketSize    int
	bucketMultiplier int

	storageInUse int
	target       int

	needCollect bool
}

// NewAllocator creates an empty Allocator. minBucketSize and
// bucketMultiplier are MIN_BUCKET_SIZE and BUCKET_MULTIPLIER from spec
// §4.2; initialTarget is the starting value of `target`.
func NewAllocator(minBucketSize, bucketMultiplier, initialTarget int) *Allocator {
	debug.Assert(minBucketSize > 0, "minBucketSize must be positive")
	debug.Assert(bucketMultiplier > 0, "bucketMultiplier must be positive")

	return &Allocator{
		minBucketSize:    minBucketSize,
		bucketMultiplier: bucketMultiplier,
		target:           initialTarget,
	}
}

// StorageInUse returns bytes handed out since the last cycle reset.
func (a *Allocator) StorageInUse() int { return a.storageInUse }

// Target returns the current storage_in_use threshold that flags a
// collection.
func (a *Allocator) Target() int { return a.target }

// NrBuckets returns the total number of buckets across both lists.
func (a *Allocator) NrBuckets() int { return a.nrBuckets }

// NeedToCollectGarbage reports whether this allocator has flagged a
// collection as necessary.
func (a *Allocator) NeedToCollectGarbage() bool { return a.needCollect }

// ClearNeedToCollectGarbage clears the flag.
func (a *Allocator) ClearNeedToCollectGarbage() { a.needCollect = false }

// BucketList exposes the head of the in-use list, for invariant
// checking in tests (walking it does not mutate allocator state).
func (a *Allocator) BucketList() *Bucket { return a.bucketList }

// UnusedList exposes the head of the unused list, for invariant
// checking in tests.
func (a *Allocator) UnusedList() *Bucket { return a.unusedList }

// Allocate returns bytesNeeded contiguous bytes, valid until the next
// collection. The space reserved for the request is rounded up to
// pointer alignment; the returned slice has length bytesNeeded.
func (a *Allocator) Allocate(bytesNeeded int) []byte {
	n := layout.RoundUp(bytesNeeded, layout.PointerAlign)

	a.storageInUse += n
	if a.storageInUse > a.target {
		a.needCollect = true
	}

	for b := a.bucketList; b != nil; b = b.next {
		if b.bytesFree >= n {
			return b.alloc(n)[:bytesNeeded:bytesNeeded]
		}
	}

	b := a.acquireBucket(n)
	a.pushBucketList(b)
	return b.alloc(n)[:bytesNeeded:bytesNeeded]
}

// acquireBucket finds or creates a bucket able to serve n bytes,
// preferring to recycle one off unusedList before growing the heap.
func (a *Allocator) acquireBucket(n int) *Bucket {
	var prev *Bucket
	for b := a.unusedList; b != nil; b = b.next {
		if b.Capacity() >= n {
			if prev == nil {
				a.unusedList = b.next
			} else {
				prev.next = b.next
			}
			b.next = nil
			debug.Log(nil, "bucket.acquire", "recycled bucket cap=%d", b.Capacity())
			return b
		}
		prev = b
	}

	capacity := n * a.bucketMultiplier
	if capacity < a.minBucketSize {
		capacity = a.minBucketSize
	}
	a.nrBuckets++
	debug.Log(nil, "bucket.acquire", "growing, new bucket cap=%d", capacity)
	return newBucket(capacity)
}

func (a *Allocator) pushBucketList(b *Bucket) {
	b.next = a.bucketList
	a.bucketList = b
}

// BeginCycle performs the bucket-list swap of spec §4.3 step 2 and
// resets storage_in_use (step 3). It returns the old in-use list, which
// the collection driver must eventually pass to EndCycle once marking
// has repopulated bucketList with copies of every live allocation.
func (a *Allocator) BeginCycle() *Bucket {
	old := a.bucketList
	a.bucketList = a.unusedList
	a.unusedList = nil
	a.storageInUse = 0
	return old
}

// EndCycle resets every bucket in oldInUse (clearing it back to fully
// free) and prepends the whole list onto unusedList, per spec §4.3
// step 5.
func (a *Allocator) EndCycle(oldInUse *Bucket) {
	if oldInUse == nil {
		return
	}

	tail := oldInUse
	for b := oldInUse; b != nil; b = b.next {
		b.resetForReuse()
		tail = b
	}

	tail.next = a.unusedList
	a.unusedList = oldInUse
}

// AdjustTarget recomputes target from the post-mark storage_in_use,
// per spec §4.2's target-adjustment rule.
func (a *Allocator) AdjustTarget(minTarget int, storageSlop float64) {
	t := int(float64(a.storageInUse) * storageSlop)
	if t < minTarget {
		t = minTarget
	}
	a.target = t
}
