package dagmem

// Options holds the tunable constants of spec §4.1/§4.2. A zero Options
// is not directly usable; pass it through [Options.withDefaults] (done
// automatically by [NewCollector]) or start from [DefaultOptions] and
// override only what matters, matching the teacher's
// "zero/negative means use the default" convention for constructor
// parameters.
type Options struct {
	// ArenaSize is ARENA_SIZE, the number of node slots per arena block.
	// The spec recommends a power of two between 2^10 and 2^14.
	ArenaSize int

	// ReserveSize is RESERVE_SIZE, the tail of the last arena held back
	// until need_to_collect_garbage is first flagged.
	ReserveSize int

	// SlopFactor is SLOP_FACTOR, the multiplicative headroom applied to
	// nr_nodes_in_use when resizing the arena pool after a collection.
	// Must be in (1, 8].
	SlopFactor float64

	// MinBucketSize is MIN_BUCKET_SIZE, the minimum capacity of a freshly
	// allocated bucket.
	MinBucketSize int

	// BucketMultiplier is BUCKET_MULTIPLIER, the factor applied to a
	// request's size when sizing a fresh bucket to serve it.
	BucketMultiplier int

	// MinTarget is MIN_TARGET, the floor applied to the storage target
	// recomputed after each collection.
	MinTarget int

	// StorageSlop is STORAGE_SLOP, the multiplicative headroom applied to
	// storage_in_use when recomputing target after marking.
	StorageSlop float64

	// InitialTarget seeds target before the first collection ever runs.
	InitialTarget int

	// MaxStorageSize, if positive, caps a single allocate_storage request;
	// exceeding it panics with a *StorageLimitError (an ambient addition,
	// not part of the spec's core model — see [StorageLimitError]). Zero means
	// unbounded.
	MaxStorageSize int
}

// DefaultOptions returns the constants this package uses when a
// [Collector] is built from a zero-valued or partially-specified
// Options, chosen from within the ranges spec §4.1/§4.2 give.
func DefaultOptions() Options {
	return Options{
		ArenaSize:        4096, // 2^12, within the spec's 2^10-2^14 range
		ReserveSize:      32,
		SlopFactor:       2.0,
		MinBucketSize:    4096,
		BucketMultiplier: 8,
		MinTarget:        1 << 16,
		StorageSlop:      2.0,
		InitialTarget:    1 << 16,
		MaxStorageSize:   0,
	}
}

// withDefaults fills in any zero or negative field from [DefaultOptions].
// SlopFactor and StorageSlop are also replaced when they are 1 or less.
func (o Options) withDefaults() Options {
	d := DefaultOptions()

	if o.ArenaSize <= 0 {
		o.ArenaSize = d.ArenaSize
	}
	if o.ReserveSize <= 0 {
		o.ReserveSize = d.ReserveSize
	}
	if o.SlopFactor <= 1 {
		o.SlopFactor = d.SlopFactor
	}
	if o.MinBucketSize <= 0 {
		o.MinBucketSize = d.MinBucketSize
	}
	if o.BucketMultiplier <= 0 {
		o.BucketMultiplier = d.BucketMultiplier
	}
	if o.MinTarget <= 0 {
		o.MinTarget = d.MinTarget
	}
	if o.StorageSlop <= 1 {
		o.StorageSlop = d.StorageSlop
	}
	if o.InitialTarget <= 0 {
		o.InitialTarget = d.InitialTarget
	}
	// MaxStorageSize is intentionally left as given: zero legitimately
	// means "unbounded", not "unset".

	return o
}
