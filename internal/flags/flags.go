// Package flags defines the node header flag bits shared by the arena
// allocator and the collection driver.
package flags

// Header is the mutable flag state every arena-managed node slot
// carries. A zero Header has both bits clear, which is what every slot
// in a freshly allocated arena block starts with (Go zero-initializes
// new slices).
type Header struct {
	marked           bool
	needsDestruction bool
}

// Marked reports whether the MARKED bit is set.
func (h *Header) Marked() bool { return h.marked }

// SetMarked sets or clears the MARKED bit.
func (h *Header) SetMarked(v bool) { h.marked = v }

// NeedsDestruction reports whether the NEEDS_DESTRUCTION bit is set.
func (h *Header) NeedsDestruction() bool { return h.needsDestruction }

// SetNeedsDestruction sets or clears the NEEDS_DESTRUCTION bit.
func (h *Header) SetNeedsDestruction(v bool) { h.needsDestruction = v }

// Clear clears both bits, returning the header to its just-allocated
// state.
func (h *Header) Clear() {
	h.marked = false
	h.needsDestruction = false
}
