// Package layout includes the small amount of alignment arithmetic the
// bucket allocator needs. Nothing here is actually unsafe, which is why
// it lives in its own leaf package, following the same split the
// teacher's xunsafe/layout package uses.
package layout

import "unsafe"

// PointerAlign is the alignment every bucket allocation is rounded up
// to, per §4.2 of the spec ("at least pointer-alignment").
const PointerAlign = int(unsafe.Sizeof(uintptr(0)))

// RoundUp rounds n up to the nearest multiple of align. align must be a
// power of two.
func RoundUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
