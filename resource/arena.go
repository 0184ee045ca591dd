package resource

import (
	"github.com/wippyai/vmi-runtime/errors"
)

// Arena is a bump allocator handing out offsets from a region of one side's
// address space. Free is bookkeeping only; the arena reclaims everything at
// once via Reset. Offset 0 is never handed out so a zero pointer always
// means null.
type Arena struct {
	base uint64
	size uint64
	next uint64
	live int
}

// NewArena returns an arena over [base, base+size). A zero base is bumped
// to the first alignment grain to keep the null offset unused.
func NewArena(base, size uint64) *Arena {
	if base == 0 {
		base = 8
		if size >= 8 {
			size -= 8
		}
	}
	return &Arena{base: base, size: size, next: base}
}

// Alloc returns an aligned offset for size bytes.
func (a *Arena) Alloc(size, align uint64) (uint64, error) {
	if align == 0 {
		align = 1
	}
	ptr := (a.next + align - 1) &^ (align - 1)
	if ptr+size > a.base+a.size {
		return 0, errors.AllocationFailed(errors.PhaseEncode, size, align)
	}
	a.next = ptr + size
	a.live++
	return ptr, nil
}

// Free records the release of an allocation. Individual blocks are not
// recycled; call Reset to reclaim the region.
func (a *Arena) Free(ptr, size, align uint64) {
	if a.live > 0 {
		a.live--
	}
}

// Live returns the number of outstanding allocations.
func (a *Arena) Live() int {
	return a.live
}

// Reset reclaims the whole region. Only valid when the caller knows no
// allocation is still referenced across the boundary.
func (a *Arena) Reset() {
	a.next = a.base
	a.live = 0
}
