package resource

import (
	vmiruntime "github.com/wippyai/vmi-runtime"
)

// CountingAllocator wraps an allocator and records every allocation and
// release. Tests use it to prove that each boundary-crossing resource is
// released exactly once, through the right allocator.
type CountingAllocator struct {
	inner       vmiruntime.Allocator
	Allocs      int
	Frees       int
	outstanding map[uint64]uint64 // ptr -> size
	BadFrees    int               // frees of pointers this allocator never produced
}

// NewCountingAllocator wraps inner with counters.
func NewCountingAllocator(inner vmiruntime.Allocator) *CountingAllocator {
	return &CountingAllocator{
		inner:       inner,
		outstanding: make(map[uint64]uint64),
	}
}

func (c *CountingAllocator) Alloc(size, align uint64) (uint64, error) {
	ptr, err := c.inner.Alloc(size, align)
	if err != nil {
		return 0, err
	}
	c.Allocs++
	c.outstanding[ptr] = size
	return ptr, nil
}

func (c *CountingAllocator) Free(ptr, size, align uint64) {
	if _, ok := c.outstanding[ptr]; !ok {
		c.BadFrees++
		return
	}
	delete(c.outstanding, ptr)
	c.Frees++
	c.inner.Free(ptr, size, align)
}

// Outstanding returns the number of live allocations.
func (c *CountingAllocator) Outstanding() int {
	return len(c.outstanding)
}
