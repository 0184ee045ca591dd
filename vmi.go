package vmiruntime

// Memory represents a window into guest physical memory.
// Offsets are guest-relative, not host virtual addresses.
type Memory interface {
	Read(offset uint64, length uint64) ([]byte, error)
	Write(offset uint64, data []byte) error
	ReadU8(offset uint64) (uint8, error)
	ReadU16(offset uint64) (uint16, error)
	ReadU32(offset uint64) (uint32, error)
	ReadU64(offset uint64) (uint64, error)
	WriteU8(offset uint64, value uint8) error
	WriteU16(offset uint64, value uint16) error
	WriteU32(offset uint64, value uint32) error
	WriteU64(offset uint64, value uint64) error
}

// MemorySizer provides the current size of the addressable region in bytes.
type MemorySizer interface {
	Size() uint64
}

// Allocator allocates memory in one side's address space. Every resource
// crossing the boundary must eventually be released through the allocator
// that produced it; see package resource.
type Allocator interface {
	Alloc(size, align uint64) (uint64, error)
	Free(ptr, size, align uint64)
}
