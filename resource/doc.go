// Package resource models values whose lifetime crosses the host/guest
// boundary.
//
// A resource allocated on one side may have its ownership moved to the
// other side, but the deallocation authority never moves: release always
// routes through the allocator that produced the resource. The types here
// make that rule structural rather than conventional:
//
//   - Owned / OwnedBuf carry a deallocation obligation and a mandatory,
//     explicit Release that frees via the origin allocator. Packaging a
//     value moves it; a moved or released value cannot be used again.
//   - Borrowed / BorrowedBuf have the same physical shape but expose no
//     release operation at all; the receiver cannot free what it borrowed.
//
// The package also provides the memory and allocator building blocks used
// by the call layer and its tests: ByteMemory (a guest physical memory
// window backed by a byte slice), Arena (a bump allocator over a region of
// that window), and CountingAllocator (an instrumented wrapper used to
// verify exactly-once release of boundary-crossing resources).
package resource
