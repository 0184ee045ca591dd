package pack

import (
	"math"

	vmiruntime "github.com/wippyai/vmi-runtime"
	"github.com/wippyai/vmi-runtime/errors"
	"github.com/wippyai/vmi-runtime/resource"
	"github.com/wippyai/vmi-runtime/signature"
	"github.com/wippyai/vmi-runtime/transport"
)

// Builder assembles a parameter package on the caller side. The package
// memory comes from the caller's allocator; the callee frees it as one raw
// block after unpacking.
type Builder struct {
	layout *Layout
	mem    vmiruntime.Memory
	alloc  vmiruntime.Allocator
	ptr    uint64
	set    []bool
	moved  []movedResource
	sealed bool
	freed  bool
}

// movedResource records an owned value moved into the package, so an
// abandoned package can route the release obligation back to its origin.
type movedResource struct {
	origin vmiruntime.Allocator
	ptr    uint64
	size   uint64
	align  uint64
}

// NewBuilder allocates package memory for the layout and returns a builder
// over it. Every field must be written before Seal.
func NewBuilder(mem vmiruntime.Memory, alloc vmiruntime.Allocator, layout *Layout) (*Builder, error) {
	ptr, err := alloc.Alloc(layout.Size, layout.Align)
	if err != nil {
		return nil, errors.Wrap(errors.PhasePack, errors.KindAllocation, err, "parameter package")
	}
	return &Builder{
		layout: layout,
		mem:    mem,
		alloc:  alloc,
		ptr:    ptr,
		set:    make([]bool, len(layout.Fields)),
	}, nil
}

func (b *Builder) slot(i int, want ...signature.Kind) (uint64, error) {
	if b.sealed {
		return 0, errors.AlreadyConsumed(errors.PhasePack, "parameter package builder")
	}
	if b.freed {
		return 0, errors.AlreadyConsumed(errors.PhasePack, "freed parameter package")
	}
	if err := b.layout.check(errors.PhasePack, i, want...); err != nil {
		return 0, err
	}
	return b.ptr + b.layout.Offsets[i], nil
}

func (b *Builder) mark(i int) {
	b.set[i] = true
}

// SetBool writes a boolean field.
func (b *Builder) SetBool(i int, v bool) error {
	off, err := b.slot(i, signature.KindBool)
	if err != nil {
		return err
	}
	var raw uint8
	if v {
		raw = 1
	}
	if err := b.mem.WriteU8(off, raw); err != nil {
		return err
	}
	b.mark(i)
	return nil
}

// SetU8 writes an 8-bit field.
func (b *Builder) SetU8(i int, v uint8) error {
	off, err := b.slot(i, signature.KindU8, signature.KindI8)
	if err != nil {
		return err
	}
	if err := b.mem.WriteU8(off, v); err != nil {
		return err
	}
	b.mark(i)
	return nil
}

// SetU16 writes a 16-bit field.
func (b *Builder) SetU16(i int, v uint16) error {
	off, err := b.slot(i, signature.KindU16, signature.KindI16)
	if err != nil {
		return err
	}
	if err := b.mem.WriteU16(off, v); err != nil {
		return err
	}
	b.mark(i)
	return nil
}

// SetU32 writes a 32-bit field. Char fields use their code point bits.
func (b *Builder) SetU32(i int, v uint32) error {
	off, err := b.slot(i, signature.KindU32, signature.KindI32, signature.KindChar)
	if err != nil {
		return err
	}
	if err := b.mem.WriteU32(off, v); err != nil {
		return err
	}
	b.mark(i)
	return nil
}

// SetU64 writes a 64-bit field.
func (b *Builder) SetU64(i int, v uint64) error {
	off, err := b.slot(i, signature.KindU64, signature.KindI64, signature.KindUsize)
	if err != nil {
		return err
	}
	if err := b.mem.WriteU64(off, v); err != nil {
		return err
	}
	b.mark(i)
	return nil
}

// SetF32 writes a 32-bit float field by bit pattern.
func (b *Builder) SetF32(i int, v float32) error {
	off, err := b.slot(i, signature.KindF32)
	if err != nil {
		return err
	}
	if err := b.mem.WriteU32(off, math.Float32bits(v)); err != nil {
		return err
	}
	b.mark(i)
	return nil
}

// SetF64 writes a 64-bit float field by bit pattern.
func (b *Builder) SetF64(i int, v float64) error {
	off, err := b.slot(i, signature.KindF64)
	if err != nil {
		return err
	}
	if err := b.mem.WriteU64(off, math.Float64bits(v)); err != nil {
		return err
	}
	b.mark(i)
	return nil
}

// SetOwned moves an owned scalar into the package. The handle is dead
// afterwards; the callee takes over the release obligation.
func (b *Builder) SetOwned(i int, v *resource.Owned) error {
	off, err := b.slot(i, signature.KindOwn)
	if err != nil {
		return err
	}
	origin, size, align := v.Origin(), v.Size(), v.Align()
	ptr, err := v.MoveOut()
	if err != nil {
		return err
	}
	b.moved = append(b.moved, movedResource{origin: origin, ptr: ptr, size: size, align: align})
	if err := b.mem.WriteU64(off, ptr); err != nil {
		return err
	}
	b.mark(i)
	return nil
}

// SetOwnedBuf moves an owned buffer into the package.
func (b *Builder) SetOwnedBuf(i int, v *resource.OwnedBuf) error {
	off, err := b.slot(i, signature.KindOwnBuf)
	if err != nil {
		return err
	}
	origin, align := v.Origin(), v.Align()
	ptr, length, err := v.MoveOut()
	if err != nil {
		return err
	}
	b.moved = append(b.moved, movedResource{origin: origin, ptr: ptr, size: length, align: align})
	if err := b.mem.WriteU64(off, ptr); err != nil {
		return err
	}
	if err := b.mem.WriteU64(off+8, length); err != nil {
		return err
	}
	b.mark(i)
	return nil
}

// SetBorrowed writes a borrowed scalar view. Ownership stays with the
// caller.
func (b *Builder) SetBorrowed(i int, v resource.Borrowed) error {
	off, err := b.slot(i, signature.KindBorrow)
	if err != nil {
		return err
	}
	if err := b.mem.WriteU64(off, v.Ptr()); err != nil {
		return err
	}
	b.mark(i)
	return nil
}

// SetBorrowedBuf writes a borrowed buffer view.
func (b *Builder) SetBorrowedBuf(i int, v resource.BorrowedBuf) error {
	off, err := b.slot(i, signature.KindBorrowBuf)
	if err != nil {
		return err
	}
	if err := b.mem.WriteU64(off, v.Ptr()); err != nil {
		return err
	}
	if err := b.mem.WriteU64(off+8, v.Len()); err != nil {
		return err
	}
	b.mark(i)
	return nil
}

// Seal finishes the package and returns the transport carrying its pointer.
// All fields must have been written; after Seal the builder is spent and the
// package belongs to the callee, which frees it during unpack.
func (b *Builder) Seal() (transport.Transport, error) {
	if b.sealed || b.freed {
		return transport.Transport{}, errors.AlreadyConsumed(errors.PhasePack, "parameter package builder")
	}
	for i, done := range b.set {
		if !done {
			return transport.Transport{}, errors.New(errors.PhasePack, errors.KindInvalidInput).
				Path(b.layout.Fields[i].Name).
				Detail("field %d was never written", i).
				Build()
		}
	}
	b.sealed = true
	return transport.FromPointer(b.ptr), nil
}

// Free abandons an unsealed package and returns its memory to the caller's
// allocator. Used when the call is never issued. Owned values already moved
// in are released through their origin allocators.
func (b *Builder) Free() error {
	if b.sealed {
		return errors.InvalidInput(errors.PhasePack, "sealed package is reclaimed, not freed")
	}
	if b.freed {
		return errors.AlreadyConsumed(errors.PhasePack, "freed parameter package")
	}
	b.release()
	return nil
}

// Reclaim takes back a sealed package whose call never reached the callee,
// releasing the package block and every owned value moved in. Valid only
// when the transfer did not happen: once the callee has run, the block is
// already raw-freed and the moved values belong to the other side.
func (b *Builder) Reclaim() error {
	if !b.sealed {
		return errors.InvalidInput(errors.PhasePack, "unsealed package is freed, not reclaimed")
	}
	if b.freed {
		return errors.AlreadyConsumed(errors.PhasePack, "reclaimed parameter package")
	}
	b.release()
	return nil
}

func (b *Builder) release() {
	b.freed = true
	b.alloc.Free(b.ptr, b.layout.Size, b.layout.Align)
	for _, m := range b.moved {
		m.origin.Free(m.ptr, m.size, m.align)
	}
	b.moved = nil
}
