package resource

import (
	vmiruntime "github.com/wippyai/vmi-runtime"
	"github.com/wippyai/vmi-runtime/errors"
)

// Owned is an owning scalar resource: a pointer whose referent must
// eventually be released through the allocator that produced it.
type Owned struct {
	origin   vmiruntime.Allocator
	ptr      uint64
	size     uint64
	align    uint64
	moved    bool
	released bool
}

// AllocOwned allocates a scalar resource of the given size from origin and
// returns the owning handle.
func AllocOwned(origin vmiruntime.Allocator, size, align uint64) (*Owned, error) {
	ptr, err := origin.Alloc(size, align)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindAllocation, err, "owned scalar")
	}
	return &Owned{origin: origin, ptr: ptr, size: size, align: align}, nil
}

// AdoptOwned wraps a raw pointer received across the boundary in an owning
// handle. origin must be the allocator of the side that produced the
// referent, so release routes back to it.
func AdoptOwned(origin vmiruntime.Allocator, ptr, size, align uint64) *Owned {
	return &Owned{origin: origin, ptr: ptr, size: size, align: align}
}

// Ptr returns the referent's pointer, or an error if ownership has moved
// or the resource was released.
func (o *Owned) Ptr() (uint64, error) {
	if err := o.usable(); err != nil {
		return 0, err
	}
	return o.ptr, nil
}

// Size returns the referent's size in bytes.
func (o *Owned) Size() uint64 { return o.size }

// Align returns the referent's alignment.
func (o *Owned) Align() uint64 { return o.align }

// Origin returns the allocator the referent must be released through.
func (o *Owned) Origin() vmiruntime.Allocator { return o.origin }

// MoveOut transfers ownership out of the handle and returns the raw
// pointer bits. The handle is dead afterwards: it can neither be read nor
// released. Used when writing the value into a parameter package.
func (o *Owned) MoveOut() (uint64, error) {
	if err := o.usable(); err != nil {
		return 0, err
	}
	o.moved = true
	return o.ptr, nil
}

// Borrow returns a borrowing view of the resource. The view carries no
// deallocation obligation and stays valid only while ownership has not
// moved.
func (o *Owned) Borrow() (Borrowed, error) {
	ptr, err := o.Ptr()
	if err != nil {
		return Borrowed{}, err
	}
	return Borrowed{ptr: ptr}, nil
}

// Release frees the referent through the origin allocator. Releasing a
// moved or already-released handle is an error, never a double free.
func (o *Owned) Release() error {
	if err := o.usable(); err != nil {
		return err
	}
	o.released = true
	o.origin.Free(o.ptr, o.size, o.align)
	return nil
}

func (o *Owned) usable() error {
	if o.moved {
		return errors.MovedValue(errors.PhaseEncode, "owned scalar")
	}
	if o.released {
		return errors.AlreadyConsumed(errors.PhaseEncode, "owned scalar")
	}
	return nil
}

// OwnedBuf is an owning buffer resource: pointer plus length, released
// through the origin allocator exactly once.
type OwnedBuf struct {
	origin   vmiruntime.Allocator
	ptr      uint64
	length   uint64
	align    uint64
	moved    bool
	released bool
}

// AllocOwnedBuf allocates a buffer of the given length from origin.
func AllocOwnedBuf(origin vmiruntime.Allocator, length, align uint64) (*OwnedBuf, error) {
	ptr, err := origin.Alloc(length, align)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindAllocation, err, "owned buffer")
	}
	return &OwnedBuf{origin: origin, ptr: ptr, length: length, align: align}, nil
}

// AdoptOwnedBuf wraps a buffer received across the boundary. origin must be
// the producing side's allocator.
func AdoptOwnedBuf(origin vmiruntime.Allocator, ptr, length, align uint64) *OwnedBuf {
	return &OwnedBuf{origin: origin, ptr: ptr, length: length, align: align}
}

// Ptr returns the buffer pointer, or an error if the handle is dead.
func (b *OwnedBuf) Ptr() (uint64, error) {
	if err := b.usable(); err != nil {
		return 0, err
	}
	return b.ptr, nil
}

// Len returns the buffer length in bytes.
func (b *OwnedBuf) Len() uint64 { return b.length }

// Align returns the buffer alignment.
func (b *OwnedBuf) Align() uint64 { return b.align }

// Origin returns the allocator the buffer must be released through.
func (b *OwnedBuf) Origin() vmiruntime.Allocator { return b.origin }

// MoveOut transfers ownership out of the handle and returns the raw
// pointer and length. The handle is dead afterwards.
func (b *OwnedBuf) MoveOut() (ptr, length uint64, err error) {
	if err := b.usable(); err != nil {
		return 0, 0, err
	}
	b.moved = true
	return b.ptr, b.length, nil
}

// Borrow returns a borrowing view of the buffer.
func (b *OwnedBuf) Borrow() (BorrowedBuf, error) {
	if err := b.usable(); err != nil {
		return BorrowedBuf{}, err
	}
	return BorrowedBuf{ptr: b.ptr, length: b.length}, nil
}

// Release frees the buffer through the origin allocator.
func (b *OwnedBuf) Release() error {
	if err := b.usable(); err != nil {
		return err
	}
	b.released = true
	b.origin.Free(b.ptr, b.length, b.align)
	return nil
}

func (b *OwnedBuf) usable() error {
	if b.moved {
		return errors.MovedValue(errors.PhaseEncode, "owned buffer")
	}
	if b.released {
		return errors.AlreadyConsumed(errors.PhaseEncode, "owned buffer")
	}
	return nil
}

// Borrowed is a borrowing scalar view. It has the same physical shape as an
// owned scalar but deliberately exposes no release operation.
type Borrowed struct {
	ptr uint64
}

// BorrowScalar wraps a raw pointer in a borrowing view.
func BorrowScalar(ptr uint64) Borrowed {
	return Borrowed{ptr: ptr}
}

// Ptr returns the borrowed pointer.
func (b Borrowed) Ptr() uint64 { return b.ptr }

// BorrowedBuf is a borrowing buffer view: pointer plus length, no
// deallocation obligation.
type BorrowedBuf struct {
	ptr    uint64
	length uint64
}

// BorrowBuf wraps a raw buffer descriptor in a borrowing view.
func BorrowBuf(ptr, length uint64) BorrowedBuf {
	return BorrowedBuf{ptr: ptr, length: length}
}

// Ptr returns the borrowed buffer pointer.
func (b BorrowedBuf) Ptr() uint64 { return b.ptr }

// Len returns the borrowed buffer length.
func (b BorrowedBuf) Len() uint64 { return b.length }
