package pack

import (
	"math"

	vmiruntime "github.com/wippyai/vmi-runtime"
	"github.com/wippyai/vmi-runtime/errors"
	"github.com/wippyai/vmi-runtime/resource"
	"github.com/wippyai/vmi-runtime/signature"
	"github.com/wippyai/vmi-runtime/transport"
)

// Inbound is a received parameter package on the callee side. It is opened
// from the primary transport word and consumed by a single Unpack.
type Inbound struct {
	layout   *Layout
	mem      vmiruntime.Memory
	alloc    vmiruntime.Allocator
	ptr      uint64
	consumed bool
}

// Open validates the package pointer and wraps it for unpacking. alloc must
// be the allocator the caller built the package from; Unpack returns the
// memory there.
func Open(mem vmiruntime.Memory, alloc vmiruntime.Allocator, layout *Layout, t transport.Transport) (*Inbound, error) {
	limit := uint64(math.MaxUint64)
	if sizer, ok := mem.(vmiruntime.MemorySizer); ok {
		limit = sizer.Size()
	}
	if err := t.CheckPointer(layout.Size, limit); err != nil {
		return nil, err
	}
	return &Inbound{
		layout: layout,
		mem:    mem,
		alloc:  alloc,
		ptr:    t.Pointer(),
	}, nil
}

// Unpack copies every field out of the package into local values, then
// returns the package memory to its allocator as one raw block. No field
// cleanup runs during the free; ownership travels with the returned values.
// The package is consumed: a second Unpack fails.
func (in *Inbound) Unpack() ([]Value, error) {
	if in.consumed {
		return nil, errors.AlreadyConsumed(errors.PhaseUnpack, "parameter package")
	}

	values := make([]Value, len(in.layout.Fields))
	for i, f := range in.layout.Fields {
		off := in.ptr + in.layout.Offsets[i]
		v := Value{kind: f.Kind}

		size, _, err := kindLayout(f.Kind)
		if err != nil {
			return nil, err
		}

		switch size {
		case 1:
			raw, err := in.mem.ReadU8(off)
			if err != nil {
				return nil, err
			}
			v.a = uint64(raw)
		case 2:
			raw, err := in.mem.ReadU16(off)
			if err != nil {
				return nil, err
			}
			v.a = uint64(raw)
		case 4:
			raw, err := in.mem.ReadU32(off)
			if err != nil {
				return nil, err
			}
			v.a = uint64(raw)
		case 8:
			raw, err := in.mem.ReadU64(off)
			if err != nil {
				return nil, err
			}
			v.a = raw
		case 16:
			ptr, err := in.mem.ReadU64(off)
			if err != nil {
				return nil, err
			}
			length, err := in.mem.ReadU64(off + 8)
			if err != nil {
				return nil, err
			}
			v.a, v.b = ptr, length
		}

		values[i] = v
	}

	// All fields are copied out; the aggregate itself is plain bytes now and
	// goes back to the caller's allocator in one step.
	in.consumed = true
	in.alloc.Free(in.ptr, in.layout.Size, in.layout.Align)

	return values, nil
}

// Value is one field copied out of a package. Accessors check the field's
// declared kind.
type Value struct {
	kind signature.Kind
	a    uint64
	b    uint64
}

// Kind returns the field's declared kind.
func (v Value) Kind() signature.Kind { return v.kind }

func (v Value) want(k ...signature.Kind) error {
	for _, w := range k {
		if v.kind == w {
			return nil
		}
	}
	return errors.New(errors.PhaseUnpack, errors.KindInvalidInput).
		Detail("field is %s, not the accessed kind", v.kind).
		Build()
}

// Bool returns a boolean field.
func (v Value) Bool() (bool, error) {
	if err := v.want(signature.KindBool); err != nil {
		return false, err
	}
	return v.a != 0, nil
}

// U8 returns an 8-bit field.
func (v Value) U8() (uint8, error) {
	if err := v.want(signature.KindU8, signature.KindI8); err != nil {
		return 0, err
	}
	return uint8(v.a), nil
}

// U16 returns a 16-bit field.
func (v Value) U16() (uint16, error) {
	if err := v.want(signature.KindU16, signature.KindI16); err != nil {
		return 0, err
	}
	return uint16(v.a), nil
}

// U32 returns a 32-bit field. Char fields come back as their code point
// bits.
func (v Value) U32() (uint32, error) {
	if err := v.want(signature.KindU32, signature.KindI32, signature.KindChar); err != nil {
		return 0, err
	}
	return uint32(v.a), nil
}

// U64 returns a 64-bit field.
func (v Value) U64() (uint64, error) {
	if err := v.want(signature.KindU64, signature.KindI64, signature.KindUsize); err != nil {
		return 0, err
	}
	return v.a, nil
}

// F32 returns a 32-bit float field.
func (v Value) F32() (float32, error) {
	if err := v.want(signature.KindF32); err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v.a)), nil
}

// F64 returns a 64-bit float field.
func (v Value) F64() (float64, error) {
	if err := v.want(signature.KindF64); err != nil {
		return 0, err
	}
	return math.Float64frombits(v.a), nil
}

// AsOwned adopts an owned scalar field. origin must be the allocator of the
// side that produced the referent, and size and align its allocation shape,
// so the release routes correctly.
func (v Value) AsOwned(origin vmiruntime.Allocator, size, align uint64) (*resource.Owned, error) {
	if err := v.want(signature.KindOwn); err != nil {
		return nil, err
	}
	if v.a == 0 {
		return nil, errors.New(errors.PhaseUnpack, errors.KindNilPointer).
			Detail("owned scalar field holds a null pointer").
			Build()
	}
	return resource.AdoptOwned(origin, v.a, size, align), nil
}

// AsOwnedBuf adopts an owned buffer field. The length comes from the
// package; origin and align describe the producing allocation.
func (v Value) AsOwnedBuf(origin vmiruntime.Allocator, align uint64) (*resource.OwnedBuf, error) {
	if err := v.want(signature.KindOwnBuf); err != nil {
		return nil, err
	}
	if v.a == 0 {
		return nil, errors.New(errors.PhaseUnpack, errors.KindNilPointer).
			Detail("owned buffer field holds a null pointer").
			Build()
	}
	return resource.AdoptOwnedBuf(origin, v.a, v.b, align), nil
}

// AsBorrowed returns a borrowed scalar view of the field.
func (v Value) AsBorrowed() (resource.Borrowed, error) {
	if err := v.want(signature.KindBorrow); err != nil {
		return resource.Borrowed{}, err
	}
	return resource.BorrowScalar(v.a), nil
}

// AsBorrowedBuf returns a borrowed buffer view of the field.
func (v Value) AsBorrowedBuf() (resource.BorrowedBuf, error) {
	if err := v.want(signature.KindBorrowBuf); err != nil {
		return resource.BorrowedBuf{}, err
	}
	return resource.BorrowBuf(v.a, v.b), nil
}
