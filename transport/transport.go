package transport

import (
	"fmt"
	"math"

	"github.com/wippyai/vmi-runtime/errors"
)

// Transport is the universal two-word wire representation. It is copied
// into the argument slots on call and the return slots on return.
type Transport struct {
	// Primary holds a zero-extended primitive, a pointer/offset, or the
	// pointer half of a buffer descriptor.
	Primary uint64
	// Secondary holds the buffer length when Primary is a buffer pointer.
	// Unused otherwise and must be zero.
	Secondary uint64
}

// Void is the transport of a call or return carrying no value.
func Void() Transport {
	return Transport{}
}

// FromU64 encodes an unsigned integer. Narrower integers are zero-extended
// by conversion at the call site.
func FromU64(v uint64) Transport {
	return Transport{Primary: v}
}

// FromI64 encodes a signed integer; the bit pattern travels unchanged.
func FromI64(v int64) Transport {
	return Transport{Primary: uint64(v)}
}

// FromBool encodes a boolean as 0 or 1.
func FromBool(b bool) Transport {
	if b {
		return Transport{Primary: 1}
	}
	return Transport{}
}

// FromF64 encodes a float64 by bit pattern.
func FromF64(f float64) Transport {
	return Transport{Primary: math.Float64bits(f)}
}

// FromF32 encodes a float32 by zero-extended bit pattern.
func FromF32(f float32) Transport {
	return Transport{Primary: uint64(math.Float32bits(f))}
}

// FromPointer encodes a scalar pointer/offset.
func FromPointer(ptr uint64) Transport {
	return Transport{Primary: ptr}
}

// FromBuffer encodes a buffer descriptor: pointer and length.
func FromBuffer(ptr, length uint64) Transport {
	return Transport{Primary: ptr, Secondary: length}
}

// U64 decodes the primary word as an unsigned integer.
func (t Transport) U64() uint64 { return t.Primary }

// U32 decodes the primary word as a 32-bit unsigned integer.
func (t Transport) U32() uint32 { return uint32(t.Primary) }

// U16 decodes the primary word as a 16-bit unsigned integer.
func (t Transport) U16() uint16 { return uint16(t.Primary) }

// U8 decodes the primary word as an 8-bit unsigned integer.
func (t Transport) U8() uint8 { return uint8(t.Primary) }

// I64 decodes the primary word as a signed integer.
func (t Transport) I64() int64 { return int64(t.Primary) }

// Bool decodes the primary word as a boolean; any non-zero value is true.
func (t Transport) Bool() bool { return t.Primary != 0 }

// F64 decodes the primary word as a float64 bit pattern.
func (t Transport) F64() float64 { return math.Float64frombits(t.Primary) }

// F32 decodes the primary word as a float32 bit pattern.
func (t Transport) F32() float32 { return math.Float32frombits(uint32(t.Primary)) }

// Pointer decodes the primary word as a pointer/offset.
func (t Transport) Pointer() uint64 { return t.Primary }

// Buffer decodes a buffer descriptor. Secondary == 0 always means the empty
// buffer regardless of Primary, so the returned pointer is normalized to 0
// when the length is 0.
func (t Transport) Buffer() (ptr, length uint64) {
	if t.Secondary == 0 {
		return 0, 0
	}
	return t.Primary, t.Secondary
}

// IsEmptyBuffer reports whether the transport decodes as an empty buffer.
func (t Transport) IsEmptyBuffer() bool {
	return t.Secondary == 0
}

// CheckBuffer validates a buffer descriptor against the receiving side's
// addressable region before any dereference. Empty buffers are always
// valid; anything else must lie fully inside [0, limit).
func (t Transport) CheckBuffer(limit uint64) error {
	ptr, length := t.Buffer()
	if length == 0 {
		return nil
	}
	if ptr >= limit || length > limit-ptr {
		return errors.OutOfBounds(errors.PhaseDecode, []string{"buffer"}, ptr, length, limit)
	}
	return nil
}

// CheckPointer validates a scalar pointer plus object size against the
// receiving side's addressable region.
func (t Transport) CheckPointer(size, limit uint64) error {
	ptr := t.Pointer()
	if ptr == 0 {
		return errors.New(errors.PhaseDecode, errors.KindNilPointer).
			Detail("null pointer in primary slot").
			Build()
	}
	if ptr >= limit || size > limit-ptr {
		return errors.OutOfBounds(errors.PhaseDecode, []string{"pointer"}, ptr, size, limit)
	}
	return nil
}

func (t Transport) String() string {
	return fmt.Sprintf("{primary: %#x, secondary: %#x}", t.Primary, t.Secondary)
}
