package pack

import (
	"github.com/wippyai/vmi-runtime/errors"
	"github.com/wippyai/vmi-runtime/signature"
)

// Field describes one parameter slot of a package, in declaration order.
type Field struct {
	Name string
	Kind signature.Kind
}

// Layout is the computed in-memory shape of a parameter package. It is
// derived deterministically from the field list, so caller and callee
// compute identical layouts from the same declaration.
type Layout struct {
	Fields  []Field
	Offsets []uint64
	Size    uint64
	Align   uint64
}

// AlignTo rounds offset up to the next multiple of align. align must be a
// power of two.
func AlignTo(offset, align uint64) uint64 {
	return (offset + align - 1) &^ (align - 1)
}

// kindLayout returns the size and alignment of one field slot.
func kindLayout(k signature.Kind) (size, align uint64, err error) {
	switch k {
	case signature.KindBool, signature.KindU8, signature.KindI8:
		return 1, 1, nil
	case signature.KindU16, signature.KindI16:
		return 2, 2, nil
	case signature.KindU32, signature.KindI32, signature.KindF32, signature.KindChar:
		return 4, 4, nil
	case signature.KindU64, signature.KindI64, signature.KindF64, signature.KindUsize:
		return 8, 8, nil
	case signature.KindOwn, signature.KindBorrow:
		// pointer word
		return 8, 8, nil
	case signature.KindOwnBuf, signature.KindBorrowBuf:
		// pointer word followed by length word
		return 16, 8, nil
	default:
		return 0, 0, errors.New(errors.PhasePack, errors.KindUnsupported).
			Detail("kind %s cannot be a package field", k).
			Build()
	}
}

// Calc computes the package layout for a parameter list using C struct
// rules: fields at their aligned offsets in declaration order, total size
// padded to the maximum field alignment.
func Calc(fields ...Field) (*Layout, error) {
	if len(fields) == 0 {
		return nil, errors.InvalidInput(errors.PhasePack, "package must have at least one field")
	}

	l := &Layout{
		Fields:  fields,
		Offsets: make([]uint64, len(fields)),
		Align:   1,
	}

	offset := uint64(0)
	for i, f := range fields {
		size, align, err := kindLayout(f.Kind)
		if err != nil {
			return nil, err
		}

		offset = AlignTo(offset, align)
		l.Offsets[i] = offset
		offset += size

		if align > l.Align {
			l.Align = align
		}
	}

	l.Size = AlignTo(offset, l.Align)
	return l, nil
}

// check validates a field index against the layout and, when want kinds are
// given, that the field's kind is among them.
func (l *Layout) check(phase errors.Phase, i int, want ...signature.Kind) error {
	if i < 0 || i >= len(l.Fields) {
		return errors.New(phase, errors.KindInvalidInput).
			Detail("field index %d out of range (package has %d fields)", i, len(l.Fields)).
			Build()
	}
	if len(want) == 0 {
		return nil
	}
	for _, k := range want {
		if l.Fields[i].Kind == k {
			return nil
		}
	}
	return errors.New(phase, errors.KindInvalidInput).
		Path(l.Fields[i].Name).
		Detail("field %d is %s, not the accessed kind", i, l.Fields[i].Kind).
		Build()
}
