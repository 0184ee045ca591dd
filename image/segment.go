package image

import (
	"github.com/wippyai/vmi-runtime/errors"
)

// PageSize is the granularity of segment placement.
const PageSize = 4096

// SegmentFlags describe how a loaded segment is mapped.
type SegmentFlags uint8

const (
	// FlagSystem marks runtime-owned structures rather than guest payload.
	FlagSystem SegmentFlags = 1 << 0
	// FlagCode marks an executable segment.
	FlagCode SegmentFlags = 1 << 1
	// FlagWrite marks a writable data segment. Ignored for code segments.
	FlagWrite SegmentFlags = 1 << 2
)

// FlagsForSection maps a section name to its segment flags.
func FlagsForSection(name string) (SegmentFlags, error) {
	switch name {
	case ".text":
		return FlagCode, nil
	case ".rodata", ".eh_frame":
		return 0, nil
	case ".data", ".bss":
		return FlagWrite, nil
	default:
		return 0, errors.New(errors.PhaseLoad, errors.KindUnsupported).
			Path(name).
			Detail("no flag mapping for section").
			Build()
	}
}

// SegmentEntry is one packed segment descriptor.
//
// Bit 0 is the present bit, bits 1-7 the flags, bits 8-23 the page count,
// bits 24-63 the page-aligned start address (address >> 12).
type SegmentEntry uint64

const (
	maskPresent SegmentEntry = 1
	maskFlags   SegmentEntry = 0xfe
	maskPages   SegmentEntry = 0xffff00
	maskAddr    SegmentEntry = 0xffff_ffff_ff00_0000
)

// NewSegmentEntry packs a present entry. addr must be page aligned; pages
// must be non-zero.
func NewSegmentEntry(addr uint64, pages uint16, flags SegmentFlags) (SegmentEntry, error) {
	if pages == 0 {
		return 0, errors.InvalidInput(errors.PhaseLoad, "segment must span at least one page")
	}
	if addr%PageSize != 0 {
		return 0, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Detail("segment address %#x is not page aligned", addr).
			Build()
	}
	e := maskPresent
	e |= SegmentEntry(flags) << 1
	e |= SegmentEntry(pages) << 8
	e |= SegmentEntry(addr) << 12
	return e, nil
}

// Present reports whether the entry describes a segment.
func (e SegmentEntry) Present() bool {
	return e&maskPresent != 0
}

// Flags returns the segment flags.
func (e SegmentEntry) Flags() SegmentFlags {
	return SegmentFlags((e & maskFlags) >> 1)
}

// Pages returns the segment length in pages.
func (e SegmentEntry) Pages() uint16 {
	return uint16((e & maskPages) >> 8)
}

// Size returns the segment length in bytes.
func (e SegmentEntry) Size() uint64 {
	return uint64(e.Pages()) * PageSize
}

// Addr returns the segment start address.
func (e SegmentEntry) Addr() uint64 {
	return uint64(e&maskAddr) >> 12
}

// SegmentTableEntries is the fixed capacity of a segment table.
const SegmentTableEntries = 512

// SegmentTable is the fixed-size table of segment descriptors handed to the
// guest at a known location.
type SegmentTable struct {
	Entries [SegmentTableEntries]SegmentEntry
}

// NewSegmentTable builds a table from the present entries, in order.
func NewSegmentTable(entries ...SegmentEntry) (*SegmentTable, error) {
	if len(entries) > SegmentTableEntries {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Detail("segment table holds at most %d entries, got %d", SegmentTableEntries, len(entries)).
			Build()
	}
	t := &SegmentTable{}
	copy(t.Entries[:], entries)
	return t, nil
}

// Present returns the present entries in table order. Iteration stops at the
// first absent slot; the table is always packed from the front.
func (t *SegmentTable) Present() []SegmentEntry {
	var out []SegmentEntry
	for _, e := range t.Entries {
		if !e.Present() {
			break
		}
		out = append(out, e)
	}
	return out
}
