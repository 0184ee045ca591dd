package image

import (
	"bytes"
	"encoding/binary"

	"github.com/wippyai/vmi-runtime/errors"
	"github.com/wippyai/vmi-runtime/signature"
)

// FnMeta is one function metadata record: the call identity, the function
// name, and, when debug information is kept, the parameter and return type
// names.
type FnMeta struct {
	Sig        signature.FuncID
	Name       string
	ParamTypes []string
	ReturnType string
}

// Minimal encoded sizes: identity plus a one-byte name and its terminator,
// plus param count and empty return marker in debug form.
const (
	fnMetaMinSize      = 8 + 1 + 1
	fnMetaMinSizeDebug = fnMetaMinSize + 1 + 1
)

// Encode appends the record's binary form to dst. The layout is the
// identity as 8 little-endian bytes, the NUL-terminated name, and when
// debug is set a one-byte parameter count, the NUL-terminated parameter
// type names, and the NUL-terminated return type name (a single NUL when
// the function returns nothing).
func (m FnMeta) Encode(dst []byte, debug bool) ([]byte, error) {
	if m.Sig == 0 {
		return nil, errors.InvalidMeta(errors.PhaseLoad, "record has zero signature")
	}
	if m.Name == "" {
		return nil, errors.InvalidMeta(errors.PhaseLoad, "record has empty function name")
	}
	if len(m.ParamTypes) > 255 {
		return nil, errors.New(errors.PhaseLoad, errors.KindTooManyParams).
			Path(m.Name).
			Detail("at most 255 parameters supported, got %d", len(m.ParamTypes)).
			Build()
	}

	dst = binary.LittleEndian.AppendUint64(dst, uint64(m.Sig))
	dst = append(dst, m.Name...)
	dst = append(dst, 0)

	if !debug {
		return dst, nil
	}

	dst = append(dst, byte(len(m.ParamTypes)))
	for i, p := range m.ParamTypes {
		if p == "" {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidMeta).
				Path(m.Name).
				Detail("parameter %d has empty type name", i).
				Build()
		}
		dst = append(dst, p...)
		dst = append(dst, 0)
	}
	dst = append(dst, m.ReturnType...)
	dst = append(dst, 0)

	return dst, nil
}

// readCString reads a NUL-terminated string and returns it with the number
// of bytes consumed including the terminator.
func readCString(buf []byte) (string, int, error) {
	i := bytes.IndexByte(buf, 0)
	if i < 0 {
		return "", 0, errors.InvalidMeta(errors.PhaseLoad, "missing string terminator")
	}
	return string(buf[:i]), i + 1, nil
}

// parseFnMeta parses one record from the front of buf and returns it with
// the number of bytes consumed.
func parseFnMeta(buf []byte, debug bool) (FnMeta, int, error) {
	min := fnMetaMinSize
	if debug {
		min = fnMetaMinSizeDebug
	}
	if len(buf) < min {
		return FnMeta{}, 0, errors.InvalidMeta(errors.PhaseLoad,
			"record too short: expected at least %d bytes, got %d", min, len(buf))
	}

	sig := signature.FuncID(binary.LittleEndian.Uint64(buf))
	if sig == 0 {
		return FnMeta{}, 0, errors.New(errors.PhaseLoad, errors.KindZeroSignature).
			Detail("parsed record has zero signature").
			Build()
	}
	offset := 8

	name, n, err := readCString(buf[offset:])
	if err != nil {
		return FnMeta{}, 0, err
	}
	offset += n

	m := FnMeta{Sig: sig, Name: name}
	if !debug {
		return m, offset, nil
	}

	if offset >= len(buf) {
		return FnMeta{}, 0, errors.InvalidMeta(errors.PhaseLoad, "record truncated before parameter count")
	}
	paramCount := int(buf[offset])
	offset++

	for i := 0; i < paramCount; i++ {
		if offset >= len(buf) {
			return FnMeta{}, 0, errors.InvalidMeta(errors.PhaseLoad,
				"too few parameters: expected %d, got %d", paramCount, i)
		}
		p, n, err := readCString(buf[offset:])
		if err != nil {
			return FnMeta{}, 0, err
		}
		m.ParamTypes = append(m.ParamTypes, p)
		offset += n
	}

	ret, n, err := readCString(buf[offset:])
	if err != nil {
		return FnMeta{}, 0, err
	}
	m.ReturnType = ret
	offset += n

	return m, offset, nil
}

// ParseFnMeta parses a single record.
func ParseFnMeta(buf []byte, debug bool) (FnMeta, error) {
	m, _, err := parseFnMeta(buf, debug)
	return m, err
}

// ParseFnMetaRegion walks a metadata region of back-to-back records.
func ParseFnMetaRegion(buf []byte, debug bool) ([]FnMeta, error) {
	var out []FnMeta
	offset := 0
	for offset < len(buf) {
		m, n, err := parseFnMeta(buf[offset:], debug)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		offset += n
	}
	return out, nil
}

// ExportEntry is an export record: the entry offset of the function in the
// image, followed by its metadata record.
type ExportEntry struct {
	Entry uint64
	Meta  FnMeta
}

// Encode appends the export entry's binary form to dst.
func (e ExportEntry) Encode(dst []byte, debug bool) ([]byte, error) {
	dst = binary.LittleEndian.AppendUint64(dst, e.Entry)
	return e.Meta.Encode(dst, debug)
}

// ParseExportRegion walks a region of back-to-back export entries.
func ParseExportRegion(buf []byte, debug bool) ([]ExportEntry, error) {
	var out []ExportEntry
	offset := 0
	for offset < len(buf) {
		if len(buf)-offset < 8 {
			return nil, errors.InvalidMeta(errors.PhaseLoad, "export entry truncated before entry offset")
		}
		entry := binary.LittleEndian.Uint64(buf[offset:])
		offset += 8

		m, n, err := parseFnMeta(buf[offset:], debug)
		if err != nil {
			return nil, err
		}
		offset += n
		out = append(out, ExportEntry{Entry: entry, Meta: m})
	}
	return out, nil
}
