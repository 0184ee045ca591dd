package image

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"testing"

	"github.com/wippyai/vmi-runtime/errors"
)

func le64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func TestFnMetaEncodeDebug(t *testing.T) {
	m := FnMeta{
		Sig:        0x1234567890abcdef,
		Name:       "foo",
		ParamTypes: []string{"bar", "baz"},
		ReturnType: "qux",
	}

	var want []byte
	want = append(want, le64(0x1234567890abcdef)...)
	want = append(want, "foo\x00"...)
	want = append(want, 2)
	want = append(want, "bar\x00"...)
	want = append(want, "baz\x00"...)
	want = append(want, "qux\x00"...)

	got, err := m.Encode(nil, true)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("encoded bytes:\n got %x\nwant %x", got, want)
	}
}

func TestFnMetaEncodeNoDebug(t *testing.T) {
	m := FnMeta{Sig: 0x1234567890abcdef, Name: "foo"}

	var want []byte
	want = append(want, le64(0x1234567890abcdef)...)
	want = append(want, "foo\x00"...)

	got, err := m.Encode(nil, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("encoded bytes:\n got %x\nwant %x", got, want)
	}
}

func TestParseFnMeta(t *testing.T) {
	t.Run("debug with params and return", func(t *testing.T) {
		var buf []byte
		buf = append(buf, le64(0x1234567890abcdef)...)
		buf = append(buf, "foo\x00"...)
		buf = append(buf, 2)
		buf = append(buf, "bar\x00"...)
		buf = append(buf, "baz\x00"...)
		buf = append(buf, "qux\x00"...)

		m, err := ParseFnMeta(buf, true)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if m.Sig != 0x1234567890abcdef || m.Name != "foo" {
			t.Errorf("head: got %#x %q", m.Sig, m.Name)
		}
		if len(m.ParamTypes) != 2 || m.ParamTypes[0] != "bar" || m.ParamTypes[1] != "baz" {
			t.Errorf("params: got %v", m.ParamTypes)
		}
		if m.ReturnType != "qux" {
			t.Errorf("return: got %q", m.ReturnType)
		}
	})

	t.Run("debug without params or return", func(t *testing.T) {
		var buf []byte
		buf = append(buf, le64(0x1234567890abcdef)...)
		buf = append(buf, "foo\x00"...)
		buf = append(buf, 0, 0)

		m, err := ParseFnMeta(buf, true)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if len(m.ParamTypes) != 0 || m.ReturnType != "" {
			t.Errorf("debug fields: got %v %q", m.ParamTypes, m.ReturnType)
		}
	})

	t.Run("no debug", func(t *testing.T) {
		var buf []byte
		buf = append(buf, le64(0x1234567890abcdef)...)
		buf = append(buf, "foo\x00"...)

		m, err := ParseFnMeta(buf, false)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if m.Name != "foo" {
			t.Errorf("name: got %q", m.Name)
		}
	})

	t.Run("zero signature", func(t *testing.T) {
		var buf []byte
		buf = append(buf, le64(0)...)
		buf = append(buf, "foo\x00"...)
		buf = append(buf, 0, 0)

		_, err := ParseFnMeta(buf, true)
		var e *errors.Error
		if !stderrors.As(err, &e) || e.Kind != errors.KindZeroSignature {
			t.Errorf("got %v, want zero_signature", err)
		}
	})

	t.Run("too short", func(t *testing.T) {
		if _, err := ParseFnMeta(nil, false); err == nil {
			t.Error("empty buffer must fail")
		}
	})

	t.Run("missing terminator", func(t *testing.T) {
		var buf []byte
		buf = append(buf, le64(1)...)
		buf = append(buf, "foo"...)

		if _, err := ParseFnMeta(buf, false); err == nil {
			t.Error("unterminated name must fail")
		}
	})

	t.Run("too few params", func(t *testing.T) {
		var buf []byte
		buf = append(buf, le64(0x1234567890abcdef)...)
		buf = append(buf, "foo\x00"...)
		buf = append(buf, 2)
		buf = append(buf, "bar\x00"...)

		if _, err := ParseFnMeta(buf, true); err == nil {
			t.Error("declared 2 params with 1 present must fail")
		}
	})
}

func TestParseFnMetaRegion(t *testing.T) {
	records := []FnMeta{
		{Sig: 0x1234567890abcdef, Name: "foo", ParamTypes: []string{"bar"}},
		{Sig: 0xabcdef1234567890, Name: "another", ReturnType: "qux"},
		{Sig: 0xabc1234567890def, Name: "bar", ParamTypes: []string{"bar", "baz"}, ReturnType: "quxxx"},
	}

	var buf []byte
	for _, m := range records {
		var err error
		buf, err = m.Encode(buf, true)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	got, err := ParseFnMetaRegion(buf, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("records: got %d, want %d", len(got), len(records))
	}
	for i, m := range records {
		if got[i].Sig != m.Sig || got[i].Name != m.Name || got[i].ReturnType != m.ReturnType {
			t.Errorf("record %d: got %+v, want %+v", i, got[i], m)
		}
	}

	// trailing garbage after a valid record fails the walk
	if _, err := ParseFnMetaRegion(append(buf, "invalid"...), true); err == nil {
		t.Error("region with trailing garbage must fail")
	}
}

func TestExportRegion(t *testing.T) {
	entries := []ExportEntry{
		{Entry: 0x1000, Meta: FnMeta{Sig: 0x11, Name: "init"}},
		{Entry: 0x2040, Meta: FnMeta{Sig: 0x22, Name: "step", ParamTypes: []string{"u32"}, ReturnType: "u64"}},
	}

	var buf []byte
	for _, e := range entries {
		var err error
		buf, err = e.Encode(buf, true)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	got, err := ParseExportRegion(buf, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries: got %d, want 2", len(got))
	}
	if got[0].Entry != 0x1000 || got[0].Meta.Name != "init" {
		t.Errorf("entry 0: got %+v", got[0])
	}
	if got[1].Entry != 0x2040 || got[1].Meta.ReturnType != "u64" {
		t.Errorf("entry 1: got %+v", got[1])
	}
}

func TestImageParse(t *testing.T) {
	exp, err := ExportEntry{Entry: 0x1000, Meta: FnMeta{Sig: 0x11, Name: "init"}}.Encode(nil, true)
	if err != nil {
		t.Fatalf("encode export: %v", err)
	}
	imp, err := FnMeta{Sig: 0x22, Name: "log"}.Encode(nil, true)
	if err != nil {
		t.Fatalf("encode import: %v", err)
	}

	img, err := Parse(map[string][]byte{
		SectionExports: exp,
		SectionImports: imp,
	}, 0x40_0000, DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(img.Exports) != 1 || len(img.Imports) != 1 {
		t.Fatalf("regions: got %d exports, %d imports", len(img.Exports), len(img.Imports))
	}
	if e, ok := img.ExportBySig(0x11); !ok || e.Entry != 0x1000 {
		t.Errorf("lookup: got (%+v, %v)", e, ok)
	}
	if _, ok := img.ExportBySig(0x99); ok {
		t.Error("lookup of unknown identity must miss")
	}
}
