package pack

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/vmi-runtime/errors"
	"github.com/wippyai/vmi-runtime/resource"
	"github.com/wippyai/vmi-runtime/signature"
	"github.com/wippyai/vmi-runtime/transport"
)

func TestCalcLayout(t *testing.T) {
	tests := []struct {
		name    string
		fields  []Field
		offsets []uint64
		size    uint64
		align   uint64
	}{
		{
			name:    "single scalar",
			fields:  []Field{{"x", signature.KindU32}},
			offsets: []uint64{0},
			size:    4,
			align:   4,
		},
		{
			name: "padding between fields",
			fields: []Field{
				{"flag", signature.KindU8},
				{"count", signature.KindU64},
			},
			offsets: []uint64{0, 8},
			size:    16,
			align:   8,
		},
		{
			name: "tail padding",
			fields: []Field{
				{"count", signature.KindU64},
				{"flag", signature.KindU8},
			},
			offsets: []uint64{0, 8},
			size:    16,
			align:   8,
		},
		{
			name: "buffer descriptor is two words",
			fields: []Field{
				{"data", signature.KindOwnBuf},
				{"mode", signature.KindU32},
			},
			offsets: []uint64{0, 16},
			size:    24,
			align:   8,
		},
		{
			name: "mixed",
			fields: []Field{
				{"a", signature.KindU16},
				{"b", signature.KindChar},
				{"c", signature.KindBorrow},
				{"d", signature.KindBool},
			},
			offsets: []uint64{0, 4, 8, 16},
			size:    24,
			align:   8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Calc(tt.fields...)
			if err != nil {
				t.Fatalf("calc: %v", err)
			}
			for i, want := range tt.offsets {
				if l.Offsets[i] != want {
					t.Errorf("offset[%d]: got %d, want %d", i, l.Offsets[i], want)
				}
			}
			if l.Size != tt.size {
				t.Errorf("size: got %d, want %d", l.Size, tt.size)
			}
			if l.Align != tt.align {
				t.Errorf("align: got %d, want %d", l.Align, tt.align)
			}
		})
	}
}

func TestCalcRejectsUnit(t *testing.T) {
	if _, err := Calc(Field{"v", signature.KindUnit}); err == nil {
		t.Error("unit field must be rejected")
	}
}

// Round-trips a package holding a primitive, an owned scalar and an owned
// buffer. Every owned field must see exactly one allocation and one matching
// release, and the values must come back bit-identical.
func TestPackUnpackRoundTrip(t *testing.T) {
	mem := resource.NewByteMemory(0x10000)
	alloc := resource.NewCountingAllocator(resource.NewArena(0x100, 0xff00))

	layout, err := Calc(
		Field{"mode", signature.KindU32},
		Field{"handle", signature.KindOwn},
		Field{"payload", signature.KindOwnBuf},
	)
	if err != nil {
		t.Fatalf("calc: %v", err)
	}

	// Caller side: allocate the resources and move them into the package.
	handle, err := resource.AllocOwned(alloc, 8, 8)
	if err != nil {
		t.Fatalf("alloc handle: %v", err)
	}
	handlePtr, _ := handle.Ptr()
	if err := mem.WriteU64(handlePtr, 0xfeedface); err != nil {
		t.Fatalf("write referent: %v", err)
	}

	payload, err := resource.AllocOwnedBuf(alloc, 32, 8)
	if err != nil {
		t.Fatalf("alloc payload: %v", err)
	}
	payloadPtr, _ := payload.Ptr()
	if err := mem.Write(payloadPtr, []byte("four score and seven bytes ago..")); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	b, err := NewBuilder(mem, alloc, layout)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	if err := b.SetU32(0, 42); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if err := b.SetOwned(1, handle); err != nil {
		t.Fatalf("set handle: %v", err)
	}
	if err := b.SetOwnedBuf(2, payload); err != nil {
		t.Fatalf("set payload: %v", err)
	}

	tp, err := b.Seal()
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	// The moved handles are dead on the caller side now.
	if _, err := handle.Ptr(); err == nil {
		t.Error("moved handle still readable on caller side")
	}

	// 2 resources + 1 package block.
	if alloc.Allocs != 3 {
		t.Fatalf("allocs before unpack: got %d, want 3", alloc.Allocs)
	}

	// Callee side: open, unpack once, adopt the owned fields.
	in, err := Open(mem, alloc, layout, tp)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	values, err := in.Unpack()
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}

	// The package block itself is freed during unpack, without touching the
	// owned referents.
	if alloc.Frees != 1 {
		t.Errorf("frees after unpack: got %d, want 1 (package block only)", alloc.Frees)
	}

	mode, err := values[0].U32()
	if err != nil || mode != 42 {
		t.Errorf("mode: got (%d, %v), want 42", mode, err)
	}

	gotHandle, err := values[1].AsOwned(alloc, 8, 8)
	if err != nil {
		t.Fatalf("adopt handle: %v", err)
	}
	gotPtr, err := gotHandle.Ptr()
	if err != nil || gotPtr != handlePtr {
		t.Errorf("handle ptr: got (%#x, %v), want %#x", gotPtr, err, handlePtr)
	}
	referent, err := mem.ReadU64(gotPtr)
	if err != nil || referent != 0xfeedface {
		t.Errorf("referent: got (%#x, %v), want 0xfeedface", referent, err)
	}

	gotPayload, err := values[2].AsOwnedBuf(alloc, 8)
	if err != nil {
		t.Fatalf("adopt payload: %v", err)
	}
	if gotPayload.Len() != 32 {
		t.Errorf("payload len: got %d, want 32", gotPayload.Len())
	}
	bufPtr, _ := gotPayload.Ptr()
	data, err := mem.Read(bufPtr, 32)
	if err != nil || string(data) != "four score and seven bytes ago.." {
		t.Errorf("payload bytes: got (%q, %v)", data, err)
	}

	// Callee releases the adopted resources; each owned field ends with
	// exactly one alloc and one free through the same allocator.
	if err := gotHandle.Release(); err != nil {
		t.Fatalf("release handle: %v", err)
	}
	if err := gotPayload.Release(); err != nil {
		t.Fatalf("release payload: %v", err)
	}

	if alloc.Allocs != 3 || alloc.Frees != 3 {
		t.Errorf("lifecycle: allocs %d frees %d, want 3 and 3", alloc.Allocs, alloc.Frees)
	}
	if alloc.Outstanding() != 0 {
		t.Errorf("outstanding allocations: %d", alloc.Outstanding())
	}
	if alloc.BadFrees != 0 {
		t.Errorf("bad frees: %d", alloc.BadFrees)
	}
}

func TestDoubleUnpackIsStructuralError(t *testing.T) {
	mem := resource.NewByteMemory(0x1000)
	alloc := resource.NewCountingAllocator(resource.NewArena(0x100, 0xf00))

	layout, err := Calc(Field{"x", signature.KindU64})
	if err != nil {
		t.Fatalf("calc: %v", err)
	}

	b, err := NewBuilder(mem, alloc, layout)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	if err := b.SetU64(0, 7); err != nil {
		t.Fatalf("set: %v", err)
	}
	tp, err := b.Seal()
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	in, err := Open(mem, alloc, layout, tp)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := in.Unpack(); err != nil {
		t.Fatalf("first unpack: %v", err)
	}

	_, err = in.Unpack()
	if err == nil {
		t.Fatal("second unpack must fail")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindAlreadyConsumed {
		t.Errorf("kind: got %v, want already_consumed", err)
	}

	// The raw free ran once, on the first unpack.
	if alloc.Frees != 1 || alloc.BadFrees != 0 {
		t.Errorf("frees: got %d (bad %d), want 1 and 0", alloc.Frees, alloc.BadFrees)
	}
}

func TestSealRequiresAllFields(t *testing.T) {
	mem := resource.NewByteMemory(0x1000)
	alloc := resource.NewCountingAllocator(resource.NewArena(0x100, 0xf00))

	layout, err := Calc(
		Field{"a", signature.KindU32},
		Field{"b", signature.KindU32},
	)
	if err != nil {
		t.Fatalf("calc: %v", err)
	}

	b, err := NewBuilder(mem, alloc, layout)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	if err := b.SetU32(0, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := b.Seal(); err == nil {
		t.Error("seal with unwritten field must fail")
	}
}

func TestBuilderRejectsKindMismatch(t *testing.T) {
	mem := resource.NewByteMemory(0x1000)
	alloc := resource.NewCountingAllocator(resource.NewArena(0x100, 0xf00))

	layout, err := Calc(Field{"x", signature.KindU32})
	if err != nil {
		t.Fatalf("calc: %v", err)
	}
	b, err := NewBuilder(mem, alloc, layout)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	if err := b.SetU64(0, 1); err == nil {
		t.Error("writing u64 into a u32 field must fail")
	}
	if err := b.SetU32(5, 1); err == nil {
		t.Error("out of range index must fail")
	}
}

func TestOpenRejectsBadPointer(t *testing.T) {
	mem := resource.NewByteMemory(0x1000)
	alloc := resource.NewCountingAllocator(resource.NewArena(0x100, 0xf00))

	layout, err := Calc(Field{"x", signature.KindU64})
	if err != nil {
		t.Fatalf("calc: %v", err)
	}

	t.Run("null", func(t *testing.T) {
		if _, err := Open(mem, alloc, layout, transport.FromPointer(0)); err == nil {
			t.Error("null package pointer must be rejected")
		}
	})

	t.Run("out of bounds", func(t *testing.T) {
		if _, err := Open(mem, alloc, layout, transport.FromPointer(0xfff8+1)); err == nil {
			t.Error("package crossing the memory end must be rejected")
		}
	})
}

func TestAbandonedBuilderFree(t *testing.T) {
	mem := resource.NewByteMemory(0x1000)
	alloc := resource.NewCountingAllocator(resource.NewArena(0x100, 0xf00))

	layout, err := Calc(Field{"x", signature.KindU64})
	if err != nil {
		t.Fatalf("calc: %v", err)
	}
	b, err := NewBuilder(mem, alloc, layout)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	if err := b.Free(); err != nil {
		t.Fatalf("free: %v", err)
	}
	if alloc.Outstanding() != 0 {
		t.Errorf("outstanding: %d", alloc.Outstanding())
	}
	if err := b.Free(); err == nil {
		t.Error("double free must fail")
	}
	if err := b.SetU64(0, 1); err == nil {
		t.Error("writing a freed package must fail")
	}
}

// Abandoning a package must route the release obligation of every moved-in
// owned value back to its origin allocator, not just free the block.
func TestFreeRecoversMovedResources(t *testing.T) {
	mem := resource.NewByteMemory(0x1000)
	alloc := resource.NewCountingAllocator(resource.NewArena(0x100, 0xf00))

	layout, err := Calc(
		Field{"mode", signature.KindU32},
		Field{"payload", signature.KindOwnBuf},
	)
	if err != nil {
		t.Fatalf("calc: %v", err)
	}

	payload, err := resource.AllocOwnedBuf(alloc, 16, 8)
	if err != nil {
		t.Fatalf("alloc payload: %v", err)
	}

	b, err := NewBuilder(mem, alloc, layout)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	if err := b.SetU32(0, 1); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if err := b.SetOwnedBuf(1, payload); err != nil {
		t.Fatalf("set payload: %v", err)
	}

	if err := b.Free(); err != nil {
		t.Fatalf("free: %v", err)
	}
	if alloc.Outstanding() != 0 {
		t.Errorf("outstanding after abandon: %d", alloc.Outstanding())
	}
	if alloc.BadFrees != 0 {
		t.Errorf("bad frees: %d", alloc.BadFrees)
	}
}

func TestReclaimSealedPackage(t *testing.T) {
	mem := resource.NewByteMemory(0x1000)
	alloc := resource.NewCountingAllocator(resource.NewArena(0x100, 0xf00))

	layout, err := Calc(
		Field{"handle", signature.KindOwn},
		Field{"payload", signature.KindOwnBuf},
	)
	if err != nil {
		t.Fatalf("calc: %v", err)
	}

	handle, err := resource.AllocOwned(alloc, 8, 8)
	if err != nil {
		t.Fatalf("alloc handle: %v", err)
	}
	payload, err := resource.AllocOwnedBuf(alloc, 16, 8)
	if err != nil {
		t.Fatalf("alloc payload: %v", err)
	}

	b, err := NewBuilder(mem, alloc, layout)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	if err := b.SetOwned(0, handle); err != nil {
		t.Fatalf("set handle: %v", err)
	}
	if err := b.SetOwnedBuf(1, payload); err != nil {
		t.Fatalf("set payload: %v", err)
	}

	if err := b.Reclaim(); err == nil {
		t.Error("reclaim before seal must fail")
	}
	if _, err := b.Seal(); err != nil {
		t.Fatalf("seal: %v", err)
	}
	if err := b.Free(); err == nil {
		t.Error("free of a sealed package must fail")
	}

	if err := b.Reclaim(); err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if alloc.Outstanding() != 0 {
		t.Errorf("outstanding after reclaim: %d", alloc.Outstanding())
	}
	if alloc.BadFrees != 0 {
		t.Errorf("bad frees: %d", alloc.BadFrees)
	}

	err = b.Reclaim()
	if err == nil {
		t.Fatal("double reclaim must fail")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindAlreadyConsumed {
		t.Errorf("kind: got %v, want already_consumed", err)
	}
}

func TestValueKindChecks(t *testing.T) {
	v := Value{kind: signature.KindU32, a: 9}
	if _, err := v.U64(); err == nil {
		t.Error("u64 access of u32 field must fail")
	}
	if _, err := v.AsOwned(nil, 8, 8); err == nil {
		t.Error("owned access of u32 field must fail")
	}
	got, err := v.U32()
	if err != nil || got != 9 {
		t.Errorf("u32: got (%d, %v), want 9", got, err)
	}
}
