package engine

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	vmiruntime "github.com/wippyai/vmi-runtime"
	"github.com/wippyai/vmi-runtime/errors"
	"github.com/wippyai/vmi-runtime/signature"
	"github.com/wippyai/vmi-runtime/transport"
)

// Exported names a wasm guest must provide, and the host module its imports
// resolve against.
const (
	WasmDispatchExport = "vmi_dispatch"
	WasmAllocExport    = "vmi_alloc"
	WasmFreeExport     = "vmi_free"
	WasmHostModule     = "vmi"
	WasmHypercallName  = "hypercall"
)

// WazeroEngine drives a guest compiled to WebAssembly. The guest exports
// the dispatch entry taking the three call slots and returning the two
// return slots; hypercalls arrive through an imported host function with
// the same shape.
type WazeroEngine struct {
	runtime  wazero.Runtime
	module   api.Module
	dispatch api.Function
	alloc    api.Function
	free     api.Function
	hyper    HypercallHandler
}

// NewWazeroEngine compiles and instantiates the guest module. hyper may be
// nil for guests that never call back into the host.
func NewWazeroEngine(ctx context.Context, guest []byte, hyper HypercallHandler) (*WazeroEngine, error) {
	rt := wazero.NewRuntime(ctx)
	e := &WazeroEngine{runtime: rt, hyper: hyper}

	_, err := rt.NewHostModuleBuilder(WasmHostModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(e.hostHypercall),
			[]api.ValueType{api.ValueTypeI64, api.ValueTypeI64, api.ValueTypeI64},
			[]api.ValueType{api.ValueTypeI64, api.ValueTypeI64}).
		Export(WasmHypercallName).
		Instantiate(ctx)
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "host module instantiation")
	}

	mod, err := rt.Instantiate(ctx, guest)
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "guest module instantiation")
	}
	e.module = mod

	e.dispatch = mod.ExportedFunction(WasmDispatchExport)
	if e.dispatch == nil {
		rt.Close(ctx)
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Path(WasmDispatchExport).
			Detail("guest module does not export the dispatch entry").
			Build()
	}
	// allocator exports are optional; guests that take no packaged or
	// owned parameters do not need them
	e.alloc = mod.ExportedFunction(WasmAllocExport)
	e.free = mod.ExportedFunction(WasmFreeExport)

	Logger().Info("wasm guest instantiated",
		zap.String("module", mod.Name()),
		zap.Bool("allocator", e.alloc != nil))

	return e, nil
}

func (e *WazeroEngine) hostHypercall(ctx context.Context, _ api.Module, stack []uint64) {
	frame := transport.Call(signature.FuncID(stack[0]), transport.Transport{
		Primary:   stack[1],
		Secondary: stack[2],
	})

	if e.hyper == nil {
		Logger().Error("guest issued hypercall with no handler installed",
			zap.Uint64("sig", stack[0]))
		panic(errors.NotInitialized(errors.PhaseCall, "hypercall handler"))
	}

	out, err := e.hyper(ctx, frame)
	if err != nil {
		// a failed hypercall traps the guest; there is no in-band error slot
		Logger().Error("hypercall failed", zap.Uint64("sig", stack[0]), zap.Error(err))
		panic(err)
	}
	stack[0], stack[1] = out.Primary, out.Secondary
}

// Call transfers one frame into the wasm guest.
func (e *WazeroEngine) Call(ctx context.Context, frame transport.Frame) (transport.Transport, error) {
	res, err := e.dispatch.Call(ctx, uint64(frame.Signature), frame.Data.Primary, frame.Data.Secondary)
	if err != nil {
		return transport.Transport{}, errors.Wrap(errors.PhaseCall, errors.KindInvalidInput, err, "guest dispatch")
	}
	if len(res) != 2 {
		return transport.Transport{}, errors.InvalidInput(errors.PhaseCall, "guest dispatch did not return two slots")
	}
	return transport.Transport{Primary: res[0], Secondary: res[1]}, nil
}

// Memory returns the guest's linear memory as a Memory implementation.
func (e *WazeroEngine) Memory() vmiruntime.Memory {
	return &wazeroMemory{mem: e.module.Memory()}
}

// Allocator returns the guest-exported allocator, or nil when the guest
// exports none.
func (e *WazeroEngine) Allocator(ctx context.Context) vmiruntime.Allocator {
	if e.alloc == nil || e.free == nil {
		return nil
	}
	return &wazeroAllocator{ctx: ctx, alloc: e.alloc, free: e.free}
}

// Close releases the wazero runtime and the guest instance.
func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// wazeroMemory adapts a wasm linear memory to the Memory interface. Wasm
// offsets are 32-bit; anything beyond is out of bounds by construction.
type wazeroMemory struct {
	mem api.Memory
}

func (m *wazeroMemory) Size() uint64 {
	return uint64(m.mem.Size())
}

func (m *wazeroMemory) fault(offset, length uint64) error {
	return errors.OutOfBounds(errors.PhaseDecode, []string{"wasm memory"}, offset, length, m.Size())
}

func (m *wazeroMemory) Read(offset, length uint64) ([]byte, error) {
	if offset > math.MaxUint32 || length > math.MaxUint32 {
		return nil, m.fault(offset, length)
	}
	view, ok := m.mem.Read(uint32(offset), uint32(length))
	if !ok {
		return nil, m.fault(offset, length)
	}
	out := make([]byte, length)
	copy(out, view)
	return out, nil
}

func (m *wazeroMemory) Write(offset uint64, data []byte) error {
	if offset > math.MaxUint32 {
		return m.fault(offset, uint64(len(data)))
	}
	if !m.mem.Write(uint32(offset), data) {
		return m.fault(offset, uint64(len(data)))
	}
	return nil
}

func (m *wazeroMemory) ReadU8(offset uint64) (uint8, error) {
	if offset > math.MaxUint32 {
		return 0, m.fault(offset, 1)
	}
	v, ok := m.mem.ReadByte(uint32(offset))
	if !ok {
		return 0, m.fault(offset, 1)
	}
	return v, nil
}

func (m *wazeroMemory) ReadU16(offset uint64) (uint16, error) {
	if offset > math.MaxUint32 {
		return 0, m.fault(offset, 2)
	}
	v, ok := m.mem.ReadUint16Le(uint32(offset))
	if !ok {
		return 0, m.fault(offset, 2)
	}
	return v, nil
}

func (m *wazeroMemory) ReadU32(offset uint64) (uint32, error) {
	if offset > math.MaxUint32 {
		return 0, m.fault(offset, 4)
	}
	v, ok := m.mem.ReadUint32Le(uint32(offset))
	if !ok {
		return 0, m.fault(offset, 4)
	}
	return v, nil
}

func (m *wazeroMemory) ReadU64(offset uint64) (uint64, error) {
	if offset > math.MaxUint32 {
		return 0, m.fault(offset, 8)
	}
	v, ok := m.mem.ReadUint64Le(uint32(offset))
	if !ok {
		return 0, m.fault(offset, 8)
	}
	return v, nil
}

func (m *wazeroMemory) WriteU8(offset uint64, value uint8) error {
	if offset > math.MaxUint32 || !m.mem.WriteByte(uint32(offset), value) {
		return m.fault(offset, 1)
	}
	return nil
}

func (m *wazeroMemory) WriteU16(offset uint64, value uint16) error {
	if offset > math.MaxUint32 || !m.mem.WriteUint16Le(uint32(offset), value) {
		return m.fault(offset, 2)
	}
	return nil
}

func (m *wazeroMemory) WriteU32(offset uint64, value uint32) error {
	if offset > math.MaxUint32 || !m.mem.WriteUint32Le(uint32(offset), value) {
		return m.fault(offset, 4)
	}
	return nil
}

func (m *wazeroMemory) WriteU64(offset uint64, value uint64) error {
	if offset > math.MaxUint32 || !m.mem.WriteUint64Le(uint32(offset), value) {
		return m.fault(offset, 8)
	}
	return nil
}

// wazeroAllocator routes allocation to the guest-exported alloc and free
// functions, so packages built by the host live in guest memory the guest
// can raw-free.
type wazeroAllocator struct {
	ctx   context.Context
	alloc api.Function
	free  api.Function
}

func (a *wazeroAllocator) Alloc(size, align uint64) (uint64, error) {
	res, err := a.alloc.Call(a.ctx, size, align)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindAllocation, err, "guest alloc")
	}
	if len(res) != 1 || res[0] == 0 {
		return 0, errors.AllocationFailed(errors.PhaseEncode, size, align)
	}
	return res[0], nil
}

func (a *wazeroAllocator) Free(ptr, size, align uint64) {
	if _, err := a.free.Call(a.ctx, ptr, size, align); err != nil {
		Logger().Error("guest free failed",
			zap.Uint64("ptr", ptr),
			zap.Uint64("size", size),
			zap.Error(err))
	}
}
