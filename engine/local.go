package engine

import (
	"context"

	"go.uber.org/zap"

	vmiruntime "github.com/wippyai/vmi-runtime"
	"github.com/wippyai/vmi-runtime/errors"
	"github.com/wippyai/vmi-runtime/signature"
	"github.com/wippyai/vmi-runtime/transport"
)

// GuestEnv is what a locally hosted guest function sees: the shared memory,
// the guest-side allocator, and the bridge for calls back into the host.
type GuestEnv struct {
	Memory vmiruntime.Memory
	Alloc  vmiruntime.Allocator
	hyper  HypercallHandler
}

// Hypercall issues a guest-to-host call through the installed handler.
func (e *GuestEnv) Hypercall(ctx context.Context, frame transport.Frame) (transport.Transport, error) {
	if e.hyper == nil {
		return transport.Transport{}, errors.NotInitialized(errors.PhaseCall, "hypercall handler")
	}
	return e.hyper(ctx, frame)
}

// GuestFunc is a guest function hosted in-process by the local engine.
type GuestFunc func(ctx context.Context, env *GuestEnv, data transport.Transport) (transport.Transport, error)

// LocalEngine hosts guest functions in the same process, sharing one memory
// with the host side. Both call directions run through the identical frame
// convention, which makes it the reference engine for tests.
type LocalEngine struct {
	env   *GuestEnv
	funcs map[signature.FuncID]GuestFunc
}

// NewLocalEngine creates a local engine over the given memory and guest
// allocator.
func NewLocalEngine(mem vmiruntime.Memory, alloc vmiruntime.Allocator) *LocalEngine {
	return &LocalEngine{
		env:   &GuestEnv{Memory: mem, Alloc: alloc},
		funcs: make(map[signature.FuncID]GuestFunc),
	}
}

// Register installs a guest function under its call identity.
func (e *LocalEngine) Register(sig signature.FuncID, fn GuestFunc) {
	e.funcs[sig] = fn
}

// SetHypercallHandler installs the host-side handler for calls the hosted
// guest functions issue back across the boundary.
func (e *LocalEngine) SetHypercallHandler(h HypercallHandler) {
	e.env.hyper = h
}

// Call transfers one frame into the hosted guest.
func (e *LocalEngine) Call(ctx context.Context, frame transport.Frame) (transport.Transport, error) {
	if err := ctx.Err(); err != nil {
		return transport.Transport{}, errors.Wrap(errors.PhaseCall, errors.KindInvalidInput, err, "context done before transfer")
	}

	fn, ok := e.funcs[frame.Signature]
	if !ok {
		return transport.Transport{}, errors.UnknownFunction(errors.PhaseDispatch, uint64(frame.Signature))
	}

	Logger().Debug("local transfer",
		zap.Uint64("sig", uint64(frame.Signature)),
		zap.Stringer("data", frame.Data))

	return fn(ctx, e.env, frame.Data)
}
