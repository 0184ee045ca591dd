package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/vmi-runtime/engine"
	"github.com/wippyai/vmi-runtime/errors"
	"github.com/wippyai/vmi-runtime/signature"
	"github.com/wippyai/vmi-runtime/transport"
)

// HostFunc serves one guest-to-host call. It receives the argument slots
// and returns the return slots; packaging and unpacking happen inside.
type HostFunc func(ctx context.Context, data transport.Transport) (transport.Transport, error)

// Dispatcher resolves incoming call frames to host functions by identity.
type Dispatcher struct {
	funcs map[signature.FuncID]HostFunc
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{funcs: make(map[signature.FuncID]HostFunc)}
}

// Register installs a host function under its identity. Two functions on
// one identity would make dispatch ambiguous and are rejected.
func (d *Dispatcher) Register(sig signature.FuncID, fn HostFunc) error {
	if sig == 0 {
		return errors.New(errors.PhaseDispatch, errors.KindZeroSignature).
			Detail("cannot register a function under the zero identity").
			Build()
	}
	if _, ok := d.funcs[sig]; ok {
		return errors.New(errors.PhaseDispatch, errors.KindSignatureCollision).
			Detail("identity %#016x already registered", uint64(sig)).
			Build()
	}
	d.funcs[sig] = fn
	return nil
}

// Dispatch resolves and runs the host function for a call frame. Unknown
// identities are refused before anything runs.
func (d *Dispatcher) Dispatch(ctx context.Context, frame transport.Frame) (transport.Transport, error) {
	fn, ok := d.funcs[frame.Signature]
	if !ok {
		return transport.Transport{}, errors.UnknownFunction(errors.PhaseDispatch, uint64(frame.Signature))
	}

	Logger().Debug("dispatching hypercall",
		zap.Uint64("sig", uint64(frame.Signature)),
		zap.Stringer("data", frame.Data))

	return fn(ctx, frame.Data)
}

// Handler adapts the dispatcher to the engine's hypercall hook.
func (d *Dispatcher) Handler() engine.HypercallHandler {
	return d.Dispatch
}
