package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/vmi-runtime/engine"
	"github.com/wippyai/vmi-runtime/errors"
	"github.com/wippyai/vmi-runtime/linker"
	"github.com/wippyai/vmi-runtime/pack"
	"github.com/wippyai/vmi-runtime/signature"
	"github.com/wippyai/vmi-runtime/transport"
)

// Instance is the host's handle on one linked guest. All host-to-guest
// calls go through it; identities outside the validated link set are
// refused before any control transfer.
type Instance struct {
	engine engine.Engine
	set    *linker.LinkSet
}

// NewInstance wraps an engine with its validated link set.
func NewInstance(e engine.Engine, set *linker.LinkSet) (*Instance, error) {
	if e == nil {
		return nil, errors.NotInitialized(errors.PhaseCall, "engine")
	}
	if set == nil {
		return nil, errors.NotInitialized(errors.PhaseCall, "link set")
	}
	return &Instance{engine: e, set: set}, nil
}

// Call issues an upcall to the guest function with the given identity.
func (i *Instance) Call(ctx context.Context, sig signature.FuncID, data transport.Transport) (transport.Transport, error) {
	entry, ok := i.set.Upcalls[sig]
	if !ok {
		return transport.Transport{}, errors.UnknownFunction(errors.PhaseDispatch, uint64(sig))
	}

	Logger().Debug("upcall",
		zap.Uint64("sig", uint64(sig)),
		zap.Uint64("entry", entry),
		zap.Stringer("data", data))

	return i.engine.Call(ctx, transport.Call(sig, data))
}

// CallPackaged seals the parameter package and issues the upcall with its
// pointer in the primary slot. The guest side unpacks and raw-frees the
// package. An identity outside the link set is refused before sealing, so
// the builder stays freeable; if the engine fails without transferring
// control, the caller reclaims the sealed package with Builder.Reclaim.
func (i *Instance) CallPackaged(ctx context.Context, sig signature.FuncID, b *pack.Builder) (transport.Transport, error) {
	if _, ok := i.set.Upcalls[sig]; !ok {
		return transport.Transport{}, errors.UnknownFunction(errors.PhaseDispatch, uint64(sig))
	}
	data, err := b.Seal()
	if err != nil {
		return transport.Transport{}, err
	}
	return i.Call(ctx, sig, data)
}
