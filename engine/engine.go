package engine

import (
	"context"

	"github.com/wippyai/vmi-runtime/transport"
)

// Engine moves a call frame into the guest and returns the guest's return
// transport. Implementations transfer control; they do not validate
// identities.
type Engine interface {
	Call(ctx context.Context, frame transport.Frame) (transport.Transport, error)
}

// HypercallHandler serves a guest-to-host call arriving from inside an
// engine. The runtime installs its dispatcher here.
type HypercallHandler func(ctx context.Context, frame transport.Frame) (transport.Transport, error)
