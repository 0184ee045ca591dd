package runtime

import (
	"github.com/wippyai/vmi-runtime/linker"
	"github.com/wippyai/vmi-runtime/signature"
)

type hostEntry struct {
	name string
	sig  signature.FuncID
	fn   HostFunc
}

// HostRegistry collects the host's callable surface: each function with the
// name and identity it was declared under. One registry feeds both the
// linker's validation and the dispatcher's table, so nothing dispatchable
// can bypass linking.
type HostRegistry struct {
	entries []hostEntry
}

// NewHostRegistry returns an empty registry.
func NewHostRegistry() *HostRegistry {
	return &HostRegistry{}
}

// Provide adds a host function under its declared name and identity.
func (r *HostRegistry) Provide(name string, sig signature.FuncID, fn HostFunc) *HostRegistry {
	r.entries = append(r.entries, hostEntry{name: name, sig: sig, fn: fn})
	return r
}

// DeclareTo announces every registered function to the linker as an
// available hypercall.
func (r *HostRegistry) DeclareTo(l *linker.Linker) {
	for _, e := range r.entries {
		l.ProvideHypercall(e.name, e.sig)
	}
}

// Bind installs every registered function into the dispatcher.
func (r *HostRegistry) Bind(d *Dispatcher) error {
	for _, e := range r.entries {
		if err := d.Register(e.sig, e.fn); err != nil {
			return err
		}
	}
	return nil
}
