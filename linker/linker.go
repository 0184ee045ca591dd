package linker

import (
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/vmi-runtime/errors"
	"github.com/wippyai/vmi-runtime/image"
	"github.com/wippyai/vmi-runtime/signature"
)

// Options configures linking behavior.
type Options struct {
	// ErrorUnusedHost fails the link when a host function is never called
	// by the guest. Off by default; unused host functions only warn.
	ErrorUnusedHost bool
	// ErrorUnusedGuest fails the link when a guest export is never called
	// by the host. Off by default.
	ErrorUnusedGuest bool
}

// DefaultOptions returns the default linking configuration.
func DefaultOptions() Options {
	return Options{}
}

// Direction identifies which way a call surface points.
type Direction string

const (
	// GuestToHost covers the functions the guest imports from the host.
	GuestToHost Direction = "guest-to-host"
	// HostToGuest covers the functions the host requires the guest to export.
	HostToGuest Direction = "host-to-guest"
)

// Func is a host-side function declaration: the name and identity of either
// a host implementation or a host-required guest function.
type Func struct {
	Name string
	Sig  signature.FuncID
}

// LinkSet is the validated dispatch surface produced by a successful link.
type LinkSet struct {
	// Hypercalls maps a call identity to the host function serving it.
	Hypercalls map[signature.FuncID]Func
	// Upcalls maps a call identity to the guest entry address, load base
	// already applied.
	Upcalls map[signature.FuncID]uint64
}

// Linker validates the declared call surfaces of host and guest against
// each other and produces the dispatch tables.
type Linker struct {
	opts       Options
	hypercalls []Func
	upcalls    []Func
}

// New creates a Linker with the given options.
func New(opts Options) *Linker {
	return &Linker{opts: opts}
}

// NewWithDefaults creates a Linker with default options.
func NewWithDefaults() *Linker {
	return New(DefaultOptions())
}

// Options returns the configuration.
func (l *Linker) Options() Options {
	return l.opts
}

// ProvideHypercall declares a host implementation callable by the guest.
func (l *Linker) ProvideHypercall(name string, sig signature.FuncID) {
	l.hypercalls = append(l.hypercalls, Func{Name: name, Sig: sig})
}

// RequireUpcall declares a guest function the host intends to call.
func (l *Linker) RequireUpcall(name string, sig signature.FuncID) {
	l.upcalls = append(l.upcalls, Func{Name: name, Sig: sig})
}

// Link validates both call directions against the guest image and builds
// the dispatch tables. All problems across both directions are collected
// before failing, so one attempt reports the full picture.
func (l *Linker) Link(img *image.Image) (*LinkSet, error) {
	var errs []error

	guestImports := make([]image.FnMeta, len(img.Imports))
	copy(guestImports, img.Imports)
	errs = append(errs, validate(l.hypercalls, guestImports, GuestToHost, l.opts.ErrorUnusedHost)...)

	guestExports := make([]image.FnMeta, 0, len(img.Exports))
	for _, e := range img.Exports {
		guestExports = append(guestExports, e.Meta)
	}
	errs = append(errs, validate(l.upcalls, guestExports, HostToGuest, l.opts.ErrorUnusedGuest)...)

	if err := combine(errs); err != nil {
		return nil, err
	}

	set := &LinkSet{
		Hypercalls: make(map[signature.FuncID]Func, len(l.hypercalls)),
		Upcalls:    make(map[signature.FuncID]uint64, len(l.upcalls)),
	}
	for _, f := range l.hypercalls {
		set.Hypercalls[f.Sig] = f
	}
	for _, up := range l.upcalls {
		e, ok := img.ExportBySig(uint64(up.Sig))
		if !ok {
			// validate already covered this; a miss here is a programming
			// error in the linker itself
			return nil, errors.UnknownFunction(errors.PhaseLink, uint64(up.Sig))
		}
		set.Upcalls[up.Sig] = img.LoadBase + e.Entry
	}

	Logger().Info("link complete",
		zap.Int("hypercalls", len(set.Hypercalls)),
		zap.Int("upcalls", len(set.Upcalls)))

	return set, nil
}

// validate checks one call direction. host is the host-side declaration
// list, guest the guest-side metadata; unusedIsError promotes unused
// function warnings to errors.
func validate(host []Func, guest []image.FnMeta, dir Direction, unusedIsError bool) []error {
	var errs []error

	// collisions within each side
	errs = append(errs, hostCollisions(host, dir)...)
	errs = append(errs, guestCollisions(guest, dir)...)

	hostByName := make(map[string]Func, len(host))
	for _, f := range host {
		hostByName[f.Name] = f
	}
	guestByName := make(map[string]image.FnMeta, len(guest))
	for _, m := range guest {
		guestByName[m.Name] = m
	}

	// same name on both sides must mean the same identity
	matched := make(map[string]bool, len(host))
	var unmatchedGuest []image.FnMeta
	for _, m := range guest {
		f, ok := hostByName[m.Name]
		if !ok {
			unmatchedGuest = append(unmatchedGuest, m)
			continue
		}
		matched[f.Name] = true
		if f.Sig != m.Sig {
			errs = append(errs, errors.SignatureMismatch(errors.PhaseLink, m.Name, uint64(f.Sig), uint64(m.Sig)))
		}
	}
	var unmatchedHost []Func
	for _, f := range host {
		if !matched[f.Name] {
			unmatchedHost = append(unmatchedHost, f)
		}
	}

	switch dir {
	case GuestToHost:
		// every guest import needs a host implementation
		for _, m := range unmatchedGuest {
			errs = append(errs, errors.New(errors.PhaseLink, errors.KindMissingImplemention).
				Path(m.Name).
				Detail("guest imports %q (%#016x) but the host does not provide it", m.Name, uint64(m.Sig)).
				Build())
		}
		errs = append(errs, reportUnusedHost(unmatchedHost, unusedIsError)...)
	case HostToGuest:
		// every host-required upcall needs a guest export
		for _, f := range unmatchedHost {
			errs = append(errs, errors.New(errors.PhaseLink, errors.KindMissingImplemention).
				Path(f.Name).
				Detail("host requires %q (%#016x) but the guest does not export it", f.Name, uint64(f.Sig)).
				Build())
		}
		errs = append(errs, reportUnusedGuest(unmatchedGuest, unusedIsError)...)
	}

	return errs
}

func hostCollisions(host []Func, dir Direction) []error {
	bySig := make(map[signature.FuncID][]Func, len(host))
	for _, f := range host {
		bySig[f.Sig] = append(bySig[f.Sig], f)
	}
	return collisionErrors(bySig, "host", dir)
}

func guestCollisions(guest []image.FnMeta, dir Direction) []error {
	bySig := make(map[signature.FuncID][]Func, len(guest))
	for _, m := range guest {
		bySig[m.Sig] = append(bySig[m.Sig], Func{Name: m.Name, Sig: m.Sig})
	}
	return collisionErrors(bySig, "guest", dir)
}

func collisionErrors(bySig map[signature.FuncID][]Func, side string, dir Direction) []error {
	var errs []error
	for sig, funcs := range bySig {
		if len(funcs) < 2 {
			continue
		}
		names := make([]string, 0, len(funcs))
		for _, f := range funcs {
			names = append(names, f.Name)
		}
		sort.Strings(names)
		errs = append(errs, errors.New(errors.PhaseLink, errors.KindSignatureCollision).
			Path(names...).
			Detail("%s functions share identity %#016x in %s linking; rename one of them", side, uint64(sig), dir).
			Build())
	}
	return errs
}

func reportUnusedHost(unused []Func, asError bool) []error {
	var errs []error
	for _, f := range unused {
		if asError {
			errs = append(errs, errors.New(errors.PhaseLink, errors.KindUnusedFunction).
				Path(f.Name).
				Detail("host function is not used by the guest").
				Build())
			continue
		}
		Logger().Warn("host function is not used by guest",
			zap.String("func", f.Name),
			zap.Uint64("sig", uint64(f.Sig)))
	}
	return errs
}

func reportUnusedGuest(unused []image.FnMeta, asError bool) []error {
	var errs []error
	for _, m := range unused {
		if asError {
			errs = append(errs, errors.New(errors.PhaseLink, errors.KindUnusedFunction).
				Path(m.Name).
				Detail("guest function is not used by the host").
				Build())
			continue
		}
		Logger().Warn("guest function is not used by host",
			zap.String("func", m.Name),
			zap.Uint64("sig", uint64(m.Sig)))
	}
	return errs
}
