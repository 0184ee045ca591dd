// Package vmiruntime provides the host side of the VMI call protocol: a
// call-linking and marshalling layer between a host process and a bare-metal
// guest program running inside a lightweight virtual machine.
//
// Host and guest are compiled independently, own separate address spaces and
// separate allocators, and share no compile-time type information. The VMI
// protocol lets them invoke each other's functions as if performing ordinary
// function calls by combining three mechanisms:
//
//   - deterministic 64-bit signatures derived from a function's name and
//     call shape, compared bit-for-bit at link time
//   - a fixed two-word register transport used identically in both call
//     directions
//   - a packaging protocol for multi-argument calls that moves resource
//     ownership across the boundary without running per-field cleanup twice
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	vmiruntime/          Root package with Memory and Allocator interfaces
//	├── runtime/         Instances, dispatchers, and both call directions
//	├── engine/          Control-transfer mechanisms (local, wazero)
//	├── linker/          Link-time validation of host and guest metadata
//	├── image/           Guest binary layout and VMI metadata regions
//	├── pack/            Parameter packaging and consume-once unpacking
//	├── transport/       Two-word transport values and the slot convention
//	├── signature/       djb2 type and function signature derivation
//	├── resource/        Owned and borrowed cross-domain values
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Link a guest image and call an exported function:
//
//	img, err := image.Parse(sections, loadBase, image.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	l := linker.NewWithDefaults()
//	hostFuncs.DeclareTo(l)
//	l.RequireUpcall("step", sigStep)
//
//	set, err := l.Link(img)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := runtime.NewInstance(eng, set)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ret, err := inst.Call(ctx, sigStep, transport.FromU64(42))
//
// # Call Model
//
// A call crossing the boundary commits the target's function signature into
// the signature slot and a transport pair into the argument slots, then
// transfers control. The callee commits a return transport before handing
// control back. Calls with more than one parameter pass a single pointer to
// a caller-allocated parameter package instead; see package pack.
//
// # Concurrency
//
// Each guest instance executes on a single logical CPU. Calls on one
// instance are strictly sequential and synchronous; the protocol defines no
// shared state between instances, so independent instances may be driven
// concurrently.
package vmiruntime
