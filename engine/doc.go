// Package engine provides the control-transfer mechanisms that move a call
// frame into a guest and bring its return transport back.
//
// An Engine only moves frames; it performs no validation of its own. The
// runtime resolves and checks identities before handing a frame over, and
// the guest side does the same for calls travelling the other way.
//
// Two engines ship with the library. LocalEngine runs guest functions
// in-process against a shared byte memory and is the workhorse of the test
// suite: both call directions go through the identical frame convention, so
// symmetry is testable without a real guest. WazeroEngine drives a guest
// compiled to WebAssembly, exporting the dispatch entry and importing the
// hypercall bridge, for development against real isolated guests without a
// hypervisor.
package engine
