// Package runtime ties the layers together into callable instances.
//
// A Dispatcher resolves guest-to-host calls to registered host functions by
// identity, refusing anything unknown before the function runs. A
// HostRegistry pairs each host function with its declared identity so the
// same list feeds both the linker's validation and the dispatcher's table.
// An Instance wraps an engine with a validated LinkSet and is the host's
// handle for calling into the guest; identities not present in the link set
// are refused before any control transfer.
package runtime
