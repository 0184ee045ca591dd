// Package transport defines the fixed two-word wire value that carries one
// argument or return slot's worth of data across the host/guest boundary,
// and the register slot convention it travels in.
//
// # Slot Convention
//
// The convention is direction-independent: hypercalls (guest to host) and
// upcalls (host to guest) use the same slots with the same meaning.
//
//	Slot                      Call                    Return
//	─────────────────────────────────────────────────────────────────
//	Signature                 FuncID (64-bit)         (unused)
//	Arg0 / Transport.Primary  Transport.Primary       Transport.Primary
//	Arg1 / Transport.Secondary Transport.Secondary    Transport.Secondary
//
// # Encoding
//
// Primary holds either a zero-extended primitive value, a pointer/offset
// into a region reachable by the receiving side, or the pointer half of a
// buffer descriptor. Secondary holds the buffer length when Primary is a
// buffer pointer and is otherwise zero.
//
// Secondary == 0 always decodes as an empty buffer, even when Primary is
// non-null. A zero-length buffer is a representable value, not an error.
package transport
