// Package signature derives the deterministic 64-bit identities used to
// validate call-shape agreement between host and guest.
//
// Host and guest binaries are compiled independently and share no type
// system. Instead, both sides compute the same identity for the same type
// shape and the same function declaration, and the linker compares those
// identities bit-for-bit.
//
// # Hash Function
//
// All identities use the additive djb2 recurrence over a 64-bit wrapping
// accumulator:
//
//	h = 5381
//	h = h*33 + b    for each input byte b
//
// The fold variant and seed are fixed protocol constants; both sides must
// agree bit-for-bit.
//
// # Type Identities
//
// Primitive kinds have fixed identities derived from eight zero bytes
// followed by the kind's canonical name ("u32", "bool", ...). The
// ownership-tagged boundary types ("own", "own-buf", "borrow", "borrow-buf")
// have their own identities distinct from plain integers. Composite types
// fold, per field in declaration order, the little-endian field index and
// the field's identity; they are only transportable if every field is, and
// their memory layout must be flat with no compiler-chosen reordering.
//
// # Function Identities
//
// A function identity hashes, in order: the function name's raw bytes, then
// for each parameter the little-endian 64-bit index followed by the
// little-endian parameter identity, then the little-endian return identity.
// Any change to name, parameter count, order, types, or return type yields
// a different identity.
package signature
