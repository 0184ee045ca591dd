// Package pack builds and consumes parameter packages, the fixed-layout
// aggregates that carry a call's parameters across the boundary in a single
// transport word.
//
// # Call protocol
//
// The caller computes a Layout for the parameter list, allocates the package
// in its own address space through a Builder, writes every field, and passes
// the package pointer in the primary transport slot. Owned values are moved
// into the package; after the call is issued the caller holds no live handle
// to them.
//
// The callee opens the package with the same Layout and unpacks it exactly
// once: all fields are bit-copied out to local values, then the package
// memory is returned to the caller's allocator as one raw block. No per-field
// cleanup runs during that free; the copied-out values carry the ownership
// from there. A second unpack of the same package is a structural error.
//
// # Layout
//
// Fields are laid out in declaration order with C struct rules: each field
// is aligned to its natural alignment, total size is padded to the largest
// field alignment. Both sides must derive the layout from the same field
// list; the function signature check at link time is what guarantees they
// agree on that list.
package pack
