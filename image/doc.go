// Package image describes the guest binary layout the host consumes at load
// time: the segment table mapping loaded sections into guest memory, and the
// metadata regions declaring the functions a guest exports and imports.
//
// Metadata records are self-delimiting byte sequences so a whole region can
// be walked without a record count. Each record carries the function's
// 64-bit call identity and its name; builds that keep debug information
// append the parameter and return type names. Export records are prefixed
// with the function's entry offset so the host can dispatch without symbol
// resolution.
package image
