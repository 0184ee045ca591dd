package signature

import (
	"github.com/wippyai/vmi-runtime/errors"
)

// TypeID is the deterministic 64-bit identity of a transportable type's
// shape. Equal shapes produce equal identities on both sides of the
// boundary; the value is hash-based, so distinctness is best-effort.
type TypeID uint64

// Kind enumerates the built-in transportable kinds.
type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindChar
	KindUsize
	KindUnit
	KindOwn
	KindOwnBuf
	KindBorrow
	KindBorrowBuf
)

// kindNames are the canonical spellings fed to the hash. They are protocol
// constants: renaming one changes every identity derived from it.
var kindNames = [...]string{
	KindBool:      "bool",
	KindU8:        "u8",
	KindU16:       "u16",
	KindU32:       "u32",
	KindU64:       "u64",
	KindI8:        "i8",
	KindI16:       "i16",
	KindI32:       "i32",
	KindI64:       "i64",
	KindF32:       "f32",
	KindF64:       "f64",
	KindChar:      "char",
	KindUsize:     "usize",
	KindUnit:      "()",
	KindOwn:       "own",
	KindOwnBuf:    "own-buf",
	KindBorrow:    "borrow",
	KindBorrowBuf: "borrow-buf",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether the kind fits directly into a transport word
// without packaging.
func (k Kind) IsPrimitive() bool {
	return k <= KindUnit
}

// Owning reports whether values of the kind carry a deallocation obligation.
func (k Kind) Owning() bool {
	return k == KindOwn || k == KindOwnBuf
}

// kindIDs holds the fixed identities, computed once at package init.
var kindIDs [len(kindNames)]TypeID

func init() {
	for k, name := range kindNames {
		h := NewHasher()
		h.WriteUint64(0)
		h.WriteString(name)
		kindIDs[k] = TypeID(h.Sum64())
	}
}

// ID returns the kind's fixed type identity.
func (k Kind) ID() TypeID {
	return kindIDs[k]
}

// Field describes one field of a composite type, in declaration order.
type Field struct {
	Name string
	Type TypeID
}

// Struct derives the identity of a composite type from its field identities.
// The composite must have a fixed, C-compatible layout on both sides: no
// hidden tag, no reordering, padding only where explicit.
func Struct(fields ...Field) TypeID {
	h := NewHasher()
	for i, f := range fields {
		h.WriteUint64(uint64(i))
		h.WriteUint64(uint64(f.Type))
	}
	return TypeID(h.Sum64())
}

// Registry tracks named composite types registered at build time. It is the
// explicit, checked replacement for derive-style identity generation: every
// transportable composite is declared once with its full field list.
type Registry struct {
	byName map[string]TypeID
}

// NewRegistry returns an empty type registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]TypeID)}
}

// Register derives and records the identity for a named composite type.
// Every field must already have an identity; a zero field identity means
// the field's type was never registered and the composite is rejected.
func (r *Registry) Register(name string, fields ...Field) (TypeID, error) {
	if name == "" {
		return 0, errors.InvalidInput(errors.PhaseSign, "composite type name must not be empty")
	}
	if _, ok := r.byName[name]; ok {
		return 0, errors.New(errors.PhaseSign, errors.KindSignatureCollision).
			Path(name).
			Detail("type already registered").
			Build()
	}
	for i, f := range fields {
		if f.Type == 0 {
			return 0, errors.New(errors.PhaseSign, errors.KindInvalidInput).
				Path(name, f.Name).
				Detail("field %d has no type identity; register its type first", i).
				Build()
		}
	}

	id := Struct(fields...)
	r.byName[name] = id
	return id, nil
}

// Lookup returns the identity registered under name.
func (r *Registry) Lookup(name string) (TypeID, bool) {
	id, ok := r.byName[name]
	return id, ok
}
