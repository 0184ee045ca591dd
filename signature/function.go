package signature

import "encoding/binary"

// FuncID is the deterministic 64-bit identity of one exported function's
// full call shape: name, ordered parameter identities, return identity.
// Caller and callee copies must be bit-identical; this is the only artifact
// exchanged at link time to verify agreement.
type FuncID uint64

// AppendFuncBytes appends the exact byte stream hashed into a function
// identity: the name's raw bytes, then per parameter the little-endian
// zero-based index followed by the little-endian parameter identity, then
// the little-endian return identity.
//
// Exposed separately so conformance tests can assert the stream itself,
// independent of the resulting hash value.
func AppendFuncBytes(dst []byte, name string, params []TypeID, ret TypeID) []byte {
	dst = append(dst, name...)
	for i, p := range params {
		dst = binary.LittleEndian.AppendUint64(dst, uint64(i))
		dst = binary.LittleEndian.AppendUint64(dst, uint64(p))
	}
	dst = binary.LittleEndian.AppendUint64(dst, uint64(ret))
	return dst
}

// Func computes the function identity for the given call shape.
func Func(name string, params []TypeID, ret TypeID) FuncID {
	h := NewHasher()
	h.WriteString(name)
	for i, p := range params {
		h.WriteUint64(uint64(i))
		h.WriteUint64(uint64(p))
	}
	h.WriteUint64(uint64(ret))
	return FuncID(h.Sum64())
}
