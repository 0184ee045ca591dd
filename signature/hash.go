package signature

import "encoding/binary"

// Seed is the initial accumulator value of the signature hash.
const Seed uint64 = 5381

// Hasher computes the signature hash: the additive djb2 recurrence
// (h = h*33 + b) over a 64-bit wrapping accumulator, no finalization.
type Hasher struct {
	sum uint64
}

// NewHasher returns a hasher initialized with the protocol seed.
func NewHasher() Hasher {
	return Hasher{sum: Seed}
}

// FromPartial returns a hasher resuming from a partial result.
// Useful for incremental hashing.
func FromPartial(partial uint64) Hasher {
	return Hasher{sum: partial}
}

// Write folds input into the accumulator.
func (h *Hasher) Write(input []byte) {
	for _, b := range input {
		h.sum = (h.sum << 5) + h.sum + uint64(b)
	}
}

// WriteString folds the raw bytes of s into the accumulator.
func (h *Hasher) WriteString(s string) {
	for i := 0; i < len(s); i++ {
		h.sum = (h.sum << 5) + h.sum + uint64(s[i])
	}
}

// WriteUint64 folds v as eight little-endian bytes.
func (h *Hasher) WriteUint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	h.Write(buf[:])
}

// Sum64 returns the current hash value.
func (h Hasher) Sum64() uint64 {
	return h.sum
}

// Hash is shorthand for hashing a single input.
func Hash(input []byte) uint64 {
	h := NewHasher()
	h.Write(input)
	return h.Sum64()
}
