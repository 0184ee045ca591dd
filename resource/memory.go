package resource

import (
	"encoding/binary"

	"github.com/wippyai/vmi-runtime/errors"
)

// ByteMemory is a guest physical memory window backed by a byte slice.
// It implements the root Memory and MemorySizer interfaces and is used by
// the local engine and throughout the test suite.
type ByteMemory struct {
	data []byte
}

// NewByteMemory returns a zeroed memory window of the given size.
func NewByteMemory(size uint64) *ByteMemory {
	return &ByteMemory{data: make([]byte, size)}
}

// Size returns the window size in bytes.
func (m *ByteMemory) Size() uint64 {
	return uint64(len(m.data))
}

func (m *ByteMemory) check(offset, length uint64) error {
	if offset > m.Size() || length > m.Size()-offset {
		return errors.OutOfBounds(errors.PhaseDecode, []string{"memory"}, offset, length, m.Size())
	}
	return nil
}

// Read returns a copy of the region [offset, offset+length).
func (m *ByteMemory) Read(offset, length uint64) ([]byte, error) {
	if err := m.check(offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.data[offset:offset+length])
	return out, nil
}

// Write copies data into the window at offset.
func (m *ByteMemory) Write(offset uint64, data []byte) error {
	if err := m.check(offset, uint64(len(data))); err != nil {
		return err
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *ByteMemory) ReadU8(offset uint64) (uint8, error) {
	if err := m.check(offset, 1); err != nil {
		return 0, err
	}
	return m.data[offset], nil
}

func (m *ByteMemory) ReadU16(offset uint64) (uint16, error) {
	if err := m.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.data[offset:]), nil
}

func (m *ByteMemory) ReadU32(offset uint64) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[offset:]), nil
}

func (m *ByteMemory) ReadU64(offset uint64) (uint64, error) {
	if err := m.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.data[offset:]), nil
}

func (m *ByteMemory) WriteU8(offset uint64, value uint8) error {
	if err := m.check(offset, 1); err != nil {
		return err
	}
	m.data[offset] = value
	return nil
}

func (m *ByteMemory) WriteU16(offset uint64, value uint16) error {
	if err := m.check(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.data[offset:], value)
	return nil
}

func (m *ByteMemory) WriteU32(offset uint64, value uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[offset:], value)
	return nil
}

func (m *ByteMemory) WriteU64(offset uint64, value uint64) error {
	if err := m.check(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.data[offset:], value)
	return nil
}
