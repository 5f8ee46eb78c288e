package abstract

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Memory is a fixed size array of abstract bytes.
//
// Read and Write index directly; an address outside the memory panics.
type Memory struct {
	bytes []Byte
}

// NewMemory creates a memory of 'size' bytes, all concrete zero.
func NewMemory(size int) *Memory {
	return &Memory{
		bytes: make([]Byte, size),
	}
}

// Clone returns an independent copy.
func (mem *Memory) Clone() *Memory {
	return &Memory{
		bytes: append([]Byte(nil), mem.bytes...),
	}
}

// Size in bytes.
func (mem *Memory) Size() int {
	return len(mem.bytes)
}

// Read the byte at 'address'.
func (mem *Memory) Read(address int) Byte {
	return mem.bytes[address]
}

// Write 'value' to 'address'.
func (mem *Memory) Write(address int, value Byte) {
	mem.bytes[address] = value
}

// Bytes is a view of the underlying storage.
func (mem *Memory) Bytes() []Byte {
	return mem.bytes
}

// Equal is strict equality: concrete bytes must match exactly, and an
// Unknown byte only equals another Unknown byte.
func (mem *Memory) Equal(other *Memory) bool {
	if len(mem.bytes) != len(other.bytes) {
		return false
	}
	for n, b := range mem.bytes {
		if b != other.bytes[n] {
			return false
		}
	}
	return true
}

// Hash feeds the memory contents into a digest. Equal memories hash equally.
func (mem *Memory) Hash(digest *xxhash.Digest) {
	buff := make([]byte, 0, 2*len(mem.bytes))
	for _, b := range mem.bytes {
		if b.unknown {
			buff = append(buff, 1, 0)
		} else {
			buff = append(buff, 0, b.value)
		}
	}
	digest.Write(buff)
}

// String formats the memory as rows of 16 bytes.
func (mem *Memory) String() string {
	var sb strings.Builder
	for row := 0; row < len(mem.bytes); row += 16 {
		fmt.Fprintf(&sb, "%04X|", row)
		for _, b := range mem.bytes[row:min(row+16, len(mem.bytes))] {
			sb.WriteString(b.String())
			sb.WriteString(":")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
