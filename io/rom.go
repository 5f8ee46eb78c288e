package io

import (
	"iter"
)

// Rom is a flash image.
type Rom struct {
	Data []byte
}

// UploadTo copies the image into 'code', returning the number of bytes
// copied. Bytes beyond the end of 'code' are dropped.
func (rom *Rom) UploadTo(code []byte) int {
	return copy(code, rom.Data)
}

// Words iterates the image as little-endian flash words.
func (rom *Rom) Words() iter.Seq2[int, uint16] {
	return func(yield func(addr int, word uint16) bool) {
		for addr := 0; 2*addr+1 < len(rom.Data); addr++ {
			word := uint16(rom.Data[2*addr]) | uint16(rom.Data[2*addr+1])<<8
			if !yield(addr, word) {
				return
			}
		}
	}
}

// write places 'data' at byte 'address', padding with erased flash.
func (rom *Rom) write(address int, data []byte) {
	for len(rom.Data) < address+len(data) {
		rom.Data = append(rom.Data, 0xff)
	}
	copy(rom.Data[address:], data)
}
