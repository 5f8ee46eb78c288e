package abstract

import (
	"fmt"
)

// Word is an abstract 16-bit value, used for addresses and register pairs.
type Word struct {
	value   uint16
	unknown bool
}

// UnknownWord is the word about which nothing is known.
var UnknownWord = Word{unknown: true}

// WordOf constructs a concrete word.
func WordOf(value uint16) Word {
	return Word{value: value}
}

// WordFromBytes joins a high and low byte. Unknown if either is Unknown.
func WordFromBytes(high, low Byte) Word {
	if high.unknown || low.unknown {
		return UnknownWord
	}
	return WordOf(uint16(high.value)<<8 | uint16(low.value))
}

// IsUnknown returns true if the word has no known value.
func (w Word) IsUnknown() bool {
	return w.unknown
}

// Uint16 returns the concrete value, and panics on an Unknown word.
func (w Word) Uint16() uint16 {
	if w.unknown {
		panic(ErrConcretize)
	}
	return w.value
}

// String returns the word as four hex digits, or "????".
func (w Word) String() string {
	if w.unknown {
		return "????"
	}
	return fmt.Sprintf("%04X", w.value)
}

// AddInt adds a signed constant modulo 65536.
func (w Word) AddInt(rhs int) Word {
	if w.unknown {
		return UnknownWord
	}
	return WordOf(uint16(int(w.value) + rhs))
}

// Add adds a signed byte constant.
func (w Word) Add(rhs int8) Word {
	return w.AddInt(int(rhs))
}

// Sub subtracts a signed byte constant.
func (w Word) Sub(rhs int8) Word {
	return w.AddInt(-int(rhs))
}

// Inc adds one.
func (w Word) Inc() Word {
	return w.AddInt(1)
}

// Dec subtracts one.
func (w Word) Dec() Word {
	return w.AddInt(-1)
}

// Get reads bit 'index' (0..15).
func (w Word) Get(index int) Bit {
	if w.unknown {
		return Unknown
	}
	return BitOf(w.value&(1<<index) != 0)
}

// IsZero tests against 0x0000.
func (w Word) IsZero() Bit {
	if w.unknown {
		return Unknown
	}
	return BitOf(w.value == 0)
}

// High returns the most significant byte.
func (w Word) High() Byte {
	if w.unknown {
		return UnknownByte
	}
	return ByteOf(uint8(w.value >> 8))
}

// Low returns the least significant byte.
func (w Word) Low() Byte {
	if w.unknown {
		return UnknownByte
	}
	return ByteOf(uint8(w.value))
}
