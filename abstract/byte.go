package abstract

import (
	"fmt"
)

// Byte is an abstract 8-bit value which is either concrete or Unknown.
//
// Byte is a comparable value; the zero Byte is the concrete value 0x00.
type Byte struct {
	value   uint8
	unknown bool
}

// UnknownByte is the byte about which nothing is known.
var UnknownByte = Byte{unknown: true}

// ByteOf constructs a concrete byte.
func ByteOf(value uint8) Byte {
	return Byte{value: value}
}

// ByteFromBits assembles a byte from its bits, most significant first.
// The result is Unknown if any bit is Unknown.
func ByteFromBits(b7, b6, b5, b4, b3, b2, b1, b0 Bit) Byte {
	bits := [8]Bit{b0, b1, b2, b3, b4, b5, b6, b7}

	var value uint8
	for n, bit := range bits {
		switch bit {
		case Unknown:
			return UnknownByte
		case True:
			value |= 1 << n
		}
	}

	return ByteOf(value)
}

// IsUnknown returns true if the byte has no known value.
func (b Byte) IsUnknown() bool {
	return b.unknown
}

// Uint8 returns the concrete value, and panics on an Unknown byte.
func (b Byte) Uint8() uint8 {
	if b.unknown {
		panic(ErrConcretize)
	}
	return b.value
}

// Int8 returns the concrete value as a signed byte.
func (b Byte) Int8() int8 {
	return int8(b.Uint8())
}

// String returns the byte as two hex digits, or "??".
func (b Byte) String() string {
	if b.unknown {
		return "??"
	}
	return fmt.Sprintf("%02X", b.value)
}

// Add returns b + rhs modulo 256.
func (b Byte) Add(rhs Byte) Byte {
	if b.unknown || rhs.unknown {
		return UnknownByte
	}
	return ByteOf(b.value + rhs.value)
}

// Sub returns b - rhs modulo 256.
func (b Byte) Sub(rhs Byte) Byte {
	if b.unknown || rhs.unknown {
		return UnknownByte
	}
	return ByteOf(b.value - rhs.value)
}

// SubConst subtracts a constant.
func (b Byte) SubConst(rhs uint8) Byte {
	return b.Sub(ByteOf(rhs))
}

// And returns the bitwise AND. A concrete 0x00 operand absorbs an Unknown one.
func (b Byte) And(rhs Byte) Byte {
	if b.unknown || rhs.unknown {
		if b == ByteOf(0) || rhs == ByteOf(0) {
			return ByteOf(0)
		}
		return UnknownByte
	}
	return ByteOf(b.value & rhs.value)
}

// Or returns the bitwise OR. A concrete 0xFF operand absorbs an Unknown one.
func (b Byte) Or(rhs Byte) Byte {
	if b.unknown || rhs.unknown {
		if b == ByteOf(0xff) || rhs == ByteOf(0xff) {
			return ByteOf(0xff)
		}
		return UnknownByte
	}
	return ByteOf(b.value | rhs.value)
}

// Xor returns the bitwise exclusive OR.
func (b Byte) Xor(rhs Byte) Byte {
	if b.unknown || rhs.unknown {
		return UnknownByte
	}
	return ByteOf(b.value ^ rhs.value)
}

// Inv returns the ones' complement.
func (b Byte) Inv() Byte {
	if b.unknown {
		return UnknownByte
	}
	return ByteOf(^b.value)
}

// Neg returns the two's complement.
func (b Byte) Neg() Byte {
	if b.unknown {
		return UnknownByte
	}
	return ByteOf(-b.value)
}

// Shr is an arithmetic (sign preserving) right shift.
func (b Byte) Shr(n int) Byte {
	if b.unknown {
		return UnknownByte
	}
	return ByteOf(uint8(int8(b.value) >> n))
}

// Ushr is a logical right shift.
func (b Byte) Ushr(n int) Byte {
	if b.unknown {
		return UnknownByte
	}
	return ByteOf(b.value >> n)
}

// Inc adds one.
func (b Byte) Inc() Byte {
	return b.Add(ByteOf(1))
}

// Dec subtracts one.
func (b Byte) Dec() Byte {
	return b.Sub(ByteOf(1))
}

// Swap exchanges the high and low nibbles.
func (b Byte) Swap() Byte {
	if b.unknown {
		return UnknownByte
	}
	return ByteOf(b.value<<4 | b.value>>4)
}

// Get reads bit 'index' (0 is least significant).
func (b Byte) Get(index int) Bit {
	if b.unknown {
		return Unknown
	}
	return BitOf(b.value&(1<<index) != 0)
}

// Set sets bit 'index'.
func (b Byte) Set(index int) Byte {
	if b.unknown {
		return UnknownByte
	}
	return ByteOf(b.value | 1<<index)
}

// Clear clears bit 'index'.
func (b Byte) Clear(index int) Byte {
	if b.unknown {
		return UnknownByte
	}
	return ByteOf(b.value &^ (1 << index))
}

// SetBit writes bit 'index'. Writing an Unknown bit yields an Unknown byte.
func (b Byte) SetBit(index int, bit Bit) Byte {
	switch bit {
	case True:
		return b.Set(index)
	case False:
		return b.Clear(index)
	default:
		return UnknownByte
	}
}

// Eq compares two bytes. Unknown if either is Unknown.
func (b Byte) Eq(rhs Byte) Bit {
	if b.unknown || rhs.unknown {
		return Unknown
	}
	return BitOf(b.value == rhs.value)
}

// IsZero tests against 0x00.
func (b Byte) IsZero() Bit {
	if b.unknown {
		return Unknown
	}
	return BitOf(b.value == 0)
}

// IsNotZero tests against 0x00.
func (b Byte) IsNotZero() Bit {
	return Not(b.IsZero())
}

// IsLeast tests against 0x80, the least signed value.
func (b Byte) IsLeast() Bit {
	if b.unknown {
		return Unknown
	}
	return BitOf(b.value == 0x80)
}
