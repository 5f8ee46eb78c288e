package abstract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteConcrete(t *testing.T) {
	assert := assert.New(t)

	for a := range 256 {
		x := ByteOf(uint8(a))
		assert.Equal(uint8(a+1), x.Inc().Uint8())
		assert.Equal(uint8(a-1), x.Dec().Uint8())
		assert.Equal(uint8(-a), x.Neg().Uint8())
		assert.Equal(^uint8(a), x.Inv().Uint8())
		assert.Equal(uint8(int8(uint8(a))>>1), x.Shr(1).Uint8())
		assert.Equal(uint8(a)>>1, x.Ushr(1).Uint8())
		assert.Equal(uint8(a<<4|a>>4), x.Swap().Uint8())
		assert.Equal(BitOf(a == 0), x.IsZero())
		assert.Equal(BitOf(a != 0), x.IsNotZero())
		assert.Equal(BitOf(a == 0x80), x.IsLeast())
		for n := range 8 {
			assert.Equal(BitOf(a&(1<<n) != 0), x.Get(n))
			assert.Equal(uint8(a)|1<<n, x.Set(n).Uint8())
			assert.Equal(uint8(a)&^(1<<n), x.Clear(n).Uint8())
		}

		for b := range 256 {
			y := ByteOf(uint8(b))
			if x.Add(y).Uint8() != uint8(a+b) ||
				x.Sub(y).Uint8() != uint8(a-b) ||
				x.And(y).Uint8() != uint8(a&b) ||
				x.Or(y).Uint8() != uint8(a|b) ||
				x.Xor(y).Uint8() != uint8(a^b) ||
				x.Eq(y) != BitOf(a == b) {
				t.Fatalf("0x%02x op 0x%02x mismatch", a, b)
			}
		}
	}
}

func TestByteUnknown(t *testing.T) {
	assert := assert.New(t)

	u := UnknownByte
	k := ByteOf(0x5a)

	assert.Equal(u, u.Add(k))
	assert.Equal(u, k.Add(u))
	assert.Equal(u, k.Sub(u))
	assert.Equal(u, u.SubConst(1))
	assert.Equal(u, u.Xor(k))
	assert.Equal(u, u.Inv())
	assert.Equal(u, u.Neg())
	assert.Equal(u, u.Shr(1))
	assert.Equal(u, u.Ushr(1))
	assert.Equal(u, u.Inc())
	assert.Equal(u, u.Swap())
	assert.Equal(u, u.Set(3))
	assert.Equal(u, u.Clear(3))
	assert.Equal(Unknown, u.Get(0))
	assert.Equal(Unknown, u.Eq(k))
	assert.Equal(Unknown, u.Eq(u))
	assert.Equal(Unknown, u.IsZero())
	assert.Equal(Unknown, u.IsNotZero())
	assert.Equal(Unknown, u.IsLeast())
	assert.Equal("??", u.String())
	assert.Equal("5A", k.String())

	assert.Panics(func() { u.Uint8() })
}

func TestByteAbsorbing(t *testing.T) {
	assert := assert.New(t)

	u := UnknownByte

	// Only an all-clear operand absorbs AND, and only an all-set operand absorbs OR.
	assert.Equal(ByteOf(0), u.And(ByteOf(0)))
	assert.Equal(ByteOf(0), ByteOf(0).And(u))
	assert.Equal(ByteOf(0xff), u.Or(ByteOf(0xff)))
	assert.Equal(ByteOf(0xff), ByteOf(0xff).Or(u))

	for v := 1; v < 0xff; v++ {
		assert.Equal(u, u.Or(ByteOf(uint8(v))), "unknown | 0x%02x", v)
		assert.Equal(u, ByteOf(uint8(v)).Or(u), "0x%02x | unknown", v)
		assert.Equal(u, u.And(ByteOf(uint8(v))), "unknown & 0x%02x", v)
	}
	assert.Equal(u, u.And(ByteOf(0xff)))
	assert.Equal(u, u.Or(ByteOf(0)))
	assert.Equal(u, u.And(u))
	assert.Equal(u, u.Or(u))
}

func TestByteFromBits(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(ByteOf(0x81), ByteFromBits(True, False, False, False, False, False, False, True))
	assert.Equal(ByteOf(0x01), ByteFromBits(False, False, False, False, False, False, False, True))
	assert.Equal(UnknownByte, ByteFromBits(False, False, False, False, False, False, False, Unknown))
	assert.Equal(UnknownByte, ByteFromBits(Unknown, True, True, True, True, True, True, True))

	assert.Equal(ByteOf(0x08), ByteOf(0).SetBit(3, True))
	assert.Equal(ByteOf(0xf7), ByteOf(0xff).SetBit(3, False))
	assert.Equal(UnknownByte, ByteOf(0xff).SetBit(3, Unknown))
}

func FuzzByte(f *testing.F) {
	f.Add(uint8(0), uint8(0), false, false)
	f.Add(uint8(0xff), uint8(0x80), true, false)

	f.Fuzz(func(t *testing.T, a, b uint8, ua, ub bool) {
		x := ByteOf(a)
		if ua {
			x = UnknownByte
		}
		y := ByteOf(b)
		if ub {
			y = UnknownByte
		}

		// Any known result must agree with every concretization of the inputs.
		for _, ca := range []uint8{a, 0, 0xff, a ^ 0x55} {
			if !ua && ca != a {
				continue
			}
			for _, cb := range []uint8{b, 0, 0xff, b ^ 0xaa} {
				if !ub && cb != b {
					continue
				}
				if r := x.And(y); !r.IsUnknown() && r.Uint8() != ca&cb {
					t.Fatalf("and %v %v => %v, concrete %02x", x, y, r, ca&cb)
				}
				if r := x.Or(y); !r.IsUnknown() && r.Uint8() != ca|cb {
					t.Fatalf("or %v %v => %v, concrete %02x", x, y, r, ca|cb)
				}
				if r := x.Add(y); !r.IsUnknown() && r.Uint8() != ca+cb {
					t.Fatalf("add %v %v => %v, concrete %02x", x, y, r, ca+cb)
				}
			}
		}
	})
}
