package machine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/avrmc/abstract"
	"github.com/ezrec/avrmc/avr"
)

func TestStateNew(t *testing.T) {
	assert := assert.New(t)

	assert.PanicsWithValue(ErrDataSize, func() { New(0, 31) })

	s := New(8, REGISTER_COUNT)
	assert.Equal(8, len(s.Code()))
	assert.Equal(REGISTER_COUNT, s.Data().Size())
	assert.Equal(0, s.PC())
	assert.False(s.IsHalted())
	assert.Equal(abstract.UnknownWord, s.StackPointer())
	for n := range 8 {
		assert.Equal(abstract.False, s.Flag(n))
	}
}

func TestStateClone(t *testing.T) {
	assert := assert.New(t)

	s := New(8, 0x60)
	s.WriteWord(SPL_ADDRESS, abstract.WordOf(0x5c))
	s.SetFlag(avr.SREG_T, abstract.Unknown)

	dup := s.Clone()
	assert.True(s.Equal(dup))
	assert.Equal(s.Hash(), dup.Hash())

	dup.Data().Write(3, abstract.ByteOf(9))
	dup.SetFlag(avr.SREG_C, abstract.True)
	assert.Equal(abstract.ByteOf(0), s.Data().Read(3))
	assert.Equal(abstract.False, s.Flag(avr.SREG_C))
	assert.False(s.Equal(dup))

	// The program counter is not part of the identity.
	other := s.Clone()
	other.SetPC(4)
	assert.True(s.Equal(other))
	assert.Equal(s.Hash(), other.Hash())

	// Unknown is distinct from every concrete value.
	other.Data().Write(3, abstract.UnknownByte)
	assert.False(s.Equal(other))
	assert.NotEqual(s.Hash(), other.Hash())

	// Code is shared.
	dup.Code()[0] = 0xff
	assert.Equal(byte(0xff), s.Code()[0])
}

func TestStateWord(t *testing.T) {
	assert := assert.New(t)

	s := New(0, REGISTER_COUNT)
	s.WriteWord(24, abstract.WordOf(0x1234))
	assert.Equal(abstract.ByteOf(0x34), s.Data().Read(24))
	assert.Equal(abstract.ByteOf(0x12), s.Data().Read(25))
	assert.Equal(abstract.WordOf(0x1234), s.ReadWord(24))

	s.Data().Write(25, abstract.UnknownByte)
	assert.Equal(abstract.UnknownWord, s.ReadWord(24))
}

func TestStatePrint(t *testing.T) {
	assert := assert.New(t)

	s := New(0, REGISTER_COUNT)
	s.SetFlag(avr.SREG_Z, abstract.True)
	s.SetFlag(avr.SREG_I, abstract.Unknown)
	s.Data().Write(17, abstract.UnknownByte)
	s.SetPC(0x12)

	var sb strings.Builder
	assert.NoError(s.Print(&sb))

	zeros := strings.Repeat("00:", 16)
	expect := "PC=0x0012, SREG=-Z-----?\n" +
		"0000|" + zeros + "\n" +
		"0010|00:??:" + strings.Repeat("00:", 14) + "\n"
	assert.Equal(expect, sb.String())

	assert.Equal("pc=0x0012 sreg=-Z-----? sp=????", s.String())
}
