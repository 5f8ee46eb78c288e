package machine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/avrmc/abstract"
	"github.com/ezrec/avrmc/avr"
	avrio "github.com/ezrec/avrmc/io"
)

// load assembles a program into a new machine.
func load(t *testing.T, dataSize int, program ...string) *State {
	t.Helper()

	asm := &avr.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	bin := prog.Binary()
	s := New(len(bin), dataSize)
	copy(s.Code(), bin)
	return s
}

func TestClockProgram(t *testing.T) {
	assert := assert.New(t)

	s := New(16, 64)
	copy(s.Code(), []byte{0x05, 0xe0, 0x13, 0xe0, 0x01, 0x0f, 0xff, 0xcf})

	for step := 0; step < 3; step++ {
		fork, err := s.Clock()
		assert.Nil(fork)
		assert.NoError(err)
	}

	assert.Equal(abstract.ByteOf(8), s.Data().Read(16))
	assert.Equal(abstract.False, s.Flag(avr.SREG_Z))
	assert.Equal(abstract.False, s.Flag(avr.SREG_N))

	fork, err := s.Clock()
	assert.Nil(fork)
	var halted *ErrHalted
	if assert.ErrorAs(err, &halted) {
		assert.Equal(abstract.WordOf(0), halted.Code)
	}
	assert.True(s.IsHalted())
	assert.Equal(-1, s.PC())

	// Once halted, always halted.
	_, err = s.Clock()
	assert.ErrorAs(err, &halted)
}

func TestClockHalt(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		steps   int
	}){
		{"rjmp", []string{"ldi r24, 7", "halt"}, 2},
		{"break", []string{"ldi r24, 7", "break"}, 2},
		{"jmp", []string{"ldi r24, 7", "nop", "here: jmp here"}, 3},
		{"ijmp", []string{"ldi r24, 7", "ldi r30, 2", "ijmp"}, 3},
	}

	for _, entry := range table {
		s := load(t, REGISTER_COUNT, entry.program...)
		var err error
		for step := 0; step < entry.steps; step++ {
			_, err = s.Clock()
		}
		var halted *ErrHalted
		if assert.ErrorAs(err, &halted, entry.name) {
			assert.Equal(abstract.WordOf(7), halted.Code, entry.name)
			assert.Equal(abstract.WordOf(7), s.ExitCode(), entry.name)
		}
	}
}

func TestClockBranchFork(t *testing.T) {
	assert := assert.New(t)

	s := load(t, REGISTER_COUNT,
		"	breq skip",
		"	ldi r16, 1",
		"skip:",
		"	ldi r17, 2",
	)
	s.SetFlag(avr.SREG_Z, abstract.Unknown)

	fork, err := s.Clock()
	assert.NoError(err)
	if !assert.NotNil(fork) {
		return
	}

	// Taken successor.
	assert.Equal(2, s.PC())
	assert.Equal(abstract.True, s.Flag(avr.SREG_Z))

	// Not taken successor.
	assert.Equal(1, fork.PC())
	assert.Equal(abstract.False, fork.Flag(avr.SREG_Z))

	_, err = fork.Clock()
	assert.NoError(err)
	assert.Equal(abstract.ByteOf(1), fork.Data().Read(16))
	assert.Equal(abstract.ByteOf(0), s.Data().Read(16))

	// Concrete flags do not fork.
	s.SetPC(0)
	s.SetFlag(avr.SREG_Z, abstract.False)
	fork, err = s.Clock()
	assert.NoError(err)
	assert.Nil(fork)
	assert.Equal(1, s.PC())
}

func TestClockSkipFork(t *testing.T) {
	assert := assert.New(t)

	s := load(t, REGISTER_COUNT,
		"	sbrc r16, 0",
		"	lds r17, 0x0060",
		"	nop",
	)
	s.Data().Write(16, abstract.UnknownByte)

	fork, err := s.Clock()
	assert.NoError(err)
	if assert.NotNil(fork) {
		assert.Equal(1, fork.PC())
	}
	assert.Equal(3, s.PC())

	// Concrete skip over a two word instruction.
	s.SetPC(0)
	s.Data().Write(16, abstract.ByteOf(0))
	fork, err = s.Clock()
	assert.NoError(err)
	assert.Nil(fork)
	assert.Equal(3, s.PC())

	s.SetPC(0)
	s.Data().Write(16, abstract.ByteOf(1))
	_, err = s.Clock()
	assert.NoError(err)
	assert.Equal(1, s.PC())
}

func TestClockCpse(t *testing.T) {
	assert := assert.New(t)

	s := load(t, REGISTER_COUNT,
		"	cpse r1, r2",
		"	nop",
		"	nop",
	)

	_, err := s.Clock()
	assert.NoError(err)
	assert.Equal(2, s.PC())

	s.SetPC(0)
	s.Data().Write(2, abstract.ByteOf(9))
	_, err = s.Clock()
	assert.NoError(err)
	assert.Equal(1, s.PC())

	// A register always equals itself.
	s = load(t, REGISTER_COUNT,
		"	cpse r3, r3",
		"	nop",
		"	nop",
	)
	s.Data().Write(3, abstract.UnknownByte)
	fork, err := s.Clock()
	assert.NoError(err)
	assert.Nil(fork)
	assert.Equal(2, s.PC())
}

func TestClockRelativeWrap(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		first []byte
	}){
		{"rjmp", []byte{0xfe, 0xcf}},  // rjmp .-2
		{"rcall", []byte{0xfe, 0xdf}}, // rcall .-2
		{"breq", []byte{0xf1, 0xf3}},  // breq .-2
	}

	for _, entry := range table {
		s := New(8, 0x100)
		code := s.Code()
		copy(code, entry.first)
		copy(code[2:], []byte{0x00, 0x00, 0x00, 0x00, 0xff, 0xcf})
		s.WriteWord(SPL_ADDRESS, abstract.WordOf(0xff))
		s.WriteWord(R24_ADDRESS, abstract.WordOf(7))
		s.SetFlag(avr.SREG_Z, abstract.True)

		// Backwards from word 0 lands on the last word of flash.
		fork, err := s.Clock()
		assert.Nil(fork, entry.name)
		assert.NoError(err, entry.name)
		assert.False(s.IsHalted(), entry.name)
		assert.Equal(3, s.PC(), entry.name)

		_, err = s.Clock()
		var halted *ErrHalted
		if assert.ErrorAs(err, &halted, entry.name) {
			assert.Equal(abstract.WordOf(7), halted.Code, entry.name)
		}
	}

	// The return address of a wrapped call is the next word.
	s := New(8, 0x100)
	copy(s.Code(), []byte{0xfe, 0xdf})
	s.WriteWord(SPL_ADDRESS, abstract.WordOf(0xff))
	_, err := s.Clock()
	assert.NoError(err)
	assert.Equal(abstract.ByteOf(1), s.Data().Read(0xff))
	assert.Equal(abstract.ByteOf(0), s.Data().Read(0xfe))

	// A forked branch wraps only on the taken side.
	s = New(8, 0x100)
	copy(s.Code(), []byte{0xf1, 0xf3})
	s.SetFlag(avr.SREG_Z, abstract.Unknown)
	fork, err := s.Clock()
	assert.NoError(err)
	if assert.NotNil(fork) {
		assert.Equal(3, s.PC())
		assert.Equal(1, fork.PC())
	}
}

func TestClockInterrupt(t *testing.T) {
	assert := assert.New(t)

	line := &avrio.Line{}
	s := New(16, 0x100, avrio.Never{}, line)
	s.WriteWord(SPL_ADDRESS, abstract.WordOf(0xff))
	s.SetPC(5)

	// Interrupts are masked.
	line.Raise()
	fork, err := s.Clock()
	assert.NoError(err)
	assert.Nil(fork)
	assert.Equal(6, s.PC())
	assert.True(line.Get())

	// Unknown I forks before any instruction executes.
	s.SetFlag(avr.SREG_I, abstract.Unknown)
	fork, err = s.Clock()
	assert.NoError(err)
	if assert.NotNil(fork) {
		assert.Equal(6, fork.PC())
		assert.Equal(abstract.False, fork.Flag(avr.SREG_I))
		assert.Equal(abstract.WordOf(0xff), fork.StackPointer())
	}
	assert.Equal(1, s.PC())
	assert.Equal(abstract.False, s.Flag(avr.SREG_I))
	assert.Equal(abstract.WordOf(0xfd), s.StackPointer())
	assert.Equal(abstract.ByteOf(6), s.Data().Read(0xff))
	assert.Equal(abstract.ByteOf(0), s.Data().Read(0xfe))
	assert.False(line.Get())

	// Enabled interrupts execute the vector in the same step.
	s.SetPC(3)
	s.SetFlag(avr.SREG_I, abstract.True)
	line.Raise()
	fork, err = s.Clock()
	assert.NoError(err)
	assert.Nil(fork)
	assert.Equal(2, s.PC())
	assert.Equal(abstract.WordOf(0xfb), s.StackPointer())
}

func TestClockCallReturn(t *testing.T) {
	assert := assert.New(t)

	s := load(t, 0x100,
		"	rcall sub",
		"	halt",
		"sub:",
		"	ldi r16, 0xaa",
		"	push r16",
		"	pop r17",
		"	reti",
	)
	s.WriteWord(SPL_ADDRESS, abstract.WordOf(0xff))

	_, err := s.Clock()
	assert.NoError(err)
	assert.Equal(2, s.PC())
	assert.Equal(abstract.WordOf(0xfd), s.StackPointer())
	assert.Equal(abstract.ByteOf(1), s.Data().Read(0xff))
	assert.Equal(abstract.ByteOf(0), s.Data().Read(0xfe))

	for step := 0; step < 3; step++ {
		_, err = s.Clock()
		assert.NoError(err)
	}
	assert.Equal(abstract.ByteOf(0xaa), s.Data().Read(17))
	assert.Equal(abstract.WordOf(0xfd), s.StackPointer())

	_, err = s.Clock()
	assert.NoError(err)
	assert.Equal(1, s.PC())
	assert.Equal(abstract.True, s.Flag(avr.SREG_I))
	assert.Equal(abstract.WordOf(0xff), s.StackPointer())
}

func TestClockCall(t *testing.T) {
	assert := assert.New(t)

	s := load(t, 0x100,
		"	call sub",
		"	halt",
		"sub:",
		"	ldi r30, 1",
		"	icall",
	)
	s.WriteWord(SPL_ADDRESS, abstract.WordOf(0xff))

	_, err := s.Clock()
	assert.NoError(err)
	assert.Equal(3, s.PC())
	assert.Equal(abstract.ByteOf(2), s.Data().Read(0xff))

	_, err = s.Clock()
	assert.NoError(err)
	_, err = s.Clock()
	assert.NoError(err)
	assert.Equal(1, s.PC())
	assert.Equal(abstract.ByteOf(5), s.Data().Read(0xfd))
	assert.Equal(abstract.WordOf(0xfb), s.StackPointer())
}

func TestClockStackRange(t *testing.T) {
	assert := assert.New(t)

	s := load(t, 64, "push r0")

	_, err := s.Clock()
	var rangeErr *ErrAddressRange
	if assert.ErrorAs(err, &rangeErr) {
		assert.Equal(SPH_ADDRESS, rangeErr.Address)
	}
}

func TestClockIo(t *testing.T) {
	assert := assert.New(t)

	s := load(t, 0x60,
		"	sbi PORTB, 3",
		"	cbi PORTB, 3",
		"	in r16, PINB",
		"	sbis PINB, 1",
		"	nop",
		"	out SREG, r17",
		"	in r18, SREG",
	)

	_, err := s.Clock()
	assert.NoError(err)
	assert.Equal(abstract.ByteOf(0x08), s.Data().Read(0x38))

	_, err = s.Clock()
	assert.NoError(err)
	assert.Equal(abstract.ByteOf(0x00), s.Data().Read(0x38))

	s.Data().Write(0x36, abstract.ByteOf(0x42))
	_, err = s.Clock()
	assert.NoError(err)
	assert.Equal(abstract.ByteOf(0x42), s.Data().Read(16))

	_, err = s.Clock()
	assert.NoError(err)
	assert.Equal(5, s.PC())

	s.Data().Write(17, abstract.ByteOf(0x81))
	_, err = s.Clock()
	assert.NoError(err)
	assert.Equal("C------I", s.sregString())

	_, err = s.Clock()
	assert.NoError(err)
	assert.Equal(abstract.ByteOf(0x81), s.Data().Read(18))

	// An Unknown byte poisons every flag.
	s.SetPC(5)
	s.Data().Write(17, abstract.UnknownByte)
	_, err = s.Clock()
	assert.NoError(err)
	assert.Equal("????????", s.sregString())

	// Setting a bit of an Unknown port leaves it Unknown.
	s.SetPC(0)
	s.Data().Write(0x38, abstract.UnknownByte)
	_, err = s.Clock()
	assert.NoError(err)
	assert.Equal(abstract.UnknownByte, s.Data().Read(0x38))
}

func TestClockIndirect(t *testing.T) {
	assert := assert.New(t)

	s := load(t, 0x100,
		"	ldi r26, 0x80",
		"	ldi r16, 0x11",
		"	st X+, r16",
		"	ldi r16, 0x22",
		"	st X, r16",
		"	ld r17, -X",
		"	ldi r28, 0x80",
		"	ldd r18, Y+1",
		"	ldi r30, 0x80",
		"	ldi r16, 0x33",
		"	xch Z, r16",
		"	lds r19, 0x0080",
		"	sts 0x0090, r19",
	)

	for step := 0; step < 13; step++ {
		_, err := s.Clock()
		assert.NoError(err, "step %v", step)
	}

	assert.Equal(abstract.ByteOf(0x11), s.Data().Read(17))
	assert.Equal(abstract.ByteOf(0x22), s.Data().Read(18))
	assert.Equal(abstract.ByteOf(0x11), s.Data().Read(16))
	assert.Equal(abstract.ByteOf(0x33), s.Data().Read(19))
	assert.Equal(abstract.ByteOf(0x33), s.Data().Read(0x90))
	assert.Equal(abstract.WordOf(0x80), s.ReadWord(avr.REG_X))
	assert.Equal(15, s.PC())
}

func TestClockUnknownAddress(t *testing.T) {
	assert := assert.New(t)

	s := load(t, REGISTER_COUNT, "ld r16, X", "ijmp", "ret")
	s.Data().Write(avr.REG_X, abstract.UnknownByte)

	_, err := s.Clock()
	var unknown *ErrUnknownAddress
	if assert.ErrorAs(err, &unknown) {
		assert.Equal("X", unknown.Pointer)
		assert.Equal(0, unknown.Pc)
	}

	s.SetPC(1)
	s.Data().Write(avr.REG_Z+1, abstract.UnknownByte)
	_, err = s.Clock()
	if assert.ErrorAs(err, &unknown) {
		assert.Equal("Z", unknown.Pointer)
	}
}

func TestClockLpm(t *testing.T) {
	assert := assert.New(t)

	s := load(t, REGISTER_COUNT,
		"	ldi r30, 8",
		"	lpm",
		"	lpm r16, Z+",
		"	lpm r17, Z",
		"	.dw 0xbeef",
	)

	for step := 0; step < 4; step++ {
		_, err := s.Clock()
		assert.NoError(err)
	}

	assert.Equal(abstract.ByteOf(0xef), s.Data().Read(0))
	assert.Equal(abstract.ByteOf(0xef), s.Data().Read(16))
	assert.Equal(abstract.ByteOf(0xbe), s.Data().Read(17))
	assert.Equal(abstract.WordOf(9), s.ReadWord(avr.REG_Z))

	// Past the end of flash.
	s.SetPC(1)
	s.WriteWord(avr.REG_Z, abstract.WordOf(10))
	_, err := s.Clock()
	var rangeErr *ErrAddressRange
	assert.ErrorAs(err, &rangeErr)
}

func TestClockDecodeError(t *testing.T) {
	assert := assert.New(t)

	s := New(4, REGISTER_COUNT)
	copy(s.Code(), []byte{0x00, 0x00, 0xff, 0xff})

	_, err := s.Clock()
	assert.NoError(err)

	_, err = s.Clock()
	assert.True(errors.Is(err, ErrDecode))
	assert.True(errors.Is(err, avr.ErrOpcode(0xffff)))

	s.SetPC(2)
	_, err = s.Clock()
	assert.True(errors.Is(err, ErrDecode))
	assert.True(errors.Is(err, avr.ErrDecodeRange))
}

func TestRun(t *testing.T) {
	assert := assert.New(t)

	s := load(t, REGISTER_COUNT,
		"	ldi r16, 3",
		"loop:",
		"	dec r16",
		"	brne loop",
		"	ldi r24, 1",
		"	halt",
	)

	err := s.Run(2, false)
	assert.NoError(err)
	assert.Equal(2, s.PC())

	err = s.Run(0, false)
	var halted *ErrHalted
	if assert.ErrorAs(err, &halted) {
		assert.Equal(abstract.WordOf(1), halted.Code)
	}
	assert.Equal(abstract.ByteOf(0), s.Data().Read(16))
}
