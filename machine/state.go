package machine

import (
	"fmt"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/ezrec/avrmc/abstract"
	"github.com/ezrec/avrmc/avr"
	avrio "github.com/ezrec/avrmc/io"
)

// Data memory layout.
const (
	REGISTER_COUNT = 32   // r0 to r31
	IO_OFFSET      = 0x20 // Data address of I/O address 0x00.
	SPL_ADDRESS    = 0x5d
	SPH_ADDRESS    = 0x5e
	SREG_ADDRESS   = 0x5f
	R24_ADDRESS    = 24 // Exit code register pair.
)

const sregNames = "CZNVSHTI"

// State is an abstract AVR machine state.
//
// The data memory and flags are owned by the state. The code memory, the
// decode cache and the interrupt sources are shared with every clone.
type State struct {
	pc         int
	sreg       [8]abstract.Bit
	data       *abstract.Memory
	code       []byte
	decoded    map[int]avr.Instruction
	interrupts []avrio.Interrupt
	exit       abstract.Word
}

// New creates a machine with 'codeSize' bytes of flash and 'dataSize' bytes
// of data memory, all zero. The interrupt sources are polled in order, and
// source n vectors to flash word n.
//
// Code must be loaded (see Code) before the first Clock.
func New(codeSize, dataSize int, interrupts ...avrio.Interrupt) *State {
	if dataSize < REGISTER_COUNT {
		panic(ErrDataSize)
	}

	return &State{
		data:       abstract.NewMemory(dataSize),
		code:       make([]byte, codeSize),
		decoded:    make(map[int]avr.Instruction),
		interrupts: interrupts,
	}
}

// Clone returns a state sharing code, decode cache and interrupts, with its
// own copy of the data memory and flags.
func (s *State) Clone() *State {
	dup := *s
	dup.data = s.data.Clone()
	return &dup
}

// Equal compares the flags and data memory. The program counter is not
// part of a state's identity.
func (s *State) Equal(other *State) bool {
	return s.sreg == other.sreg && s.data.Equal(other.data)
}

// Hash is consistent with Equal.
func (s *State) Hash() uint64 {
	digest := xxhash.New()
	var flags [8]byte
	for n, bit := range s.sreg {
		flags[n] = uint8(bit)
	}
	digest.Write(flags[:])
	s.data.Hash(digest)
	return digest.Sum64()
}

// ReadWord reads the little-endian word at data 'address'.
func (s *State) ReadWord(address int) abstract.Word {
	return abstract.WordFromBytes(s.data.Read(address+1), s.data.Read(address))
}

// WriteWord writes a little-endian word at data 'address'.
func (s *State) WriteWord(address int, word abstract.Word) {
	s.data.Write(address, word.Low())
	s.data.Write(address+1, word.High())
}

// SREG returns the status flags, indexed by avr.SREG_C through avr.SREG_I.
func (s *State) SREG() [8]abstract.Bit {
	return s.sreg
}

// Flag returns status flag 'index'.
func (s *State) Flag(index int) abstract.Bit {
	return s.sreg[index]
}

// SetFlag sets status flag 'index'.
func (s *State) SetFlag(index int, bit abstract.Bit) {
	s.sreg[index] = bit
}

// Data is the data memory of this state.
func (s *State) Data() *abstract.Memory {
	return s.data
}

// Code is the flash memory shared by all clones.
func (s *State) Code() []byte {
	return s.code
}

// PC is the program counter, as a flash word address.
func (s *State) PC() int {
	return s.pc
}

// SetPC sets the program counter.
func (s *State) SetPC(pc int) {
	s.pc = pc
}

// IsHalted is true once the machine has halted.
func (s *State) IsHalted() bool {
	return s.pc < 0
}

// ExitCode is r25:r24 as latched when the machine halted.
func (s *State) ExitCode() abstract.Word {
	return s.exit
}

// StackPointer returns SPH:SPL, or an Unknown word if the data memory does
// not reach the stack pointer.
func (s *State) StackPointer() abstract.Word {
	if s.data.Size() <= SPH_ADDRESS {
		return abstract.UnknownWord
	}
	return s.ReadWord(SPL_ADDRESS)
}

// sregString renders the flags, upper case when set, '-' when clear, '?'
// when Unknown.
func (s *State) sregString() string {
	var sb strings.Builder
	for n, bit := range s.sreg {
		switch bit {
		case abstract.True:
			sb.WriteByte(sregNames[n])
		case abstract.False:
			sb.WriteByte('-')
		default:
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

// Print writes a debug dump of the state.
func (s *State) Print(w io.Writer) (err error) {
	_, err = fmt.Fprintf(w, "PC=0x%04x, SREG=%v\n%v", s.pc, s.sregString(), s.data.String())
	return
}

// String is a one line summary of the state.
func (s *State) String() string {
	return fmt.Sprintf("pc=0x%04x sreg=%v sp=%v", s.pc, s.sregString(), s.StackPointer())
}
