package machine

import (
	"github.com/ezrec/avrmc/abstract"
	"github.com/ezrec/avrmc/avr"
)

var pointerNames = map[int]string{
	avr.REG_X: "X",
	avr.REG_Y: "Y",
	avr.REG_Z: "Z",
}

// sregByte packs the flags into a byte; Unknown if any flag is Unknown.
func (s *State) sregByte() abstract.Byte {
	flags := s.sreg
	return abstract.ByteFromBits(flags[7], flags[6], flags[5], flags[4], flags[3], flags[2], flags[1], flags[0])
}

// setSregByte unpacks a byte into the flags.
func (s *State) setSregByte(value abstract.Byte) {
	for n := range s.sreg {
		s.sreg[n] = value.Get(n)
	}
}

// load reads a data byte, with SREG mapped at SREG_ADDRESS.
func (s *State) load(address int) (value abstract.Byte, err error) {
	switch {
	case address == SREG_ADDRESS:
		value = s.sregByte()
	case address < 0 || address >= s.data.Size():
		err = &ErrAddressRange{Pc: s.pc, Address: address}
	default:
		value = s.data.Read(address)
	}
	return
}

// store writes a data byte, with SREG mapped at SREG_ADDRESS.
func (s *State) store(address int, value abstract.Byte) (err error) {
	switch {
	case address == SREG_ADDRESS:
		s.setSregByte(value)
	case address < 0 || address >= s.data.Size():
		err = &ErrAddressRange{Pc: s.pc, Address: address}
	default:
		s.data.Write(address, value)
	}
	return
}

// concrete requires a known address.
func (s *State) concrete(word abstract.Word, pointer string) (address int, err error) {
	if word.IsUnknown() {
		err = &ErrUnknownAddress{Pc: s.pc, Pointer: pointer}
		return
	}
	address = int(word.Uint16())
	return
}

// indirect computes the data address of an LD, LDD, ST or STD, applying any
// pre-decrement or post-increment to the pointer register.
func (s *State) indirect(inst avr.Instruction) (address int, err error) {
	reg, adjust, _ := inst.Op.Pointer()
	ptr := s.ReadWord(reg)
	address, err = s.concrete(ptr, pointerNames[reg])
	if err != nil {
		return
	}

	switch {
	case adjust < 0:
		ptr = ptr.Dec()
		s.WriteWord(reg, ptr)
		address = int(ptr.Uint16())
	case adjust > 0:
		s.WriteWord(reg, ptr.Inc())
	default:
		address += inst.Q
	}

	return
}

// stackPointer requires a known stack pointer.
func (s *State) stackPointer() (sp int, err error) {
	if s.data.Size() <= SPH_ADDRESS {
		err = &ErrAddressRange{Pc: s.pc, Address: SPH_ADDRESS}
		return
	}
	return s.concrete(s.ReadWord(SPL_ADDRESS), "SP")
}

// push stores at SP, then post-decrements SP.
func (s *State) push(value abstract.Byte) (err error) {
	sp, err := s.stackPointer()
	if err != nil {
		return
	}
	err = s.store(sp, value)
	if err != nil {
		return
	}
	s.WriteWord(SPL_ADDRESS, abstract.WordOf(uint16(sp-1)))
	return
}

// pop pre-increments SP, then loads from SP.
func (s *State) pop() (value abstract.Byte, err error) {
	sp, err := s.stackPointer()
	if err != nil {
		return
	}
	sp = int(uint16(sp + 1))
	s.WriteWord(SPL_ADDRESS, abstract.WordOf(uint16(sp)))
	return s.load(sp)
}

// pushReturn pushes a return address, low byte first.
func (s *State) pushReturn(pc int) (err error) {
	err = s.push(abstract.ByteOf(uint8(pc)))
	if err != nil {
		return
	}
	return s.push(abstract.ByteOf(uint8(pc >> 8)))
}

// popReturn pops a return address pushed by pushReturn.
func (s *State) popReturn() (pc int, err error) {
	high, err := s.pop()
	if err != nil {
		return
	}
	low, err := s.pop()
	if err != nil {
		return
	}
	return s.concrete(abstract.WordFromBytes(high, low), "return address")
}
