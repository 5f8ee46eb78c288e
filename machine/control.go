package machine

import (
	"errors"

	"github.com/ezrec/avrmc/abstract"
	"github.com/ezrec/avrmc/avr"
)

// branch executes a conditional relative branch on flag 'inst.B' being
// 'when'.
func (s *State) branch(inst avr.Instruction, when abstract.Bit) (fork *State) {
	target := s.relative(inst.K)
	s.pc++

	if s.sreg[inst.B] == abstract.Unknown {
		s.sreg[inst.B] = abstract.Not(when)
		fork = s.Clone()
		s.sreg[inst.B] = when
	}

	if s.sreg[inst.B] == when {
		s.pc = target
	}

	return
}

// skip executes a skip-if instruction whose condition is 'test'.
func (s *State) skip(test abstract.Bit) (fork *State, err error) {
	s.pc++

	if test == abstract.Unknown {
		fork = s.Clone()
		test = abstract.True
	}

	if test == abstract.True {
		var next avr.Instruction
		next, err = s.instruction(s.pc)
		if err != nil {
			return
		}
		s.pc += next.Width()
	}

	return
}

// ioAddress is the data address of I/O register 'a'.
func ioAddress(a int) int {
	return a + IO_OFFSET
}

// program reads the flash byte at 'address'.
func (s *State) program(address int) (value abstract.Byte, err error) {
	if address < 0 || address >= len(s.code) {
		err = &ErrAddressRange{Pc: s.pc, Address: address}
		return
	}
	value = abstract.ByteOf(s.code[address])
	return
}

// relative is the word address 'offset' words past the next instruction.
// Relative targets wrap around flash.
func (s *State) relative(offset int) int {
	target := s.pc + 1 + offset
	words := len(s.code) / 2
	if words == 0 {
		return target
	}
	return ((target % words) + words) % words
}

// jump transfers control to 'target', halting on a jump to itself.
func (s *State) jump(target int) (err error) {
	if target == s.pc {
		return s.halt()
	}
	s.pc = target
	return
}

// call pushes 'ret' and transfers control to 'target'.
func (s *State) call(ret int, target int) (err error) {
	err = s.pushReturn(ret)
	if err != nil {
		return
	}
	s.pc = target
	return
}

// condition evaluates the test of a skip-if instruction.
func (s *State) condition(inst avr.Instruction) (test abstract.Bit, err error) {
	switch inst.Op {
	case avr.OP_CPSE:
		if inst.Rd == inst.Rr {
			test = abstract.True
			break
		}
		test = s.data.Read(inst.Rd).Eq(s.data.Read(inst.Rr))
	case avr.OP_SBRC:
		test = abstract.Not(s.data.Read(inst.Rr).Get(inst.B))
	case avr.OP_SBRS:
		test = s.data.Read(inst.Rr).Get(inst.B)
	case avr.OP_SBIC, avr.OP_SBIS:
		var value abstract.Byte
		value, err = s.load(ioAddress(inst.A))
		if err != nil {
			return
		}
		test = value.Get(inst.B)
		if inst.Op == avr.OP_SBIC {
			test = abstract.Not(test)
		}
	}
	return
}

// execute runs the control, data transfer and bit instructions.
func (s *State) execute(inst avr.Instruction) (fork *State, err error) {
	var value abstract.Byte

	if inst.IsSkip() {
		var test abstract.Bit
		test, err = s.condition(inst)
		if err != nil {
			return
		}
		return s.skip(test)
	}

	switch inst.Op {
	case avr.OP_NOP, avr.OP_SLEEP, avr.OP_WDR:
		s.pc++
	case avr.OP_BREAK:
		err = s.halt()
	case avr.OP_BRBS:
		fork = s.branch(inst, abstract.True)
	case avr.OP_BRBC:
		fork = s.branch(inst, abstract.False)
	case avr.OP_RJMP:
		err = s.jump(s.relative(inst.K))
	case avr.OP_JMP:
		err = s.jump(inst.K)
	case avr.OP_IJMP:
		var target int
		target, err = s.concrete(s.ReadWord(avr.REG_Z), "Z")
		if err != nil {
			return
		}
		err = s.jump(target)
	case avr.OP_RCALL:
		err = s.call(s.pc+1, s.relative(inst.K))
	case avr.OP_CALL:
		err = s.call(s.pc+2, inst.K)
	case avr.OP_ICALL:
		var target int
		target, err = s.concrete(s.ReadWord(avr.REG_Z), "Z")
		if err != nil {
			return
		}
		err = s.call(s.pc+1, target)
	case avr.OP_RET, avr.OP_RETI:
		var target int
		target, err = s.popReturn()
		if err != nil {
			return
		}
		if inst.Op == avr.OP_RETI {
			s.sreg[I] = abstract.True
		}
		s.pc = target
	case avr.OP_IN:
		value, err = s.load(ioAddress(inst.A))
		if err != nil {
			return
		}
		s.data.Write(inst.Rd, value)
		s.pc++
	case avr.OP_OUT:
		err = s.store(ioAddress(inst.A), s.data.Read(inst.Rr))
		s.pc++
	case avr.OP_SBI, avr.OP_CBI:
		address := ioAddress(inst.A)
		value, err = s.load(address)
		if err != nil {
			return
		}
		if inst.Op == avr.OP_SBI {
			value = value.Set(inst.B)
		} else {
			value = value.Clear(inst.B)
		}
		err = s.store(address, value)
		s.pc++
	case avr.OP_PUSH:
		err = s.push(s.data.Read(inst.Rr))
		s.pc++
	case avr.OP_POP:
		value, err = s.pop()
		if err != nil {
			return
		}
		s.data.Write(inst.Rd, value)
		s.pc++
	case avr.OP_LDS:
		value, err = s.load(inst.K)
		if err != nil {
			return
		}
		s.data.Write(inst.Rd, value)
		s.pc += 2
	case avr.OP_STS:
		err = s.store(inst.K, s.data.Read(inst.Rr))
		s.pc += 2
	case avr.OP_LPM, avr.OP_LPM_Z, avr.OP_LPM_ZP:
		var address int
		z := s.ReadWord(avr.REG_Z)
		address, err = s.concrete(z, "Z")
		if err != nil {
			return
		}
		value, err = s.program(address)
		if err != nil {
			return
		}
		if inst.Op == avr.OP_LPM_ZP {
			s.WriteWord(avr.REG_Z, z.Inc())
		}
		s.data.Write(inst.Rd, value)
		s.pc++
	case avr.OP_XCH:
		var address int
		address, err = s.concrete(s.ReadWord(avr.REG_Z), "Z")
		if err != nil {
			return
		}
		value, err = s.load(address)
		if err != nil {
			return
		}
		err = s.store(address, s.data.Read(inst.Rd))
		if err != nil {
			return
		}
		s.data.Write(inst.Rd, value)
		s.pc++
	default:
		switch {
		case inst.Op.IsLoad():
			var address int
			address, err = s.indirect(inst)
			if err != nil {
				return
			}
			value, err = s.load(address)
			if err != nil {
				return
			}
			s.data.Write(inst.Rd, value)
			s.pc++
		case inst.Op.IsStore():
			var address int
			address, err = s.indirect(inst)
			if err != nil {
				return
			}
			err = s.store(address, s.data.Read(inst.Rr))
			s.pc++
		default:
			err = errors.Join(ErrDecode, avr.ErrInstructionInvalid)
		}
	}

	return
}
