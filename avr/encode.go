package avr

import (
	"errors"
)

// ErrOperand reports an operand that does not fit its instruction field.
type ErrOperand struct {
	Name  string
	Value int
}

func (err *ErrOperand) Error() string {
	return f("operand %v=%v out of range", err.Name, err.Value)
}

func (err *ErrOperand) Unwrap() error {
	return ErrOperandRange
}

// operand checks that value is within [lo, hi].
func operand(name string, value, lo, hi int) (err error) {
	if value < lo || value > hi {
		err = &ErrOperand{Name: name, Value: value}
	}
	return
}

var aluCodes = map[Op]uint16{
	OP_CPC: 0x1, OP_SBC: 0x2, OP_ADD: 0x3, OP_CPSE: 0x4, OP_CP: 0x5,
	OP_SUB: 0x6, OP_ADC: 0x7, OP_AND: 0x8, OP_EOR: 0x9, OP_OR: 0xa,
	OP_MOV: 0xb,
}

var immCodes = map[Op]uint16{
	OP_CPI: 0x3, OP_SBCI: 0x4, OP_SUBI: 0x5, OP_ORI: 0x6, OP_ANDI: 0x7,
	OP_LDI: 0xe,
}

// regCodes are the single register forms; values below 0x10 live in the 0x94xx group.
var regCodes = map[Op]uint16{
	OP_COM: 0x0, OP_NEG: 0x1, OP_SWAP: 0x2, OP_INC: 0x3,
	OP_ASR: 0x5, OP_LSR: 0x6, OP_ROR: 0x7, OP_DEC: 0xa,
	OP_LDS: 0x9000, OP_LD_ZP: 0x9001, OP_LD_MZ: 0x9002, OP_LPM_Z: 0x9004,
	OP_LPM_ZP: 0x9005, OP_LD_YP: 0x9009, OP_LD_MY: 0x900a, OP_LD_X: 0x900c,
	OP_LD_XP: 0x900d, OP_LD_MX: 0x900e, OP_POP: 0x900f,
	OP_STS: 0x9200, OP_ST_ZP: 0x9201, OP_ST_MZ: 0x9202,
	OP_ST_YP: 0x9209, OP_ST_MY: 0x920a, OP_ST_X: 0x920c,
	OP_ST_XP: 0x920d, OP_ST_MX: 0x920e, OP_PUSH: 0x920f,
}

// Encode the instruction into flash words; the inverse of Decode.
func (inst Instruction) Encode() (words []uint16, err error) {
	defer func() {
		if err != nil {
			words = nil
		}
	}()

	check := func(errs ...error) bool {
		err = errors.Join(errs...)
		return err == nil
	}

	reg5 := func(r int) uint16 { return uint16(r&0x1f) << 4 }

	for word, op := range miscOps {
		if op == inst.Op {
			words = []uint16{word}
			return
		}
	}

	if code, ok := aluCodes[inst.Op]; ok {
		if check(operand("Rd", inst.Rd, 0, 31), operand("Rr", inst.Rr, 0, 31)) {
			words = []uint16{code<<10 | reg5(inst.Rd) | uint16(inst.Rr&0x10)<<5 | uint16(inst.Rr&0xf)}
		}
		return
	}

	if code, ok := immCodes[inst.Op]; ok {
		if check(operand("Rd", inst.Rd, 16, 31), operand("K", inst.K, 0, 255)) {
			words = []uint16{code<<12 | uint16(inst.K&0xf0)<<4 | uint16(inst.Rd-16)<<4 | uint16(inst.K&0xf)}
		}
		return
	}

	if code, ok := regCodes[inst.Op]; ok {
		r := inst.Rd
		if inst.Op == OP_PUSH || inst.Op.IsStore() || inst.Op == OP_STS {
			r = inst.Rr
		}
		if code < 0x10 {
			code |= 0x9400
		}
		if !check(operand("R", r, 0, 31)) {
			return
		}
		words = []uint16{code | reg5(r)}
		if inst.Op == OP_LDS || inst.Op == OP_STS {
			if check(operand("K", inst.K, 0, 0xffff)) {
				words = append(words, uint16(inst.K))
			}
		}
		return
	}

	switch inst.Op {
	case OP_MOVW:
		if check(operand("Rd", inst.Rd, 0, 30), operand("Rr", inst.Rr, 0, 30)) {
			if inst.Rd&1 != 0 || inst.Rr&1 != 0 {
				err = ErrRegisterInvalid
				return
			}
			words = []uint16{0x0100 | uint16(inst.Rd/2)<<4 | uint16(inst.Rr/2)}
		}
	case OP_LD_Y, OP_LD_Z, OP_LDD_Y, OP_LDD_Z, OP_ST_Y, OP_ST_Z, OP_STD_Y, OP_STD_Z:
		r := inst.Rd
		q := inst.Q
		word := uint16(0x8000)
		switch inst.Op {
		case OP_ST_Y, OP_ST_Z, OP_STD_Y, OP_STD_Z:
			r = inst.Rr
			word |= 0x0200
		}
		switch inst.Op {
		case OP_LD_Y, OP_LDD_Y, OP_ST_Y, OP_STD_Y:
			word |= 0x0008
		}
		switch inst.Op {
		case OP_LD_Y, OP_LD_Z, OP_ST_Y, OP_ST_Z:
			q = 0
		}
		if check(operand("R", r, 0, 31), operand("q", q, 0, 63)) {
			word |= uint16(q&0x20)<<8 | uint16(q&0x18)<<7 | uint16(q&0x7)
			words = []uint16{word | reg5(r)}
		}
	case OP_XCH:
		if check(operand("Rd", inst.Rd, 0, 31)) {
			words = []uint16{0x9204 | reg5(inst.Rd)}
		}
	case OP_JMP, OP_CALL:
		if check(operand("K", inst.K, 0, 0x3fffff)) {
			word := uint16(0x940c)
			if inst.Op == OP_CALL {
				word |= 0x0002
			}
			high := inst.K >> 16
			word |= uint16(high&0x3e)<<3 | uint16(high&1)
			words = []uint16{word, uint16(inst.K)}
		}
	case OP_BSET, OP_BCLR:
		if check(operand("s", inst.B, 0, 7)) {
			word := uint16(0x9408)
			if inst.Op == OP_BCLR {
				word = 0x9488
			}
			words = []uint16{word | uint16(inst.B)<<4}
		}
	case OP_ADIW, OP_SBIW:
		if check(operand("K", inst.K, 0, 63), operand("Rd", inst.Rd, 24, 30)) {
			if inst.Rd&1 != 0 {
				err = ErrRegisterInvalid
				return
			}
			word := uint16(0x9600)
			if inst.Op == OP_SBIW {
				word = 0x9700
			}
			words = []uint16{word | uint16(inst.K&0x30)<<2 | uint16((inst.Rd-24)/2)<<4 | uint16(inst.K&0xf)}
		}
	case OP_CBI, OP_SBIC, OP_SBI, OP_SBIS:
		if check(operand("A", inst.A, 0, 31), operand("b", inst.B, 0, 7)) {
			code := map[Op]uint16{OP_CBI: 0x9800, OP_SBIC: 0x9900, OP_SBI: 0x9a00, OP_SBIS: 0x9b00}[inst.Op]
			words = []uint16{code | uint16(inst.A)<<3 | uint16(inst.B)}
		}
	case OP_IN, OP_OUT:
		r := inst.Rd
		word := uint16(0xb000)
		if inst.Op == OP_OUT {
			r = inst.Rr
			word = 0xb800
		}
		if check(operand("R", r, 0, 31), operand("A", inst.A, 0, 63)) {
			words = []uint16{word | uint16(inst.A&0x30)<<5 | reg5(r) | uint16(inst.A&0xf)}
		}
	case OP_RJMP, OP_RCALL:
		if check(operand("k", inst.K, -2048, 2047)) {
			word := uint16(0xc000)
			if inst.Op == OP_RCALL {
				word = 0xd000
			}
			words = []uint16{word | uint16(inst.K&0xfff)}
		}
	case OP_BRBS, OP_BRBC:
		if check(operand("k", inst.K, -64, 63), operand("s", inst.B, 0, 7)) {
			word := uint16(0xf000)
			if inst.Op == OP_BRBC {
				word = 0xf400
			}
			words = []uint16{word | uint16(inst.K&0x7f)<<3 | uint16(inst.B)}
		}
	case OP_BLD, OP_BST:
		if check(operand("Rd", inst.Rd, 0, 31), operand("b", inst.B, 0, 7)) {
			word := uint16(0xf800)
			if inst.Op == OP_BST {
				word = 0xfa00
			}
			words = []uint16{word | reg5(inst.Rd) | uint16(inst.B)}
		}
	case OP_SBRC, OP_SBRS:
		if check(operand("Rr", inst.Rr, 0, 31), operand("b", inst.B, 0, 7)) {
			word := uint16(0xfc00)
			if inst.Op == OP_SBRS {
				word = 0xfe00
			}
			words = []uint16{word | reg5(inst.Rr) | uint16(inst.B)}
		}
	default:
		err = ErrInstructionInvalid
	}

	return
}
