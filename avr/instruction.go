package avr

import (
	"fmt"
)

// Instruction is a decoded AVR instruction.
//
// Operand use depends on Op. Loads and register operations write Rd; stores,
// PUSH and OUT read Rr. K is an immediate, a signed relative offset in words
// (RJMP, RCALL, BRBS, BRBC), or an absolute address (JMP, CALL, LDS, STS).
type Instruction struct {
	Op Op
	Rd int // Destination register.
	Rr int // Source register.
	K  int // Immediate, offset or address.
	A  int // I/O address.
	B  int // Bit index, or SREG bit for BRBS, BRBC, BSET and BCLR.
	Q  int // Displacement for LDD and STD.
}

// Width is the size of the instruction in flash words.
func (inst Instruction) Width() int {
	switch inst.Op {
	case OP_LDS, OP_STS, OP_JMP, OP_CALL:
		return 2
	}
	return 1
}

// IsSkip is true for the instructions which conditionally skip the next one.
func (inst Instruction) IsSkip() bool {
	switch inst.Op {
	case OP_CPSE, OP_SBIC, OP_SBIS, OP_SBRC, OP_SBRS:
		return true
	}
	return false
}

// Mnemonic returns the name of the instruction, preferring the common alias
// for the SREG bit branch and set/clear forms.
func (inst Instruction) Mnemonic() string {
	switch inst.Op {
	case OP_BRBS:
		return brbsAlias[inst.B&7]
	case OP_BRBC:
		return brbcAlias[inst.B&7]
	case OP_BSET:
		return bsetAlias[inst.B&7]
	case OP_BCLR:
		return bclrAlias[inst.B&7]
	}
	return inst.Op.String()
}

func pointerName(op Op, q int) string {
	reg, adjust, _ := op.Pointer()
	name := map[int]string{REG_X: "X", REG_Y: "Y", REG_Z: "Z"}[reg]
	switch {
	case adjust > 0:
		return name + "+"
	case adjust < 0:
		return "-" + name
	case op == OP_LDD_Y || op == OP_LDD_Z || op == OP_STD_Y || op == OP_STD_Z:
		return fmt.Sprintf("%v+%d", name, q)
	}
	return name
}

// String returns the instruction in assembler syntax.
func (inst Instruction) String() (out string) {
	name := inst.Mnemonic()

	switch inst.Op {
	case OP_ADC, OP_ADD, OP_AND, OP_CP, OP_CPC, OP_CPSE, OP_EOR, OP_MOV, OP_OR, OP_SBC, OP_SUB, OP_MOVW:
		out = fmt.Sprintf("%v r%d, r%d", name, inst.Rd, inst.Rr)
	case OP_ANDI, OP_CPI, OP_LDI, OP_ORI, OP_SBCI, OP_SUBI:
		out = fmt.Sprintf("%v r%d, 0x%02x", name, inst.Rd, inst.K)
	case OP_ADIW, OP_SBIW:
		out = fmt.Sprintf("%v r%d, %d", name, inst.Rd, inst.K)
	case OP_ASR, OP_COM, OP_DEC, OP_INC, OP_LSR, OP_NEG, OP_POP, OP_ROR, OP_SWAP:
		out = fmt.Sprintf("%v r%d", name, inst.Rd)
	case OP_PUSH:
		out = fmt.Sprintf("%v r%d", name, inst.Rr)
	case OP_BRBC, OP_BRBS, OP_RCALL, OP_RJMP:
		out = fmt.Sprintf("%v %+d", name, inst.K)
	case OP_CALL, OP_JMP:
		out = fmt.Sprintf("%v 0x%04x", name, inst.K)
	case OP_LDS:
		out = fmt.Sprintf("%v r%d, 0x%04x", name, inst.Rd, inst.K)
	case OP_STS:
		out = fmt.Sprintf("%v 0x%04x, r%d", name, inst.K, inst.Rr)
	case OP_IN:
		out = fmt.Sprintf("%v r%d, 0x%02x", name, inst.Rd, inst.A)
	case OP_OUT:
		out = fmt.Sprintf("%v 0x%02x, r%d", name, inst.A, inst.Rr)
	case OP_CBI, OP_SBI, OP_SBIC, OP_SBIS:
		out = fmt.Sprintf("%v 0x%02x, %d", name, inst.A, inst.B)
	case OP_BLD, OP_BST:
		out = fmt.Sprintf("%v r%d, %d", name, inst.Rd, inst.B)
	case OP_SBRC, OP_SBRS:
		out = fmt.Sprintf("%v r%d, %d", name, inst.Rr, inst.B)
	case OP_LPM_Z:
		out = fmt.Sprintf("%v r%d, Z", name, inst.Rd)
	case OP_LPM_ZP:
		out = fmt.Sprintf("%v r%d, Z+", name, inst.Rd)
	case OP_XCH:
		out = fmt.Sprintf("%v Z, r%d", name, inst.Rd)
	default:
		switch {
		case inst.Op.IsLoad():
			out = fmt.Sprintf("%v r%d, %v", name, inst.Rd, pointerName(inst.Op, inst.Q))
		case inst.Op.IsStore():
			out = fmt.Sprintf("%v %v, r%d", name, pointerName(inst.Op, inst.Q), inst.Rr)
		default:
			out = name
		}
	}

	return
}
