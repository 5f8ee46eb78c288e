package avr

// fetch reads the little-endian flash word at word address 'pc'.
func fetch(code []byte, pc int) (word uint16, err error) {
	if pc < 0 || 2*pc+1 >= len(code) {
		err = ErrDecodeRange
		return
	}
	word = uint16(code[2*pc]) | uint16(code[2*pc+1])<<8
	return
}

// signExtend interprets the low 'bits' of 'value' as two's complement.
func signExtend(value int, bits int) int {
	sign := 1 << (bits - 1)
	value &= (1 << bits) - 1
	return (value ^ sign) - sign
}

var aluOps = [16]Op{
	0x1: OP_CPC, 0x2: OP_SBC, 0x3: OP_ADD,
	0x4: OP_CPSE, 0x5: OP_CP, 0x6: OP_SUB, 0x7: OP_ADC,
	0x8: OP_AND, 0x9: OP_EOR, 0xa: OP_OR, 0xb: OP_MOV,
}

var immOps = [16]Op{
	0x3: OP_CPI, 0x4: OP_SBCI, 0x5: OP_SUBI, 0x6: OP_ORI, 0x7: OP_ANDI,
	0xe: OP_LDI,
}

var loadOps = [16]Op{
	0x0: OP_LDS, 0x1: OP_LD_ZP, 0x2: OP_LD_MZ, 0x4: OP_LPM_Z, 0x5: OP_LPM_ZP,
	0x9: OP_LD_YP, 0xa: OP_LD_MY, 0xc: OP_LD_X, 0xd: OP_LD_XP, 0xe: OP_LD_MX,
	0xf: OP_POP,
}

var storeOps = [16]Op{
	0x0: OP_STS, 0x1: OP_ST_ZP, 0x2: OP_ST_MZ, 0x4: OP_XCH,
	0x9: OP_ST_YP, 0xa: OP_ST_MY, 0xc: OP_ST_X, 0xd: OP_ST_XP, 0xe: OP_ST_MX,
	0xf: OP_PUSH,
}

var unaryOps = [16]Op{
	0x0: OP_COM, 0x1: OP_NEG, 0x2: OP_SWAP, 0x3: OP_INC,
	0x5: OP_ASR, 0x6: OP_LSR, 0x7: OP_ROR, 0xa: OP_DEC,
}

var miscOps = map[uint16]Op{
	0x9508: OP_RET,
	0x9518: OP_RETI,
	0x9588: OP_SLEEP,
	0x9598: OP_BREAK,
	0x95a8: OP_WDR,
	0x95c8: OP_LPM,
	0x9409: OP_IJMP,
	0x9509: OP_ICALL,
	0x0000: OP_NOP,
}

// Decode the instruction at word address 'pc' of the flash image 'code'.
//
// Decode is pure: the same image and address always give the same result.
func Decode(code []byte, pc int) (inst Instruction, err error) {
	word, err := fetch(code, pc)
	if err != nil {
		return
	}

	d5 := int(word>>4) & 0x1f
	r5 := int(word&0xf) | int(word>>5)&0x10
	d4 := 16 + int(word>>4)&0xf
	k8 := int(word>>4)&0xf0 | int(word&0xf)

	// Second word of LDS, STS, JMP and CALL.
	extra := func() (value int) {
		next, _err := fetch(code, pc+1)
		if _err != nil {
			err = _err
			return
		}
		return int(next)
	}

	if op, ok := miscOps[word]; ok {
		inst.Op = op
		return
	}

	switch {
	case word&0xff00 == 0x0100:
		inst = Instruction{Op: OP_MOVW, Rd: 2 * (int(word>>4) & 0xf), Rr: 2 * int(word&0xf)}
	case word&0xc000 == 0x0000 && aluOps[word>>10] != OP_INVALID:
		inst = Instruction{Op: aluOps[word>>10], Rd: d5, Rr: r5}
	case immOps[word>>12] != OP_INVALID:
		inst = Instruction{Op: immOps[word>>12], Rd: d4, K: k8}
	case word&0xd000 == 0x8000:
		q := int(word>>8)&0x20 | int(word>>7)&0x18 | int(word&0x7)
		store := word&0x0200 != 0
		y := word&0x0008 != 0
		switch {
		case !store && y:
			inst = Instruction{Op: OP_LDD_Y, Rd: d5, Q: q}
		case !store:
			inst = Instruction{Op: OP_LDD_Z, Rd: d5, Q: q}
		case y:
			inst = Instruction{Op: OP_STD_Y, Rr: d5, Q: q}
		default:
			inst = Instruction{Op: OP_STD_Z, Rr: d5, Q: q}
		}
		if q == 0 {
			switch inst.Op {
			case OP_LDD_Y:
				inst.Op = OP_LD_Y
			case OP_LDD_Z:
				inst.Op = OP_LD_Z
			case OP_STD_Y:
				inst.Op = OP_ST_Y
			case OP_STD_Z:
				inst.Op = OP_ST_Z
			}
		}
	case word&0xfe00 == 0x9000 && loadOps[word&0xf] != OP_INVALID:
		inst = Instruction{Op: loadOps[word&0xf], Rd: d5}
		if inst.Op == OP_LDS {
			inst.K = extra()
		}
	case word&0xfe00 == 0x9200 && storeOps[word&0xf] != OP_INVALID:
		inst = Instruction{Op: storeOps[word&0xf], Rr: d5}
		switch inst.Op {
		case OP_STS:
			inst.K = extra()
		case OP_XCH:
			inst.Rd, inst.Rr = d5, 0
		}
	case word&0xfe00 == 0x9400 && unaryOps[word&0xf] != OP_INVALID:
		inst = Instruction{Op: unaryOps[word&0xf], Rd: d5}
	case word&0xfe0c == 0x940c:
		inst = Instruction{Op: OP_JMP}
		if word&0x2 != 0 {
			inst.Op = OP_CALL
		}
		high := int(word>>3)&0x3e | int(word&1)
		inst.K = high<<16 | extra()
	case word&0xff8f == 0x9408:
		inst = Instruction{Op: OP_BSET, B: int(word>>4) & 7}
	case word&0xff8f == 0x9488:
		inst = Instruction{Op: OP_BCLR, B: int(word>>4) & 7}
	case word&0xfe00 == 0x9600:
		inst = Instruction{Op: OP_ADIW, Rd: 24 + 2*(int(word>>4)&3), K: int(word>>2)&0x30 | int(word&0xf)}
		if word&0x0100 != 0 {
			inst.Op = OP_SBIW
		}
	case word&0xfc00 == 0x9800:
		ops := [4]Op{OP_CBI, OP_SBIC, OP_SBI, OP_SBIS}
		inst = Instruction{Op: ops[(word>>8)&3], A: int(word>>3) & 0x1f, B: int(word & 7)}
	case word&0xf000 == 0xb000:
		a := int(word>>5)&0x30 | int(word&0xf)
		if word&0x0800 == 0 {
			inst = Instruction{Op: OP_IN, Rd: d5, A: a}
		} else {
			inst = Instruction{Op: OP_OUT, Rr: d5, A: a}
		}
	case word&0xe000 == 0xc000:
		inst = Instruction{Op: OP_RJMP, K: signExtend(int(word), 12)}
		if word&0x1000 != 0 {
			inst.Op = OP_RCALL
		}
	case word&0xfc00 == 0xf000:
		inst = Instruction{Op: OP_BRBS, K: signExtend(int(word>>3), 7), B: int(word & 7)}
	case word&0xfc00 == 0xf400:
		inst = Instruction{Op: OP_BRBC, K: signExtend(int(word>>3), 7), B: int(word & 7)}
	case word&0xfc08 == 0xf800:
		inst = Instruction{Op: OP_BLD, Rd: d5, B: int(word & 7)}
		if word&0x0200 != 0 {
			inst.Op = OP_BST
		}
	case word&0xfc08 == 0xfc00:
		inst = Instruction{Op: OP_SBRC, Rr: d5, B: int(word & 7)}
		if word&0x0200 != 0 {
			inst.Op = OP_SBRS
		}
	default:
		err = ErrOpcode(word)
	}

	if err != nil {
		inst = Instruction{}
	}

	return
}
