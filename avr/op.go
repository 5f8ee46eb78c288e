package avr

// Op is a decoded operation.
type Op int

const (
	OP_INVALID = Op(iota) // (invalid)
	OP_ADC                // adc
	OP_ADD                // add
	OP_ADIW               // adiw
	OP_AND                // and
	OP_ANDI               // andi
	OP_ASR                // asr
	OP_BCLR               // bclr
	OP_BLD                // bld
	OP_BRBC               // brbc
	OP_BRBS               // brbs
	OP_BREAK              // break
	OP_BSET               // bset
	OP_BST                // bst
	OP_CALL               // call
	OP_CBI                // cbi
	OP_COM                // com
	OP_CP                 // cp
	OP_CPC                // cpc
	OP_CPI                // cpi
	OP_CPSE               // cpse
	OP_DEC                // dec
	OP_EOR                // eor
	OP_ICALL              // icall
	OP_IJMP               // ijmp
	OP_IN                 // in
	OP_INC                // inc
	OP_JMP                // jmp
	OP_LD_X               // ld X
	OP_LD_XP              // ld X+
	OP_LD_MX              // ld -X
	OP_LD_Y               // ld Y
	OP_LD_YP              // ld Y+
	OP_LD_MY              // ld -Y
	OP_LDD_Y              // ldd Y+q
	OP_LD_Z               // ld Z
	OP_LD_ZP              // ld Z+
	OP_LD_MZ              // ld -Z
	OP_LDD_Z              // ldd Z+q
	OP_LDI                // ldi
	OP_LDS                // lds
	OP_LPM                // lpm
	OP_LPM_Z              // lpm Z
	OP_LPM_ZP             // lpm Z+
	OP_LSR                // lsr
	OP_MOV                // mov
	OP_MOVW               // movw
	OP_NEG                // neg
	OP_NOP                // nop
	OP_OR                 // or
	OP_ORI                // ori
	OP_OUT                // out
	OP_POP                // pop
	OP_PUSH               // push
	OP_RCALL              // rcall
	OP_RET                // ret
	OP_RETI               // reti
	OP_RJMP               // rjmp
	OP_ROR                // ror
	OP_SBC                // sbc
	OP_SBCI               // sbci
	OP_SBI                // sbi
	OP_SBIC               // sbic
	OP_SBIS               // sbis
	OP_SBIW               // sbiw
	OP_SBRC               // sbrc
	OP_SBRS               // sbrs
	OP_SLEEP              // sleep
	OP_ST_X               // st X
	OP_ST_XP              // st X+
	OP_ST_MX              // st -X
	OP_ST_Y               // st Y
	OP_ST_YP              // st Y+
	OP_ST_MY              // st -Y
	OP_STD_Y              // std Y+q
	OP_ST_Z               // st Z
	OP_ST_ZP              // st Z+
	OP_ST_MZ              // st -Z
	OP_STD_Z              // std Z+q
	OP_STS                // sts
	OP_SUB                // sub
	OP_SUBI               // subi
	OP_SWAP               // swap
	OP_WDR                // wdr
	OP_XCH                // xch
	opCount
)

var opNames = [opCount]string{
	"(invalid)", "adc", "add", "adiw", "and", "andi", "asr", "bclr", "bld",
	"brbc", "brbs", "break", "bset", "bst", "call", "cbi", "com", "cp", "cpc",
	"cpi", "cpse", "dec", "eor", "icall", "ijmp", "in", "inc", "jmp",
	"ld", "ld", "ld", "ld", "ld", "ld", "ldd", "ld", "ld", "ld", "ldd",
	"ldi", "lds", "lpm", "lpm", "lpm", "lsr", "mov", "movw", "neg", "nop",
	"or", "ori", "out", "pop", "push", "rcall", "ret", "reti", "rjmp", "ror",
	"sbc", "sbci", "sbi", "sbic", "sbis", "sbiw", "sbrc", "sbrs", "sleep",
	"st", "st", "st", "st", "st", "st", "std", "st", "st", "st", "std",
	"sts", "sub", "subi", "swap", "wdr", "xch",
}

// String returns the base mnemonic.
func (op Op) String() string {
	if op < 0 || op >= opCount {
		return opNames[OP_INVALID]
	}
	return opNames[op]
}

// SREG bit indexes, as used by BRBS, BRBC, BSET and BCLR.
const (
	SREG_C = 0 // carry
	SREG_Z = 1 // zero
	SREG_N = 2 // negative
	SREG_V = 3 // two's complement overflow
	SREG_S = 4 // sign
	SREG_H = 5 // half carry
	SREG_T = 6 // transfer
	SREG_I = 7 // interrupt enable
)

var brbsAlias = [8]string{"brcs", "breq", "brmi", "brvs", "brlt", "brhs", "brts", "brie"}
var brbcAlias = [8]string{"brcc", "brne", "brpl", "brvc", "brge", "brhc", "brtc", "brid"}
var bsetAlias = [8]string{"sec", "sez", "sen", "sev", "ses", "seh", "set", "sei"}
var bclrAlias = [8]string{"clc", "clz", "cln", "clv", "cls", "clh", "clt", "cli"}

// Pointer register pairs.
const (
	REG_X = 26
	REG_Y = 28
	REG_Z = 30
)

// Pointer returns the pointer register pair used by an indirect load or
// store, and the pre-decrement (-1), post-increment (+1) or displacement (0)
// adjustment applied to it. ok is false for other operations.
func (op Op) Pointer() (reg int, adjust int, ok bool) {
	switch op {
	case OP_LD_X, OP_ST_X:
		return REG_X, 0, true
	case OP_LD_XP, OP_ST_XP:
		return REG_X, 1, true
	case OP_LD_MX, OP_ST_MX:
		return REG_X, -1, true
	case OP_LD_Y, OP_ST_Y, OP_LDD_Y, OP_STD_Y:
		return REG_Y, 0, true
	case OP_LD_YP, OP_ST_YP:
		return REG_Y, 1, true
	case OP_LD_MY, OP_ST_MY:
		return REG_Y, -1, true
	case OP_LD_Z, OP_ST_Z, OP_LDD_Z, OP_STD_Z:
		return REG_Z, 0, true
	case OP_LD_ZP, OP_ST_ZP:
		return REG_Z, 1, true
	case OP_LD_MZ, OP_ST_MZ:
		return REG_Z, -1, true
	}
	return
}

// IsStore is true for the indirect store forms.
func (op Op) IsStore() bool {
	return op >= OP_ST_X && op <= OP_STD_Z
}

// IsLoad is true for the indirect load forms.
func (op Op) IsLoad() bool {
	return op >= OP_LD_X && op <= OP_LDD_Z
}
