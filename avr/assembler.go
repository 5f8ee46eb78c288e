// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package avr

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/avrmc/internal"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates. I/O addresses are in I/O space (IN, OUT, SBI...);
// add IO_OFFSET for the data space address used by LDS and STS.
var sysEquate = map[string]string{
	"LINENO":    "0",
	"IO_OFFSET": "0x20",
	"SREG":      "0x3f",
	"SPH":       "0x3e",
	"SPL":       "0x3d",
	"PORTB":     "0x18",
	"DDRB":      "0x17",
	"PINB":      "0x16",
	"XL":        "r26",
	"XH":        "r27",
	"YL":        "r28",
	"YH":        "r29",
	"ZL":        "r30",
	"ZH":        "r31",
	"SREG_C":    "0",
	"SREG_Z":    "1",
	"SREG_N":    "2",
	"SREG_V":    "3",
	"SREG_S":    "4",
	"SREG_H":    "5",
	"SREG_T":    "6",
	"SREG_I":    "7",
}

// Assembler is a single pass macro assembler for AVR flash images.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to flash word addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	if len(word) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	equate, ok := asm.Equate[word]
	if ok {
		word = equate
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}

	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	if invert {
		value = ^value
	}

	return
}

// register parses "r0" through "r31".
func (asm *Assembler) register(word string) (reg int, err error) {
	equate, ok := asm.Equate[word]
	if ok {
		word = equate
	}
	word = strings.ToLower(word)
	if !strings.HasPrefix(word, "r") {
		err = ErrRegisterInvalid
		return
	}
	reg, err = strconv.Atoi(word[1:])
	if err != nil || reg < 0 || reg > 31 {
		err = ErrRegisterInvalid
	}
	return
}

// pointer parses an indirect operand: X, X+, -X, Y, Y+, -Y, Y+q, and the
// same for Z. The returned op is the load form.
func (asm *Assembler) pointer(word string) (op Op, q int, err error) {
	upper := strings.ToUpper(word)
	forms := map[string]Op{
		"X": OP_LD_X, "X+": OP_LD_XP, "-X": OP_LD_MX,
		"Y": OP_LD_Y, "Y+": OP_LD_YP, "-Y": OP_LD_MY,
		"Z": OP_LD_Z, "Z+": OP_LD_ZP, "-Z": OP_LD_MZ,
	}
	op, ok := forms[upper]
	if ok {
		return
	}

	switch {
	case strings.HasPrefix(upper, "Y+"):
		op = OP_LDD_Y
	case strings.HasPrefix(upper, "Z+"):
		op = OP_LDD_Z
	default:
		err = ErrPointerInvalid
		return
	}
	q, err = asm.valueOf(word[2:])
	return
}

// storeOf converts a load form to the matching store form.
func storeOf(op Op) Op {
	return op + (OP_ST_X - OP_LD_X)
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key := range asm.Equate {
		var v int
		v, err = asm.valueOf(key)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	for key, ip := range asm.Label {
		pred[key] = starlark.MakeInt(ip)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

var reCharacter = regexp.MustCompile(`'\\?[^']'`)
var reParen = regexp.MustCompile(`\$\([^\$]*\)`)

// splitWords splits a line on spaces and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "0":
				str = "\000"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentIp()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", fmt.Sprintf("%v_%v_", name, lineno))
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentIp gets the current flash word address.
func (asm *Assembler) currentIp() int {
	if len(asm.Opcode) == 0 {
		return 0
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Ip + len(last.Codes)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = make(map[string]string, len(sysEquate)+len(asm.predefine))
	for attr, val := range internal.Concat2(maps.All(sysEquate), maps.All(asm.predefine)) {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}

		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		label := op.LinkLabel
		ip, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		if op.Inst == nil {
			log.Fatalf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
		}
		switch op.Inst.Op {
		case OP_RJMP, OP_RCALL, OP_BRBS, OP_BRBC:
			op.Inst.K = ip - (op.Ip + 1)
		default:
			op.Inst.K = ip
		}
		op.Codes, err = op.Inst.Encode()
		if err != nil {
			return
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// form is the operand layout of a mnemonic.
type form int

const (
	formNone    = form(iota) // no operands
	formRdRr                 // Rd, Rr
	formMovw                 // Rd, Rr (even pairs)
	formRdK                  // Rd, K
	formRd                   // Rd
	formRr                   // Rr
	formWordK                // Rd, K (register pair)
	formRel                  // label or offset
	formAbs                  // label or address
	formBrbx                 // s, label or offset
	formBranch               // label or offset, s implied
	formBit                  // s
	formBitNone              // s implied
	formRdA                  // Rd, A
	formARr                  // A, Rr
	formAB                   // A, b
	formRdB                  // Rd, b
	formRrB                  // Rr, b
	formLd                   // Rd, pointer
	formSt                   // pointer, Rr
	formLds                  // Rd, k
	formSts                  // k, Rr
	formLpm                  // [Rd, Z or Z+]
	formXch                  // Z, Rd
)

type mnemonic struct {
	op   Op
	form form
	bit  int
}

var mnemonics = map[string]mnemonic{
	"nop":   {OP_NOP, formNone, 0},
	"ret":   {OP_RET, formNone, 0},
	"reti":  {OP_RETI, formNone, 0},
	"sleep": {OP_SLEEP, formNone, 0},
	"wdr":   {OP_WDR, formNone, 0},
	"break": {OP_BREAK, formNone, 0},
	"ijmp":  {OP_IJMP, formNone, 0},
	"icall": {OP_ICALL, formNone, 0},
	"add":   {OP_ADD, formRdRr, 0},
	"adc":   {OP_ADC, formRdRr, 0},
	"sub":   {OP_SUB, formRdRr, 0},
	"sbc":   {OP_SBC, formRdRr, 0},
	"and":   {OP_AND, formRdRr, 0},
	"or":    {OP_OR, formRdRr, 0},
	"eor":   {OP_EOR, formRdRr, 0},
	"mov":   {OP_MOV, formRdRr, 0},
	"cp":    {OP_CP, formRdRr, 0},
	"cpc":   {OP_CPC, formRdRr, 0},
	"cpse":  {OP_CPSE, formRdRr, 0},
	"movw":  {OP_MOVW, formMovw, 0},
	"ldi":   {OP_LDI, formRdK, 0},
	"cpi":   {OP_CPI, formRdK, 0},
	"sbci":  {OP_SBCI, formRdK, 0},
	"subi":  {OP_SUBI, formRdK, 0},
	"ori":   {OP_ORI, formRdK, 0},
	"andi":  {OP_ANDI, formRdK, 0},
	"com":   {OP_COM, formRd, 0},
	"neg":   {OP_NEG, formRd, 0},
	"swap":  {OP_SWAP, formRd, 0},
	"inc":   {OP_INC, formRd, 0},
	"dec":   {OP_DEC, formRd, 0},
	"asr":   {OP_ASR, formRd, 0},
	"lsr":   {OP_LSR, formRd, 0},
	"ror":   {OP_ROR, formRd, 0},
	"pop":   {OP_POP, formRd, 0},
	"push":  {OP_PUSH, formRr, 0},
	"adiw":  {OP_ADIW, formWordK, 0},
	"sbiw":  {OP_SBIW, formWordK, 0},
	"rjmp":  {OP_RJMP, formRel, 0},
	"rcall": {OP_RCALL, formRel, 0},
	"jmp":   {OP_JMP, formAbs, 0},
	"call":  {OP_CALL, formAbs, 0},
	"brbs":  {OP_BRBS, formBrbx, 0},
	"brbc":  {OP_BRBC, formBrbx, 0},
	"bset":  {OP_BSET, formBit, 0},
	"bclr":  {OP_BCLR, formBit, 0},
	"in":    {OP_IN, formRdA, 0},
	"out":   {OP_OUT, formARr, 0},
	"cbi":   {OP_CBI, formAB, 0},
	"sbi":   {OP_SBI, formAB, 0},
	"sbic":  {OP_SBIC, formAB, 0},
	"sbis":  {OP_SBIS, formAB, 0},
	"bld":   {OP_BLD, formRdB, 0},
	"bst":   {OP_BST, formRdB, 0},
	"sbrc":  {OP_SBRC, formRrB, 0},
	"sbrs":  {OP_SBRS, formRrB, 0},
	"ld":    {OP_LD_X, formLd, 0},
	"ldd":   {OP_LDD_Y, formLd, 0},
	"st":    {OP_ST_X, formSt, 0},
	"std":   {OP_STD_Y, formSt, 0},
	"lds":   {OP_LDS, formLds, 0},
	"sts":   {OP_STS, formSts, 0},
	"lpm":   {OP_LPM, formLpm, 0},
	"xch":   {OP_XCH, formXch, 0},
	"brlo":  {OP_BRBS, formBranch, SREG_C},
	"brsh":  {OP_BRBC, formBranch, SREG_C},
}

func init() {
	for s := range 8 {
		mnemonics[brbsAlias[s]] = mnemonic{OP_BRBS, formBranch, s}
		mnemonics[brbcAlias[s]] = mnemonic{OP_BRBC, formBranch, s}
		mnemonics[bsetAlias[s]] = mnemonic{OP_BSET, formBitNone, s}
		mnemonics[bclrAlias[s]] = mnemonic{OP_BCLR, formBitNone, s}
	}
}

// argCount is the number of operands each form takes.
var argCount = map[form]int{
	formNone: 0, formRdRr: 2, formMovw: 2, formRdK: 2, formRd: 1, formRr: 1,
	formWordK: 2, formRel: 1, formAbs: 1, formBrbx: 2, formBranch: 1,
	formBit: 1, formBitNone: 0, formRdA: 2, formARr: 2, formAB: 2,
	formRdB: 2, formRrB: 2, formLd: 2, formSt: 2, formLds: 2, formSts: 2,
	formXch: 2,
}

// isLabel is true for words which are symbols rather than numbers.
func isLabel(word string) bool {
	if len(word) == 0 {
		return false
	}
	c := word[0]
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// target parses a jump target: a label to link later, or a number.
func (asm *Assembler) target(word string) (value int, label string, err error) {
	if isLabel(word) {
		_, isEquate := asm.Equate[word]
		if !isEquate {
			label = word
			return
		}
	}
	value, err = asm.valueOf(word)
	return
}

// parseData handles the '.dw' directive.
func (asm *Assembler) parseData(args []string) (codes []uint16, err error) {
	if len(args) == 0 {
		err = ErrOpcodeValueMissing
		return
	}
	for _, arg := range args {
		var value int
		value, err = asm.valueOf(arg)
		if err != nil {
			return
		}
		err = operand("word", value, -0x8000, 0xffff)
		if err != nil {
			return
		}
		codes = append(codes, uint16(value))
	}
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []uint16
	var inst *Instruction
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(codes) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Ip: asm.currentIp(), Words: initial_words, Inst: inst, Codes: codes, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	name := strings.ToLower(words[0])
	args := words[1:]

	if name == ".dw" {
		codes, err = asm.parseData(args)
		return
	}

	// Alternate syntax substitutions
	switch {
	case len(args) == 1 && name == "clr":
		name, args = "eor", []string{args[0], args[0]}
	case len(args) == 1 && name == "tst":
		name, args = "and", []string{args[0], args[0]}
	case len(args) == 1 && name == "lsl":
		name, args = "add", []string{args[0], args[0]}
	case len(args) == 1 && name == "rol":
		name, args = "adc", []string{args[0], args[0]}
	case len(args) == 1 && name == "ser":
		name, args = "ldi", []string{args[0], "0xff"}
	case len(args) == 2 && name == "sbr":
		name = "ori"
	case len(args) == 2 && name == "cbr":
		var value int
		value, err = asm.valueOf(args[1])
		if err != nil {
			return
		}
		name, args = "andi", []string{args[0], fmt.Sprintf("%#x", ^value&0xff)}
	case len(args) == 0 && name == "halt":
		name, args = "rjmp", []string{"-1"}
	default:
		// unchanged
	}

	mn, ok := mnemonics[name]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	if mn.form == formLpm {
		if len(args) != 0 && len(args) != 2 {
			err = ErrOpcodeValueMissing
			return
		}
	} else {
		need := argCount[mn.form]
		if len(args) < need {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > need {
			err = ErrOpcodeExtraArgs
			return
		}
	}

	in := Instruction{Op: mn.op, B: mn.bit}

	reg := func(word string, dst *int) bool {
		if err == nil {
			*dst, err = asm.register(word)
		}
		return err == nil
	}
	num := func(word string, dst *int) bool {
		if err == nil {
			*dst, err = asm.valueOf(word)
		}
		return err == nil
	}

	switch mn.form {
	case formNone, formBitNone:
	case formRdRr, formMovw:
		reg(args[0], &in.Rd)
		reg(args[1], &in.Rr)
	case formRdK:
		reg(args[0], &in.Rd)
		if num(args[1], &in.K) && in.K < 0 && in.K >= -128 {
			in.K &= 0xff
		}
	case formRd:
		reg(args[0], &in.Rd)
	case formRr:
		reg(args[0], &in.Rr)
	case formWordK:
		reg(args[0], &in.Rd)
		num(args[1], &in.K)
	case formRel, formAbs, formBranch:
		in.K, label, err = asm.target(args[0])
	case formBrbx:
		if num(args[0], &in.B) {
			in.K, label, err = asm.target(args[1])
		}
	case formBit:
		num(args[0], &in.B)
	case formRdA:
		reg(args[0], &in.Rd)
		num(args[1], &in.A)
	case formARr:
		num(args[0], &in.A)
		reg(args[1], &in.Rr)
	case formAB:
		num(args[0], &in.A)
		num(args[1], &in.B)
	case formRdB:
		reg(args[0], &in.Rd)
		num(args[1], &in.B)
	case formRrB:
		reg(args[0], &in.Rr)
		num(args[1], &in.B)
	case formLd:
		reg(args[0], &in.Rd)
		if err == nil {
			in.Op, in.Q, err = asm.pointer(args[1])
		}
		if err == nil && (mn.op == OP_LDD_Y) != (in.Op == OP_LDD_Y || in.Op == OP_LDD_Z) {
			err = ErrPointerInvalid
		}
	case formSt:
		var op Op
		op, in.Q, err = asm.pointer(args[0])
		reg(args[1], &in.Rr)
		in.Op = storeOf(op)
		if err == nil && (mn.op == OP_STD_Y) != (op == OP_LDD_Y || op == OP_LDD_Z) {
			err = ErrPointerInvalid
		}
	case formLds:
		reg(args[0], &in.Rd)
		num(args[1], &in.K)
	case formSts:
		num(args[0], &in.K)
		reg(args[1], &in.Rr)
	case formLpm:
		if len(args) == 2 {
			reg(args[0], &in.Rd)
			switch strings.ToUpper(args[1]) {
			case "Z":
				in.Op = OP_LPM_Z
			case "Z+":
				in.Op = OP_LPM_ZP
			default:
				err = ErrPointerInvalid
			}
		}
	case formXch:
		if strings.ToUpper(args[0]) != "Z" {
			err = ErrPointerInvalid
			return
		}
		reg(args[1], &in.Rd)
	}
	if err != nil {
		return
	}

	words_out, err := in.Encode()
	if err != nil {
		return
	}

	inst = &in
	codes = words_out

	return
}
