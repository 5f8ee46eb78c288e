package avr

import (
	"iter"
)

// Opcode represents a line of assembled code with its source location and
// generated flash words.
type Opcode struct {
	LineNo    int
	Ip        int          // Flash word address.
	Words     []string     // Source words.
	Inst      *Instruction // Instruction, or nil for data words.
	Codes     []uint16     // Encoded flash words.
	LinkLabel string       // Target label resolved by the link pass.
}

type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Debug finds the opcode covering flash word address 'ip'.
func (prog *Program) Debug(ip int) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if ip >= op.Ip && ip < op.Ip+len(op.Codes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  ip - op.Ip,
			}
			break
		}
	}

	return
}

// Binary returns the little-endian flash image.
func (prog *Program) Binary() (bins []byte) {
	for ip, code := range prog.Codes() {
		for len(bins) < 2*ip {
			bins = append(bins, 0xff)
		}
		bins = append(bins, uint8(code), uint8(code>>8))
	}

	return
}

// Codes iterates over the flash words by address.
func (prog *Program) Codes() iter.Seq2[int, uint16] {
	return func(yield func(ip int, code uint16) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Ip+n, code) {
					return
				}
			}
		}
	}
}
