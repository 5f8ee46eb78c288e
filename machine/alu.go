package machine

import (
	"github.com/ezrec/avrmc/abstract"
	"github.com/ezrec/avrmc/avr"
)

// Status flag indices.
const (
	C = avr.SREG_C
	Z = avr.SREG_Z
	N = avr.SREG_N
	V = avr.SREG_V
	S = avr.SREG_S
	H = avr.SREG_H
	T = avr.SREG_T
	I = avr.SREG_I
)

// carryByte is the carry flag as an addend.
func carryByte(carry abstract.Bit) abstract.Byte {
	switch carry {
	case abstract.True:
		return abstract.ByteOf(1)
	case abstract.False:
		return abstract.ByteOf(0)
	}
	return abstract.UnknownByte
}

// addFlags sets H, S, V, N, Z and C after R = Rd + Rr (+ C).
func (s *State) addFlags(rd, rr, r abstract.Byte) {
	rd3, rr3, r3 := rd.Get(3), rr.Get(3), r.Get(3)
	rd7, rr7, r7 := rd.Get(7), rr.Get(7), r.Get(7)

	s.sreg[H] = abstract.Or(abstract.And(rd3, rr3), abstract.And(rr3, abstract.Not(r3)), abstract.And(abstract.Not(r3), rd3))
	s.sreg[V] = abstract.Or(abstract.And(rd7, rr7, abstract.Not(r7)), abstract.And(abstract.Not(rd7), abstract.Not(rr7), r7))
	s.sreg[N] = r7
	s.sreg[S] = abstract.Xor(s.sreg[N], s.sreg[V])
	s.sreg[Z] = r.IsZero()
	s.sreg[C] = abstract.Or(abstract.And(rd7, rr7), abstract.And(rr7, abstract.Not(r7)), abstract.And(abstract.Not(r7), rd7))
}

// subFlags sets H, S, V, N, Z and C after R = Rd - Rr (- C). With 'chain'
// set, Z is only kept set if it already was, for multi-byte compares.
func (s *State) subFlags(rd, rr, r abstract.Byte, chain bool) {
	rd3, rr3, r3 := rd.Get(3), rr.Get(3), r.Get(3)
	rd7, rr7, r7 := rd.Get(7), rr.Get(7), r.Get(7)

	s.sreg[H] = abstract.Or(abstract.And(abstract.Not(rd3), rr3), abstract.And(rr3, r3), abstract.And(r3, abstract.Not(rd3)))
	s.sreg[V] = abstract.Or(abstract.And(rd7, abstract.Not(rr7), abstract.Not(r7)), abstract.And(abstract.Not(rd7), rr7, r7))
	s.sreg[N] = r7
	s.sreg[S] = abstract.Xor(s.sreg[N], s.sreg[V])
	if chain {
		s.sreg[Z] = abstract.And(r.IsZero(), s.sreg[Z])
	} else {
		s.sreg[Z] = r.IsZero()
	}
	s.sreg[C] = abstract.Or(abstract.And(abstract.Not(rd7), rr7), abstract.And(rr7, r7), abstract.And(r7, abstract.Not(rd7)))
}

// logicFlags sets S, V, N and Z after a logical operation.
func (s *State) logicFlags(r abstract.Byte) {
	s.sreg[V] = abstract.False
	s.sreg[N] = r.Get(7)
	s.sreg[S] = s.sreg[N]
	s.sreg[Z] = r.IsZero()
}

// shiftFlags sets S, V, N, Z and C after a right shift of Rd into R.
func (s *State) shiftFlags(rd, r abstract.Byte) {
	s.sreg[C] = rd.Get(0)
	s.sreg[N] = r.Get(7)
	s.sreg[V] = abstract.Xor(s.sreg[N], s.sreg[C])
	s.sreg[S] = abstract.Xor(s.sreg[N], s.sreg[V])
	s.sreg[Z] = r.IsZero()
}

// alu executes the register arithmetic and logic instructions. 'ok' is false
// for other instructions.
func (s *State) alu(inst avr.Instruction) (ok bool) {
	rd := s.data.Read(inst.Rd)
	rr := s.data.Read(inst.Rr)
	k := abstract.ByteOf(uint8(inst.K))

	var r abstract.Byte
	write := true

	switch inst.Op {
	case avr.OP_ADD:
		r = rd.Add(rr)
		s.addFlags(rd, rr, r)
	case avr.OP_ADC:
		r = rd.Add(rr).Add(carryByte(s.sreg[C]))
		s.addFlags(rd, rr, r)
	case avr.OP_SUB:
		r = rd.Sub(rr)
		s.subFlags(rd, rr, r, false)
	case avr.OP_SUBI:
		r = rd.Sub(k)
		s.subFlags(rd, k, r, false)
	case avr.OP_SBC:
		r = rd.Sub(rr).Sub(carryByte(s.sreg[C]))
		s.subFlags(rd, rr, r, true)
	case avr.OP_SBCI:
		r = rd.Sub(k).Sub(carryByte(s.sreg[C]))
		s.subFlags(rd, k, r, true)
	case avr.OP_CP:
		write = false
		s.subFlags(rd, rr, rd.Sub(rr), false)
	case avr.OP_CPI:
		write = false
		s.subFlags(rd, k, rd.Sub(k), false)
	case avr.OP_CPC:
		write = false
		s.subFlags(rd, rr, rd.Sub(rr).Sub(carryByte(s.sreg[C])), true)
	case avr.OP_AND:
		r = rd.And(rr)
		s.logicFlags(r)
	case avr.OP_ANDI:
		r = rd.And(k)
		s.logicFlags(r)
	case avr.OP_OR:
		r = rd.Or(rr)
		s.logicFlags(r)
	case avr.OP_ORI:
		r = rd.Or(k)
		s.logicFlags(r)
	case avr.OP_EOR:
		r = rd.Xor(rr)
		s.logicFlags(r)
	case avr.OP_COM:
		r = rd.Inv()
		s.logicFlags(r)
		s.sreg[C] = abstract.True
	case avr.OP_NEG:
		r = rd.Neg()
		s.sreg[H] = abstract.Or(r.Get(3), rd.Get(3))
		s.sreg[V] = r.IsLeast()
		s.sreg[N] = r.Get(7)
		s.sreg[S] = abstract.Xor(s.sreg[N], s.sreg[V])
		s.sreg[Z] = r.IsZero()
		s.sreg[C] = r.IsNotZero()
	case avr.OP_INC:
		r = rd.Inc()
		s.sreg[V] = r.IsLeast()
		s.sreg[N] = r.Get(7)
		s.sreg[S] = abstract.Xor(s.sreg[N], s.sreg[V])
		s.sreg[Z] = r.IsZero()
	case avr.OP_DEC:
		r = rd.Dec()
		s.sreg[V] = rd.IsLeast()
		s.sreg[N] = r.Get(7)
		s.sreg[S] = abstract.Xor(s.sreg[N], s.sreg[V])
		s.sreg[Z] = r.IsZero()
	case avr.OP_ASR:
		r = rd.Shr(1)
		s.shiftFlags(rd, r)
	case avr.OP_LSR:
		r = rd.Ushr(1)
		s.shiftFlags(rd, r)
		s.sreg[N] = abstract.False
		s.sreg[V] = s.sreg[C]
		s.sreg[S] = s.sreg[V]
	case avr.OP_ROR:
		r = rd.Ushr(1).SetBit(7, s.sreg[C])
		s.shiftFlags(rd, r)
	case avr.OP_SWAP:
		r = rd.Swap()
	case avr.OP_MOV:
		r = rr
	case avr.OP_LDI:
		r = k
	case avr.OP_MOVW:
		write = false
		s.WriteWord(inst.Rd, s.ReadWord(inst.Rr))
	case avr.OP_ADIW, avr.OP_SBIW:
		write = false
		rdw := s.ReadWord(inst.Rd)
		delta := inst.K
		if inst.Op == avr.OP_SBIW {
			delta = -delta
		}
		rw := rdw.AddInt(delta)
		rdh7, r15 := rdw.Get(15), rw.Get(15)
		if inst.Op == avr.OP_ADIW {
			s.sreg[V] = abstract.And(abstract.Not(rdh7), r15)
			s.sreg[C] = abstract.And(abstract.Not(r15), rdh7)
		} else {
			s.sreg[V] = abstract.And(rdh7, abstract.Not(r15))
			s.sreg[C] = abstract.And(r15, abstract.Not(rdh7))
		}
		s.sreg[N] = r15
		s.sreg[S] = abstract.Xor(s.sreg[N], s.sreg[V])
		s.sreg[Z] = rw.IsZero()
		s.WriteWord(inst.Rd, rw)
	case avr.OP_BST:
		write = false
		s.sreg[T] = rd.Get(inst.B)
	case avr.OP_BLD:
		r = rd.SetBit(inst.B, s.sreg[T])
	case avr.OP_BSET:
		write = false
		s.sreg[inst.B] = abstract.True
	case avr.OP_BCLR:
		write = false
		s.sreg[inst.B] = abstract.False
	default:
		return false
	}

	if write {
		s.data.Write(inst.Rd, r)
	}

	s.pc += inst.Width()
	return true
}
