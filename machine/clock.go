package machine

import (
	"errors"
	"log"

	"github.com/ezrec/avrmc/abstract"
	"github.com/ezrec/avrmc/avr"
)

// instruction returns the decoded instruction at 'pc', from the shared
// decode cache.
func (s *State) instruction(pc int) (inst avr.Instruction, err error) {
	inst, ok := s.decoded[pc]
	if ok {
		return
	}

	inst, err = avr.Decode(s.code, pc)
	if err != nil {
		err = errors.Join(ErrDecode, err)
		return
	}

	s.decoded[pc] = inst
	return
}

// interrupt polls the interrupt sources. A taken interrupt pushes the
// return address, clears I and vectors to the source's index.
//
// When I is Unknown and a source is active, 'fork' is the successor in
// which the interrupt was not taken.
func (s *State) interrupt() (fork *State, err error) {
	if s.sreg[I] == abstract.False {
		return
	}

	for index, irq := range s.interrupts {
		if !irq.Get() {
			continue
		}

		if s.sreg[I] == abstract.Unknown {
			s.sreg[I] = abstract.False
			fork = s.Clone()
		}

		irq.Clear()
		s.sreg[I] = abstract.False
		err = s.pushReturn(s.pc)
		if err != nil {
			return
		}
		s.pc = index
		return
	}

	return
}

// halt stops the machine, latching r25:r24 as the exit code.
func (s *State) halt() error {
	s.exit = s.ReadWord(R24_ADDRESS)
	s.pc = -1
	return &ErrHalted{Code: s.exit}
}

// Clock executes one step: an interrupt dispatch, then one instruction.
//
// When the step depended on an Unknown bit, the state is split: 'fork' is
// the other successor, and this state has been advanced as the first.
// A halt is reported as an *ErrHalted.
func (s *State) Clock() (fork *State, err error) {
	if s.IsHalted() {
		err = &ErrHalted{Code: s.exit}
		return
	}

	fork, err = s.interrupt()
	if fork != nil || err != nil {
		return
	}

	inst, err := s.instruction(s.pc)
	if err != nil {
		return
	}

	if s.alu(inst) {
		return
	}

	return s.execute(inst)
}

// Run clocks until the machine halts or fails, following only the first
// successor of every fork. Forks are logged when 'verbose' is set.
func (s *State) Run(limit int, verbose bool) (err error) {
	for step := 0; limit == 0 || step < limit; step++ {
		var fork *State
		fork, err = s.Clock()
		if fork != nil && verbose {
			log.Printf("fork: %v", fork)
		}
		if err != nil {
			return
		}
	}
	return
}
