// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package analysis binds firmware, a machine configuration and a model
// checker run together, reporting failures against the program listing.
package analysis

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"

	"github.com/ezrec/avrmc/abstract"
	"github.com/ezrec/avrmc/avr"
	"github.com/ezrec/avrmc/checker"
	"github.com/ezrec/avrmc/internal"
	avrio "github.com/ezrec/avrmc/io"
	"github.com/ezrec/avrmc/machine"
)

const (
	FLASH_SIZE = 8192  // ATtiny85 flash, in bytes.
	DATA_SIZE  = 0x260 // Registers, I/O and 512 bytes of SRAM.
)

var _analyzer_defines = map[string]string{
	"FLASHEND": fmt.Sprintf("0x%x", FLASH_SIZE-1),
	"RAMEND":   fmt.Sprintf("0x%x", DATA_SIZE-1),
}

// Analyzer state. Firmware + machine configuration.
type Analyzer struct {
	Verbose    bool              // If set, enables verbose logging.
	Program    *avr.Program      // Program listing, if assembled from source.
	Rom        *avrio.Rom        // Firmware image.
	CodeSize   int               // Flash size, in bytes.
	DataSize   int               // Data memory size, in bytes.
	StackTop   int               // Initial stack pointer.
	Interrupts []avrio.Interrupt // Interrupt sources, from vector 1 on.
}

// NewAnalyzer creates an analyzer for an ATtiny85 sized part.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		CodeSize: FLASH_SIZE,
		DataSize: DATA_SIZE,
		StackTop: DATA_SIZE - 1,
	}
}

// Defines returns an iterator over the equates predefined for assembly.
func (an *Analyzer) Defines() iter.Seq2[string, string] {
	return maps.All(_analyzer_defines)
}

// Assemble loads firmware from assembler source.
func (an *Analyzer) Assemble(r io.Reader) (err error) {
	asm := &avr.Assembler{Verbose: an.Verbose}
	for equ, value := range an.Defines() {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Parse(r)
	if err != nil {
		return
	}

	an.Program = prog
	an.Rom = &avrio.Rom{Data: prog.Binary()}
	return
}

// LoadHex loads firmware from an Intel HEX image. There is no listing.
func (an *Analyzer) LoadHex(r io.Reader) (err error) {
	rom, err := avrio.ParseHex(r)
	if err != nil {
		return
	}

	an.Program = nil
	an.Rom = rom
	return
}

// Sources returns the interrupt sources by vector. Vector 0 is the reset
// vector, and never interrupts.
func (an *Analyzer) Sources() iter.Seq[avrio.Interrupt] {
	return internal.Concat(
		slices.Values([]avrio.Interrupt{avrio.Never{}}),
		slices.Values(an.Interrupts),
	)
}

// Seed creates the initial machine state: firmware in flash, stack pointer
// at StackTop, every other byte zero.
func (an *Analyzer) Seed() (seed *machine.State, err error) {
	if an.Rom == nil {
		err = ErrFirmwareMissing
		return
	}

	if len(an.Rom.Data) > an.CodeSize {
		err = fmt.Errorf("%w: %v > %v", ErrFirmwareSize, len(an.Rom.Data), an.CodeSize)
		return
	}

	seed = machine.New(an.CodeSize, an.DataSize, slices.Collect(an.Sources())...)
	an.Rom.UploadTo(seed.Code())

	if an.DataSize > machine.SPH_ADDRESS {
		seed.WriteWord(machine.SPL_ADDRESS, abstract.WordOf(uint16(an.StackTop)))
	}

	return
}

// LineNo returns the source line of flash word 'ip', or 0 if unknown.
func (an *Analyzer) LineNo(ip int) int {
	if an.Program == nil {
		return 0
	}

	dbg := an.Program.Debug(ip)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// runtimeError locates a checker failure in the program listing.
func (an *Analyzer) runtimeError(err error) error {
	ip := -1

	var unknown *machine.ErrUnknownAddress
	var outside *machine.ErrAddressRange
	switch {
	case errors.As(err, &unknown):
		ip = unknown.Pc
	case errors.As(err, &outside):
		ip = outside.Pc
	}

	lineno := 0
	if ip >= 0 {
		lineno = an.LineNo(ip)
	}

	return &ErrRuntime{LineNo: lineno, Ip: ip, Err: err}
}

// Check runs the model checker of 'prop' from the seed state. 'configure',
// if not nil, may set the checker's options before the run.
func Check[T any](an *Analyzer, prop checker.Property[T], configure func(mc *checker.Checker[T])) (value T, stats checker.Stats, err error) {
	seed, err := an.Seed()
	if err != nil {
		return
	}

	mc := checker.New(prop)
	mc.Verbose = an.Verbose
	if configure != nil {
		configure(mc)
	}

	value, err = mc.Apply(seed)
	stats = mc.Stats

	if err != nil && !errors.Is(err, checker.ErrBudget) {
		err = an.runtimeError(err)
	}

	return
}
