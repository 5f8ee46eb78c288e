// Package property provides stock properties for the model checker.
package property

import (
	"math"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/ezrec/avrmc/abstract"
	"github.com/ezrec/avrmc/machine"
)

const (
	EXIT_UNKNOWN = -1 // Exit code of a halt with an Unknown r25:r24.
)

// Func adapts a pair of functions to a property.
type Func[T any] struct {
	MapFunc  func(state *machine.State) T
	JoinFunc func(left, right T) T
}

func (fn Func[T]) Map(state *machine.State) T {
	return fn.MapFunc(state)
}

func (fn Func[T]) Join(left, right T) T {
	return fn.JoinFunc(left, right)
}

// Constant maps every state to zero.
type Constant struct{}

func (Constant) Map(state *machine.State) int {
	return 0
}

func (Constant) Join(left, right int) int {
	return max(left, right)
}

// StackDepth is the greatest number of bytes pushed below Top. An Unknown
// stack pointer has an unbounded depth.
type StackDepth struct {
	Top int
}

func (sd StackDepth) Map(state *machine.State) int {
	sp := state.StackPointer()
	if sp.IsUnknown() {
		return math.MaxInt
	}
	return sd.Top - int(sp.Uint16())
}

func (sd StackDepth) Join(left, right int) int {
	return max(left, right)
}

// ExitCodes collects the exit codes of every halted state.
type ExitCodes struct{}

// Codes is a set of exit codes.
type Codes map[int]struct{}

// Sorted lists the codes in ascending order.
func (codes Codes) Sorted() (list []int) {
	list = maps.Keys(codes)
	slices.Sort(list)
	return
}

func (ExitCodes) Map(state *machine.State) (codes Codes) {
	if !state.IsHalted() {
		return
	}

	code := state.ExitCode()
	if code.IsUnknown() {
		return Codes{EXIT_UNKNOWN: {}}
	}
	return Codes{int(code.Uint16()): {}}
}

func (ExitCodes) Join(left, right Codes) (codes Codes) {
	switch {
	case len(right) == 0:
		return left
	case len(left) == 0:
		return right
	}

	codes = maps.Clone(left)
	maps.Copy(codes, right)
	return
}

// Reaches is true if any state sits at program counter Pc.
type Reaches struct {
	Pc int
}

func (re Reaches) Map(state *machine.State) bool {
	return state.PC() == re.Pc
}

func (re Reaches) Join(left, right bool) bool {
	return left || right
}

// AssertionFailed is True if some state has a non-zero byte at Address,
// Unknown if some state may have.
type AssertionFailed struct {
	Address int
}

func (af AssertionFailed) Map(state *machine.State) abstract.Bit {
	data := state.Data()
	if af.Address < 0 || af.Address >= data.Size() {
		return abstract.False
	}
	return data.Read(af.Address).IsNotZero()
}

func (af AssertionFailed) Join(left, right abstract.Bit) abstract.Bit {
	return abstract.Or(left, right)
}
