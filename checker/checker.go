// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package checker

import (
	"errors"
	"log"

	"github.com/ezrec/avrmc/abstract"
	"github.com/ezrec/avrmc/machine"
)

const (
	IO_PORT_DEFAULT = machine.IO_OFFSET + 0x16 // PINB
)

// Property is a value computed over every explored state.
type Property[T any] interface {
	// Map computes the value of a single state.
	Map(state *machine.State) T
	// Join folds two values together. It must be associative and
	// commutative.
	Join(left, right T) T
}

// Checker is a model checker of a property.
type Checker[T any] struct {
	Verbose       bool  // If set, logs forks, halts, duplicates and prunes.
	IoPorts       []int // Data addresses reset to Unknown before every step.
	StepLimit     int   // Maximum instructions clocked, if non-zero.
	StateLimit    int   // Maximum state snapshots stored, if non-zero.
	PruneFailures bool  // If set, a runtime failure drops only its branch.
	Stats         Stats // Statistics of the last Apply.

	property Property[T]
}

// New creates a checker of 'property'.
func New[T any](property Property[T]) *Checker[T] {
	return &Checker[T]{
		IoPorts:  []int{IO_PORT_DEFAULT},
		property: property,
	}
}

// resetPorts makes the I/O ports Unknown.
func (c *Checker[T]) resetPorts(state *machine.State) {
	data := state.Data()
	for _, address := range c.IoPorts {
		if address >= 0 && address < data.Size() {
			data.Write(address, abstract.UnknownByte)
		}
	}
}

// exhausted checks the budget.
func (c *Checker[T]) exhausted(seen *visited) bool {
	if c.StepLimit > 0 && c.Stats.Steps >= c.StepLimit {
		return true
	}
	if c.StateLimit > 0 && seen.states >= c.StateLimit {
		return true
	}
	return false
}

// Apply explores every state reachable from 'seed', and returns the join of
// the property over all of them.
//
// The seed is owned by the checker for the duration of the call. When the
// budget runs out, the value folded so far is returned with ErrBudget.
func (c *Checker[T]) Apply(seed *machine.State) (value T, err error) {
	seen := newVisited()
	work := &Stack[*machine.State]{}

	c.Stats = Stats{pcs: seen.pcs}
	defer func() {
		c.Stats.States = seen.states
		c.Stats.Peak = work.Peak
	}()

	value = c.property.Map(seed)
	work.Push(seed)

	for !work.Empty() {
		state, _ := work.Pop()

		for {
			if c.exhausted(seen) {
				err = ErrBudget
				return
			}

			c.resetPorts(state)
			fork, stepErr := state.Clock()
			c.Stats.Steps++

			if fork != nil {
				c.Stats.Forks++
				if seen.seen(fork) {
					c.Stats.Duplicates++
					if c.Verbose {
						log.Printf("duplicate fork: %v", fork)
					}
					fork = nil
				} else if c.Verbose {
					log.Printf("fork: %v", fork)
				}
			}

			if stepErr != nil {
				var halted *machine.ErrHalted
				switch {
				case errors.As(stepErr, &halted):
					c.Stats.Halts++
					if c.Verbose {
						log.Printf("halt: %v", halted.Code)
					}
					value = c.property.Join(value, c.property.Map(state))
				case c.PruneFailures:
					c.Stats.Pruned++
					if c.Verbose {
						log.Printf("prune: %v", stepErr)
					}
				default:
					err = stepErr
					return
				}
				if fork != nil {
					work.Push(fork)
				}
				break
			}

			if seen.seen(state) {
				c.Stats.Duplicates++
				if c.Verbose {
					log.Printf("duplicate: %v", state)
				}
				if fork != nil {
					work.Push(fork)
				}
				break
			}

			value = c.property.Join(value, c.property.Map(state))

			if fork != nil {
				work.Push(state)
				work.Push(fork)
				break
			}
		}
	}

	return
}
