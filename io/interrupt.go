// Package io provides the collaborators of the AVR machine model: interrupt
// sources, and flash images loaded from assembler output or Intel HEX files.
package io

// Interrupt is an interrupt source. Sources are shared by every explored
// machine state.
type Interrupt interface {
	// Get returns true while the interrupt is asserted.
	Get() bool
	// Clear acknowledges the interrupt.
	Clear()
}

// Line is a level interrupt, asserted from Raise until Clear.
type Line struct {
	raised bool
}

var _ Interrupt = (*Line)(nil)

func (line *Line) Raise() {
	line.raised = true
}

func (line *Line) Get() bool {
	return line.raised
}

func (line *Line) Clear() {
	line.raised = false
}

// Queue is an interrupt asserted once per pending pulse.
type Queue struct {
	Pending int
}

var _ Interrupt = (*Queue)(nil)

// Pulse queues 'count' more interrupts.
func (queue *Queue) Pulse(count int) {
	queue.Pending += count
}

func (queue *Queue) Get() bool {
	return queue.Pending > 0
}

func (queue *Queue) Clear() {
	if queue.Pending > 0 {
		queue.Pending--
	}
}

// Never is an interrupt which is never asserted, for unused vectors.
type Never struct{}

var _ Interrupt = Never{}

func (Never) Get() bool {
	return false
}

func (Never) Clear() {
}
