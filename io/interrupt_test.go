package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLine(t *testing.T) {
	assert := assert.New(t)

	line := &Line{}
	assert.False(line.Get())
	line.Raise()
	assert.True(line.Get())
	assert.True(line.Get())
	line.Clear()
	assert.False(line.Get())
}

func TestQueue(t *testing.T) {
	assert := assert.New(t)

	queue := &Queue{}
	assert.False(queue.Get())

	queue.Pulse(2)
	assert.True(queue.Get())
	queue.Clear()
	assert.True(queue.Get())
	queue.Clear()
	assert.False(queue.Get())
	queue.Clear()
	assert.Equal(0, queue.Pending)
}

func TestNever(t *testing.T) {
	assert := assert.New(t)

	var irq Interrupt = Never{}
	assert.False(irq.Get())
	irq.Clear()
	assert.False(irq.Get())
}
