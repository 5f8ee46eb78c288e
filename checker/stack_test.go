package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[int]{}
	assert.True(s.Empty())

	s.Push(0x1234)
	assert.False(s.Empty())
	assert.Equal(1, s.Len())
	assert.Equal(0x1234, s.Data[0])
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[string]{}
	s.Push("a")
	s.Push("b")

	val, ok := s.Pop()
	assert.True(ok)
	assert.Equal("b", val)
	assert.Equal(1, s.Len())

	val, ok = s.Pop()
	assert.True(ok)
	assert.Equal("a", val)
	assert.True(s.Empty())

	val, ok = s.Pop()
	assert.False(ok)
	assert.Equal("", val)
	assert.Equal(2, s.Peak)
}

func TestStack_Peek(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[int]{}
	_, ok := s.Peek()
	assert.False(ok)

	s.Push(1)
	s.Push(2)
	val, ok := s.Peek()
	assert.True(ok)
	assert.Equal(2, val)
	assert.Equal(2, s.Len())
}

func TestStack_Reset(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[int]{}
	s.Push(1)
	s.Push(2)
	s.Pop()
	s.Push(3)
	assert.Equal(2, s.Peak)

	s.Reset()
	assert.True(s.Empty())
	assert.Equal(0, s.Peak)
}
