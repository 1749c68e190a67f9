package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteQueue_PushPop(t *testing.T) {
	q := NewByteQueue(4)
	q.Push([]byte{0x01, 0x02, 0x03})
	q.Push([]byte{0x04})
	assert.Equal(t, 4, q.Len())

	data, err := q.Pop(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, data)

	data, err = q.Pop(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x03}, data)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 4, q.Size())
}

func TestByteQueue_Underflow(t *testing.T) {
	q := NewByteQueue(0)
	q.Push([]byte{0xAA, 0xBB})

	_, err := q.Pop(3)
	require.ErrorIs(t, err, ErrUnderflow)
	assert.Equal(t, 2, q.Len(), "failed pop must not consume")

	_, err = q.PeekByte(2)
	require.ErrorIs(t, err, ErrUnderflow)

	_, err = q.Pop(-1)
	require.Error(t, err)
}

func TestByteQueue_MarkReset(t *testing.T) {
	q := NewByteQueue(8)
	q.Push([]byte{0x01, 0x02, 0x03, 0x04})

	require.ErrorIs(t, q.Reset(), ErrNoMark)

	_, err := q.Pop(1)
	require.NoError(t, err)

	q.Mark()
	assert.True(t, q.HasMark())

	_, err = q.Pop(2)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	require.NoError(t, q.Reset())
	assert.Equal(t, 3, q.Len())
	assert.True(t, q.HasMark(), "reset keeps the mark")

	next, err := q.Peek(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x03, 0x04}, next)
}

func TestByteQueue_Commit(t *testing.T) {
	q := NewByteQueue(8)
	q.Push([]byte{0x01, 0x02, 0x03, 0x04})
	q.Mark()

	_, err := q.Pop(3)
	require.NoError(t, err)

	q.Commit()
	assert.False(t, q.HasMark())
	assert.Equal(t, 1, q.Size())
	require.ErrorIs(t, q.Reset(), ErrNoMark)

	q.Push([]byte{0x05})
	rest, err := q.Pop(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x05}, rest)
}

func TestByteQueue_PopReturnsCopy(t *testing.T) {
	q := NewByteQueue(8)
	q.Push([]byte{0x01, 0x02, 0x03})

	first, err := q.Pop(1)
	require.NoError(t, err)
	q.Commit()
	q.Push([]byte{0xFF})

	assert.Equal(t, []byte{0x01}, first)
}

func TestByteQueue_Clear(t *testing.T) {
	q := NewByteQueue(8)
	q.Push([]byte{0x01, 0x02})
	q.Mark()
	q.Clear()

	assert.Zero(t, q.Len())
	assert.Zero(t, q.Size())
	assert.False(t, q.HasMark())
}
