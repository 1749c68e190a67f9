package queue

import (
	"errors"
	"fmt"
)

var (
	// ErrUnderflow is returned when fewer bytes are buffered than requested.
	// A parser treats it as "frame incomplete", not as a hard failure.
	ErrUnderflow = errors.New("queue: buffer underflow")

	// ErrNoMark is returned by Reset when no mark is active.
	ErrNoMark = errors.New("queue: no mark set")
)

const noMark = -1

// ByteQueue is a growable byte buffer with a read cursor and a single
// mark/reset checkpoint for speculative parsing.
//
// Bytes consumed by Pop stay in the buffer until Commit, so a parser can
// Mark, consume a partial frame, and Reset back when the frame turns out to
// be incomplete.
//
// ByteQueue is not goroutine-safe; its owner must confine it to one goroutine.
type ByteQueue struct {
	buf  []byte
	pos  int
	mark int
}

// NewByteQueue creates a ByteQueue with prealloc bytes of capacity.
func NewByteQueue(prealloc int) *ByteQueue {
	return &ByteQueue{buf: make([]byte, 0, prealloc), mark: noMark}
}

// Push appends data to the tail of the queue.
func (q *ByteQueue) Push(data []byte) {
	q.buf = append(q.buf, data...)
}

// Pop consumes and returns the next n bytes.
//
// When fewer than n bytes are available nothing is consumed and the error
// wraps ErrUnderflow.
func (q *ByteQueue) Pop(n int) ([]byte, error) {
	out, err := q.Peek(n)
	if err != nil {
		return nil, err
	}
	q.pos += n

	return out, nil
}

// Peek returns a copy of the next n bytes without consuming them.
func (q *ByteQueue) Peek(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("queue: negative length %d", n)
	}
	if q.Len() < n {
		return nil, fmt.Errorf("%w: want %d bytes, have %d", ErrUnderflow, n, q.Len())
	}
	out := make([]byte, n)
	copy(out, q.buf[q.pos:q.pos+n])

	return out, nil
}

// PeekByte returns the byte at offset i from the read cursor without consuming it.
func (q *ByteQueue) PeekByte(i int) (byte, error) {
	if i < 0 || q.Len() <= i {
		return 0, fmt.Errorf("%w: want offset %d, have %d bytes", ErrUnderflow, i, q.Len())
	}

	return q.buf[q.pos+i], nil
}

// Mark sets the checkpoint at the current read cursor, replacing any previous mark.
func (q *ByteQueue) Mark() {
	q.mark = q.pos
}

// HasMark reports whether a mark is active.
func (q *ByteQueue) HasMark() bool {
	return q.mark != noMark
}

// Reset rewinds the read cursor to the mark. The mark stays active.
func (q *ByteQueue) Reset() error {
	if q.mark == noMark {
		return ErrNoMark
	}
	q.pos = q.mark

	return nil
}

// Commit discards every consumed byte and clears the mark.
func (q *ByteQueue) Commit() {
	if q.pos > 0 {
		n := copy(q.buf, q.buf[q.pos:])
		q.buf = q.buf[:n]
		q.pos = 0
	}
	q.mark = noMark
}

// Clear discards all buffered bytes and the mark.
func (q *ByteQueue) Clear() {
	q.buf = q.buf[:0]
	q.pos = 0
	q.mark = noMark
}

// Len returns the number of unread bytes.
func (q *ByteQueue) Len() int {
	return len(q.buf) - q.pos
}

// Size returns the number of bytes held, including consumed but uncommitted ones.
func (q *ByteQueue) Size() int {
	return len(q.buf)
}
