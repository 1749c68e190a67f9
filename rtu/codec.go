package rtu

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-mbrtu/internal/queue"
)

// Role selects which kind of message a Codec decodes.
type Role uint8

const (
	// RoleMaster decodes responses sent by slaves.
	RoleMaster Role = iota + 1
	// RoleSlave decodes requests sent by a master.
	RoleSlave
)

func (r Role) String() string {
	switch r {
	case RoleMaster:
		return "master"
	case RoleSlave:
		return "slave"
	default:
		return "unknown"
	}
}

// Buffer is the byte source a Codec decodes from. *queue.ByteQueue
// implements it.
//
// Pop and PeekByte must return an error wrapping queue.ErrUnderflow when
// fewer bytes are available than requested.
type Buffer interface {
	Peeker
	Mark()
	Reset() error
	Commit()
	Pop(n int) ([]byte, error)
	Len() int
}

// Codec encodes and decodes RTU frames.
type Codec struct {
	role     Role
	resolver LengthResolver
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithLengthResolver replaces the payload length resolver selected by the role.
func WithLengthResolver(resolver LengthResolver) CodecOption {
	return func(c *Codec) {
		if resolver != nil {
			c.resolver = resolver
		}
	}
}

// NewCodec creates a Codec for role. Without options a master codec uses
// ResponseLength and a slave codec uses RequestLength.
func NewCodec(role Role, opts ...CodecOption) *Codec {
	c := &Codec{role: role}
	if role == RoleSlave {
		c.resolver = RequestLength
	} else {
		c.role = RoleMaster
		c.resolver = ResponseLength
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Role returns the role of the codec.
func (c *Codec) Role() Role {
	return c.role
}

// Encode returns the wire encoding of msg.
func (c *Codec) Encode(msg *Message) ([]byte, error) {
	return Encode(msg)
}

// Decode parses the next frame from buf.
//
// It returns ErrIncomplete and leaves buf as it found it when the frame has
// not fully arrived, so the call can be repeated after more bytes are
// pushed. Frames with a bad CRC are consumed and reported as
// ErrCRCMismatch. When the payload length cannot be resolved the error
// wraps ErrMalformedFrame and only the two header bytes are consumed.
func (c *Codec) Decode(buf Buffer) (*Message, error) {
	buf.Mark()

	header, err := buf.Pop(headerSize)
	if err != nil {
		return nil, c.incomplete(buf, err)
	}
	slaveID, functionCode := header[0], header[1]

	n, err := c.resolver(functionCode, buf)
	if err != nil {
		if errors.Is(err, queue.ErrUnderflow) {
			return nil, c.incomplete(buf, err)
		}
		buf.Commit()

		return nil, fmt.Errorf("%w: slave %d: %w", ErrMalformedFrame, slaveID, err)
	}
	if n < 0 || n > MaxPayloadSize {
		buf.Commit()
		return nil, fmt.Errorf("%w: slave %d fc 0x%02X: payload length %d", ErrMalformedFrame, slaveID, functionCode, n)
	}

	body, err := buf.Pop(n + crcSize)
	if err != nil {
		return nil, c.incomplete(buf, err)
	}
	payload, crcBytes := body[:n], body[n:]
	received := wireCRC(crcBytes)
	if n == 0 {
		payload = nil
	}

	buf.Commit()

	expected := CRC16(append(header, payload...))
	if received != expected {
		return nil, fmt.Errorf("%w: slave %d fc 0x%02X: got 0x%04X, want 0x%04X",
			ErrCRCMismatch, slaveID, functionCode, received, expected)
	}

	msg := &Message{
		SlaveID:      slaveID,
		FunctionCode: functionCode,
		Payload:      payload,
		CRC:          received,
	}
	if c.role == RoleSlave {
		msg.Kind = KindRequest
	} else {
		msg.Kind = KindResponse
	}

	return msg, nil
}

func (c *Codec) incomplete(buf Buffer, cause error) error {
	if err := buf.Reset(); err != nil {
		return err
	}

	return fmt.Errorf("%w: %w", ErrIncomplete, cause)
}

// Encode returns the wire encoding of msg.
func Encode(msg *Message) ([]byte, error) {
	if msg.Kind != KindRequest && msg.Kind != KindResponse {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, msg.Kind)
	}
	if len(msg.Payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload %d bytes, max %d", ErrFrameTooLarge, len(msg.Payload), MaxPayloadSize)
	}

	frame := make([]byte, 0, headerSize+len(msg.Payload)+crcSize)
	frame = append(frame, msg.SlaveID, msg.FunctionCode)
	frame = append(frame, msg.Payload...)

	return AppendCRC(frame), nil
}

// DecodeFrame decodes a single complete frame.
func DecodeFrame(role Role, frame []byte) (*Message, error) {
	buf := queue.NewByteQueue(len(frame))
	buf.Push(frame)

	msg, err := NewCodec(role).Decode(buf)
	if err != nil {
		return nil, err
	}
	if buf.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedFrame, buf.Len())
	}

	return msg, nil
}
