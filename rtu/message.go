package rtu

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Kind tells a request from a response.
type Kind uint8

const (
	KindRequest Kind = iota + 1
	KindResponse
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	default:
		return "unknown"
	}
}

// Message is a single Modbus RTU message.
//
// Payload holds everything between the function code and the CRC. CRC is
// the checksum received on the wire and is only set on decoded messages;
// Encode always recomputes it.
type Message struct {
	Kind         Kind
	SlaveID      byte
	FunctionCode byte
	Payload      []byte
	CRC          uint16

	// NoWrite marks a request that is never written to the line. Sending it
	// only registers its correlation key and waits for an unsolicited
	// response pushed by the device.
	NoWrite bool
}

// NewRequest creates a request message. The payload is not copied.
func NewRequest(slaveID, functionCode byte, payload []byte) *Message {
	return &Message{
		Kind:         KindRequest,
		SlaveID:      slaveID,
		FunctionCode: functionCode,
		Payload:      payload,
	}
}

// NewResponse creates a response message. The payload is not copied.
func NewResponse(slaveID, functionCode byte, payload []byte) *Message {
	return &Message{
		Kind:         KindResponse,
		SlaveID:      slaveID,
		FunctionCode: functionCode,
		Payload:      payload,
	}
}

// NewReadRequest creates a read request (coils, discrete inputs, holding or
// input registers) for quantity items starting at address.
//
// A read of zero items is never written to the line; it is the listen-only
// request used with devices that push their readings unsolicited.
func NewReadRequest(slaveID, functionCode byte, address, quantity uint16) *Message {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:], address)
	binary.BigEndian.PutUint16(payload[2:], quantity)

	req := NewRequest(slaveID, functionCode, payload)
	req.NoWrite = quantity == 0

	return req
}

// NewExceptionResponse creates the exception response to req.
func NewExceptionResponse(req *Message, exceptionCode byte) *Message {
	return NewResponse(req.SlaveID, req.FunctionCode|exceptionBit, []byte{exceptionCode})
}

func (m *Message) IsRequest() bool {
	return m.Kind == KindRequest
}

func (m *Message) IsResponse() bool {
	return m.Kind == KindResponse
}

// IsBroadcast reports whether the message is addressed to every slave.
func (m *Message) IsBroadcast() bool {
	return m.SlaveID == BroadcastAddress
}

// ExpectsResponse reports whether a reply should follow the request.
// Broadcast requests and responses never expect one.
func (m *Message) ExpectsResponse() bool {
	return m.IsRequest() && !m.IsBroadcast()
}

// IsException reports whether the message is an exception response.
func (m *Message) IsException() bool {
	return m.IsResponse() && m.FunctionCode&exceptionBit != 0
}

// ExceptionCode returns the exception code of an exception response, or 0.
func (m *Message) ExceptionCode() byte {
	if !m.IsException() || len(m.Payload) == 0 {
		return 0
	}

	return m.Payload[0]
}

// Bytes returns the wire encoding of the message.
func (m *Message) Bytes() ([]byte, error) {
	return Encode(m)
}

func (m *Message) String() string {
	return fmt.Sprintf("%s{slave=%d fc=0x%02X payload=%s}",
		m.Kind, m.SlaveID, m.FunctionCode, hex.EncodeToString(m.Payload))
}

// NewListenRequest creates a request that is never written to the line. It
// registers interest in an unsolicited response from slaveID carrying
// functionCode.
func NewListenRequest(slaveID, functionCode byte) *Message {
	return NewReadRequest(slaveID, functionCode, 0, 0)
}
