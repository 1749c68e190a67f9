package rtu

import (
	"fmt"
	"sync"
)

// Peeker gives a LengthResolver read access to the bytes following the
// frame header without consuming them. Offset 0 is the first payload byte.
type Peeker interface {
	PeekByte(i int) (byte, error)
}

// LengthResolver returns the payload length of a frame with the given
// function code, excluding the CRC.
//
// Resolvers that need a byte count from inside the payload read it through
// p; an underflow error from p means the frame is still arriving and is
// passed through unchanged. Any other error marks the frame as malformed.
type LengthResolver func(functionCode byte, p Peeker) (int, error)

// RequestLength resolves the payload length of requests with standard
// public function codes.
func RequestLength(functionCode byte, p Peeker) (int, error) {
	switch functionCode {
	case FuncCodeReadCoils, FuncCodeReadDiscreteInputs,
		FuncCodeReadHoldingRegisters, FuncCodeReadInputRegisters,
		FuncCodeWriteSingleCoil, FuncCodeWriteSingleRegister,
		FuncCodeDiagnostics:
		return 4, nil
	case FuncCodeReadExceptionStatus, FuncCodeGetCommEventCounter, FuncCodeReportServerID:
		return 0, nil
	case FuncCodeWriteMultipleCoils, FuncCodeWriteMultipleRegisters:
		// address(2) quantity(2) byteCount(1) values(byteCount)
		return countedLength(p, 4, 5)
	case FuncCodeMaskWriteRegister:
		return 6, nil
	case FuncCodeReadWriteMultipleRegisters:
		// readAddr(2) readQty(2) writeAddr(2) writeQty(2) byteCount(1) values
		return countedLength(p, 8, 9)
	case FuncCodeReadFIFOQueue:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: 0x%02X", ErrUnknownFunction, functionCode)
	}
}

// ResponseLength resolves the payload length of responses with standard
// public function codes, including exception responses.
func ResponseLength(functionCode byte, p Peeker) (int, error) {
	if functionCode&exceptionBit != 0 {
		return 1, nil
	}

	switch functionCode {
	case FuncCodeReadCoils, FuncCodeReadDiscreteInputs,
		FuncCodeReadHoldingRegisters, FuncCodeReadInputRegisters,
		FuncCodeReportServerID, FuncCodeReadWriteMultipleRegisters:
		return countedLength(p, 0, 1)
	case FuncCodeWriteSingleCoil, FuncCodeWriteSingleRegister,
		FuncCodeWriteMultipleCoils, FuncCodeWriteMultipleRegisters,
		FuncCodeDiagnostics, FuncCodeGetCommEventCounter:
		return 4, nil
	case FuncCodeReadExceptionStatus:
		return 1, nil
	case FuncCodeMaskWriteRegister:
		return 6, nil
	case FuncCodeReadFIFOQueue:
		// fifoByteCount(2) covers fifoCount(2) and the values that follow
		hi, err := p.PeekByte(0)
		if err != nil {
			return 0, err
		}
		lo, err := p.PeekByte(1)
		if err != nil {
			return 0, err
		}

		return 2 + (int(hi)<<8 | int(lo)), nil
	default:
		return 0, fmt.Errorf("%w: 0x%02X", ErrUnknownFunction, functionCode)
	}
}

// countedLength reads the byte count at offset and adds the fixed prefix length.
func countedLength(p Peeker, offset, prefix int) (int, error) {
	n, err := p.PeekByte(offset)
	if err != nil {
		return 0, err
	}

	return prefix + int(n), nil
}

// ResolverMap resolves payload lengths from per-function-code entries,
// falling back to another resolver for codes it does not know.
//
// It is safe to register entries while a codec is decoding.
type ResolverMap struct {
	mu        sync.RWMutex
	resolvers map[byte]LengthResolver
	fallback  LengthResolver
}

// NewResolverMap creates a ResolverMap. fallback may be nil, in which case
// unknown function codes fail with ErrUnknownFunction.
func NewResolverMap(fallback LengthResolver) *ResolverMap {
	return &ResolverMap{
		resolvers: make(map[byte]LengthResolver),
		fallback:  fallback,
	}
}

// Set registers resolver for functionCode, replacing any previous entry.
func (m *ResolverMap) Set(functionCode byte, resolver LengthResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resolvers[functionCode] = resolver
}

// SetFixed registers a fixed payload length for functionCode.
func (m *ResolverMap) SetFixed(functionCode byte, length int) {
	m.Set(functionCode, func(byte, Peeker) (int, error) {
		return length, nil
	})
}

// Resolve is a LengthResolver.
func (m *ResolverMap) Resolve(functionCode byte, p Peeker) (int, error) {
	m.mu.RLock()
	resolver, ok := m.resolvers[functionCode]
	m.mu.RUnlock()

	if ok {
		return resolver(functionCode, p)
	}
	if m.fallback != nil {
		return m.fallback(functionCode, p)
	}

	return 0, fmt.Errorf("%w: 0x%02X", ErrUnknownFunction, functionCode)
}
