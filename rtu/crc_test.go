package rtu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"read one holding register", []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01}, 0x0A84},
		{"read ten holding registers", []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}, 0xCDC5},
		{"read exception status", []byte{0x02, 0x07}, 0x1241},
		{"reference request", []byte{0x11, 0x03, 0x00, 0x6B, 0x00, 0x03}, 0x8776},
		{"empty", nil, 0xFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CRC16(tt.data))
		})
	}
}

func TestAppendCRC_LowByteFirst(t *testing.T) {
	frame := AppendCRC([]byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01})
	assert.Equal(t, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01, 0x84, 0x0A}, frame)
	assert.True(t, ValidCRC(frame))

	frame[len(frame)-1] ^= 0xFF
	assert.False(t, ValidCRC(frame))
	assert.False(t, ValidCRC([]byte{0x01}))
}
