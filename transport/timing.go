package transport

import "time"

// bitsPerChar is start + 8 data + parity + stop. Without parity the RTU
// line rules require a second stop bit, so the count stays at 11.
const bitsPerChar = 11

// CharTime returns the time one character occupies on the line at baudRate.
func CharTime(baudRate int) time.Duration {
	if baudRate <= 0 {
		return 0
	}

	return time.Duration(bitsPerChar) * time.Second / time.Duration(baudRate)
}
