package rtu

var crcTable = makeCRCTable()

func makeCRCTable() [256]uint16 {
	var table [256]uint16
	for i := range table {
		crc := uint16(i)
		for range 8 {
			if crc&0x0001 != 0 {
				crc = crc>>1 ^ 0xA001
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}

	return table
}

// CRC16 computes the Modbus CRC-16 of data.
//
// The low byte of the result is transmitted first.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = crc>>8 ^ crcTable[byte(crc)^b]
	}

	return crc
}

// AppendCRC appends the CRC of data to data, low byte first.
func AppendCRC(data []byte) []byte {
	crc := CRC16(data)
	return append(data, byte(crc), byte(crc>>8))
}

// ValidCRC reports whether frame ends with the correct CRC of its leading bytes.
func ValidCRC(frame []byte) bool {
	if len(frame) < crcSize {
		return false
	}
	n := len(frame) - crcSize

	return CRC16(frame[:n]) == wireCRC(frame[n:])
}

func wireCRC(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
