package pool

import "sync"

// ReadBufferSize fits the largest RTU frame.
const ReadBufferSize = 256

var readBufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, ReadBufferSize)
		return &b
	},
}

// GetReadBuffer returns a ReadBufferSize byte slice from the pool.
func GetReadBuffer() *[]byte {
	b, _ := readBufferPool.Get().(*[]byte)
	*b = (*b)[:ReadBufferSize]

	return b
}

// PutReadBuffer returns b to the pool.
func PutReadBuffer(b *[]byte) {
	if cap(*b) < ReadBufferSize {
		return
	}
	readBufferPool.Put(b)
}
