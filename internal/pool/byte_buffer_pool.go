package pool

import "sync"

// Buffer size constants for the shared byte buffer pool.
//
// Serialized tries are usually small (a dictionary of a few thousand keys
// serializes to tens of KiB), so pooled buffers start at 16KiB; buffers
// that grew beyond the threshold are dropped instead of being pooled to
// keep a single oversized payload from pinning memory.
const (
	BufferDefaultSize  = 1024 * 16  // 16KiB
	BufferMaxThreshold = 1024 * 256 // 256KiB
)

// ByteBuffer is a minimal growable byte buffer backed by a plain slice.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified capacity.
func NewByteBuffer(capacity int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, capacity),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, retaining allocated memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// Grow ensures the buffer can hold n more bytes without reallocating.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}
	grown := make([]byte, len(bb.B), len(bb.B)+n)
	copy(grown, bb.B)
	bb.B = grown
}

var byteBufferPool = sync.Pool{
	New: func() any { return NewByteBuffer(BufferDefaultSize) },
}

// GetByteBuffer retrieves an empty ByteBuffer from the pool.
func GetByteBuffer() *ByteBuffer {
	bb, _ := byteBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutByteBuffer returns a ByteBuffer to the pool. Oversized buffers are
// dropped.
func PutByteBuffer(bb *ByteBuffer) {
	if cap(bb.B) > BufferMaxThreshold {
		return
	}
	byteBufferPool.Put(bb)
}
