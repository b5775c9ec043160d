package pool

import "sync"

// Typed slice pool for 16-bit unit scratch space, used when transcoding
// string keys to UTF-16 for chars-trie lookups.
var uint16SlicePool = sync.Pool{
	New: func() any { return &[]uint16{} },
}

// GetUint16Slice retrieves a uint16 slice of the requested length from the
// pool. The caller must call the returned cleanup function (typically with
// defer) to return the slice to the pool.
func GetUint16Slice(size int) ([]uint16, func()) {
	ptr, _ := uint16SlicePool.Get().(*[]uint16)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]uint16, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		*ptr = slice
	}

	return slice, func() { uint16SlicePool.Put(ptr) }
}
