package hash

import "github.com/cespare/xxhash/v2"

// Sum64 computes the xxHash64 fingerprint of the given bytes. The store
// envelope records it over the uncompressed trie payload so corruption is
// detected independently of the compression codec's own framing.
func Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}
