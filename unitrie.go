// Package unitrie provides compact, immutable tries that map unit
// sequences to 32-bit integer values.
//
// A trie is built once from a set of (key, value) pairs and serialized
// into a single dense array that is traversed directly, with no pointer
// decoding or unpacking step. Two unit widths are supported:
//
//   - bytestrie: keys are byte sequences
//   - charstrie: keys are 16-bit code unit sequences, typically UTF-16
//
// Matching is incremental: a cursor consumes one unit at a time and
// reports after each step whether the input so far is a full key, a prefix
// of further keys, or a dead end. This makes the tries suitable for
// longest-match scanning, spell-checker style lookahead, and dictionary
// lookup during text segmentation.
//
// # Basic Usage
//
// Building and querying a byte trie:
//
//	builder, _ := unitrie.NewBytesBuilder()
//	builder.AddString("in", 1)
//	builder.AddString("inch", 2)
//	builder.AddString("inches", 3)
//	trie, _ := builder.Build()
//
//	if value, ok := unitrie.Lookup(trie, []byte("inch")); ok {
//	    fmt.Println(value) // 2
//	}
//
// Persisting a trie with the store envelope:
//
//	blob, _ := unitrie.MarshalBytesTrie(builder,
//	    store.WithCompression(format.CompressionZstd),
//	)
//	trie, _ = unitrie.OpenBytesTrie(blob)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the
// bytestrie, charstrie and store packages, simplifying the most common use
// cases. For incremental matching, state save/restore and enumeration, use
// those packages directly.
package unitrie

import (
	"unicode/utf16"

	"github.com/jeme/unitrie/bytestrie"
	"github.com/jeme/unitrie/charstrie"
	"github.com/jeme/unitrie/internal/hash"
	"github.com/jeme/unitrie/internal/pool"
	"github.com/jeme/unitrie/store"
)

// NewBytesBuilder creates a builder for byte tries.
//
// Available options:
//   - bytestrie.WithInitialCapacity(n)
func NewBytesBuilder(opts ...bytestrie.Option) (*bytestrie.Builder, error) {
	return bytestrie.NewBuilder(opts...)
}

// NewCharsBuilder creates a builder for 16-bit-unit tries.
//
// Available options:
//   - charstrie.WithInitialCapacity(n)
func NewCharsBuilder(opts ...charstrie.Option) (*charstrie.Builder, error) {
	return charstrie.NewBuilder(opts...)
}

// MarshalBytesTrie builds the pending pairs and wraps the serialized byte
// trie in a store envelope.
//
// Available options:
//   - store.WithCompression(format.CompressionNone|Zstd|S2|LZ4)
//   - store.WithBigEndian()
func MarshalBytesTrie(builder *bytestrie.Builder, opts ...store.Option) ([]byte, error) {
	payload, err := builder.BuildBytes()
	if err != nil {
		return nil, err
	}

	return store.WriteBytesTrie(payload, 0, opts...)
}

// MarshalCharsTrie builds the pending pairs and wraps the serialized
// 16-bit-unit trie in a store envelope.
func MarshalCharsTrie(builder *charstrie.Builder, opts ...store.Option) ([]byte, error) {
	payload, err := builder.BuildUnits()
	if err != nil {
		return nil, err
	}

	return store.WriteCharsTrie(payload, 0, opts...)
}

// OpenBytesTrie validates a store envelope and opens the byte trie inside
// it. The envelope's compression and byte order are detected from its
// header.
func OpenBytesTrie(blob []byte) (*bytestrie.Trie, error) {
	return store.ReadBytesTrie(blob)
}

// OpenCharsTrie validates a store envelope and opens the 16-bit-unit trie
// inside it.
func OpenCharsTrie(blob []byte) (*charstrie.Trie, error) {
	return store.ReadCharsTrie(blob)
}

// Lookup resets the cursor and matches key in full, returning its value
// and whether the key is present. The cursor is left wherever the match
// ended.
func Lookup(t *bytestrie.Trie, key []byte) (int32, bool) {
	if result := t.Reset().NextBytes(key); result.HasValue() {
		return t.GetValue(), true
	}

	return 0, false
}

// LookupString resets the cursor and matches the UTF-16 encoding of key in
// full, returning its value and whether the key is present. The cursor is
// left wherever the match ended.
func LookupString(t *charstrie.Trie, key string) (int32, bool) {
	// A rune of n UTF-8 bytes never needs more than n UTF-16 units, so
	// len(key) bounds the scratch size.
	units, release := pool.GetUint16Slice(len(key))
	defer release()

	units = units[:0]
	for _, r := range key {
		units = utf16.AppendRune(units, r)
	}
	if result := t.Reset().NextChars(units); result.HasValue() {
		return t.GetValue(), true
	}

	return 0, false
}

// Fingerprint computes the xxHash64 fingerprint of a serialized trie or
// store blob, for use as a cache or deduplication key. It is deterministic
// across processes and platforms.
func Fingerprint(data []byte) uint64 {
	return hash.Sum64(data)
}
