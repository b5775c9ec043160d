//go:build nobuild

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"
)

// The gozstd binding wraps the reference C library. Its block entry points
// manage compression contexts internally, so no pooling is needed on this
// path.

// Compress compresses the input data using Zstandard compression.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	// Level 3 matches the default level of the pure-Go encoder.
	return gozstd.CompressLevel(nil, data, 3), nil
}

// Decompress decompresses Zstd-compressed data. It returns an error when
// the input is corrupted or not a Zstd frame.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decompressed, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return decompressed, nil
}
