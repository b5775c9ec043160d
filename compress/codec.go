package compress

import (
	"fmt"

	"github.com/jeme/unitrie/format"
)

// Compressor compresses a serialized trie payload.
type Compressor interface {
	// Compress compresses data and returns the result. The returned slice
	// is newly allocated (except for the no-op codec) and owned by the
	// caller; the input is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload previously produced by the matching
// Compressor.
type Decompressor interface {
	// Decompress decompresses data and returns the original payload. It
	// returns an error when the input is corrupted or was compressed with
	// a different algorithm.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions; all built-in codecs implement it.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec creates a fresh Codec for the given compression type. The
// target string names the caller's usage and only appears in error
// messages.
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the shared built-in Codec for the given compression
// type. The built-in codecs are stateless and safe for concurrent use.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
