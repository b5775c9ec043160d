package compress

// ZstdCompressor compresses payloads with Zstandard, the best ratio of the
// built-in codecs and the usual choice for tries kept on disk.
//
// The Compress and Decompress methods come in two build variants: a pure
// Go implementation (the default) and a cgo implementation selected with
// the nobuild tag.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
