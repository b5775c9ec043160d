// Package store persists serialized tries in a small self-describing
// envelope.
//
// The envelope records the unit width, the root offset, the payload length
// and byte order, an optional compression algorithm, and an xxHash64
// checksum of the uncompressed payload, so a blob can be validated and
// opened without any out-of-band information. See Header for the wire
// layout.
package store

import (
	"fmt"

	"github.com/jeme/unitrie/bytestrie"
	"github.com/jeme/unitrie/charstrie"
	"github.com/jeme/unitrie/compress"
	"github.com/jeme/unitrie/errs"
	"github.com/jeme/unitrie/format"
	"github.com/jeme/unitrie/internal/hash"
	"github.com/jeme/unitrie/internal/options"
	"github.com/jeme/unitrie/internal/pool"
)

type config struct {
	compression format.CompressionType
	bigEndian   bool
}

// Option configures how a trie is written.
type Option = options.Option[*config]

// WithCompression selects the compression algorithm for the payload. The
// default is no compression.
func WithCompression(c format.CompressionType) Option {
	return options.New(func(cfg *config) error {
		if _, err := compress.GetCodec(c); err != nil {
			return fmt.Errorf("%w: %s", errs.ErrInvalidCompressionType, c)
		}
		cfg.compression = c

		return nil
	})
}

// WithBigEndian writes multi-byte header fields and 16-bit payload units
// in big-endian order. The default is little-endian.
func WithBigEndian() Option {
	return options.NoError(func(cfg *config) {
		cfg.bigEndian = true
	})
}

func applyOptions(opts []Option) (*config, error) {
	cfg := &config{compression: format.CompressionNone}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WriteBytesTrie wraps a serialized byte trie in a store envelope. The
// payload is the builder output and rootOffset is the position of the root
// node within it, normally 0.
func WriteBytesTrie(payload []byte, rootOffset int, opts ...Option) ([]byte, error) {
	if len(payload) == 0 || rootOffset < 0 || rootOffset >= len(payload) {
		return nil, fmt.Errorf("%w: offset %d of %d bytes", errs.ErrInvalidRootOffset, rootOffset, len(payload))
	}
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	return writeEnvelope(format.UnitBytes, payload, uint32(rootOffset), uint32(len(payload)), cfg)
}

// WriteCharsTrie wraps a serialized 16-bit-unit trie in a store envelope.
func WriteCharsTrie(payload []uint16, rootOffset int, opts ...Option) ([]byte, error) {
	if len(payload) == 0 || rootOffset < 0 || rootOffset >= len(payload) {
		return nil, fmt.Errorf("%w: offset %d of %d units", errs.ErrInvalidRootOffset, rootOffset, len(payload))
	}
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	// Pack the units into bytes in the envelope's byte order.
	buf := pool.GetByteBuffer()
	defer pool.PutByteBuffer(buf)
	buf.Grow(2 * len(payload))
	engine := Header{BigEndian: cfg.bigEndian}.Engine()
	for _, u := range payload {
		buf.B = engine.AppendUint16(buf.B, u)
	}

	return writeEnvelope(format.UnitChars, buf.B, uint32(rootOffset), uint32(len(payload)), cfg)
}

// writeEnvelope checksums and compresses the packed payload bytes and
// prepends the header. The returned blob never aliases payloadBytes.
func writeEnvelope(unitType format.UnitType, payloadBytes []byte, rootOffset, unitCount uint32, cfg *config) ([]byte, error) {
	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidCompressionType, cfg.compression)
	}
	compressed, err := codec.Compress(payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}

	h := Header{
		Version:     formatVersion,
		BigEndian:   cfg.bigEndian,
		UnitType:    unitType,
		Compression: cfg.compression,
		RootOffset:  rootOffset,
		UnitCount:   unitCount,
		Checksum:    hash.Sum64(payloadBytes),
	}
	blob := make([]byte, 0, HeaderSize+len(compressed))
	blob = h.appendTo(blob)
	blob = append(blob, compressed...)

	return blob, nil
}

// ReadBytesTrie validates a store envelope and opens the byte trie inside
// it. With an uncompressed envelope the returned trie borrows the blob's
// memory; otherwise it owns a fresh payload copy.
func ReadBytesTrie(blob []byte) (*bytestrie.Trie, error) {
	h, payload, err := readPayload(blob, format.UnitBytes)
	if err != nil {
		return nil, err
	}

	return bytestrie.New(payload, int(h.RootOffset))
}

// ReadCharsTrie validates a store envelope and opens the 16-bit-unit trie
// inside it. The payload is unpacked into a fresh unit slice owned by the
// returned trie.
func ReadCharsTrie(blob []byte) (*charstrie.Trie, error) {
	h, payload, err := readPayload(blob, format.UnitChars)
	if err != nil {
		return nil, err
	}

	engine := h.Engine()
	units := make([]uint16, h.UnitCount)
	for i := range units {
		units[i] = engine.Uint16(payload[2*i:])
	}

	return charstrie.New(units, int(h.RootOffset))
}

// readPayload parses the header, decompresses the payload and verifies its
// length and checksum.
func readPayload(blob []byte, want format.UnitType) (Header, []byte, error) {
	h, err := ReadHeader(blob)
	if err != nil {
		return Header{}, nil, err
	}
	if h.UnitType != want {
		return Header{}, nil, fmt.Errorf("%w: got %s, want %s", errs.ErrInvalidUnitType, h.UnitType, want)
	}

	codec, _ := compress.GetCodec(h.Compression) // validated by ReadHeader
	payload, err := codec.Decompress(blob[HeaderSize:])
	if err != nil {
		return Header{}, nil, fmt.Errorf("%w: %v", errs.ErrInvalidPayload, err)
	}
	unitSize := 1
	if h.UnitType == format.UnitChars {
		unitSize = 2
	}
	if len(payload) != unitSize*int(h.UnitCount) {
		return Header{}, nil, fmt.Errorf("%w: %d payload bytes for %d units",
			errs.ErrInvalidPayload, len(payload), h.UnitCount)
	}
	if hash.Sum64(payload) != h.Checksum {
		return Header{}, nil, errs.ErrChecksumMismatch
	}

	return h, payload, nil
}
