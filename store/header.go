package store

import (
	"fmt"

	"github.com/jeme/unitrie/compress"
	"github.com/jeme/unitrie/endian"
	"github.com/jeme/unitrie/errs"
	"github.com/jeme/unitrie/format"
)

const (
	// magicNumber is "UT" read as a little-endian uint16.
	magicNumber uint16 = 0x5455

	formatVersion = 1

	// HeaderSize is the fixed size of the envelope header in bytes.
	HeaderSize = 24

	// flagBigEndian marks an envelope whose multi-byte header fields and
	// 16-bit payload units are big-endian.
	flagBigEndian = 0x01
)

// Header describes a stored trie envelope.
//
// The 24-byte wire layout, with multi-byte fields in the byte order
// selected by the flags byte:
//
//	offset  0: magic number (uint16)
//	offset  2: format version
//	offset  3: flags (bit 0: big-endian)
//	offset  4: unit type
//	offset  5: compression type
//	offset  6: reserved (2 bytes, zero)
//	offset  8: root offset in units (uint32)
//	offset 12: payload length in units (uint32)
//	offset 16: xxHash64 of the uncompressed payload bytes (uint64)
//
// The compressed payload follows immediately after the header.
type Header struct {
	Version     byte
	BigEndian   bool
	UnitType    format.UnitType
	Compression format.CompressionType
	RootOffset  uint32
	UnitCount   uint32
	Checksum    uint64
}

// Engine returns the byte-order engine matching the header's flags.
func (h Header) Engine() endian.EndianEngine {
	if h.BigEndian {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

// appendTo appends the serialized header to dst.
func (h Header) appendTo(dst []byte) []byte {
	engine := h.Engine()
	var flags byte
	if h.BigEndian {
		flags |= flagBigEndian
	}
	dst = engine.AppendUint16(dst, magicNumber)
	dst = append(dst, h.Version, flags, byte(h.UnitType), byte(h.Compression), 0, 0)
	dst = engine.AppendUint32(dst, h.RootOffset)
	dst = engine.AppendUint32(dst, h.UnitCount)
	dst = engine.AppendUint64(dst, h.Checksum)

	return dst
}

// ReadHeader parses and validates the envelope header at the start of
// blob. It checks the magic number, version, unit type and compression
// type; payload-dependent checks happen when the payload is read.
func ReadHeader(blob []byte) (Header, error) {
	if len(blob) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, need %d", errs.ErrInvalidHeaderSize, len(blob), HeaderSize)
	}
	// The flags byte is order-independent and selects the engine for
	// everything else.
	h := Header{
		Version:     blob[2],
		BigEndian:   blob[3]&flagBigEndian != 0,
		UnitType:    format.UnitType(blob[4]),
		Compression: format.CompressionType(blob[5]),
	}
	engine := h.Engine()
	if engine.Uint16(blob[0:2]) != magicNumber {
		return Header{}, errs.ErrInvalidMagicNumber
	}
	if h.Version != formatVersion {
		return Header{}, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, h.Version)
	}
	if h.UnitType != format.UnitBytes && h.UnitType != format.UnitChars {
		return Header{}, fmt.Errorf("%w: 0x%02x", errs.ErrInvalidUnitType, byte(h.UnitType))
	}
	if _, err := compress.GetCodec(h.Compression); err != nil {
		return Header{}, fmt.Errorf("%w: 0x%02x", errs.ErrInvalidCompressionType, byte(h.Compression))
	}
	h.RootOffset = engine.Uint32(blob[8:12])
	h.UnitCount = engine.Uint32(blob[12:16])
	h.Checksum = engine.Uint64(blob[16:24])
	if h.UnitCount == 0 || h.RootOffset >= h.UnitCount {
		return Header{}, fmt.Errorf("%w: offset %d of %d units", errs.ErrInvalidRootOffset, h.RootOffset, h.UnitCount)
	}

	return h, nil
}
