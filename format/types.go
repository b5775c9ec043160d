package format

type (
	UnitType        uint8
	CompressionType uint8
)

const (
	UnitBytes UnitType = 0x1 // UnitBytes represents a trie over 8-bit units.
	UnitChars UnitType = 0x2 // UnitChars represents a trie over 16-bit units.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (u UnitType) String() string {
	switch u {
	case UnitBytes:
		return "Bytes"
	case UnitChars:
		return "Chars"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
