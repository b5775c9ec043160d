// Package bytestrie implements a compact, immutable trie that maps byte
// sequences to 32-bit integer values.
//
// The trie is serialized into a single contiguous byte buffer. Matching
// walks the buffer directly, one input byte at a time, without ever
// materializing node objects: the numeric range of a node's lead byte
// selects its shape on the fly.
//
// # Serialized node format
//
// A node starts with a lead byte, optionally preceded by an intermediate
// value for the prefix matched so far:
//
//   - lead < 0x10: branch node over (lead+1) candidate bytes; lead == 0
//     means the width-1 count follows in the next byte. Up to five
//     candidates are stored as a linear list of (byte, value-or-delta)
//     pairs; wider branches store a comparison byte plus a jump delta to
//     the less-than half and continue with the greater-or-equal half.
//   - 0x10 <= lead < 0x20: linear-match node of lead-0x0f literal bytes
//     that must match the input exactly, falling through to the next node.
//   - lead >= 0x20: compact value; the low bit flags a final value (no
//     continuation) versus an intermediate value attached to the node that
//     follows it.
//
// Compact values use 1/2/3/4/5-byte width classes selected by magnitude;
// branch-jump deltas use an independent unsigned width-class table. Both
// tables are fixed and must match exactly for interoperability with
// existing serialized data.
package bytestrie

// Node lead-byte ranges.
const (
	// maxBranchLinearSubNodeLength is the widest branch stored as a linear
	// list of (byte, value) pairs; wider branches binary-split. Bounds the
	// worst-case scan cost of a single branch node.
	maxBranchLinearSubNodeLength = 5

	// minLinearMatch is the lead byte of a 1-byte linear-match node; longer
	// runs use lead bytes up to minLinearMatch+maxLinearMatchLength-1.
	minLinearMatch       = 0x10
	maxLinearMatchLength = 0x10

	// minValueLead is the first value lead byte. A lead byte b >= minValueLead
	// encodes a compact value; b&valueIsFinal distinguishes final values
	// from intermediate values attached to a following node.
	minValueLead = 0x20
	valueIsFinal = 1
)

// Compact value width classes. The thresholds are expressed on the lead
// byte after shifting out the final flag.
const (
	maxOneByteValue = 0x40

	minOneByteValueLead   = minValueLead / 2 // 0x10
	minTwoByteValueLead   = minOneByteValueLead + maxOneByteValue + 1
	maxTwoByteValue       = 0x1aff
	minThreeByteValueLead = minTwoByteValueLead + (maxTwoByteValue >> 8) + 1
	fourByteValueLead     = 0x7e
	maxThreeByteValue     = ((fourByteValueLead - minThreeByteValueLead) << 16) - 1
	fiveByteValueLead     = 0x7f
)

// Branch-jump delta width classes. Deltas are unsigned and carry no flag
// bit, so the classes differ from the value classes.
const (
	maxOneByteDelta       = 0xbf
	minTwoByteDeltaLead   = maxOneByteDelta + 1
	minThreeByteDeltaLead = 0xf0
	fourByteDeltaLead     = 0xfe
	fiveByteDeltaLead     = 0xff
	maxTwoByteDelta       = ((minThreeByteDeltaLead - minTwoByteDeltaLead) << 8) - 1
	maxThreeByteDelta     = ((fourByteDeltaLead - minThreeByteDeltaLead) << 16) - 1
)

// MaxKeyLength is the maximum byte length of a single key.
const MaxKeyLength = 0xffff

// readValue decodes the compact value whose lead byte (shifted right by the
// final-flag bit) is leadByte, with the remaining bytes at data[pos:].
// It is pure: position bookkeeping stays with the caller, so the matcher,
// the enumerator and the unique-value walk all share it.
func readValue(data []byte, pos, leadByte int32) int32 {
	switch {
	case leadByte < minTwoByteValueLead:
		return leadByte - minOneByteValueLead
	case leadByte < minThreeByteValueLead:
		return ((leadByte - minTwoByteValueLead) << 8) | int32(data[pos])
	case leadByte < fourByteValueLead:
		return ((leadByte - minThreeByteValueLead) << 16) | int32(data[pos])<<8 | int32(data[pos+1])
	case leadByte == fourByteValueLead:
		return int32(data[pos])<<16 | int32(data[pos+1])<<8 | int32(data[pos+2])
	default:
		return int32(data[pos])<<24 | int32(data[pos+1])<<16 | int32(data[pos+2])<<8 | int32(data[pos+3])
	}
}

// skipValueLead returns the position after a compact value whose unshifted
// lead byte (final flag still present) has already been consumed.
func skipValueLead(pos, leadByte int32) int32 {
	if leadByte >= (minTwoByteValueLead << 1) {
		if leadByte < (minThreeByteValueLead << 1) {
			pos++
		} else if leadByte < (fourByteValueLead << 1) {
			pos += 2
		} else {
			pos += 3 + ((leadByte >> 1) & 1)
		}
	}
	return pos
}

// skipValue returns the position after the compact value starting at pos.
func skipValue(data []byte, pos int32) int32 {
	leadByte := int32(data[pos])
	return skipValueLead(pos+1, leadByte)
}

// jumpByDelta reads the jump delta at pos and returns the target position.
func jumpByDelta(data []byte, pos int32) int32 {
	delta := int32(data[pos])
	pos++
	if delta >= minTwoByteDeltaLead {
		switch {
		case delta == fiveByteDeltaLead:
			delta = int32(data[pos])<<24 | int32(data[pos+1])<<16 | int32(data[pos+2])<<8 | int32(data[pos+3])
			pos += 4
		case delta == fourByteDeltaLead:
			delta = int32(data[pos])<<16 | int32(data[pos+1])<<8 | int32(data[pos+2])
			pos += 3
		case delta >= minThreeByteDeltaLead:
			delta = ((delta - minThreeByteDeltaLead) << 16) | int32(data[pos])<<8 | int32(data[pos+1])
			pos += 2
		default:
			delta = ((delta - minTwoByteDeltaLead) << 8) | int32(data[pos])
			pos++
		}
	}
	return pos + delta
}

// skipDelta returns the position after the jump delta at pos without
// following it.
func skipDelta(data []byte, pos int32) int32 {
	delta := int32(data[pos])
	pos++
	if delta >= minTwoByteDeltaLead {
		switch {
		case delta == fiveByteDeltaLead:
			pos += 4
		case delta == fourByteDeltaLead:
			pos += 3
		case delta >= minThreeByteDeltaLead:
			pos += 2
		default:
			pos++
		}
	}
	return pos
}
