// Package charstrie implements a compact, immutable trie that maps 16-bit
// code unit sequences to 32-bit integer values.
//
// It is the 16-bit sibling of package bytestrie: the wire-format rules are
// the same, but each unit carries 16 bits, so the width-class tables are
// smaller (at most 3 units for any value or delta) and the final-value
// flag moves from the low bit to the top bit of the lead unit. Because the
// node-type range occupies only the low 6 bits, an intermediate value is
// packed directly into the unused high bits of the node's own lead unit
// rather than into a separate preceding lead.
//
// Keys are commonly UTF-16 strings; code points above the basic plane are
// matched as surrogate pairs via the ForCodePoint operations.
package charstrie

// Node lead-unit ranges.
const (
	maxBranchLinearSubNodeLength = 5

	// minLinearMatch is the lead unit of a 1-unit linear-match node;
	// longer runs use leads up to minLinearMatch+maxLinearMatchLength-1.
	minLinearMatch       = 0x30
	maxLinearMatchLength = 0x10

	// minValueLead is the first value lead unit; the node type lives in
	// the low 6 bits below it.
	minValueLead = 0x40
	nodeTypeMask = minValueLead - 1

	// valueIsFinal flags a final value in the lead unit's top bit.
	valueIsFinal = 0x8000
)

// Compact final-value width classes (lead unit with the final flag
// removed).
const (
	maxOneUnitValue     = 0x3fff
	minTwoUnitValueLead = maxOneUnitValue + 1
	threeUnitValueLead  = 0x7fff
	maxTwoUnitValue     = ((threeUnitValueLead - minTwoUnitValueLead) << 16) - 1
)

// Intermediate node-value width classes. The value shares the node's lead
// unit, packed above the 6 node-type bits.
const (
	maxOneUnitNodeValue     = 0xff
	minTwoUnitNodeValueLead = minValueLead + ((maxOneUnitNodeValue + 1) << 6)
	threeUnitNodeValueLead  = 0x7fc0
	maxTwoUnitNodeValue     = ((threeUnitNodeValueLead - minTwoUnitNodeValueLead) << 10) - 1
)

// Branch-jump delta width classes.
const (
	maxOneUnitDelta     = 0xfbff
	minTwoUnitDeltaLead = maxOneUnitDelta + 1
	threeUnitDeltaLead  = 0xffff
	maxTwoUnitDelta     = ((threeUnitDeltaLead - minTwoUnitDeltaLead) << 16) - 1
)

// MaxKeyLength is the maximum length of a single key in 16-bit units.
const MaxKeyLength = 0xffff

// readValue decodes the compact final value whose lead unit (final flag
// already masked off) is leadUnit, with the remaining units at data[pos:].
func readValue(data []uint16, pos, leadUnit int32) int32 {
	switch {
	case leadUnit < minTwoUnitValueLead:
		return leadUnit
	case leadUnit < threeUnitValueLead:
		return ((leadUnit - minTwoUnitValueLead) << 16) | int32(data[pos])
	default:
		return int32(data[pos])<<16 | int32(data[pos+1])
	}
}

// skipValueLead returns the position after a compact value whose lead unit
// (final flag masked off) has already been consumed.
func skipValueLead(pos, leadUnit int32) int32 {
	if leadUnit >= minTwoUnitValueLead {
		if leadUnit < threeUnitValueLead {
			pos++
		} else {
			pos += 2
		}
	}
	return pos
}

// skipValue returns the position after the compact value starting at pos.
func skipValue(data []uint16, pos int32) int32 {
	leadUnit := int32(data[pos]) & 0x7fff
	return skipValueLead(pos+1, leadUnit)
}

// readNodeValue decodes the intermediate value packed into the node lead
// unit leadUnit (minValueLead <= leadUnit < valueIsFinal).
func readNodeValue(data []uint16, pos, leadUnit int32) int32 {
	switch {
	case leadUnit < minTwoUnitNodeValueLead:
		return (leadUnit >> 6) - 1
	case leadUnit < threeUnitNodeValueLead:
		return (((leadUnit & 0x7fc0) - minTwoUnitNodeValueLead) << 10) | int32(data[pos])
	default:
		return int32(data[pos])<<16 | int32(data[pos+1])
	}
}

// skipNodeValue returns the position after the extra units of an
// intermediate node value; the node itself continues at that position.
func skipNodeValue(pos, leadUnit int32) int32 {
	if leadUnit >= minTwoUnitNodeValueLead {
		if leadUnit < threeUnitNodeValueLead {
			pos++
		} else {
			pos += 2
		}
	}
	return pos
}

// jumpByDelta reads the jump delta at pos and returns the target position.
func jumpByDelta(data []uint16, pos int32) int32 {
	delta := int32(data[pos])
	pos++
	if delta >= minTwoUnitDeltaLead {
		if delta == threeUnitDeltaLead {
			delta = int32(data[pos])<<16 | int32(data[pos+1])
			pos += 2
		} else {
			delta = ((delta - minTwoUnitDeltaLead) << 16) | int32(data[pos])
			pos++
		}
	}
	return pos + delta
}

// skipDelta returns the position after the jump delta at pos without
// following it.
func skipDelta(data []uint16, pos int32) int32 {
	delta := int32(data[pos])
	pos++
	if delta >= minTwoUnitDeltaLead {
		if delta == threeUnitDeltaLead {
			pos += 2
		} else {
			pos++
		}
	}
	return pos
}
