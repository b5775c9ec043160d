package charstrie

import (
	"fmt"

	"github.com/jeme/unitrie/errs"
	"github.com/jeme/unitrie/format"
)

// Trie is a cursor over a serialized 16-bit-unit trie.
//
// A Trie borrows its buffer read-only: any number of cursors, saved states
// and iterators may share one buffer concurrently as long as nothing
// mutates it. The cursor itself is not safe for concurrent use; copy it
// with Clone for independent traversals.
type Trie struct {
	data []uint16
	root int32

	pos                  int32 // -1 once matching has failed
	remainingMatchLength int32 // pending linear-match units minus 1, or -1
}

// New creates a cursor over a serialized trie whose root node starts at
// data[offset]. The buffer is borrowed, not copied.
func New(data []uint16, offset int) (*Trie, error) {
	if len(data) == 0 || offset < 0 || offset >= len(data) {
		return nil, fmt.Errorf("%w: offset %d of %d units", errs.ErrInvalidRootOffset, offset, len(data))
	}

	root := int32(offset)

	return &Trie{
		data:                 data,
		root:                 root,
		pos:                  root,
		remainingMatchLength: -1,
	}, nil
}

// Clone returns an independent cursor sharing the same buffer and
// positioned at the same state.
func (t *Trie) Clone() *Trie {
	c := *t
	return &c
}

// Reset returns the cursor to the root node.
func (t *Trie) Reset() *Trie {
	t.pos = t.root
	t.remainingMatchLength = -1

	return t
}

// State is a snapshot of a cursor position, opaque beyond save/restore.
type State struct {
	data                 []uint16
	root                 int32
	pos                  int32
	remainingMatchLength int32
}

// SaveState captures the current cursor state.
func (t *Trie) SaveState() State {
	return State{
		data:                 t.data,
		root:                 t.root,
		pos:                  t.pos,
		remainingMatchLength: t.remainingMatchLength,
	}
}

// ResetToState restores a state previously captured with SaveState. The
// state must come from a cursor over the same buffer with the same root;
// otherwise ErrStateMismatch is returned and the cursor is unchanged.
func (t *Trie) ResetToState(s State) error {
	if len(s.data) != len(t.data) || &s.data[0] != &t.data[0] || s.root != t.root {
		return errs.ErrStateMismatch
	}
	t.pos = s.pos
	t.remainingMatchLength = s.remainingMatchLength

	return nil
}

func (t *Trie) stop() format.Result {
	t.pos = -1
	return format.NoMatch
}

func valueResult(node int32) format.Result {
	return format.IntermediateValue - format.Result(node>>15)
}

// Current reports the match state at the current position without
// consuming input.
func (t *Trie) Current() format.Result {
	pos := t.pos
	if pos < 0 {
		return format.NoMatch
	}
	if node := int32(t.data[pos]); t.remainingMatchLength < 0 && node >= minValueLead {
		return valueResult(node)
	}

	return format.NoValue
}

// First resets the cursor to the root and consumes one input unit.
func (t *Trie) First(unit uint16) format.Result {
	t.remainingMatchLength = -1
	return t.nextImpl(t.root, int32(unit))
}

// FirstForCodePoint resets the cursor to the root and consumes the code
// point cp, as one unit for the basic plane or as a surrogate pair above
// it.
func (t *Trie) FirstForCodePoint(cp rune) format.Result {
	if cp <= 0xffff {
		return t.First(uint16(cp))
	}
	if result := t.First(leadSurrogate(cp)); result.HasNext() {
		return t.Next(trailSurrogate(cp))
	}

	return t.stop()
}

// Next consumes one input unit from the current state.
func (t *Trie) Next(unit uint16) format.Result {
	pos := t.pos
	if pos < 0 {
		return format.NoMatch
	}
	if length := t.remainingMatchLength; length >= 0 {
		// Remaining part of a linear-match node.
		if t.data[pos] != unit {
			return t.stop()
		}
		pos++
		length--
		t.remainingMatchLength = length
		t.pos = pos
		if length < 0 {
			if node := int32(t.data[pos]); node >= minValueLead {
				return valueResult(node)
			}
		}

		return format.NoValue
	}

	return t.nextImpl(pos, int32(unit))
}

// NextForCodePoint consumes the code point cp, as one unit for the basic
// plane or as a surrogate pair above it. When the lead surrogate step does
// not yield a continuable state, the cursor short-circuits to NoMatch
// without consuming a trail unit.
func (t *Trie) NextForCodePoint(cp rune) format.Result {
	if cp <= 0xffff {
		return t.Next(uint16(cp))
	}
	if result := t.Next(leadSurrogate(cp)); result.HasNext() {
		return t.Next(trailSurrogate(cp))
	}

	return t.stop()
}

func leadSurrogate(cp rune) uint16 {
	return uint16(0xd7c0 + (cp >> 10))
}

func trailSurrogate(cp rune) uint16 {
	return uint16(0xdc00 | (cp & 0x3ff))
}

// NextChars consumes a span of input units, exactly as if Next had been
// called for each unit in order. An empty span reports Current.
func (t *Trie) NextChars(s []uint16) format.Result {
	if len(s) == 0 {
		return t.Current()
	}
	pos := t.pos
	if pos < 0 {
		return format.NoMatch
	}
	length := t.remainingMatchLength
	data := t.data
	i := 0
	for {
		// Fetch the next input unit; consume any pending linear match.
		var unit int32
		for {
			if i == len(s) {
				t.remainingMatchLength = length
				t.pos = pos
				if length < 0 {
					if node := int32(data[pos]); node >= minValueLead {
						return valueResult(node)
					}
				}

				return format.NoValue
			}
			unit = int32(s[i])
			i++
			if length < 0 {
				t.remainingMatchLength = length
				break
			}
			if unit != int32(data[pos]) {
				return t.stop()
			}
			pos++
			length--
		}
		for {
			node := int32(data[pos])
			pos++
			if node >= minValueLead {
				if node&valueIsFinal != 0 {
					// No further matching units.
					return t.stop()
				}
				// Skip the intermediate value; the node type is packed in
				// the same lead unit.
				pos = skipNodeValue(pos, node)
				node &= nodeTypeMask
			}
			if node < minLinearMatch {
				result := t.branchNext(pos, node, unit)
				if result == format.NoMatch {
					return format.NoMatch
				}
				// Fetch the next input unit, if there is one.
				if i == len(s) {
					return result
				}
				unit = int32(s[i])
				i++
				if result == format.FinalValue {
					// No further matching units.
					return t.stop()
				}
				pos = t.pos // branchNext advanced the cursor
			} else {
				// Match length+1 units from the linear-match node.
				length = node - minLinearMatch
				if unit != int32(data[pos]) {
					return t.stop()
				}
				pos++
				length--
				break
			}
		}
	}
}

// nextImpl dispatches one input unit starting at a node lead position.
func (t *Trie) nextImpl(pos, unit int32) format.Result {
	data := t.data
	node := int32(data[pos])
	pos++
	for {
		if node < minLinearMatch {
			return t.branchNext(pos, node, unit)
		} else if node < minValueLead {
			// Match the first of length+1 units.
			length := node - minLinearMatch
			if unit == int32(data[pos]) {
				pos++
				length--
				t.remainingMatchLength = length
				t.pos = pos
				if length < 0 {
					if node = int32(data[pos]); node >= minValueLead {
						return valueResult(node)
					}
				}

				return format.NoValue
			}
			// No match.
			break
		} else if node&valueIsFinal != 0 {
			// No further matching units.
			break
		} else {
			// Skip the intermediate value; the node type shares the lead.
			pos = skipNodeValue(pos, node)
			node &= nodeTypeMask
		}
	}

	return t.stop()
}

// branchNext finds the edge for unit in the branch node at pos, whose lead
// (width-1, or 0 for a following width unit) has been consumed.
func (t *Trie) branchNext(pos, length, unit int32) format.Result {
	data := t.data
	if length == 0 {
		length = int32(data[pos])
		pos++
	}
	length++
	// Binary-split portion.
	for length > maxBranchLinearSubNodeLength {
		if unit < int32(data[pos]) {
			pos++
			length >>= 1
			pos = jumpByDelta(data, pos)
		} else {
			pos++
			length -= length >> 1
			pos = skipDelta(data, pos)
		}
	}
	// Linear list of (unit, value) pairs.
	for {
		if unit == int32(data[pos]) {
			pos++
			node := int32(data[pos])
			if node&valueIsFinal != 0 {
				// Leave the final value for GetValue to read.
				t.pos = pos
				return format.FinalValue
			}
			// Use the non-final value as the jump delta.
			pos++
			delta := readValue(data, pos, node)
			pos = skipValueLead(pos, node)
			pos += delta
			t.pos = pos
			if node = int32(data[pos]); node >= minValueLead {
				return valueResult(node)
			}

			return format.NoValue
		}
		length--
		pos = skipValue(data, pos+1)
		if length <= 1 {
			break
		}
	}
	// Last candidate unit: a match continues at the node that follows it.
	if unit == int32(data[pos]) {
		pos++
		t.pos = pos
		if node := int32(data[pos]); node >= minValueLead {
			return valueResult(node)
		}

		return format.NoValue
	}

	return t.stop()
}

// GetValue decodes the value at the current position. It must only be
// called immediately after a Result for which HasValue() is true; in any
// other state the returned value is meaningless.
func (t *Trie) GetValue() int32 {
	pos := t.pos
	leadUnit := int32(t.data[pos])
	pos++
	if leadUnit&valueIsFinal != 0 {
		return readValue(t.data, pos, leadUnit&0x7fff)
	}

	return readNodeValue(t.data, pos, leadUnit)
}

// HasUniqueValue walks every value reachable from the current state and
// reports (value, true) if all of them are identical, or (0, false)
// otherwise. The cursor is not moved.
func (t *Trie) HasUniqueValue() (int32, bool) {
	pos := t.pos
	if pos < 0 {
		return 0, false
	}
	// Skip the rest of a pending linear-match node.
	value, _, ok := findUniqueValue(t.data, pos+t.remainingMatchLength+1, false, 0)
	if !ok {
		return 0, false
	}

	return value, true
}

func findUniqueValue(data []uint16, pos int32, haveUniqueValue bool, uniqueValue int32) (int32, bool, bool) {
	node := int32(data[pos])
	pos++
	for {
		if node < minLinearMatch {
			if node == 0 {
				node = int32(data[pos])
				pos++
			}
			var ok bool
			pos, uniqueValue, haveUniqueValue, ok = findUniqueValueFromBranch(data, pos, node+1, haveUniqueValue, uniqueValue)
			if !ok {
				return 0, false, false
			}
			haveUniqueValue = true
			node = int32(data[pos])
			pos++
		} else if node < minValueLead {
			// Ignore the linear-match units.
			pos += node - minLinearMatch + 1
			node = int32(data[pos])
			pos++
		} else {
			isFinal := node&valueIsFinal != 0
			var value int32
			if isFinal {
				value = readValue(data, pos, node&0x7fff)
			} else {
				value = readNodeValue(data, pos, node)
			}
			if haveUniqueValue {
				if value != uniqueValue {
					return 0, false, false
				}
			} else {
				uniqueValue = value
				haveUniqueValue = true
			}
			if isFinal {
				return uniqueValue, haveUniqueValue, true
			}
			pos = skipNodeValue(pos, node)
			node &= nodeTypeMask
		}
	}
}

func findUniqueValueFromBranch(data []uint16, pos, length int32, haveUniqueValue bool, uniqueValue int32) (int32, int32, bool, bool) {
	for length > maxBranchLinearSubNodeLength {
		pos++ // ignore the comparison unit
		var ok bool
		_, uniqueValue, haveUniqueValue, ok = findUniqueValueFromBranch(data, jumpByDelta(data, pos), length>>1, haveUniqueValue, uniqueValue)
		if !ok {
			return 0, 0, false, false
		}
		haveUniqueValue = true
		length -= length >> 1
		pos = skipDelta(data, pos)
	}
	for {
		pos++ // ignore a comparison unit
		node := int32(data[pos])
		pos++
		isFinal := node&valueIsFinal != 0
		node &= 0x7fff
		value := readValue(data, pos, node)
		pos = skipValueLead(pos, node)
		if isFinal {
			if haveUniqueValue {
				if value != uniqueValue {
					return 0, 0, false, false
				}
			} else {
				uniqueValue = value
				haveUniqueValue = true
			}
		} else {
			// The non-final value is the jump delta to the sub-node.
			var ok bool
			uniqueValue, haveUniqueValue, ok = findUniqueValue(data, pos+value, haveUniqueValue, uniqueValue)
			if !ok {
				return 0, 0, false, false
			}
		}
		length--
		if length <= 1 {
			break
		}
	}

	// ignore the last comparison unit
	return pos + 1, uniqueValue, haveUniqueValue, true
}

// GetNextChars appends to dst every unit that would make the next Next
// call match, in lexicographic order, and returns the extended slice. The
// cursor is not moved.
func (t *Trie) GetNextChars(dst []uint16) []uint16 {
	pos := t.pos
	if pos < 0 {
		return dst
	}
	data := t.data
	if t.remainingMatchLength >= 0 {
		// Next unit of a pending linear-match node.
		return append(dst, data[pos])
	}
	node := int32(data[pos])
	pos++
	if node >= minValueLead {
		if node&valueIsFinal != 0 {
			return dst
		}
		pos = skipNodeValue(pos, node)
		node &= nodeTypeMask
	}
	if node < minLinearMatch {
		if node == 0 {
			node = int32(data[pos])
			pos++
		}

		return appendNextBranchChars(data, pos, node+1, dst)
	}

	// First unit of the linear-match node.
	return append(dst, data[pos])
}

func appendNextBranchChars(data []uint16, pos, length int32, dst []uint16) []uint16 {
	for length > maxBranchLinearSubNodeLength {
		pos++ // ignore the comparison unit
		dst = appendNextBranchChars(data, jumpByDelta(data, pos), length>>1, dst)
		length -= length >> 1
		pos = skipDelta(data, pos)
	}
	for {
		dst = append(dst, data[pos])
		pos++
		pos = skipValue(data, pos)
		length--
		if length <= 1 {
			break
		}
	}

	return append(dst, data[pos])
}
