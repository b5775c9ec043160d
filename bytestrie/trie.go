package bytestrie

import (
	"fmt"

	"github.com/jeme/unitrie/errs"
	"github.com/jeme/unitrie/format"
)

// Trie is a cursor over a serialized byte trie.
//
// A Trie borrows its buffer read-only: any number of cursors, saved states
// and iterators may share one buffer concurrently as long as nothing
// mutates it. The cursor itself is not safe for concurrent use; copy it
// with Clone for independent traversals.
//
// The zero Trie is not usable; obtain one from New or Builder.Build.
type Trie struct {
	data []byte
	root int32

	// pos is the current buffer offset, or -1 once matching has failed.
	pos int32
	// remainingMatchLength is the number of linear-match bytes still
	// pending minus 1, or -1 when the cursor is positioned on a node lead.
	remainingMatchLength int32
}

// New creates a cursor over a serialized trie whose root node starts at
// data[offset]. The buffer is borrowed, not copied; the caller must not
// mutate it while any cursor is live.
func New(data []byte, offset int) (*Trie, error) {
	if len(data) == 0 || offset < 0 || offset >= len(data) {
		return nil, fmt.Errorf("%w: offset %d of %d bytes", errs.ErrInvalidRootOffset, offset, len(data))
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
// It stays valid as long as the originating buffer does.
type State struct {
	data                 []byte
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

// ResetToState restores a state previously captured with SaveState.
// The state must have been captured from a cursor over the same buffer
// with the same root; otherwise ErrStateMismatch is returned and the
// cursor is left unchanged.
func (t *Trie) ResetToState(s State) error {
	if len(s.data) != len(t.data) || &s.data[0] != &t.data[0] || s.root != t.root {
		return errs.ErrStateMismatch
	}
	t.pos = s.pos
	t.remainingMatchLength = s.remainingMatchLength

	return nil
}

// stop moves the cursor into the absorbing no-match state.
func (t *Trie) stop() format.Result {
	t.pos = -1
	return format.NoMatch
}

func valueResult(node int32) format.Result {
	return format.IntermediateValue - format.Result(node&valueIsFinal)
}

// Current reports the match state at the current position without
// consuming input. It tells the caller whether GetValue may be called and
// whether further input could match.
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

// First resets the cursor to the root and consumes inByte as the first
// input byte. Equivalent to Reset followed by Next.
func (t *Trie) First(inByte byte) format.Result {
	t.remainingMatchLength = -1
	return t.nextImpl(t.root, int32(inByte))
}

// Next consumes one input byte from the current state.
func (t *Trie) Next(inByte byte) format.Result {
	pos := t.pos
	if pos < 0 {
		return format.NoMatch
	}
	if length := t.remainingMatchLength; length >= 0 {
		// Remaining part of a linear-match node.
		if t.data[pos] != inByte {
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

	return t.nextImpl(pos, int32(inByte))
}

// NextBytes consumes a span of input bytes, exactly as if Next had been
// called for each byte in order. An empty span reports Current.
func (t *Trie) NextBytes(s []byte) format.Result {
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
		// Fetch the next input byte; without rechecking mid linear-match.
		var inByte int32
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
			inByte = int32(s[i])
			i++
			if length < 0 {
				t.remainingMatchLength = length
				break
			}
			if inByte != int32(data[pos]) {
				return t.stop()
			}
			pos++
			length--
		}
		for {
			node := int32(data[pos])
			pos++
			if node < minLinearMatch {
				result := t.branchNext(pos, node, inByte)
				if result == format.NoMatch {
					return format.NoMatch
				}
				// Fetch the next input byte, if there is one.
				if i == len(s) {
					return result
				}
				inByte = int32(s[i])
				i++
				if result == format.FinalValue {
					// No further matching bytes.
					return t.stop()
				}
				pos = t.pos // branchNext advanced the cursor
			} else if node < minValueLead {
				// Match length+1 bytes from the linear-match node.
				length = node - minLinearMatch
				if inByte != int32(data[pos]) {
					return t.stop()
				}
				pos++
				length--
				break
			} else if node&valueIsFinal != 0 {
				// No further matching bytes.
				return t.stop()
			} else {
				// Skip intermediate value.
				pos = skipValueLead(pos, node)
			}
		}
	}
}

// nextImpl dispatches one input byte starting at a node lead position.
func (t *Trie) nextImpl(pos, inByte int32) format.Result {
	data := t.data
	for {
		node := int32(data[pos])
		pos++
		if node < minLinearMatch {
			return t.branchNext(pos, node, inByte)
		} else if node < minValueLead {
			// Match the first of length+1 bytes.
			length := node - minLinearMatch
			if inByte == int32(data[pos]) {
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
			// No further matching bytes.
			break
		} else {
			// Skip intermediate value.
			pos = skipValueLead(pos, node)
		}
	}

	return t.stop()
}

// branchNext finds the edge for inByte in the branch node at pos, whose
// lead byte (width-1, or 0 for a following width byte) has been consumed.
func (t *Trie) branchNext(pos, length, inByte int32) format.Result {
	data := t.data
	if length == 0 {
		length = int32(data[pos])
		pos++
	}
	length++
	// The encoded binary-split portion: compare against the middle byte
	// and jump to the less-than half, or continue inline.
	for length > maxBranchLinearSubNodeLength {
		if inByte < int32(data[pos]) {
			pos++
			length >>= 1
			pos = jumpByDelta(data, pos)
		} else {
			pos++
			length -= length >> 1
			pos = skipDelta(data, pos)
		}
	}
	// Drop down to linear search over the remaining (byte, value) pairs.
	// length >= 2 here: the split loop only sees length > 5 and halves it.
	for {
		if inByte == int32(data[pos]) {
			pos++
			node := int32(data[pos])
			if node&valueIsFinal != 0 {
				// Leave the final value for GetValue to read.
				t.pos = pos
				return format.FinalValue
			}
			// Use the non-final value as the jump delta.
			pos++
			delta := readValue(data, pos, node>>1)
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
	// The last candidate byte has no attached value; a match continues at
	// the node that follows it.
	if inByte == int32(data[pos]) {
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
	leadByte := int32(t.data[pos])
	pos++

	return readValue(t.data, pos, leadByte>>1)
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

// findUniqueValue returns (uniqueValue, haveUnique, stillUnique) for the
// subtree at pos.
func findUniqueValue(data []byte, pos int32, haveUniqueValue bool, uniqueValue int32) (int32, bool, bool) {
	for {
		node := int32(data[pos])
		pos++
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
		} else if node < minValueLead {
			// Ignore the linear-match bytes.
			pos += node - minLinearMatch + 1
		} else {
			isFinal := node&valueIsFinal != 0
			value := readValue(data, pos, node>>1)
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
			pos = skipValueLead(pos, node)
		}
	}
}

// findUniqueValueFromBranch checks every edge of the branch node at pos.
// The returned position is just after the last comparison byte; ok is
// false as soon as two distinct values are seen.
func findUniqueValueFromBranch(data []byte, pos, length int32, haveUniqueValue bool, uniqueValue int32) (int32, int32, bool, bool) {
	for length > maxBranchLinearSubNodeLength {
		pos++ // ignore the comparison byte
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
		pos++ // ignore a comparison byte
		node := int32(data[pos])
		pos++
		isFinal := node&valueIsFinal != 0
		value := readValue(data, pos, node>>1)
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

	// ignore the last comparison byte
	return pos + 1, uniqueValue, haveUniqueValue, true
}

// GetNextBytes appends to dst every byte that would make the next Next
// call match, and returns the extended slice. The one-step alphabet is
// produced in lexicographic order; the cursor is not moved.
func (t *Trie) GetNextBytes(dst []byte) []byte {
	pos := t.pos
	if pos < 0 {
		return dst
	}
	data := t.data
	if t.remainingMatchLength >= 0 {
		// Next byte of a pending linear-match node.
		return append(dst, data[pos])
	}
	node := int32(data[pos])
	pos++
	if node >= minValueLead {
		if node&valueIsFinal != 0 {
			return dst
		}
		pos = skipValueLead(pos, node)
		node = int32(data[pos])
		pos++
	}
	if node < minLinearMatch {
		if node == 0 {
			node = int32(data[pos])
			pos++
		}

		return appendNextBranchBytes(data, pos, node+1, dst)
	}

	// First byte of the linear-match node.
	return append(dst, data[pos])
}

func appendNextBranchBytes(data []byte, pos, length int32, dst []byte) []byte {
	for length > maxBranchLinearSubNodeLength {
		pos++ // ignore the comparison byte
		dst = appendNextBranchBytes(data, jumpByDelta(data, pos), length>>1, dst)
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
