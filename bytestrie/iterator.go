package bytestrie

import "github.com/jeme/unitrie/errs"

// Iterator enumerates all (key, value) pairs reachable from a starting
// cursor state, in lexicographic key order.
//
// It performs an explicit depth-first walk with its own backtracking
// stack, so trie depth never translates into call-stack depth. Each stack
// entry records a resume position, how many sibling edges of a branch node
// remain, and the matched length to truncate the key back to on resume.
//
// Usage follows the cursor pattern:
//
//	for it.Next() {
//	    process(it.Key(), it.Value())
//	}
type Iterator struct {
	data []byte

	pos                         int32 // -1: deliver from the stack (or stop)
	initialPos                  int32
	remainingMatchLength        int32
	initialRemainingMatchLength int32

	key       []byte
	value     int32
	maxLength int32

	// stack holds pairs of (resume position,
	// remainingBranchLength<<16 | key length at the branch).
	stack []int32
}

// TruncatedValue is reported for an entry cut off by the maximum key
// length before any real value was reached. It is indistinguishable from a
// genuine value of the same number; callers that need to tell them apart
// must track truncation themselves.
const TruncatedValue int32 = -1

// NewIterator enumerates the whole trie serialized at data[offset:],
// like Iterate on a freshly reset cursor.
//
// maxKeyLength, when positive, truncates enumeration to keys of at most
// that many bytes; entries cut short report TruncatedValue.
func NewIterator(data []byte, offset, maxKeyLength int) (*Iterator, error) {
	if len(data) == 0 || offset < 0 || offset >= len(data) {
		return nil, errs.ErrInvalidRootOffset
	}

	it := &Iterator{
		data:                        data,
		pos:                         int32(offset),
		initialPos:                  int32(offset),
		remainingMatchLength:        -1,
		initialRemainingMatchLength: -1,
		maxLength:                   int32(maxKeyLength),
	}

	return it, nil
}

// Iterate returns an iterator over every (key, value) pair reachable from
// the trie's current state; keys contain only the bytes beyond that state.
// The trie cursor itself is not moved.
func (t *Trie) Iterate(maxKeyLength int) *Iterator {
	it := &Iterator{
		data:                        t.data,
		pos:                         t.pos,
		initialPos:                  t.pos,
		remainingMatchLength:        t.remainingMatchLength,
		initialRemainingMatchLength: t.remainingMatchLength,
		maxLength:                   int32(maxKeyLength),
	}
	it.consumePendingLinearMatch()

	return it
}

// consumePendingLinearMatch appends the remaining bytes of a mid-run
// linear-match node to the key, clipped to maxLength. A clipped run leaves
// remainingMatchLength >= 0 as the truncation signal for the first Next.
func (it *Iterator) consumePendingLinearMatch() {
	length := it.remainingMatchLength + 1
	if it.maxLength > 0 && length > it.maxLength {
		length = it.maxLength
	}
	if length > 0 && it.pos >= 0 {
		it.key = append(it.key, it.data[it.pos:it.pos+length]...)
		it.pos += length
		it.remainingMatchLength -= length
	}
}

// Reset returns the iterator to its starting state, replaying the same
// initial linear-match consumption performed at construction.
func (it *Iterator) Reset() *Iterator {
	it.pos = it.initialPos
	it.remainingMatchLength = it.initialRemainingMatchLength
	it.key = it.key[:0]
	it.stack = it.stack[:0]
	it.value = 0
	it.consumePendingLinearMatch()

	return it
}

// Key returns the key of the current entry. The slice is reused by
// subsequent Next calls; copy it if it must be retained.
func (it *Iterator) Key() []byte {
	return it.key
}

// Value returns the value of the current entry, or TruncatedValue when the
// entry was cut off by the maximum key length.
func (it *Iterator) Value() int32 {
	return it.value
}

// Next advances to the next entry and reports whether one exists.
func (it *Iterator) Next() bool {
	pos := it.pos
	if pos < 0 {
		if len(it.stack) == 0 {
			return false
		}
		// Pop a branch state and continue with its next outbound edge.
		n := len(it.stack)
		length := it.stack[n-1]
		pos = it.stack[n-2]
		it.stack = it.stack[:n-2]
		it.key = it.key[:length&0xffff]
		length >>= 16
		if length > 1 {
			pos = it.branchNext(pos, length)
			if pos < 0 {
				return true // Reached a final value.
			}
		} else {
			it.key = append(it.key, it.data[pos])
			pos++
		}
	}
	if it.remainingMatchLength >= 0 {
		// We get here only when the iterator started inside a pending
		// linear-match node with more than maxLength bytes remaining.
		return it.truncateAndStop()
	}
	for {
		node := int32(it.data[pos])
		pos++
		if node >= minValueLead {
			// Deliver the value for the key so far.
			isFinal := node&valueIsFinal != 0
			it.value = readValue(it.data, pos, node>>1)
			if isFinal || (it.maxLength > 0 && int32(len(it.key)) == it.maxLength) {
				it.pos = -1
			} else {
				it.pos = skipValueLead(pos, node)
			}

			return true
		}
		if it.maxLength > 0 && int32(len(it.key)) == it.maxLength {
			return it.truncateAndStop()
		}
		if node < minLinearMatch {
			if node == 0 {
				node = int32(it.data[pos])
				pos++
			}
			pos = it.branchNext(pos, node+1)
			if pos < 0 {
				return true // Reached a final value.
			}
		} else {
			// Linear-match node: append its run to the key.
			length := node - minLinearMatch + 1
			if it.maxLength > 0 && int32(len(it.key))+length > it.maxLength {
				clip := it.maxLength - int32(len(it.key))
				it.key = append(it.key, it.data[pos:pos+clip]...)

				return it.truncateAndStop()
			}
			it.key = append(it.key, it.data[pos:pos+length]...)
			pos += length
		}
	}
}

// branchNext descends the leftmost edge of the branch node at pos, pushing
// resume state for every skipped sibling. It returns the continuation
// position, or -1 after delivering a final value.
func (it *Iterator) branchNext(pos, length int32) int32 {
	data := it.data
	for length > maxBranchLinearSubNodeLength {
		pos++ // ignore the comparison byte
		// Push state for the greater-or-equal half.
		it.stack = append(it.stack, skipDelta(data, pos), ((length-(length>>1))<<16)|int32(len(it.key)))
		// Follow the less-than half.
		length >>= 1
		pos = jumpByDelta(data, pos)
	}
	// Read the first (byte, value) pair of the linear list.
	trieByte := data[pos]
	pos++
	node := int32(data[pos])
	pos++
	isFinal := node&valueIsFinal != 0
	value := readValue(data, pos, node>>1)
	pos = skipValueLead(pos, node)
	it.stack = append(it.stack, pos, ((length-1)<<16)|int32(len(it.key)))
	it.key = append(it.key, trieByte)
	if isFinal {
		it.pos = -1
		it.value = value

		return -1
	}

	return pos + value
}

func (it *Iterator) truncateAndStop() bool {
	it.pos = -1
	it.value = TruncatedValue

	return true
}
