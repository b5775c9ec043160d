package bytestrie

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/jeme/unitrie/errs"
	"github.com/jeme/unitrie/internal/options"
)

const (
	// defaultInitialCapacity is the smallest backing array allocated for a
	// build; the array doubles whenever a write would overflow it.
	defaultInitialCapacity = 1024
)

// Builder builds a serialized byte trie from (key, value) pairs.
//
// Keys are byte sequences of up to MaxKeyLength bytes and must be unique
// within one build cycle; values are arbitrary 32-bit integers. The builder
// copies every key, so callers may reuse their buffers.
//
// Nodes are written from the end of a growable backing array toward its
// start, so the already-written suffix stays contiguous as nodes are
// prepended. Every position captured during emission is the count of bytes
// written so far, never an array index; growth therefore only has to copy
// the tail-aligned content, not rewrite emitted deltas.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	elements []element

	bytes       []byte // tail-anchored backing array, nil until a build
	bytesLength int32  // number of bytes written so far
	serialized  []byte // view over the tail of bytes after a build

	initialCapacity int32
}

type element struct {
	key   []byte
	value int32
}

// Option configures a Builder.
type Option = options.Option[*Builder]

// WithInitialCapacity sets the initial size of the backing array allocated
// by the next build. Useful when the approximate serialized size is known
// up front.
func WithInitialCapacity(capacity int) Option {
	return options.New(func(b *Builder) error {
		if capacity <= 0 {
			return fmt.Errorf("initial capacity must be positive, got %d", capacity)
		}
		b.initialCapacity = int32(capacity)

		return nil
	})
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{initialCapacity: defaultInitialCapacity}
	if err := options.Apply(b, opts...); err != nil {
		return nil, err
	}

	return b, nil
}

// Add registers one (key, value) pair. The key bytes are copied.
//
// Duplicate keys are not detected here; they surface as ErrDuplicateKey
// from the next build. Add fails with ErrBuilderFrozen once a build has
// produced a serialized trie; call Clear to start a new cycle.
func (b *Builder) Add(key []byte, value int32) error {
	if b.serialized != nil {
		return errs.ErrBuilderFrozen
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %d bytes exceeds maximum %d", errs.ErrKeyTooLong, len(key), MaxKeyLength)
	}

	b.elements = append(b.elements, element{key: bytes.Clone(key), value: value})

	return nil
}

// AddString registers one (key, value) pair with the key given as a string
// of raw bytes.
func (b *Builder) AddString(key string, value int32) error {
	return b.Add([]byte(key), value)
}

// Build finalizes all pending pairs and returns a cursor over the
// serialized trie. Repeated calls return cursors over the same backing
// array until Clear is called.
func (b *Builder) Build() (*Trie, error) {
	serialized, err := b.BuildBytes()
	if err != nil {
		return nil, err
	}

	return New(serialized, 0)
}

// BuildBytes finalizes all pending pairs and returns the serialized trie
// buffer. The returned slice is a view over the builder's backing array
// and must be treated as read-only; it stays valid after Clear.
func (b *Builder) BuildBytes() ([]byte, error) {
	if err := b.buildBytes(); err != nil {
		return nil, err
	}

	return b.serialized, nil
}

// Clear discards all pending pairs and built state. The next build
// allocates a fresh backing array, so buffers handed out by earlier builds
// remain valid.
func (b *Builder) Clear() {
	b.elements = nil
	b.bytes = nil
	b.bytesLength = 0
	b.serialized = nil
}

func (b *Builder) buildBytes() error {
	if b.serialized != nil {
		// Already built.
		return nil
	}
	if len(b.elements) == 0 {
		return errs.ErrEmptyBuilder
	}

	// The emitted structure depends only on the sorted pair set, which
	// makes builds deterministic across insertion orders.
	sort.Slice(b.elements, func(i, j int) bool {
		return bytes.Compare(b.elements[i].key, b.elements[j].key) < 0
	})
	for i := 1; i < len(b.elements); i++ {
		if bytes.Equal(b.elements[i-1].key, b.elements[i].key) {
			return fmt.Errorf("%w: %q", errs.ErrDuplicateKey, b.elements[i].key)
		}
	}

	capacity := b.initialCapacity
	var total int32
	for i := range b.elements {
		total += int32(len(b.elements[i].key))
	}
	if total > capacity {
		capacity = total
	}
	b.bytes = make([]byte, capacity)
	b.bytesLength = 0

	b.writeNode(0, int32(len(b.elements)), 0)
	b.serialized = b.bytes[int32(len(b.bytes))-b.bytesLength:]

	return nil
}

// ensureCapacity grows the backing array until it can hold length bytes,
// copying the tail-aligned content so that all written-count offsets stay
// valid.
func (b *Builder) ensureCapacity(length int32) {
	capacity := int32(len(b.bytes))
	if length <= capacity {
		return
	}
	newCapacity := capacity
	for newCapacity <= length {
		newCapacity *= 2
	}
	newBytes := make([]byte, newCapacity)
	copy(newBytes[newCapacity-b.bytesLength:], b.bytes[capacity-b.bytesLength:])
	b.bytes = newBytes
}

// write prepends one byte and returns the new written-count offset.
func (b *Builder) write(v int32) int32 {
	newLength := b.bytesLength + 1
	b.ensureCapacity(newLength)
	b.bytesLength = newLength
	b.bytes[int32(len(b.bytes))-b.bytesLength] = byte(v)

	return b.bytesLength
}

// writeMany prepends a byte run and returns the new written-count offset.
func (b *Builder) writeMany(s []byte) int32 {
	newLength := b.bytesLength + int32(len(s))
	b.ensureCapacity(newLength)
	b.bytesLength = newLength
	copy(b.bytes[int32(len(b.bytes))-b.bytesLength:], s)

	return b.bytesLength
}

// writeValueAndFinal prepends the compact encoding of value with the final
// flag in the low bit of the lead byte.
func (b *Builder) writeValueAndFinal(value int32, isFinal bool) int32 {
	var finalBit int32
	if isFinal {
		finalBit = valueIsFinal
	}
	if 0 <= value && value <= maxOneByteValue {
		return b.write(((minOneByteValueLead + value) << 1) | finalBit)
	}

	var intBytes [5]byte
	length := int32(1)
	if value < 0 || value > 0xffffff {
		intBytes[0] = fiveByteValueLead
		intBytes[1] = byte(value >> 24)
		intBytes[2] = byte(value >> 16)
		intBytes[3] = byte(value >> 8)
		intBytes[4] = byte(value)
		length = 5
	} else if value <= maxTwoByteValue {
		intBytes[0] = byte(minTwoByteValueLead + (value >> 8))
		intBytes[1] = byte(value)
		length = 2
	} else {
		if value <= maxThreeByteValue {
			intBytes[0] = byte(minThreeByteValueLead + (value >> 16))
		} else {
			intBytes[0] = fourByteValueLead
			intBytes[1] = byte(value >> 16)
			length = 2
		}
		intBytes[length] = byte(value >> 8)
		length++
		intBytes[length] = byte(value)
		length++
	}
	intBytes[0] = byte((int32(intBytes[0]) << 1) | finalBit)

	return b.writeMany(intBytes[:length])
}

// writeValueAndType prepends the node-type byte and, when hasValue is set,
// the intermediate value for the prefix ending at this node. Intermediate
// values are never final: they attach to a node that continues matching.
func (b *Builder) writeValueAndType(hasValue bool, value, node int32) int32 {
	offset := b.write(node)
	if hasValue {
		offset = b.writeValueAndFinal(value, false)
	}

	return offset
}

// writeDeltaTo prepends the jump delta from the current written count back
// to jumpTarget. A negative delta would mean the target has not been
// written yet, which the back-to-front emission order rules out.
func (b *Builder) writeDeltaTo(jumpTarget int32) int32 {
	delta := b.bytesLength - jumpTarget
	if delta <= maxOneByteDelta {
		return b.write(delta)
	}

	var intBytes [5]byte
	length := int32(1)
	if delta <= maxTwoByteDelta {
		intBytes[0] = byte(minTwoByteDeltaLead + (delta >> 8))
	} else {
		if delta <= maxThreeByteDelta {
			intBytes[0] = byte(minThreeByteDeltaLead + (delta >> 16))
		} else {
			if delta <= 0xffffff {
				intBytes[0] = fourByteDeltaLead
			} else {
				intBytes[0] = fiveByteDeltaLead
				intBytes[1] = byte(delta >> 24)
				length = 2
			}
			intBytes[length] = byte(delta >> 16)
			length++
		}
		intBytes[length] = byte(delta >> 8)
		length++
	}
	intBytes[length] = byte(delta)
	length++

	return b.writeMany(intBytes[:length])
}

// writeNode serializes the sub-trie for elements[start:limit], which all
// share the first byteIndex key bytes, and returns its written-count
// offset.
func (b *Builder) writeNode(start, limit, byteIndex int32) int32 {
	hasValue := false
	var value int32
	if byteIndex == int32(len(b.elements[start].key)) {
		// An intermediate or final value.
		value = b.elements[start].value
		start++
		if start == limit {
			return b.writeValueAndFinal(value, true) // final-value node
		}
		hasValue = true
	}
	// Now all [start:limit] keys are longer than byteIndex.
	minUnit := b.elements[start].key[byteIndex]
	maxUnit := b.elements[limit-1].key[byteIndex]
	var typ int32
	if minUnit == maxUnit {
		// Linear-match node: all keys agree on a run of bytes.
		lastByteIndex := b.limitOfLinearMatch(start, limit-1, byteIndex)
		b.writeNode(start, limit, lastByteIndex)
		// Break the run into chunks of at most maxLinearMatchLength.
		length := lastByteIndex - byteIndex
		for length > maxLinearMatchLength {
			lastByteIndex -= maxLinearMatchLength
			length -= maxLinearMatchLength
			b.writeMany(b.elements[start].key[lastByteIndex : lastByteIndex+maxLinearMatchLength])
			b.write(minLinearMatch + maxLinearMatchLength - 1)
		}
		b.writeMany(b.elements[start].key[byteIndex : byteIndex+length])
		typ = minLinearMatch + length - 1
	} else {
		// Branch node.
		length := b.countElementUnits(start, limit, byteIndex)
		// length >= 2 because minUnit != maxUnit.
		b.writeBranchSubNode(start, limit, byteIndex, length)
		length--
		if length < minLinearMatch {
			typ = length
		} else {
			b.write(length)
			typ = 0
		}
	}

	return b.writeValueAndType(hasValue, value, typ)
}

// writeBranchSubNode serializes the branch over the distinct bytes at
// byteIndex for elements[start:limit]. Branches wider than
// maxBranchLinearSubNodeLength are split recursively on the middle byte.
func (b *Builder) writeBranchSubNode(start, limit, byteIndex, length int32) int32 {
	var middleUnits []byte
	var lessThan []int32
	for length > maxBranchLinearSubNodeLength {
		// Branch on the middle byte; encode the less-than half first.
		i := b.skipElementsBySomeUnits(start, byteIndex, length>>1)
		middleUnits = append(middleUnits, b.elements[i].key[byteIndex])
		lessThan = append(lessThan, b.writeBranchSubNode(start, i, byteIndex, length>>1))
		// Continue for the greater-or-equal half.
		start = i
		length -= length >> 1
	}
	// For each byte, find its element range and whether it is a final value.
	var starts [maxBranchLinearSubNodeLength]int32
	var isFinal [maxBranchLinearSubNodeLength - 1]bool
	var unitNumber int32
	for {
		i := start
		starts[unitNumber] = i
		unit := b.elements[i].key[byteIndex]
		i = b.indexOfElementWithNextUnit(i+1, byteIndex, unit)
		isFinal[unitNumber] = start == i-1 && byteIndex+1 == int32(len(b.elements[start].key))
		start = i
		unitNumber++
		if unitNumber >= length-1 {
			break
		}
	}
	// unitNumber == length-1, and the maxUnit element range is [start:limit].
	starts[unitNumber] = start

	// Write the sub-nodes in reverse order: jump deltas shrink with the
	// distance to the target, so the smallest byte's sub-node is written
	// last and gets the shortest delta.
	var jumpTargets [maxBranchLinearSubNodeLength - 1]int32
	for {
		unitNumber--
		if !isFinal[unitNumber] {
			jumpTargets[unitNumber] = b.writeNode(starts[unitNumber], starts[unitNumber+1], byteIndex+1)
		}
		if unitNumber <= 0 {
			break
		}
	}
	// The maxUnit sub-node is written last of all; it continues inline
	// with no jump.
	unitNumber = length - 1
	b.writeNode(start, limit, byteIndex+1)
	offset := b.write(int32(b.elements[start].key[byteIndex]))
	// Write this node's (byte, value-or-delta) pairs.
	for unitNumber--; unitNumber >= 0; unitNumber-- {
		start = starts[unitNumber]
		var value int32
		if isFinal[unitNumber] {
			// Final value for the one key ending with this byte.
			value = b.elements[start].value
		} else {
			// Delta to the start position of the sub-node.
			value = offset - jumpTargets[unitNumber]
		}
		b.writeValueAndFinal(value, isFinal[unitNumber])
		offset = b.write(int32(b.elements[start].key[byteIndex]))
	}
	// Write the split-branch nodes, innermost first.
	for i := len(middleUnits) - 1; i >= 0; i-- {
		b.writeDeltaTo(lessThan[i])
		offset = b.write(int32(middleUnits[i]))
	}

	return offset
}

// limitOfLinearMatch returns the first byte index at which the first and
// last elements of a range disagree (or the first element ends).
func (b *Builder) limitOfLinearMatch(first, last, byteIndex int32) int32 {
	firstKey := b.elements[first].key
	lastKey := b.elements[last].key
	minLength := int32(len(firstKey))
	for byteIndex++; byteIndex < minLength && firstKey[byteIndex] == lastKey[byteIndex]; byteIndex++ {
	}

	return byteIndex
}

// countElementUnits counts the distinct bytes at byteIndex across
// elements[start:limit].
func (b *Builder) countElementUnits(start, limit, byteIndex int32) int32 {
	var length int32 // number of different bytes at byteIndex
	i := start
	for {
		unit := b.elements[i].key[byteIndex]
		i++
		for i < limit && unit == b.elements[i].key[byteIndex] {
			i++
		}
		length++
		if i >= limit {
			break
		}
	}

	return length
}

// skipElementsBySomeUnits advances past count distinct bytes at byteIndex.
func (b *Builder) skipElementsBySomeUnits(i, byteIndex, count int32) int32 {
	for {
		unit := b.elements[i].key[byteIndex]
		i++
		for unit == b.elements[i].key[byteIndex] {
			i++
		}
		count--
		if count <= 0 {
			break
		}
	}

	return i
}

// indexOfElementWithNextUnit returns the index of the first element whose
// byte at byteIndex differs from unit. Callers guarantee such an element
// exists within the current branch range.
func (b *Builder) indexOfElementWithNextUnit(i, byteIndex int32, unit byte) int32 {
	for unit == b.elements[i].key[byteIndex] {
		i++
	}

	return i
}
