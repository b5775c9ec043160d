package charstrie

import (
	"fmt"
	"slices"
	"sort"
	"unicode/utf16"

	"github.com/jeme/unitrie/errs"
	"github.com/jeme/unitrie/internal/options"
)

const (
	// defaultInitialCapacity is the smallest backing array allocated for a
	// build; the array doubles whenever a write would overflow it.
	defaultInitialCapacity = 1024
)

// Builder builds a serialized 16-bit-unit trie from (key, value) pairs.
//
// Keys are unit sequences of up to MaxKeyLength units and must be unique
// within one build cycle; values are arbitrary 32-bit integers. The builder
// copies every key, so callers may reuse their buffers.
//
// Nodes are written from the end of a growable backing array toward its
// start, so the already-written suffix stays contiguous as nodes are
// prepended. Every position captured during emission is the count of units
// written so far, never an array index; growth therefore only has to copy
// the tail-aligned content, not rewrite emitted deltas.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	elements []element

	units       []uint16 // tail-anchored backing array, nil until a build
	unitsLength int32    // number of units written so far
	serialized  []uint16 // view over the tail of units after a build

	initialCapacity int32
}

type element struct {
	key   []uint16
	value int32
}

// Option configures a Builder.
type Option = options.Option[*Builder]

// WithInitialCapacity sets the initial size of the backing array allocated
// by the next build, in units. Useful when the approximate serialized size
// is known up front.
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

// Add registers one (key, value) pair. The key units are copied.
//
// Duplicate keys are not detected here; they surface as ErrDuplicateKey
// from the next build. Add fails with ErrBuilderFrozen once a build has
// produced a serialized trie; call Clear to start a new cycle.
func (b *Builder) Add(key []uint16, value int32) error {
	if b.serialized != nil {
		return errs.ErrBuilderFrozen
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %d units exceeds maximum %d", errs.ErrKeyTooLong, len(key), MaxKeyLength)
	}

	b.elements = append(b.elements, element{key: slices.Clone(key), value: value})

	return nil
}

// AddString registers one (key, value) pair with the key given as a Go
// string; it is matched as its UTF-16 encoding.
func (b *Builder) AddString(key string, value int32) error {
	return b.Add(utf16.Encode([]rune(key)), value)
}

// Build finalizes all pending pairs and returns a cursor over the
// serialized trie. Repeated calls return cursors over the same backing
// array until Clear is called.
func (b *Builder) Build() (*Trie, error) {
	serialized, err := b.BuildUnits()
	if err != nil {
		return nil, err
	}

	return New(serialized, 0)
}

// BuildUnits finalizes all pending pairs and returns the serialized trie
// buffer. The returned slice is a view over the builder's backing array
// and must be treated as read-only; it stays valid after Clear.
func (b *Builder) BuildUnits() ([]uint16, error) {
	if err := b.buildUnits(); err != nil {
		return nil, err
	}

	return b.serialized, nil
}

// Clear discards all pending pairs and built state. The next build
// allocates a fresh backing array, so buffers handed out by earlier builds
// remain valid.
func (b *Builder) Clear() {
	b.elements = nil
	b.units = nil
	b.unitsLength = 0
	b.serialized = nil
}

func (b *Builder) buildUnits() error {
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
		return slices.Compare(b.elements[i].key, b.elements[j].key) < 0
	})
	for i := 1; i < len(b.elements); i++ {
		if slices.Equal(b.elements[i-1].key, b.elements[i].key) {
			return fmt.Errorf("%w: %q", errs.ErrDuplicateKey, string(utf16.Decode(b.elements[i].key)))
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
	b.units = make([]uint16, capacity)
	b.unitsLength = 0

	b.writeNode(0, int32(len(b.elements)), 0)
	b.serialized = b.units[int32(len(b.units))-b.unitsLength:]

	return nil
}

// ensureCapacity grows the backing array until it can hold length units,
// copying the tail-aligned content so that all written-count offsets stay
// valid.
func (b *Builder) ensureCapacity(length int32) {
	capacity := int32(len(b.units))
	if length <= capacity {
		return
	}
	newCapacity := capacity
	for newCapacity <= length {
		newCapacity *= 2
	}
	newUnits := make([]uint16, newCapacity)
	copy(newUnits[newCapacity-b.unitsLength:], b.units[capacity-b.unitsLength:])
	b.units = newUnits
}

// write prepends one unit and returns the new written-count offset.
func (b *Builder) write(v int32) int32 {
	newLength := b.unitsLength + 1
	b.ensureCapacity(newLength)
	b.unitsLength = newLength
	b.units[int32(len(b.units))-b.unitsLength] = uint16(v)

	return b.unitsLength
}

// writeMany prepends a unit run and returns the new written-count offset.
func (b *Builder) writeMany(s []uint16) int32 {
	newLength := b.unitsLength + int32(len(s))
	b.ensureCapacity(newLength)
	b.unitsLength = newLength
	copy(b.units[int32(len(b.units))-b.unitsLength:], s)

	return b.unitsLength
}

// writeValueAndFinal prepends the compact encoding of value with the final
// flag in the top bit of the lead unit.
func (b *Builder) writeValueAndFinal(value int32, isFinal bool) int32 {
	var finalBit int32
	if isFinal {
		finalBit = valueIsFinal
	}
	if 0 <= value && value <= maxOneUnitValue {
		return b.write(value | finalBit)
	}

	var intUnits [3]uint16
	var length int32
	if value < 0 || value > maxTwoUnitValue {
		intUnits[0] = threeUnitValueLead
		intUnits[1] = uint16(uint32(value) >> 16)
		intUnits[2] = uint16(value)
		length = 3
	} else {
		intUnits[0] = uint16(minTwoUnitValueLead + (value >> 16))
		intUnits[1] = uint16(value)
		length = 2
	}
	intUnits[0] |= uint16(finalBit)

	return b.writeMany(intUnits[:length])
}

// writeValueAndType prepends the node lead unit and, when hasValue is set,
// packs the intermediate value for the prefix ending at this node into the
// unused high bits of that same lead. Intermediate values are never final:
// they attach to a node that continues matching.
func (b *Builder) writeValueAndType(hasValue bool, value, node int32) int32 {
	if !hasValue {
		return b.write(node)
	}

	var intUnits [3]uint16
	var length int32
	if value < 0 || value > maxTwoUnitNodeValue {
		intUnits[0] = threeUnitNodeValueLead
		intUnits[1] = uint16(uint32(value) >> 16)
		intUnits[2] = uint16(value)
		length = 3
	} else if value <= maxOneUnitNodeValue {
		intUnits[0] = uint16((value + 1) << 6)
		length = 1
	} else {
		intUnits[0] = uint16(minTwoUnitNodeValueLead + ((value >> 10) & 0x7fc0))
		intUnits[1] = uint16(value)
		length = 2
	}
	intUnits[0] |= uint16(node)

	return b.writeMany(intUnits[:length])
}

// writeDeltaTo prepends the jump delta from the current written count back
// to jumpTarget. A negative delta would mean the target has not been
// written yet, which the back-to-front emission order rules out.
func (b *Builder) writeDeltaTo(jumpTarget int32) int32 {
	delta := b.unitsLength - jumpTarget
	if delta <= maxOneUnitDelta {
		return b.write(delta)
	}

	var intUnits [3]uint16
	var length int32
	if delta <= maxTwoUnitDelta {
		intUnits[0] = uint16(minTwoUnitDeltaLead + (delta >> 16))
		length = 1
	} else {
		intUnits[0] = threeUnitDeltaLead
		intUnits[1] = uint16(delta >> 16)
		length = 2
	}
	intUnits[length] = uint16(delta)
	length++

	return b.writeMany(intUnits[:length])
}

// writeNode serializes the sub-trie for elements[start:limit], which all
// share the first unitIndex key units, and returns its written-count
// offset.
func (b *Builder) writeNode(start, limit, unitIndex int32) int32 {
	hasValue := false
	var value int32
	if unitIndex == int32(len(b.elements[start].key)) {
		// An intermediate or final value.
		value = b.elements[start].value
		start++
		if start == limit {
			return b.writeValueAndFinal(value, true) // final-value node
		}
		hasValue = true
	}
	// Now all [start:limit] keys are longer than unitIndex.
	minUnit := b.elements[start].key[unitIndex]
	maxUnit := b.elements[limit-1].key[unitIndex]
	var typ int32
	if minUnit == maxUnit {
		// Linear-match node: all keys agree on a run of units.
		lastUnitIndex := b.limitOfLinearMatch(start, limit-1, unitIndex)
		b.writeNode(start, limit, lastUnitIndex)
		// Break the run into chunks of at most maxLinearMatchLength.
		length := lastUnitIndex - unitIndex
		for length > maxLinearMatchLength {
			lastUnitIndex -= maxLinearMatchLength
			length -= maxLinearMatchLength
			b.writeMany(b.elements[start].key[lastUnitIndex : lastUnitIndex+maxLinearMatchLength])
			b.write(minLinearMatch + maxLinearMatchLength - 1)
		}
		b.writeMany(b.elements[start].key[unitIndex : unitIndex+length])
		typ = minLinearMatch + length - 1
	} else {
		// Branch node.
		length := b.countElementUnits(start, limit, unitIndex)
		// length >= 2 because minUnit != maxUnit.
		b.writeBranchSubNode(start, limit, unitIndex, length)
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

// writeBranchSubNode serializes the branch over the distinct units at
// unitIndex for elements[start:limit]. Branches wider than
// maxBranchLinearSubNodeLength are split recursively on the middle unit.
func (b *Builder) writeBranchSubNode(start, limit, unitIndex, length int32) int32 {
	var middleUnits []uint16
	var lessThan []int32
	for length > maxBranchLinearSubNodeLength {
		// Branch on the middle unit; encode the less-than half first.
		i := b.skipElementsBySomeUnits(start, unitIndex, length>>1)
		middleUnits = append(middleUnits, b.elements[i].key[unitIndex])
		lessThan = append(lessThan, b.writeBranchSubNode(start, i, unitIndex, length>>1))
		// Continue for the greater-or-equal half.
		start = i
		length -= length >> 1
	}
	// For each unit, find its element range and whether it is a final value.
	var starts [maxBranchLinearSubNodeLength]int32
	var isFinal [maxBranchLinearSubNodeLength - 1]bool
	var unitNumber int32
	for {
		i := start
		starts[unitNumber] = i
		unit := b.elements[i].key[unitIndex]
		i = b.indexOfElementWithNextUnit(i+1, unitIndex, unit)
		isFinal[unitNumber] = start == i-1 && unitIndex+1 == int32(len(b.elements[start].key))
		start = i
		unitNumber++
		if unitNumber >= length-1 {
			break
		}
	}
	// unitNumber == length-1, and the maxUnit element range is [start:limit].
	starts[unitNumber] = start

	// Write the sub-nodes in reverse order: jump deltas shrink with the
	// distance to the target, so the smallest unit's sub-node is written
	// last and gets the shortest delta.
	var jumpTargets [maxBranchLinearSubNodeLength - 1]int32
	for {
		unitNumber--
		if !isFinal[unitNumber] {
			jumpTargets[unitNumber] = b.writeNode(starts[unitNumber], starts[unitNumber+1], unitIndex+1)
		}
		if unitNumber <= 0 {
			break
		}
	}
	// The maxUnit sub-node is written last of all; it continues inline
	// with no jump.
	unitNumber = length - 1
	b.writeNode(start, limit, unitIndex+1)
	offset := b.write(int32(b.elements[start].key[unitIndex]))
	// Write this node's (unit, value-or-delta) pairs.
	for unitNumber--; unitNumber >= 0; unitNumber-- {
		start = starts[unitNumber]
		var value int32
		if isFinal[unitNumber] {
			// Final value for the one key ending with this unit.
			value = b.elements[start].value
		} else {
			// Delta to the start position of the sub-node.
			value = offset - jumpTargets[unitNumber]
		}
		b.writeValueAndFinal(value, isFinal[unitNumber])
		offset = b.write(int32(b.elements[start].key[unitIndex]))
	}
	// Write the split-branch nodes, innermost first.
	for i := len(middleUnits) - 1; i >= 0; i-- {
		b.writeDeltaTo(lessThan[i])
		offset = b.write(int32(middleUnits[i]))
	}

	return offset
}

// limitOfLinearMatch returns the first unit index at which the first and
// last elements of a range disagree (or the first element ends).
func (b *Builder) limitOfLinearMatch(first, last, unitIndex int32) int32 {
	firstKey := b.elements[first].key
	lastKey := b.elements[last].key
	minLength := int32(len(firstKey))
	for unitIndex++; unitIndex < minLength && firstKey[unitIndex] == lastKey[unitIndex]; unitIndex++ {
	}

	return unitIndex
}

// countElementUnits counts the distinct units at unitIndex across
// elements[start:limit].
func (b *Builder) countElementUnits(start, limit, unitIndex int32) int32 {
	var length int32 // number of different units at unitIndex
	i := start
	for {
		unit := b.elements[i].key[unitIndex]
		i++
		for i < limit && unit == b.elements[i].key[unitIndex] {
			i++
		}
		length++
		if i >= limit {
			break
		}
	}

	return length
}

// skipElementsBySomeUnits advances past count distinct units at unitIndex.
func (b *Builder) skipElementsBySomeUnits(i, unitIndex, count int32) int32 {
	for {
		unit := b.elements[i].key[unitIndex]
		i++
		for unit == b.elements[i].key[unitIndex] {
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
// unit at unitIndex differs from unit. Callers guarantee such an element
// exists within the current branch range.
func (b *Builder) indexOfElementWithNextUnit(i, unitIndex int32, unit uint16) int32 {
	for unit == b.elements[i].key[unitIndex] {
		i++
	}

	return i
}
