package charstrie

import (
	"math"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/jeme/unitrie/errs"
	"github.com/jeme/unitrie/format"
)

type pair struct {
	key   string
	value int32
}

var months = []pair{
	{"august", 8},
	{"jan", 1},
	{"jan.", 1},
	{"jana", 10},
	{"january", 1},
	{"july", 7},
	{"jun", 6},
	{"jun.", 6},
	{"june", 6},
}

func buildTrie(t *testing.T, pairs []pair) *Trie {
	t.Helper()

	b, err := NewBuilder()
	require.NoError(t, err)
	for _, p := range pairs {
		require.NoError(t, b.AddString(p.key, p.value))
	}
	trie, err := b.Build()
	require.NoError(t, err)

	return trie
}

func mustLookup(t *testing.T, trie *Trie, key string) int32 {
	t.Helper()

	result := trie.Reset().NextChars(utf16.Encode([]rune(key)))
	require.True(t, result.HasValue(), "expected %q to have a value", key)

	return trie.GetValue()
}

func TestNew_InvalidOffset(t *testing.T) {
	_, err := New(nil, 0)
	require.ErrorIs(t, err, errs.ErrInvalidRootOffset)

	_, err = New([]uint16{0x8001}, 1)
	require.ErrorIs(t, err, errs.ErrInvalidRootOffset)
}

func TestNext_StepByStep(t *testing.T) {
	trie := buildTrie(t, months)

	require.Equal(t, format.NoValue, trie.First('j'))
	require.Equal(t, format.NoValue, trie.Next('a'))

	result := trie.Next('n')
	require.Equal(t, format.IntermediateValue, result)
	require.Equal(t, int32(1), trie.GetValue())

	for _, c := range []uint16{'u', 'a', 'r'} {
		require.True(t, trie.Next(c).Matches())
	}
	require.Equal(t, format.FinalValue, trie.Next('y'))
	require.Equal(t, int32(1), trie.GetValue())

	require.Equal(t, format.NoMatch, trie.Next('z'))
	require.Equal(t, format.NoMatch, trie.Next('j'), "no-match is absorbing")
}

func TestNextChars_MatchesPerUnitWalk(t *testing.T) {
	trie := buildTrie(t, months)
	walker := buildTrie(t, months)

	for _, p := range months {
		units := utf16.Encode([]rune(p.key))
		spanResult := trie.Reset().NextChars(units)

		walker.Reset()
		stepResult := walker.Current()
		for _, u := range units {
			stepResult = walker.Next(u)
		}
		require.Equal(t, stepResult, spanResult, "key %q", p.key)
		require.Equal(t, walker.GetValue(), trie.GetValue())
	}
}

func TestNextChars_EmptySpan(t *testing.T) {
	trie := buildTrie(t, months)

	require.Equal(t, format.NoValue, trie.NextChars(nil))
	trie.NextChars(utf16.Encode([]rune("jan")))
	require.Equal(t, format.IntermediateValue, trie.NextChars(nil))
}

func TestForCodePoint_BasicPlane(t *testing.T) {
	trie := buildTrie(t, months)

	require.Equal(t, format.NoValue, trie.FirstForCodePoint('j'))
	require.Equal(t, format.NoValue, trie.NextForCodePoint('a'))
	require.Equal(t, format.IntermediateValue, trie.NextForCodePoint('n'))
	require.Equal(t, int32(1), trie.GetValue())
}

func TestForCodePoint_Supplementary(t *testing.T) {
	trie := buildTrie(t, []pair{
		{"cat", 1},
		{"\U0001F431", 3},           // cat face emoji, one surrogate pair
		{"\U0001F431\U0001F408", 4}, // followed by another pair
	})

	require.Equal(t, format.IntermediateValue, trie.FirstForCodePoint(0x1F431))
	require.Equal(t, int32(3), trie.GetValue())
	require.Equal(t, format.FinalValue, trie.NextForCodePoint(0x1F408))
	require.Equal(t, int32(4), trie.GetValue())

	// The pair is matched unit by unit too.
	trie.Reset()
	require.Equal(t, format.NoValue, trie.Next(0xD83D))
	require.Equal(t, format.IntermediateValue, trie.Next(0xDC31))
	require.Equal(t, int32(3), trie.GetValue())
}

func TestForCodePoint_FailedLeadShortCircuits(t *testing.T) {
	trie := buildTrie(t, []pair{{"ab", 1}})

	require.Equal(t, format.NoValue, trie.First('a'))
	// No lead surrogate edge exists; the trail unit must not be consumed
	// and the cursor must land in the absorbing no-match state.
	require.Equal(t, format.NoMatch, trie.NextForCodePoint(0x10000))
	require.Equal(t, format.NoMatch, trie.Next('b'))
	require.Equal(t, format.NoMatch, trie.Current())
}

func TestNodeValueEncodingWidths(t *testing.T) {
	values := []int32{
		0, 1, maxOneUnitNodeValue, maxOneUnitNodeValue + 1,
		maxTwoUnitNodeValue, maxTwoUnitNodeValue + 1,
		-1, -1000000, math.MinInt32, math.MaxInt32,
	}
	for _, v := range values {
		trie := buildTrie(t, []pair{{"a", v}, {"ab", 2}})

		require.Equal(t, format.IntermediateValue, trie.First('a'))
		require.Equal(t, v, trie.GetValue(), "node value %#x", v)
		require.Equal(t, format.FinalValue, trie.Next('b'))
		require.Equal(t, int32(2), trie.GetValue())
	}
}

func TestFinalValueEncodingWidths(t *testing.T) {
	values := []int32{
		0, 1, maxOneUnitValue, maxOneUnitValue + 1,
		maxTwoUnitValue, maxTwoUnitValue + 1,
		-1, math.MinInt32, math.MaxInt32,
	}
	for _, v := range values {
		trie := buildTrie(t, []pair{{"z", v}})

		require.Equal(t, format.FinalValue, trie.First('z'))
		require.Equal(t, v, trie.GetValue(), "final value %#x", v)
	}
}

func TestSaveState_ResetToState(t *testing.T) {
	trie := buildTrie(t, months)

	require.True(t, trie.NextChars(utf16.Encode([]rune("jan"))).Matches())
	state := trie.SaveState()

	require.Equal(t, format.FinalValue, trie.NextChars(utf16.Encode([]rune("uary"))))
	require.NoError(t, trie.ResetToState(state))
	require.Equal(t, format.FinalValue, trie.Next('a'))
	require.Equal(t, int32(10), trie.GetValue())
}

func TestResetToState_ForeignState(t *testing.T) {
	trie := buildTrie(t, months)
	other := buildTrie(t, []pair{{"foo", 1}})

	err := trie.ResetToState(other.SaveState())
	require.ErrorIs(t, err, errs.ErrStateMismatch)
}

func TestClone(t *testing.T) {
	trie := buildTrie(t, months)
	require.True(t, trie.NextChars(utf16.Encode([]rune("jun"))).Matches())

	clone := trie.Clone()
	require.Equal(t, format.FinalValue, clone.Next('e'))
	require.Equal(t, int32(6), clone.GetValue())
	require.Equal(t, format.IntermediateValue, trie.Current())
}

func TestHasUniqueValue(t *testing.T) {
	trie := buildTrie(t, months)

	_, unique := trie.HasUniqueValue()
	require.False(t, unique)

	trie.Reset().NextChars(utf16.Encode([]rune("jun")))
	value, unique := trie.HasUniqueValue()
	require.True(t, unique)
	require.Equal(t, int32(6), value)

	trie.Reset().NextChars(utf16.Encode([]rune("augu")))
	value, unique = trie.HasUniqueValue()
	require.True(t, unique)
	require.Equal(t, int32(8), value)
}

func TestGetNextChars(t *testing.T) {
	trie := buildTrie(t, months)

	require.Equal(t, []uint16{'a', 'j'}, trie.GetNextChars(nil))

	trie.Reset().NextChars(utf16.Encode([]rune("jan")))
	require.Equal(t, []uint16{'.', 'a', 'u'}, trie.GetNextChars(nil))

	trie.Reset().NextChars(utf16.Encode([]rune("au")))
	require.Equal(t, []uint16{'g'}, trie.GetNextChars(nil))

	trie.Reset().NextChars(utf16.Encode([]rune("january")))
	require.Empty(t, trie.GetNextChars(nil))
}
