package bytestrie

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeme/unitrie/errs"
	"github.com/jeme/unitrie/format"
)

type pair struct {
	key   string
	value int32
}

// months is a small dictionary with shared prefixes, intermediate values
// and branches at several depths.
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

	result := trie.Reset().NextBytes([]byte(key))
	require.True(t, result.HasValue(), "expected %q to have a value", key)

	return trie.GetValue()
}

func TestNew_InvalidOffset(t *testing.T) {
	_, err := New(nil, 0)
	require.ErrorIs(t, err, errs.ErrInvalidRootOffset)

	_, err = New([]byte{0x81}, 1)
	require.ErrorIs(t, err, errs.ErrInvalidRootOffset)

	_, err = New([]byte{0x81}, -1)
	require.ErrorIs(t, err, errs.ErrInvalidRootOffset)
}

func TestNext_StepByStep(t *testing.T) {
	trie := buildTrie(t, months)

	require.Equal(t, format.NoValue, trie.First('j'))
	require.Equal(t, format.NoValue, trie.Next('a'))

	// "jan" is a key and a prefix of further keys.
	result := trie.Next('n')
	require.Equal(t, format.IntermediateValue, result)
	require.True(t, result.HasValue())
	require.True(t, result.HasNext())
	require.Equal(t, int32(1), trie.GetValue())

	for _, c := range []byte("uar") {
		require.True(t, trie.Next(c).Matches())
	}
	result = trie.Next('y')
	require.Equal(t, format.FinalValue, result)
	require.False(t, result.HasNext())
	require.Equal(t, int32(1), trie.GetValue())

	// A final value has no outgoing edges.
	require.Equal(t, format.NoMatch, trie.Next('z'))
	// NoMatch is absorbing.
	require.Equal(t, format.NoMatch, trie.Next('j'))
	require.Equal(t, format.NoMatch, trie.Current())
}

func TestNext_Mismatch(t *testing.T) {
	trie := buildTrie(t, months)

	require.Equal(t, format.NoMatch, trie.First('x'))
	require.Equal(t, format.NoMatch, trie.Next('j'))

	// Mismatch inside a linear-match run.
	trie.Reset()
	require.True(t, trie.NextBytes([]byte("augu")).Matches())
	require.Equal(t, format.NoMatch, trie.Next('x'))
}

func TestNextBytes_MatchesPerByteWalk(t *testing.T) {
	trie := buildTrie(t, months)
	walker := buildTrie(t, months)

	for _, p := range months {
		spanResult := trie.Reset().NextBytes([]byte(p.key))

		walker.Reset()
		var stepResult format.Result = walker.Current()
		for i := 0; i < len(p.key); i++ {
			stepResult = walker.Next(p.key[i])
		}
		require.Equal(t, stepResult, spanResult, "key %q", p.key)
		require.Equal(t, walker.GetValue(), trie.GetValue())
	}
}

func TestNextBytes_EmptySpan(t *testing.T) {
	trie := buildTrie(t, months)

	require.Equal(t, trie.Current(), trie.NextBytes(nil))
	trie.NextBytes([]byte("jan"))
	require.Equal(t, format.IntermediateValue, trie.NextBytes(nil))
}

func TestCurrent(t *testing.T) {
	trie := buildTrie(t, months)

	require.Equal(t, format.NoValue, trie.Current())
	trie.NextBytes([]byte("jan"))
	require.Equal(t, format.IntermediateValue, trie.Current())
	require.Equal(t, int32(1), trie.GetValue())
	trie.NextBytes([]byte("uary"))
	require.Equal(t, format.FinalValue, trie.Current())
}

func TestValueEncodingWidths(t *testing.T) {
	intermediateValues := []int32{
		0, 1, maxOneByteValue, maxOneByteValue + 1,
		maxTwoByteValue, maxTwoByteValue + 1,
		maxThreeByteValue, maxThreeByteValue + 1,
		-1, -1000000, math.MinInt32, math.MaxInt32,
	}
	for _, v := range intermediateValues {
		trie := buildTrie(t, []pair{{"a", v}, {"ab", 2}})

		result := trie.First('a')
		require.Equal(t, format.IntermediateValue, result)
		require.Equal(t, v, trie.GetValue(), "intermediate value %#x", v)

		require.Equal(t, format.FinalValue, trie.Next('b'))
		require.Equal(t, int32(2), trie.GetValue())

		// The same widths as a final value.
		trie = buildTrie(t, []pair{{"z", v}})
		require.Equal(t, format.FinalValue, trie.First('z'))
		require.Equal(t, v, trie.GetValue(), "final value %#x", v)
	}
}

func TestSaveState_ResetToState(t *testing.T) {
	trie := buildTrie(t, months)

	require.True(t, trie.NextBytes([]byte("jan")).Matches())
	state := trie.SaveState()

	require.Equal(t, format.FinalValue, trie.NextBytes([]byte("uary")))
	require.Equal(t, int32(1), trie.GetValue())

	require.NoError(t, trie.ResetToState(state))
	require.Equal(t, format.FinalValue, trie.Next('a'))
	require.Equal(t, int32(10), trie.GetValue())

	// Restoring again replays from the same point.
	require.NoError(t, trie.ResetToState(state))
	require.Equal(t, format.IntermediateValue, trie.Current())
}

func TestResetToState_ForeignState(t *testing.T) {
	trie := buildTrie(t, months)
	other := buildTrie(t, []pair{{"foo", 1}})

	state := other.SaveState()
	require.True(t, trie.NextBytes([]byte("jan")).Matches())
	err := trie.ResetToState(state)
	require.ErrorIs(t, err, errs.ErrStateMismatch)

	// The failed restore must not disturb the cursor.
	require.Equal(t, format.IntermediateValue, trie.Current())
}

func TestSaveState_CapturesNoMatch(t *testing.T) {
	trie := buildTrie(t, months)

	require.Equal(t, format.NoMatch, trie.First('x'))
	state := trie.SaveState()
	trie.Reset()
	require.NoError(t, trie.ResetToState(state))
	require.Equal(t, format.NoMatch, trie.Current())
}

func TestClone(t *testing.T) {
	trie := buildTrie(t, months)
	require.True(t, trie.NextBytes([]byte("jun")).Matches())

	clone := trie.Clone()
	require.Equal(t, format.FinalValue, clone.Next('e'))
	require.Equal(t, int32(6), clone.GetValue())

	// The original cursor is unaffected.
	require.Equal(t, format.IntermediateValue, trie.Current())
	require.Equal(t, format.FinalValue, trie.Next('.'))
}

func TestHasUniqueValue(t *testing.T) {
	trie := buildTrie(t, months)

	// From the root the values differ.
	_, unique := trie.HasUniqueValue()
	require.False(t, unique)

	// "jan" continues to values 1, 10 and 1.
	trie.Reset().NextBytes([]byte("jan"))
	_, unique = trie.HasUniqueValue()
	require.False(t, unique)

	// Everything below "jun" is 6.
	trie.Reset().NextBytes([]byte("jun"))
	value, unique := trie.HasUniqueValue()
	require.True(t, unique)
	require.Equal(t, int32(6), value)

	// Mid linear match: "augu" can only end in 8.
	trie.Reset().NextBytes([]byte("augu"))
	value, unique = trie.HasUniqueValue()
	require.True(t, unique)
	require.Equal(t, int32(8), value)

	// After a failed match there is nothing reachable.
	trie.Reset().NextBytes([]byte("nope"))
	_, unique = trie.HasUniqueValue()
	require.False(t, unique)
}

func TestGetNextBytes(t *testing.T) {
	trie := buildTrie(t, months)

	require.Equal(t, []byte("aj"), trie.GetNextBytes(nil))

	trie.Reset().NextBytes([]byte("j"))
	require.Equal(t, []byte("au"), trie.GetNextBytes(nil))

	trie.Reset().NextBytes([]byte("jan"))
	require.Equal(t, []byte(".au"), trie.GetNextBytes(nil))

	// Mid linear match only the next run byte can follow.
	trie.Reset().NextBytes([]byte("au"))
	require.Equal(t, []byte("g"), trie.GetNextBytes(nil))

	// A final value has no continuations.
	trie.Reset().NextBytes([]byte("january"))
	require.Empty(t, trie.GetNextBytes(nil))

	// Appends to the given slice.
	trie.Reset()
	require.Equal(t, []byte("xaj"), trie.GetNextBytes([]byte("x")))
}

func TestGetNextBytes_WideBranch(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)
	letters := "abcdefghijklmnopqrstuvwxyz"
	for i := range letters {
		require.NoError(t, b.AddString(letters[i:i+1], int32(i)))
	}
	trie, err := b.Build()
	require.NoError(t, err)

	require.Equal(t, []byte(letters), trie.GetNextBytes(nil))
}
