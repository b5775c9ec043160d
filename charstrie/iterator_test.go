package charstrie

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/jeme/unitrie/errs"
)

func collect(t *testing.T, it *Iterator) []pair {
	t.Helper()

	var got []pair
	for it.Next() {
		got = append(got, pair{key: it.KeyString(), value: it.Value()})
	}

	return got
}

func TestIterator_EnumeratesInOrder(t *testing.T) {
	trie := buildTrie(t, months)

	got := collect(t, trie.Iterate(0))
	require.Equal(t, months, got)
}

func TestNewIterator(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)
	for _, p := range months {
		require.NoError(t, b.AddString(p.key, p.value))
	}
	data, err := b.BuildUnits()
	require.NoError(t, err)

	it, err := NewIterator(data, 0, 0)
	require.NoError(t, err)
	require.Equal(t, months, collect(t, it))

	_, err = NewIterator(nil, 0, 0)
	require.ErrorIs(t, err, errs.ErrInvalidRootOffset)
}

func TestIterator_ResumesSiblingAfterSubtree(t *testing.T) {
	// Backtracking from the exhausted "a" subtree must truncate the key
	// back to the branch point before taking the "b" edge.
	trie := buildTrie(t, []pair{
		{"a", 1},
		{"ab", 2},
		{"b", 3},
	})

	got := collect(t, trie.Iterate(0))
	require.Equal(t, []pair{
		{"a", 1},
		{"ab", 2},
		{"b", 3},
	}, got)
}

func TestIterator_FromState(t *testing.T) {
	trie := buildTrie(t, months)
	require.True(t, trie.NextChars(utf16.Encode([]rune("jan"))).Matches())

	got := collect(t, trie.Iterate(0))
	require.Equal(t, []pair{
		{"", 1},
		{".", 1},
		{"a", 10},
		{"uary", 1},
	}, got)
}

func TestIterator_Reset(t *testing.T) {
	trie := buildTrie(t, months)
	it := trie.Iterate(0)

	first := collect(t, it)
	require.False(t, it.Next())
	require.Equal(t, first, collect(t, it.Reset()))
}

func TestIterator_MaxKeyLength(t *testing.T) {
	trie := buildTrie(t, months)

	got := collect(t, trie.Iterate(2))
	require.Equal(t, []pair{
		{"au", TruncatedValue},
		{"ja", TruncatedValue},
		{"ju", TruncatedValue},
	}, got)
}

func TestIterator_SupplementaryKeys(t *testing.T) {
	keys := []pair{
		{"cat", 1},
		{"\U0001F408", 2},
		{"\U0001F431", 3},
		{"\U0001F431\U0001F408", 4},
	}
	trie := buildTrie(t, keys)

	got := collect(t, trie.Iterate(0))
	// Surrogate pairs sort after all BMP units in code unit order, and
	// KeyString reassembles them into whole code points.
	require.Equal(t, keys, got)
}

func TestIterator_RevisitsSharedValueLead(t *testing.T) {
	// An intermediate value shares its lead unit with the node that
	// continues the match; enumeration must deliver the value once and
	// then walk the node without re-delivering it.
	trie := buildTrie(t, []pair{
		{"ab", 10},
		{"abc", 11},
		{"abd", 12},
	})

	got := collect(t, trie.Iterate(0))
	require.Equal(t, []pair{
		{"ab", 10},
		{"abc", 11},
		{"abd", 12},
	}, got)
}
