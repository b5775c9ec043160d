package charstrie

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeme/unitrie/errs"
)

func TestNewBuilder_InvalidCapacity(t *testing.T) {
	_, err := NewBuilder(WithInitialCapacity(-1))
	require.Error(t, err)
}

func TestBuild_Empty(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	_, err = b.Build()
	require.ErrorIs(t, err, errs.ErrEmptyBuilder)
}

func TestBuild_DuplicateKey(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)
	require.NoError(t, b.AddString("twice", 1))
	require.NoError(t, b.AddString("twice", 2))

	_, err = b.Build()
	require.ErrorIs(t, err, errs.ErrDuplicateKey)
}

func TestAdd_KeyTooLong(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	err = b.Add(make([]uint16, MaxKeyLength+1), 1)
	require.ErrorIs(t, err, errs.ErrKeyTooLong)
}

func TestAdd_AfterBuild(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)
	require.NoError(t, b.AddString("a", 1))

	_, err = b.Build()
	require.NoError(t, err)
	require.ErrorIs(t, b.AddString("b", 2), errs.ErrBuilderFrozen)

	b.Clear()
	require.NoError(t, b.AddString("b", 2))
}

func TestBuild_KeyBufferReuse(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	buf := []uint16{'o', 'n', 'e'}
	require.NoError(t, b.Add(buf, 1))
	copy(buf, []uint16{'t', 'w', 'o'})
	require.NoError(t, b.Add(buf, 2))

	trie, err := b.Build()
	require.NoError(t, err)
	require.True(t, trie.Reset().NextChars([]uint16{'o', 'n', 'e'}).HasValue())
	require.Equal(t, int32(1), trie.GetValue())
	require.True(t, trie.Reset().NextChars([]uint16{'t', 'w', 'o'}).HasValue())
	require.Equal(t, int32(2), trie.GetValue())
}

func TestBuild_Deterministic(t *testing.T) {
	keys := []string{"august", "jan", "january", "july", "jun", "june", "后天", "明天"}

	forward, err := NewBuilder()
	require.NoError(t, err)
	for i, k := range keys {
		require.NoError(t, forward.AddString(k, int32(i)))
	}
	backward, err := NewBuilder(WithInitialCapacity(8))
	require.NoError(t, err)
	for i := len(keys) - 1; i >= 0; i-- {
		require.NoError(t, backward.AddString(keys[i], int32(i)))
	}

	fu, err := forward.BuildUnits()
	require.NoError(t, err)
	bu, err := backward.BuildUnits()
	require.NoError(t, err)
	require.Equal(t, fu, bu)
}

func TestBuild_OutputSurvivesClear(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)
	require.NoError(t, b.AddString("stable", 42))
	trie, err := b.Build()
	require.NoError(t, err)

	b.Clear()
	require.NoError(t, b.AddString("other", 7))
	_, err = b.Build()
	require.NoError(t, err)

	require.Equal(t, int32(42), mustLookup(t, trie, "stable"))
}

func TestBuild_SingleEmptyKey(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)
	require.NoError(t, b.AddString("", 5))

	trie, err := b.Build()
	require.NoError(t, err)
	require.True(t, trie.Current().HasValue())
	require.Equal(t, int32(5), trie.GetValue())
}

func TestBuild_LargeKeySet(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	const n = 2000
	for i := 0; i < n; i++ {
		require.NoError(t, b.AddString(fmt.Sprintf("key-%05d", i), int32(i-500)))
	}
	trie, err := b.Build()
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		require.Equal(t, int32(i-500), mustLookup(t, trie, fmt.Sprintf("key-%05d", i)))
	}
}

func TestBuild_WideBranch(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	// Units spread across the 16-bit range force deep branch splits and
	// wide comparison units.
	for i := 0; i < 300; i++ {
		unit := uint16(i * 211)
		require.NoError(t, b.Add([]uint16{unit, 'x'}, int32(i)))
	}
	trie, err := b.Build()
	require.NoError(t, err)

	for i := 0; i < 300; i++ {
		unit := uint16(i * 211)
		result := trie.Reset().NextChars([]uint16{unit, 'x'})
		require.True(t, result.HasValue(), "unit %#x", unit)
		require.Equal(t, int32(i), trie.GetValue())
	}
}

func TestBuild_LongLinearMatch(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	long := make([]uint16, 80)
	for i := range long {
		long[i] = 'a'
	}
	require.NoError(t, b.Add(append(long[:80:80], 'x'), 1))
	require.NoError(t, b.Add(append(long[:80:80], 'y'), 2))
	trie, err := b.Build()
	require.NoError(t, err)

	require.True(t, trie.Reset().NextChars(append(long[:80:80], 'x')).HasValue())
	require.Equal(t, int32(1), trie.GetValue())
	require.True(t, trie.Reset().NextChars(append(long[:80:80], 'y')).HasValue())
	require.Equal(t, int32(2), trie.GetValue())
	require.False(t, trie.Reset().NextChars(append(long[:80:80], 'z')).Matches())
}
