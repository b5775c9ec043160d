package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResult_Predicates(t *testing.T) {
	tests := []struct {
		result   Result
		matches  bool
		hasValue bool
		hasNext  bool
	}{
		{NoMatch, false, false, false},
		{NoValue, true, false, true},
		{FinalValue, true, true, false},
		{IntermediateValue, true, true, true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.matches, tt.result.Matches())
		require.Equal(t, tt.hasValue, tt.result.HasValue())
		require.Equal(t, tt.hasNext, tt.result.HasNext())
	}
}

func TestTypeStrings(t *testing.T) {
	require.Equal(t, "Bytes", UnitBytes.String())
	require.Equal(t, "Chars", UnitChars.String())
	require.Equal(t, "Unknown", UnitType(0x7F).String())

	require.Equal(t, "None", CompressionNone.String())
	require.Equal(t, "Zstd", CompressionZstd.String())
	require.Equal(t, "S2", CompressionS2.String())
	require.Equal(t, "LZ4", CompressionLZ4.String())
	require.Equal(t, "Unknown", CompressionType(0x7F).String())
}
