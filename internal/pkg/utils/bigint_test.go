package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	amount, _ := new(big.Int).SetString("1234500000000000000", 10)
	require.Equal(t, "1.2345", FormatUnits(amount, 18))

	require.Equal(t, "0", FormatUnits(nil, 18))
	require.Equal(t, "0", FormatUnits(big.NewInt(0), 18))
	require.Equal(t, "12500000", FormatUnits(big.NewInt(12500000), 0))
	require.Equal(t, "12.5", FormatUnits(big.NewInt(12500000), 6))
	require.Equal(t, "1", FormatUnits(big.NewInt(1000000), 6))
}

func TestParseUnits(t *testing.T) {
	got, err := ParseUnits("1.2345", 18)
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("1234500000000000000", 10)
	require.Equal(t, 0, want.Cmp(got))

	got, err = ParseUnits("12.5", 6)
	require.NoError(t, err)
	require.Equal(t, int64(12500000), got.Int64())

	got, err = ParseUnits("0", 18)
	require.NoError(t, err)
	require.Equal(t, 0, got.Sign())

	_, err = ParseUnits("", 18)
	require.Error(t, err)

	_, err = ParseUnits("-1", 18)
	require.Error(t, err)

	// More fractional digits than the asset carries.
	_, err = ParseUnits("1.1234567", 6)
	require.Error(t, err)
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"1.2345", "0.000001", "42", "999999.999999"} {
		amount, err := ParseUnits(s, 6)
		require.NoError(t, err)
		require.Equal(t, s, FormatUnits(amount, 6))
	}
}

func TestValueUSD(t *testing.T) {
	require.InDelta(t, 25.0, ValueUSD(big.NewInt(12500000), 6, 2.0), 1e-9)
	require.Equal(t, 0.0, ValueUSD(nil, 18, 2.0))
	require.Equal(t, 0.0, ValueUSD(big.NewInt(1), 18, 0))
}

func TestChunk(t *testing.T) {
	chunks := Chunk([]int{1, 2, 3, 4, 5}, 2)
	require.Len(t, chunks, 3)
	require.Equal(t, []int{1, 2}, chunks[0])
	require.Equal(t, []int{5}, chunks[2])

	require.Empty(t, Chunk([]int{}, 2))

	one := Chunk([]int{1, 2, 3}, 10)
	require.Len(t, one, 1)
	require.Equal(t, []int{1, 2, 3}, one[0])
}
