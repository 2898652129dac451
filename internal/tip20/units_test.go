package tip20_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempoxyz/tempo-cli/internal/tip20"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"1", 6, "1000000"},
		{"1.5", 6, "1500000"},
		{"0.000001", 6, "1"},
		{".25", 2, "25"},
		{"7.", 0, "7"},
		{"1_000", 6, "1000000000"},
		{"0", 18, "0"},
		{"123456789012345678901234567890", 0, "123456789012345678901234567890"},
	}
	for _, tt := range tests {
		got, err := tip20.ParseUnits(tt.in, tt.decimals)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}
}

func TestParseUnitsRejects(t *testing.T) {
	for _, in := range []string{"", "-1", "+1", "abc", "1.2.3", ".", "1e6", "0.0000001"} {
		_, err := tip20.ParseUnits(in, 6)
		assert.ErrorIs(t, err, tip20.ErrInvalidAmount, in)
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		n        *big.Int
		decimals uint8
		want     string
	}{
		{big.NewInt(1_500_000), 6, "1.5"},
		{big.NewInt(1), 6, "0.000001"},
		{big.NewInt(0), 6, "0"},
		{big.NewInt(42), 0, "42"},
		{big.NewInt(-2_500_000), 6, "-2.5"},
		{nil, 6, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tip20.FormatUnits(tt.n, tt.decimals))
	}
}

func TestUnitsRoundTrip(t *testing.T) {
	for _, s := range []string{"1", "0.1", "1234.567891", "0.000001"} {
		n, err := tip20.ParseUnits(s, 6)
		require.NoError(t, err)
		assert.Equal(t, s, tip20.FormatUnits(n, 6))
	}
}

func TestParseMemo(t *testing.T) {
	m, err := tip20.ParseMemo("hello")
	require.NoError(t, err)
	assert.Equal(t, byte('h'), m[0])
	assert.Equal(t, byte(0), m[31])
	assert.Equal(t, "hello", tip20.FormatMemo(m))

	m, err = tip20.ParseMemo("0xabc")
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x0abc"), m)
	assert.Equal(t, m.Hex(), tip20.FormatMemo(m))

	_, err = tip20.ParseMemo(strings.Repeat("x", 33))
	assert.ErrorIs(t, err, tip20.ErrMemoTooLong)
	_, err = tip20.ParseMemo("0x" + strings.Repeat("ab", 33))
	assert.ErrorIs(t, err, tip20.ErrMemoTooLong)
	_, err = tip20.ParseMemo("0xzz")
	assert.Error(t, err)
}

func TestFormatMemoEmpty(t *testing.T) {
	assert.Equal(t, common.Hash{}.Hex(), tip20.FormatMemo(common.Hash{}))
}
