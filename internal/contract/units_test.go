package contract

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEther(t *testing.T) {
	tests := []struct {
		wei  *big.Int
		want string
	}{
		{nil, "0"},
		{big.NewInt(0), "0"},
		{big.NewInt(100_000_000_000_000_000), "0.1"},
		{big.NewInt(50_000_000_000_000_000), "0.05"},
		{new(big.Int).Mul(big.NewInt(5), big.NewInt(1e18)), "5"},
		{big.NewInt(1), "0.000000000000000001"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatEther(tt.wei))
	}
}

func TestParseEther(t *testing.T) {
	wei, err := ParseEther("0.1")
	require.NoError(t, err)
	assert.Equal(t, "100000000000000000", wei.String())

	wei, err = ParseEther("2")
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", wei.String())

	_, err = ParseEther("-1")
	assert.Error(t, err)

	_, err = ParseEther("0.0000000000000000001")
	assert.Error(t, err)

	_, err = ParseEther("abc")
	assert.Error(t, err)
}
