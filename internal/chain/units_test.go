package chain_test

import (
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"0.0004", "400000000000000"},
		{"0.000000000000000001", "1"},
		{" 2.5 ", "2500000000000000000"},
		{"0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			wei, err := chain.ParseEther(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, wei.String())
		})
	}
}

func TestParseEtherRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "0.0000000000000000001"} {
		_, err := chain.ParseEther(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestFormatEther(t *testing.T) {
	assert.Equal(t, "0", chain.FormatEther(nil))
	assert.Equal(t, "0", chain.FormatEther(big.NewInt(0)))
	assert.Equal(t, "1", chain.FormatEther(big.NewInt(1e18)))
	assert.Equal(t, "0.0004", chain.FormatEther(big.NewInt(400000000000000)))
	assert.Equal(t, "0.000000000000000001", chain.FormatEther(big.NewInt(1)))
	assert.Equal(t, "-1.5", chain.FormatEther(big.NewInt(-1500000000000000000)))
}
