package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

var weiPerEther = big.NewInt(params.Ether)

// ParseEther converts a decimal ether string ("0.0004") to wei without
// going through floating point.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", s)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("negative amount: %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(weiPerEther))
	if !r.IsInt() {
		return nil, fmt.Errorf("amount %q has more than 18 decimals", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FormatEther renders wei as a decimal ether string with trailing zeros
// trimmed ("0.0004", "1").
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	neg := wei.Sign() < 0
	abs := new(big.Int).Abs(wei)
	whole, frac := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))

	out := whole.String()
	if frac.Sign() != 0 {
		fs := frac.String()
		fs = strings.Repeat("0", 18-len(fs)) + fs
		out += "." + strings.TrimRight(fs, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}
