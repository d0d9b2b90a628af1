package contract

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// etherDecimals is the fixed-point scale of the native currency.
const etherDecimals = 18

// FormatEther renders a wei amount as a decimal string in native units
// without trailing zeros ("0.1", "5", "0"). nil formats as "0".
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -etherDecimals).String()
}

// EtherDecimal converts a wei amount to a decimal in native units.
func EtherDecimal(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -etherDecimals)
}

// ParseEther converts a decimal string in native units to wei.
func ParseEther(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("parse amount %q: negative", s)
	}
	wei := d.Shift(etherDecimals)
	if !wei.IsInteger() {
		return nil, fmt.Errorf("parse amount %q: more than %d decimals", s, etherDecimals)
	}
	return wei.BigInt(), nil
}
