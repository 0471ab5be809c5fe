package platform

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CentsFromDecimal converts a decimal money amount to integer cents,
// rounding half away from zero. Nil means the remote field was absent.
func CentsFromDecimal(d *decimal.Decimal) int64 {
	if d == nil {
		return 0
	}
	return d.Mul(hundred).Round(0).IntPart()
}

// CentsFromString converts a decimal money string ("19.99") to cents.
// Unparseable or empty input maps to zero.
func CentsFromString(s string) int64 {
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return CentsFromDecimal(&d)
}
