package zb

import (
	"github.com/cockroachdb/apd/v3"

	"zbws/pkg/core"
)

// FormatDecimal renders d in plain notation, e.g. "0.0192", never "1.92E-2".
func FormatDecimal(d *apd.Decimal) string {
	return d.Text('f')
}

// ParseDecimal parses a decimal string such as a price or an amount.
func ParseDecimal(s string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, core.NewError(core.ErrorTypeInvalidRequest, "parse decimal", err)
	}
	return d, nil
}

// MustDecimal is like ParseDecimal but panics on error. Intended for constants.
func MustDecimal(s string) *apd.Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func isPositive(d *apd.Decimal) bool {
	return d != nil && d.Form == apd.Finite && d.Sign() > 0
}

func isNonNegative(d *apd.Decimal) bool {
	return d != nil && d.Form == apd.Finite && d.Sign() >= 0
}
