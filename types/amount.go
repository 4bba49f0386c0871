// Package types provides common types used across Vaultbank.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountDecimals is the fixed precision of the reference asset.
const AmountDecimals = 6

// microPerUnit is 10^AmountDecimals.
const microPerUnit int64 = 1_000_000

// Amount is a reference-asset value in micro-units (6-decimal fixed point).
// All arithmetic is integer-only — no floating point.
//
// Examples:
//   - Units(1800)    = 1800.000000
//   - Micro(1800000000) = 1800.000000
//   - Micro(1)       = 0.000001
type Amount int64

// Units creates an Amount from whole reference-asset units.
func Units(n int64) Amount { return Amount(n * microPerUnit) }

// Micro creates an Amount from micro-units directly.
func Micro(n int64) Amount { return Amount(n) }

// ParseAmount parses a decimal string such as "1800.000000" into an Amount.
// At most six fractional digits are accepted.
func ParseAmount(s string) (Amount, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("types: parse amount %q: empty string", s)
	}

	neg := false
	if strings.HasPrefix(whole, "-") {
		neg = true
		whole = whole[1:]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("types: parse amount %q: no digits", s)
	}
	if whole == "" {
		whole = "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("types: parse amount %q: %w", s, err)
	}

	if len(frac) > AmountDecimals {
		return 0, fmt.Errorf("types: parse amount %q: more than %d fractional digits", s, AmountDecimals)
	}
	var micro int64
	if frac != "" {
		padded := frac + strings.Repeat("0", AmountDecimals-len(frac))
		micro, err = strconv.ParseInt(padded, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("types: parse amount %q: %w", s, err)
		}
	}

	total := units*microPerUnit + micro
	if neg {
		total = -total
	}
	return Amount(total), nil
}

// FromDecimal converts an arbitrary-precision decimal into an Amount.
// The value must be exactly representable in six decimal places.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	scaled := d.Shift(AmountDecimals)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("types: amount %s not representable in %d decimals", d, AmountDecimals)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("types: amount %s overflows int64 micro-units", d)
	}
	return Amount(scaled.IntPart()), nil
}

// Decimal returns the Amount as an arbitrary-precision decimal.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -AmountDecimals)
}

// Micro returns the raw micro-unit value.
func (a Amount) Micro() int64 { return int64(a) }

// Arithmetic operations

// Add returns a + other.
func (a Amount) Add(other Amount) Amount { return a + other }

// Sub returns a - other.
func (a Amount) Sub(other Amount) Amount { return a - other }

// Comparison methods

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// IsPositive reports whether the amount is greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// IsNegative reports whether the amount is less than zero.
func (a Amount) IsNegative() bool { return a < 0 }

// LessThan reports whether a < other.
func (a Amount) LessThan(other Amount) bool { return a < other }

// GreaterThan reports whether a > other.
func (a Amount) GreaterThan(other Amount) bool { return a > other }

// String formats the Amount with the full six fractional digits,
// e.g. "1800.000000".
func (a Amount) String() string {
	v := int64(a)
	neg := v < 0
	if neg {
		v = -v
	}

	s := fmt.Sprintf("%d.%06d", v/microPerUnit, v%microPerUnit)
	if neg {
		return "-" + s
	}
	return s
}

// MarshalJSON implements json.Marshaler. Amounts serialize as micro-units
// plus a display string so API consumers never do decimal math.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Micro   int64  `json:"micro"`
		Display string `json:"display"`
	}{
		Micro:   int64(a),
		Display: a.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var v struct {
		Micro int64 `json:"micro"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Amount(v.Micro)
	return nil
}

// SumAmounts calculates the sum of multiple Amount values.
func SumAmounts(values ...Amount) Amount {
	var total Amount
	for _, v := range values {
		total += v
	}
	return total
}
