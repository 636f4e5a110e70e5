package deal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a fixed-point monetary value held in minor units (cents).
// It serializes to JSON as a decimal string with exactly two fractional
// digits, e.g. "1250.00".
type Amount int64

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// String formats the amount as a decimal with two fractional digits.
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseAmount parses a decimal string with at most two fractional digits.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("deal: empty amount")
	}

	negative := false
	if s[0] == '+' || s[0] == '-' {
		negative = s[0] == '-'
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("deal: invalid amount %q", s)
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("deal: amount %q has more than two fractional digits", s)
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("deal: invalid amount %q", s)
	}
	cents, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("deal: invalid amount %q", s)
	}

	if units > (math.MaxInt64-cents)/100 {
		return 0, fmt.Errorf("deal: amount %q out of range", s)
	}

	v := units*100 + cents
	if negative {
		v = -v
	}
	return Amount(v), nil
}

// MarshalJSON renders the amount as a quoted fixed-point decimal.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
