package domain

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
)

// Price is a fixed two-decimal amount stored as integer cents.
type Price int64

// Price bounds, inclusive.
const (
	MinPrice Price = 500
	MaxPrice Price = 5000
)

// GeneratePrice returns a price uniformly distributed over [MinPrice, MaxPrice]
// with cent precision. It is safe for concurrent use.
func GeneratePrice() Price {
	return MinPrice + Price(rand.Int64N(int64(MaxPrice-MinPrice)+1))
}

// NewPriceFromFloat rounds f to the nearest cent.
func NewPriceFromFloat(f float64) Price {
	return Price(math.Round(f * 100))
}

// ParsePrice parses a decimal string such as "12.50".
func ParsePrice(s string) (Price, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return NewPriceFromFloat(f), nil
}

// Float64 returns the price in currency units.
func (p Price) Float64() float64 {
	return float64(p) / 100
}

// String formats the price with exactly two decimals.
func (p Price) String() string {
	sign := ""
	v := int64(p)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Valid reports whether p lies within the allowed bounds.
func (p Price) Valid() bool {
	return p >= MinPrice && p <= MaxPrice
}

// MarshalJSON encodes the price as a JSON number with two decimals.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
