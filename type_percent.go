package stockfolio

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Percent is a percentage, 100 meaning the whole.
type Percent struct {
	value decimal.Decimal
}

// P returns a Percent from any numeric value.
func P[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Percent {
	return Percent{value: newDecimal(value)}
}

// ParsePercent parses "33", "33.5" or "33.5%".
func ParsePercent(s string) (Percent, error) {
	if n := len(s); n > 0 && s[n-1] == '%' {
		s = s[:n-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Percent{}, invalidf("invalid percentage %q: %v", s, err)
	}
	return Percent{value: d}, nil
}

func (p Percent) Add(q Percent) Percent    { return Percent{value: p.value.Add(q.value)} }
func (p Percent) Equal(q Percent) bool     { return p.value.Equal(q.value) }
func (p Percent) IsNegative() bool         { return p.value.IsNegative() }
func (p Percent) Decimal() decimal.Decimal { return p.value }

// Of returns p percent of m.
func (p Percent) Of(m Money) Money { return Money{value: m.value.Mul(p.value).Div(hundred)} }

func (p Percent) String() string { return p.value.String() + "%" }

func (p Percent) MarshalJSON() ([]byte, error) { return []byte(p.value.String()), nil }
func (p *Percent) UnmarshalJSON(b []byte) error {
	return p.value.UnmarshalJSON(b)
}
