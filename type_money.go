package stockfolio

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value: a price or the value of a position.
//
// Amounts carry no currency, all securities of a portfolio are assumed to be
// quoted in the same one. Format applies a currency for display only.
type Money struct {
	value decimal.Decimal // as major unit value
}

// M returns Money from any numeric value.
func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Money {
	return Money{value: newDecimal(value)}
}

func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Add(n Money) Money               { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money               { return Money{value: m.value.Sub(n.value)} }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg()} }
func (m Money) Abs() Money                      { return Money{value: m.value.Abs()} }
func (m Money) Mul(n Quantity) Money            { return Money{value: m.value.Mul(n.value)} }
func (m Money) Div(n Quantity) Money            { return Money{value: m.value.Div(n.value)} }
func (m Money) DivPrice(n Money) Quantity       { return Quantity{value: m.value.Div(n.value)} }
func (m Money) Round(places int32) Money        { return Money{value: m.value.Round(places)} }
func (m Money) Decimal() decimal.Decimal        { return m.value }
func (m Money) String() string                  { return m.value.String() }

// Deprecated: AsFloat should no longer be used, the purpose is to keep the calculation exact.
func (m Money) AsFloat() float64 { return m.value.InexactFloat64() }

// Format returns the amount formatted in the given ISO currency code, e.g. "$1,234.50".
func (m Money) Format(currency string) string {
	// to get a never nil currency I need to call the Money constructor
	cur := money.New(0, currency).Currency()
	minor := m.value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// MarshalJSON writes the amount as a json number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error { return m.value.UnmarshalJSON(b) }
