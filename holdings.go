package stockfolio

import (
	"iter"
	"maps"
	"slices"

	"github.com/etnz/stockfolio/date"
)

// Portfolio is the state of a named portfolio: the quantity held of each
// stock, and the date of its first purchase.
//
// A Portfolio is never shared: every load or reconstruction returns an
// independent copy.
type Portfolio struct {
	name          string
	holdings      map[string]holding // by symbol
	firstPurchase date.Date          // zero until the first purchase
}

// holding pairs a stock with the quantity held.
type holding struct {
	series   *PriceSeries
	quantity Quantity
}

// NewPortfolio returns an empty portfolio.
func NewPortfolio(name string) (*Portfolio, error) {
	if name == "" {
		return nil, invalidf("name for a portfolio must be given")
	}
	return &Portfolio{name: name, holdings: make(map[string]holding)}, nil
}

// Name returns the name of the portfolio.
func (p *Portfolio) Name() string { return p.name }

// FirstPurchase returns the date of the first purchase, zero if none happened yet.
func (p *Portfolio) FirstPurchase() date.Date { return p.firstPurchase }

// Len returns the number of distinct stocks held.
func (p *Portfolio) Len() int { return len(p.holdings) }

// IsEmpty reports whether no stock is held.
func (p *Portfolio) IsEmpty() bool { return len(p.holdings) == 0 }

// Symbols returns the held symbols in alphabetical order.
//
// This is the enumeration order of the holdings everywhere in this package.
func (p *Portfolio) Symbols() []string { return slices.Sorted(maps.Keys(p.holdings)) }

// Holds reports whether symbol is held.
func (p *Portfolio) Holds(symbol string) bool {
	_, ok := p.holdings[symbol]
	return ok
}

// Quantity returns the quantity held of symbol, zero if not held.
func (p *Portfolio) Quantity(symbol string) Quantity { return p.holdings[symbol].quantity }

// Series returns the price series attached to symbol, nil if not held.
func (p *Portfolio) Series(symbol string) *PriceSeries { return p.holdings[symbol].series }

// Holdings iterates over the held stocks and quantities, by symbol.
func (p *Portfolio) Holdings() iter.Seq2[*PriceSeries, Quantity] {
	return func(yield func(*PriceSeries, Quantity) bool) {
		for _, symbol := range p.Symbols() {
			h := p.holdings[symbol]
			if !yield(h.series, h.quantity) {
				return
			}
		}
	}
}

// Clone returns an independent copy of p.
func (p *Portfolio) Clone() *Portfolio {
	c := &Portfolio{
		name:          p.name,
		holdings:      make(map[string]holding, len(p.holdings)),
		firstPurchase: p.firstPurchase,
	}
	maps.Copy(c.holdings, p.holdings)
	return c
}

// Composition returns the quantity of each stock held that had been traded on or before day.
func (p *Portfolio) Composition(day date.Date) (map[string]Quantity, error) {
	if day.IsZero() {
		return nil, invalidf("date to calculate composition of portfolio must be given")
	}
	if !p.IsEmpty() && day.Before(p.firstPurchase) {
		return nil, invalidf("composition cannot be calculated before the first purchase date %v", p.firstPurchase)
	}
	composition := make(map[string]Quantity)
	for symbol, h := range p.holdings {
		if _, ok := h.series.AsOf(day); ok {
			composition[symbol] = h.quantity
		}
	}
	return composition, nil
}

// Distribution returns the value of each stock held on day, using the latest
// close on or before day.
func (p *Portfolio) Distribution(day date.Date) (map[string]Money, error) {
	if day.IsZero() {
		return nil, invalidf("date to calculate distribution of portfolio must be given")
	}
	distribution := make(map[string]Money)
	for symbol, h := range p.holdings {
		if pt, ok := h.series.AsOf(day); ok {
			distribution[symbol] = pt.Close().Mul(h.quantity)
		}
	}
	return distribution, nil
}

// TotalValue returns the value of the portfolio using the close prices of
// exactly day. Stocks not traded on day contribute nothing, so the total value on
// a non-trading day is zero.
func (p *Portfolio) TotalValue(day date.Date) (Money, error) {
	if day.IsZero() {
		return Money{}, invalidf("date to calculate total value must be given")
	}
	return p.totalValue(day), nil
}

func (p *Portfolio) totalValue(day date.Date) Money {
	var total Money
	for _, h := range p.holdings {
		if pt, ok := h.series.On(day); ok {
			total = total.Add(pt.Close().Mul(h.quantity))
		}
	}
	return total
}
