package renderer

import (
	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
)

// Portfolios lists the known portfolios.
type Portfolios struct {
	Rows []PortfolioRow
}

type PortfolioRow struct {
	Name       string
	MostRecent date.Date // zero if never changed
}

// NewPortfolios lists the portfolios of r.
func NewPortfolios(r *stockfolio.Registry) *Portfolios {
	p := &Portfolios{}
	for _, name := range r.Names() {
		recent, _ := r.MostRecent(name)
		p.Rows = append(p.Rows, PortfolioRow{Name: name, MostRecent: recent})
	}
	return p
}

// Composition is the quantity of each stock held.
type Composition struct {
	Portfolio string
	On        date.Date
	Rows      []CompositionRow
}

type CompositionRow struct {
	Symbol   string
	Quantity stockfolio.Quantity
}

// NewComposition reports the composition of p on day.
func NewComposition(p *stockfolio.Portfolio, on date.Date) (*Composition, error) {
	quantities, err := p.Composition(on)
	if err != nil {
		return nil, err
	}
	c := &Composition{Portfolio: p.Name(), On: on}
	for _, symbol := range p.Symbols() {
		if q, ok := quantities[symbol]; ok {
			c.Rows = append(c.Rows, CompositionRow{Symbol: symbol, Quantity: q})
		}
	}
	return c, nil
}

// Distribution is the value of each stock held, and its share of the total.
type Distribution struct {
	Portfolio string
	On        date.Date
	Currency  string
	Total     stockfolio.Money
	Rows      []DistributionRow
}

type DistributionRow struct {
	Symbol string
	Value  stockfolio.Money
	Share  stockfolio.Percent
}

// NewDistribution reports the distribution of p on day.
func NewDistribution(p *stockfolio.Portfolio, on date.Date, currency string) (*Distribution, error) {
	values, err := p.Distribution(on)
	if err != nil {
		return nil, err
	}
	d := &Distribution{Portfolio: p.Name(), On: on, Currency: currency}
	for _, symbol := range p.Symbols() {
		if v, ok := values[symbol]; ok {
			d.Total = d.Total.Add(v)
			d.Rows = append(d.Rows, DistributionRow{Symbol: symbol, Value: v})
		}
	}
	if d.Total.IsZero() {
		return d, nil
	}
	for i, row := range d.Rows {
		share := row.Value.Decimal().Mul(decimal.NewFromInt(100)).Div(d.Total.Decimal()).Round(2)
		d.Rows[i].Share = stockfolio.P(share)
	}
	return d, nil
}

// Value is the total value of a portfolio.
type Value struct {
	Portfolio string
	On        date.Date
	Currency  string
	Total     stockfolio.Money
}

// NewValue reports the total value of p on day.
func NewValue(p *stockfolio.Portfolio, on date.Date, currency string) (*Value, error) {
	total, err := p.TotalValue(on)
	if err != nil {
		return nil, err
	}
	return &Value{Portfolio: p.Name(), On: on, Currency: currency, Total: total}, nil
}

// Rebalance lists the trades of a rebalance.
type Rebalance struct {
	Portfolio string
	On        date.Date
	Trades    []stockfolio.Trade
}

// Plot is a performance plot.
type Plot struct {
	stockfolio.Plot
}

// Stock holds the analytics computed for one stock. Unset sections are not rendered.
type Stock struct {
	Symbol     string
	Currency   string
	Gain       *Gain
	Average    *Average
	Crossovers *Crossovers
}

type Gain struct {
	From, To date.Date
	Change   stockfolio.Money
}

type Average struct {
	On      date.Date
	Days    int
	Average stockfolio.Money
}

type Crossovers struct {
	From, To date.Date
	Days     int
	Dates    []date.Date
}
