package stockfolio

import (
	"fmt"
	"iter"

	"github.com/etnz/stockfolio/date"
)

// PricePoint is the trading data of one stock on one day. It is immutable.
type PricePoint struct {
	on                     date.Date
	open, high, low, close Money
	volume                 int64
}

// NewPricePoint validates and returns a PricePoint.
//
// All numeric fields must be positive or zero, high must not be lower than low.
func NewPricePoint(on date.Date, open, high, low, close Money, volume int64) (PricePoint, error) {
	if on.IsZero() {
		return PricePoint{}, invalidf("price point date must be given")
	}
	if open.IsNegative() || high.IsNegative() || low.IsNegative() || close.IsNegative() || volume < 0 {
		return PricePoint{}, invalidf("price point values on %v cannot be less than 0", on)
	}
	if high.LessThan(low) {
		return PricePoint{}, invalidf("price point high %v cannot be less than low %v on %v", high, low, on)
	}
	return PricePoint{on: on, open: open, high: high, low: low, close: close, volume: volume}, nil
}

func (p PricePoint) Date() date.Date { return p.on }
func (p PricePoint) Open() Money     { return p.open }
func (p PricePoint) High() Money     { return p.high }
func (p PricePoint) Low() Money      { return p.low }
func (p PricePoint) Close() Money    { return p.close }
func (p PricePoint) Volume() int64   { return p.volume }

// PriceSeries is the daily price history of one stock.
//
// Two series are equal iff their symbols match, the price history is not part
// of the identity: a holding is looked up by symbol regardless of which price
// snapshot is attached to it.
type PriceSeries struct {
	symbol string
	points date.History[PricePoint]
}

// NewPriceSeries returns a series for symbol. Points can be given in any order,
// when two points share a date the last one wins.
func NewPriceSeries(symbol string, points ...PricePoint) (*PriceSeries, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: a stock must have a ticker symbol", ErrInvalidArgument)
	}
	s := &PriceSeries{symbol: symbol}
	for _, p := range points {
		s.points.Append(p.on, p)
	}
	return s, nil
}

// Symbol returns the ticker symbol of the stock.
func (s *PriceSeries) Symbol() string { return s.symbol }

// Equal reports whether s and o identify the same stock.
func (s *PriceSeries) Equal(o *PriceSeries) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.symbol == o.symbol
}

// Len returns the number of trading days in the series.
func (s *PriceSeries) Len() int { return s.points.Len() }

// IsEmpty reports whether the series is nil or has no point.
func (s *PriceSeries) IsEmpty() bool { return s == nil || s.points.Len() == 0 }

// Latest returns the most recent point.
func (s *PriceSeries) Latest() (PricePoint, bool) {
	if s.points.Len() == 0 {
		return PricePoint{}, false
	}
	_, p := s.points.Latest()
	return p, true
}

// On returns the point traded exactly on day.
func (s *PriceSeries) On(day date.Date) (PricePoint, bool) { return s.points.Get(day) }

// AsOf returns the most recent point on or before day.
func (s *PriceSeries) AsOf(day date.Date) (PricePoint, bool) {
	_, p, ok := s.points.Floor(day)
	return p, ok
}

// Points iterates over the points in chronological order.
func (s *PriceSeries) Points() iter.Seq[PricePoint] {
	return func(yield func(PricePoint) bool) {
		for _, p := range s.points.Values() {
			if !yield(p) {
				return
			}
		}
	}
}

// Backward iterates over the points, most recent first.
func (s *PriceSeries) Backward() iter.Seq[PricePoint] {
	return func(yield func(PricePoint) bool) {
		for _, p := range s.points.Backward() {
			if !yield(p) {
				return
			}
		}
	}
}

// backwardFrom iterates over the points on or before day, most recent first.
func (s *PriceSeries) backwardFrom(day date.Date) iter.Seq[PricePoint] {
	return func(yield func(PricePoint) bool) {
		for _, p := range s.points.BackwardFrom(day) {
			if !yield(p) {
				return
			}
		}
	}
}
