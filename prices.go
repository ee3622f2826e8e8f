package stockfolio

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// PriceSource provides the price series of a stock by symbol.
type PriceSource interface {
	Series(ctx context.Context, symbol string) (*PriceSeries, error)
}

// PriceSourceFunc adapts a function to a PriceSource.
type PriceSourceFunc func(ctx context.Context, symbol string) (*PriceSeries, error)

func (f PriceSourceFunc) Series(ctx context.Context, symbol string) (*PriceSeries, error) {
	return f(ctx, symbol)
}

// PriceBook is a PriceSource that memoizes the series returned by another one.
//
// Concurrent requests for the same symbol share a single load.
type PriceBook struct {
	load   PriceSource // can be nil
	group  singleflight.Group
	mu     sync.RWMutex
	series map[string]*PriceSeries
}

// NewPriceBook returns a PriceBook loading missing series from load.
// With a nil load, only the series given to Put are known.
func NewPriceBook(load PriceSource) *PriceBook {
	return &PriceBook{load: load, series: make(map[string]*PriceSeries)}
}

// Put registers s, replacing any series known for the same symbol.
func (b *PriceBook) Put(s *PriceSeries) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.series[s.Symbol()] = s
}

// Forget drops the series memoized for symbol so that the next call to Series reloads it.
func (b *PriceBook) Forget(symbol string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.series, symbol)
}

// Len returns the number of memoized series.
func (b *PriceBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.series)
}

// Series implements PriceSource.
func (b *PriceBook) Series(ctx context.Context, symbol string) (*PriceSeries, error) {
	if symbol == "" {
		return nil, invalidf("a stock must have a ticker symbol")
	}
	b.mu.RLock()
	s, ok := b.series[symbol]
	b.mu.RUnlock()
	if ok {
		return s, nil
	}
	if b.load == nil {
		return nil, invalidf("no price data for %q", symbol)
	}

	v, err, _ := b.group.Do(symbol, func() (any, error) {
		s, err := b.load.Series(ctx, symbol)
		if err != nil {
			return nil, err
		}
		b.Put(s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*PriceSeries), nil
}
