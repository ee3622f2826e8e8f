package stockfolio

import (
	"context"
	"maps"
	"slices"

	"github.com/etnz/stockfolio/date"
)

// Trade is a quantity of stock bought or sold by a rebalance.
type Trade struct {
	Kind     MutationKind `json:"kind"`
	Symbol   string       `json:"symbol"`
	Quantity Quantity     `json:"quantity"`
}

// Rebalance trades the holdings of name on day so that each stock is worth the
// target percentage of the total value of the portfolio.
//
// targets must list exactly the held symbols, with non negative percentages
// summing to 100. Every trade is persisted as it is applied: a failure midway
// leaves the trades already applied in place.
func (s *Service) Rebalance(ctx context.Context, name string, targets map[string]Percent, day date.Date) ([]Trade, error) {
	defer s.lock(name)()
	p, err := s.current(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.checkRebalance(p, targets, day); err != nil {
		return nil, err
	}

	total := p.totalValue(day)
	values, err := p.Distribution(day)
	if err != nil {
		return nil, err
	}

	var trades []Trade
	for _, symbol := range p.Symbols() {
		series := p.Series(symbol)
		pt, _ := series.On(day) // checked by checkRebalance
		desired := targets[symbol].Of(total)
		current := values[symbol]

		var t Trade
		switch {
		case current.GreaterThan(desired):
			t = Trade{Kind: Remove, Symbol: symbol, Quantity: current.Sub(desired).DivPrice(pt.Close())}
			if held := p.Quantity(symbol); held.LessThan(t.Quantity) {
				t.Quantity = held
			}
		case current.LessThan(desired):
			t = Trade{Kind: Add, Symbol: symbol, Quantity: desired.Sub(current).DivPrice(pt.Close())}
		default:
			continue
		}
		next, err := s.mutate(p, t.Kind, series, t.Quantity, day)
		if err != nil {
			return trades, err
		}
		if _, err := s.commit(ctx, next, day, Event{Kind: t.Kind, Symbol: symbol, Quantity: t.Quantity}); err != nil {
			return trades, err
		}
		p = next
		trades = append(trades, t)
	}

	// Ensure the snapshot of the day exists even if nothing was traded.
	if len(trades) == 0 {
		if err := s.store.Save(ctx, NewSnapshot(p, day)); err != nil {
			return nil, err
		}
		s.registry.Record(name, day)
	}
	return trades, nil
}

func (s *Service) checkRebalance(p *Portfolio, targets map[string]Percent, day date.Date) error {
	if day.IsZero() {
		return invalidf("date to rebalance %q must be given", p.Name())
	}
	if first := p.FirstPurchase(); !first.IsZero() && day.Before(first) {
		return invalidf("%q cannot be rebalanced before the first purchase date %v", p.Name(), first)
	}
	if recent, ok := s.registry.MostRecent(p.Name()); ok && day.Before(recent) {
		return invalidf("date %v cannot be before the most recent change %v of %q", day, recent, p.Name())
	}
	if len(targets) == 0 {
		return invalidf("target percentages cannot be empty")
	}
	var sum Percent
	for symbol, pc := range targets {
		if pc.IsNegative() {
			return invalidf("target percentage of %s cannot be less than 0: %v", symbol, pc)
		}
		sum = sum.Add(pc)
	}
	if !sum.Equal(P(100)) {
		return invalidf("target percentages must add up to 100%%, got %v", sum)
	}
	if held := p.Symbols(); !slices.Equal(held, slices.Sorted(maps.Keys(targets))) {
		return invalidf("target symbols %v must match the holdings %v", slices.Sorted(maps.Keys(targets)), held)
	}
	for series := range p.Holdings() {
		if pt, ok := series.On(day); !ok || pt.Close().IsZero() {
			return invalidf("%s has no close price on %v", series.Symbol(), day)
		}
	}
	return nil
}
