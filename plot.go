package stockfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
)

// Sample is the total value of a portfolio on one sampled day, and the length of its bar.
type Sample struct {
	On    date.Date
	Value Money // after compensation for non trading days
	Bar   int
}

// Plot is a text bar chart of the performance of a portfolio.
type Plot struct {
	Portfolio string
	Range     date.Range
	Interval  int // days between samples
	Scale     int // value of one bar unit
	Samples   []Sample
}

// Lines renders p as "<date>: <bar>" lines, followed by the scale.
func (p Plot) Lines() []string {
	lines := make([]string, 0, len(p.Samples)+1)
	for _, s := range p.Samples {
		lines = append(lines, fmt.Sprintf("%s: %s", s.On, strings.Repeat("*", s.Bar)))
	}
	return append(lines, fmt.Sprintf("Scale: * = %d", p.Scale))
}

func (p Plot) String() string { return strings.Join(p.Lines(), "\n") }

// plotInterval returns the number of days between two samples of a plot
// spanning days.
func plotInterval(days int) int {
	switch {
	case days >= 365:
		return 365
	case days/30 <= 1:
		return 1
	default:
		return 30
	}
}

var fifty = decimal.NewFromInt(50)

// plotScale returns the value of a bar unit for samples summing to sum.
func plotScale(sum Money) int {
	scale := sum.Decimal().Div(fifty).Round(0).IntPart()
	return int(max(scale, 1))
}

// barLength returns the length of the bar of value at scale.
func barLength(value Money, scale int) int {
	if value.IsZero() {
		return 0
	}
	bar := value.Decimal().Div(decimal.NewFromInt(int64(scale)))
	if bar.LessThan(decimal.NewFromInt(1)) {
		return 1
	}
	return int(bar.Round(0).IntPart())
}

// PlotPerformance samples the total value of portfolio name between start and
// end.
//
// Samples are taken every year for a span of a year or more, every 30 days
// otherwise, and every day for spans up to 59 days. The scale is chosen so that
// the bars sum up to about 50 units.
func (s *Service) PlotPerformance(ctx context.Context, name string, start, end date.Date) (Plot, error) {
	if start.IsZero() || end.IsZero() {
		return Plot{}, invalidf("start date and end date must be provided")
	}
	if start.After(end) {
		return Plot{}, invalidf("start date %v cannot be after end date %v", start, end)
	}
	rng, err := date.NewRange(start, end)
	if err != nil {
		return Plot{}, invalidf("%v", err)
	}
	plot := Plot{Portfolio: name, Range: rng, Interval: plotInterval(rng.Days())}

	ref, err := s.Reconstruct(ctx, name, end)
	if err != nil {
		return Plot{}, err
	}
	first := ref.FirstPurchase()

	var sum Money
	for day := range rng.Every(plot.Interval) {
		p, err := s.Reconstruct(ctx, name, day)
		if err != nil {
			return Plot{}, err
		}
		value := p.totalValue(day)
		sum = sum.Add(value)
		if value.IsZero() && !first.IsZero() && day.After(first) && !p.IsEmpty() {
			value = lastNonZeroValue(p, day, first)
		}
		plot.Samples = append(plot.Samples, Sample{On: day, Value: value})
	}

	plot.Scale = plotScale(sum)
	for i := range plot.Samples {
		plot.Samples[i].Bar = barLength(plot.Samples[i].Value, plot.Scale)
	}
	return plot, nil
}

// lastNonZeroValue searches for the closest day before day, and not before
// first, when p has a value.
func lastNonZeroValue(p *Portfolio, day, first date.Date) Money {
	for d := day.Add(-1); !d.Before(first); d = d.Add(-1) {
		if v := p.totalValue(d); !v.IsZero() {
			return v
		}
	}
	return Money{}
}
