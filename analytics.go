package stockfolio

import (
	"github.com/etnz/stockfolio/date"
)

// checkRange validates the arguments shared by the analytics over a date range.
func checkRange(s *PriceSeries, start, end date.Date) error {
	if s.IsEmpty() {
		return invalidf("price series cannot be empty")
	}
	if start.IsZero() || end.IsZero() {
		return invalidf("start date and end date must be given")
	}
	if end.Before(start) {
		return invalidf("end date %v cannot be before start date %v", end, start)
	}
	return nil
}

// GainLoss returns the change of price of s between start and end.
//
// When start equals end, it is the change between the open and the close of
// that day. Otherwise it is the change between the closes of both days.
//
// A date with no price counts as a zero price, so that GainLoss returns zero
// when neither date has been traded. Use GainLossStrict to reject those dates.
func GainLoss(s *PriceSeries, start, end date.Date) (Money, error) {
	if err := checkRange(s, start, end); err != nil {
		return Money{}, err
	}
	var beginning, ending Money
	if p, ok := s.On(start); ok {
		if start == end {
			beginning, ending = p.Open(), p.Close()
			return ending.Sub(beginning), nil
		}
		beginning = p.Close()
	}
	if p, ok := s.On(end); ok {
		ending = p.Close()
	}
	return ending.Sub(beginning), nil
}

// GainLossStrict is like GainLoss but fails if s has no price on start or on end.
func GainLossStrict(s *PriceSeries, start, end date.Date) (Money, error) {
	if err := checkRange(s, start, end); err != nil {
		return Money{}, err
	}
	for _, day := range []date.Date{start, end} {
		if _, ok := s.On(day); !ok {
			return Money{}, invalidf("%s has no price on %v", s.Symbol(), day)
		}
	}
	return GainLoss(s, start, end)
}

// MovingAverage returns the average close of s over the days trading days
// ending on day.
//
// day must be a trading day. Days without price (week ends, holidays) are
// skipped. If the series starts within the window, the average is computed
// over the available days only.
func MovingAverage(s *PriceSeries, day date.Date, days int) (Money, error) {
	if days <= 0 {
		return Money{}, invalidf("number of days cannot be less than or equal to 0: %d", days)
	}
	if day.IsZero() {
		return Money{}, invalidf("date must be given")
	}
	if s.IsEmpty() {
		return Money{}, invalidf("price series cannot be empty")
	}

	var sum Money
	matched := 0
	cursor := day
	for p := range s.backwardFrom(day) {
		if matched == days {
			break
		}
		if matched > 0 {
			// gap: the cursor skips to the next available day
			cursor = p.Date()
		}
		if p.Date() == cursor {
			sum = sum.Add(p.Close())
			cursor = cursor.Add(-1)
			matched++
		}
	}
	if sum.IsZero() {
		return Money{}, invalidf("%s has no price on %v", s.Symbol(), day)
	}
	return sum.Div(Q(matched)), nil
}

// CrossoverDates returns the trading days between start and end when the close
// of s was above its days moving average, most recent first.
//
// It fails if the series does not cover the whole range, i.e. if start or end
// are not trading days. If start equals end, the result has at most one date.
func CrossoverDates(s *PriceSeries, start, end date.Date, days int) ([]date.Date, error) {
	if err := checkRange(s, start, end); err != nil {
		return nil, err
	}
	if days <= 0 {
		return nil, invalidf("number of days must be greater than 0: %d", days)
	}

	crossovers := []date.Date{}
	if start == end {
		p, ok := s.On(end)
		if !ok {
			return crossovers, nil
		}
		above, err := aboveAverage(s, p, days)
		if err != nil {
			return nil, err
		}
		if above {
			crossovers = append(crossovers, p.Date())
		}
		return crossovers, nil
	}

	if _, ok := s.On(end); !ok {
		return nil, invalidf("%s has no price on %v", s.Symbol(), end)
	}
	for p := range s.backwardFrom(end) {
		if p.Date().Before(start) {
			break
		}
		above, err := aboveAverage(s, p, days)
		if err != nil {
			return nil, err
		}
		if above {
			crossovers = append(crossovers, p.Date())
		}
		if p.Date() == start {
			return crossovers, nil
		}
	}
	return nil, invalidf("%s has no price on %v", s.Symbol(), start)
}

func aboveAverage(s *PriceSeries, p PricePoint, days int) (bool, error) {
	avg, err := MovingAverage(s, p.Date(), days)
	if err != nil {
		return false, err
	}
	return p.Close().GreaterThan(avg), nil
}
