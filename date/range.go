package date

import (
	"fmt"
	"iter"
)

// Range represents a range of dates, boundaries included.
type Range struct{ From, To Date }

// NewRange returns the range [from, to], or an error if from is after to.
func NewRange(from, to Date) (Range, error) {
	if from.IsZero() || to.IsZero() {
		return Range{}, fmt.Errorf("range boundaries must be set")
	}
	if from.After(to) {
		return Range{}, fmt.Errorf("range start %v is after its end %v", from, to)
	}
	return Range{From: from, To: to}, nil
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// Days returns the number of days between From and To.
func (r Range) Days() int { return r.To.Sub(r.From) }

// Every iterates over From, From+step, From+2*step... up to To included.
func (r Range) Every(step int) iter.Seq[Date] {
	return func(yield func(Date) bool) {
		if step <= 0 {
			return
		}
		for d := r.From; !d.After(r.To); d = d.Add(step) {
			if !yield(d) {
				return
			}
		}
	}
}

func (r Range) String() string { return fmt.Sprintf("%s_%s", r.From, r.To) }
