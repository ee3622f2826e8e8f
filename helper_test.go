package stockfolio

import (
	"context"
	"errors"
	"maps"
	"slices"
	"testing"

	"github.com/etnz/stockfolio/date"
)

// day is a helper for tests to create a date from a const.
func day(s string) date.Date { return date.MustParse(s) }

// closes is a helper for tests to create a series with one point per day, all
// prices equal to the close.
func closes(t *testing.T, symbol string, prices map[string]float64) *PriceSeries {
	t.Helper()
	points := make([]PricePoint, 0, len(prices))
	for _, on := range slices.Sorted(maps.Keys(prices)) {
		c := M(prices[on])
		p, err := NewPricePoint(day(on), c, c, c, c, 1000)
		if err != nil {
			t.Fatalf("NewPricePoint(%s) unexpected error: %v", on, err)
		}
		points = append(points, p)
	}
	s, err := NewPriceSeries(symbol, points...)
	if err != nil {
		t.Fatalf("NewPriceSeries(%s) unexpected error: %v", symbol, err)
	}
	return s
}

// newTestService returns a service over a memory store, knowing the given series.
func newTestService(t *testing.T, series ...*PriceSeries) (*Service, *MemoryStore) {
	t.Helper()
	book := NewPriceBook(nil)
	for _, s := range series {
		book.Put(s)
	}
	store := new(MemoryStore)
	return NewService(store, NewRegistry(), book), store
}

// quantities is a helper for tests to compare portfolios.
func quantities(p *Portfolio) map[string]string {
	q := make(map[string]string)
	for s, qty := range p.Holdings() {
		q[s.Symbol()] = qty.String()
	}
	return q
}

func mustAdd(t *testing.T, svc *Service, name string, s *PriceSeries, qty float64, on string) {
	t.Helper()
	if err := svc.Add(context.Background(), name, s, Q(qty), day(on)); err != nil {
		t.Fatalf("Add(%s, %s, %v, %s) unexpected error: %v", name, s.Symbol(), qty, on, err)
	}
}

func mustRemove(t *testing.T, svc *Service, name string, s *PriceSeries, qty float64, on string) {
	t.Helper()
	if err := svc.Remove(context.Background(), name, s, Q(qty), day(on)); err != nil {
		t.Fatalf("Remove(%s, %s, %v, %s) unexpected error: %v", name, s.Symbol(), qty, on, err)
	}
}

// failingStore is a SnapshotStore that cannot write.
type failingStore struct{ MemoryStore }

var errDiskFull = errors.New("disk full")

func (f *failingStore) Save(ctx context.Context, s Snapshot) error { return errDiskFull }
