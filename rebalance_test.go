package stockfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func rebalanceFixture(t *testing.T) (*Service, *MemoryStore, []*PriceSeries) {
	t.Helper()
	a := closes(t, "A", map[string]float64{"2023-06-01": 100, "2023-06-02": 100})
	b := closes(t, "B", map[string]float64{"2023-06-01": 50, "2023-06-02": 50})
	c := closes(t, "C", map[string]float64{"2023-06-01": 20, "2023-06-02": 20})
	svc, store := newTestService(t, a, b, c)
	mustAdd(t, svc, "p", a, 10, "2023-06-01")
	mustAdd(t, svc, "p", b, 10, "2023-06-01")
	mustAdd(t, svc, "p", c, 25, "2023-06-01")
	return svc, store, []*PriceSeries{a, b, c}
}

func TestRebalance(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := rebalanceFixture(t)
	targets := map[string]Percent{"A": P(33), "B": P(33), "C": P(34)}

	trades, err := svc.Rebalance(ctx, "p", targets, day("2023-06-02"))
	if err != nil {
		t.Fatalf("Rebalance() unexpected error: %v", err)
	}

	wantTrades := []string{"remove 3.4 A", "add 3.2 B", "add 9 C"}
	var gotTrades []string
	for _, tr := range trades {
		gotTrades = append(gotTrades, tr.Kind.String()+" "+tr.Quantity.String()+" "+tr.Symbol)
	}
	if diff := cmp.Diff(wantTrades, gotTrades); diff != "" {
		t.Errorf("trades mismatch (-want +got):\n%s", diff)
	}

	p, _ := svc.Live(ctx, "p")
	total, _ := p.TotalValue(day("2023-06-02"))
	if !total.Equal(M(2000)) {
		t.Errorf("TotalValue() after rebalance = %v, want 2000", total)
	}
	values, _ := p.Distribution(day("2023-06-02"))
	for symbol, pc := range targets {
		want := pc.Of(total)
		price, _ := p.Series(symbol).On(day("2023-06-02"))
		if diff := values[symbol].Sub(want).Abs(); diff.GreaterThan(price.Close()) {
			t.Errorf("value of %s = %v, want %v within %v", symbol, values[symbol], want, price.Close())
		}
	}

	// the snapshot of the day holds the final state
	r, err := svc.Reconstruct(ctx, "p", day("2023-06-02"))
	if err != nil {
		t.Fatalf("Reconstruct() unexpected error: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"A": "6.6", "B": "13.2", "C": "34"}, quantities(r)); diff != "" {
		t.Errorf("snapshot after rebalance mismatch (-want +got):\n%s", diff)
	}
	if got := store.Len(); got != 2 {
		t.Errorf("store has %d snapshots, want 2", got)
	}
}

func TestRebalanceNothingToTrade(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := rebalanceFixture(t)
	targets := map[string]Percent{"A": P(50), "B": P(25), "C": P(25)}

	trades, err := svc.Rebalance(ctx, "p", targets, day("2023-06-02"))
	if err != nil {
		t.Fatalf("Rebalance() unexpected error: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("Rebalance() trades = %v, want none", trades)
	}
	if _, err := store.Load(ctx, "p", day("2023-06-02")); err != nil {
		t.Errorf("no snapshot written on the rebalance date: %v", err)
	}
	if got, _ := svc.Registry().MostRecent("p"); got != day("2023-06-02") {
		t.Errorf("MostRecent() = %v, want 2023-06-02", got)
	}
}

func TestRebalanceInvalid(t *testing.T) {
	tests := []struct {
		name    string
		targets map[string]Percent
		on      string
	}{
		{"empty", map[string]Percent{}, "2023-06-02"},
		{"negative", map[string]Percent{"A": P(-10), "B": P(60), "C": P(50)}, "2023-06-02"},
		{"not 100", map[string]Percent{"A": P(33), "B": P(33), "C": P(33)}, "2023-06-02"},
		{"missing symbol", map[string]Percent{"A": P(50), "B": P(50)}, "2023-06-02"},
		{"unknown symbol", map[string]Percent{"A": P(30), "B": P(30), "C": P(30), "D": P(10)}, "2023-06-02"},
		{"before first purchase", map[string]Percent{"A": P(33), "B": P(33), "C": P(34)}, "2023-05-31"},
		{"no close on date", map[string]Percent{"A": P(33), "B": P(33), "C": P(34)}, "2023-06-03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := rebalanceFixture(t)
			_, err := svc.Rebalance(context.Background(), "p", tt.targets, day(tt.on))
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Rebalance() error = %v, want %v", err, ErrInvalidArgument)
			}
			if store.Len() != 1 {
				t.Errorf("a rejected rebalance wrote snapshots")
			}
		})
	}
}

func TestRebalanceBeforeMostRecent(t *testing.T) {
	svc, _, series := rebalanceFixture(t)
	mustRemove(t, svc, "p", series[2], 5, "2023-06-02")
	targets := map[string]Percent{"A": P(33), "B": P(33), "C": P(34)}
	if _, err := svc.Rebalance(context.Background(), "p", targets, day("2023-06-01")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Rebalance() error = %v, want %v", err, ErrInvalidArgument)
	}
}
