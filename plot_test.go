package stockfolio

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/etnz/stockfolio/date"
	"github.com/google/go-cmp/cmp"
)

func TestPlotInterval(t *testing.T) {
	tests := []struct{ days, want int }{
		{0, 1}, {30, 1}, {59, 1}, {60, 30}, {364, 30}, {365, 365}, {3000, 365},
	}
	for _, tt := range tests {
		if got := plotInterval(tt.days); got != tt.want {
			t.Errorf("plotInterval(%d) = %d, want %d", tt.days, got, tt.want)
		}
	}
}

func TestPlotScale(t *testing.T) {
	tests := []struct {
		sum  Money
		want int
	}{
		{M(0), 1}, {M(74), 1}, {M(75), 2}, {M(10000), 200},
	}
	for _, tt := range tests {
		if got := plotScale(tt.sum); got != tt.want {
			t.Errorf("plotScale(%v) = %d, want %d", tt.sum, got, tt.want)
		}
	}
}

func TestBarLength(t *testing.T) {
	tests := []struct {
		value Money
		scale int
		want  int
	}{
		{M(0), 1, 0},
		{M(0.5), 1, 1},
		{M(100), 200, 1},
		{M(2150), 43, 50},
		{M(1250), 49, 26},
	}
	for _, tt := range tests {
		if got := barLength(tt.value, tt.scale); got != tt.want {
			t.Errorf("barLength(%v, %d) = %d, want %d", tt.value, tt.scale, got, tt.want)
		}
	}
}

func TestPlotPerformance(t *testing.T) {
	// 2023-06-03 and 2023-06-04 is a week end.
	aapl := closes(t, "AAPL", map[string]float64{"2023-06-01": 118, "2023-06-02": 120, "2023-06-05": 125})
	svc, _ := newTestService(t, aapl)
	mustAdd(t, svc, "p", aapl, 10, "2023-06-02")

	plot, err := svc.PlotPerformance(context.Background(), "p", day("2023-06-01"), day("2023-06-05"))
	if err != nil {
		t.Fatalf("PlotPerformance() unexpected error: %v", err)
	}

	want := []string{
		"2023-06-01: ",
		"2023-06-02: " + strings.Repeat("*", 24),
		"2023-06-03: " + strings.Repeat("*", 24),
		"2023-06-04: " + strings.Repeat("*", 24),
		"2023-06-05: " + strings.Repeat("*", 26),
		"Scale: * = 49",
	}
	if diff := cmp.Diff(want, plot.Lines()); diff != "" {
		t.Errorf("Lines() mismatch (-want +got):\n%s", diff)
	}
	if plot.Interval != 1 {
		t.Errorf("Interval = %d, want 1", plot.Interval)
	}
	if got := plot.Samples[2].Value; !got.Equal(M(1200)) {
		t.Errorf("value on a week end = %v, want the previous close value 1200", got)
	}
}

func TestPlotPerformanceInvalid(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.PlotPerformance(ctx, "p", date.Date{}, day("2023-06-05")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("PlotPerformance() without start error = %v, want %v", err, ErrInvalidArgument)
	}
	if _, err := svc.PlotPerformance(ctx, "p", day("2023-06-05"), day("2023-06-01")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("PlotPerformance() reversed error = %v, want %v", err, ErrInvalidArgument)
	}
}
