package stockfolio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/etnz/stockfolio/date"
	"github.com/google/go-cmp/cmp"
)

func TestNewPricePoint(t *testing.T) {
	tests := []struct {
		name                   string
		on                     date.Date
		open, high, low, close float64
		volume                 int64
		wantErr                bool
	}{
		{"valid", day("2024-05-29"), 10, 12, 9, 11, 100, false},
		{"all zero", day("2024-05-29"), 0, 0, 0, 0, 0, false},
		{"no date", date.Date{}, 10, 12, 9, 11, 100, true},
		{"negative close", day("2024-05-29"), 10, 12, 9, -1, 100, true},
		{"negative volume", day("2024-05-29"), 10, 12, 9, 11, -1, true},
		{"high below low", day("2024-05-29"), 10, 9, 12, 11, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPricePoint(tt.on, M(tt.open), M(tt.high), M(tt.low), M(tt.close), tt.volume)
			if tt.wantErr != (err != nil) {
				t.Fatalf("NewPricePoint() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("NewPricePoint() error = %v, want %v", err, ErrInvalidArgument)
			}
		})
	}
}

func TestPriceSeries(t *testing.T) {
	s := closes(t, "AAPL", map[string]float64{"2024-05-24": 40, "2024-05-28": 50})

	if p, ok := s.On(day("2024-05-27")); ok {
		t.Errorf("On(holiday) = %v, want none", p.Date())
	}
	if p, ok := s.AsOf(day("2024-05-27")); !ok || !p.Close().Equal(M(40)) {
		t.Errorf("AsOf(holiday) = %v, %v, want close 40", p.Close(), ok)
	}
	if _, ok := s.AsOf(day("2024-05-23")); ok {
		t.Errorf("AsOf(before series) found a point")
	}
	if p, ok := s.Latest(); !ok || p.Date() != day("2024-05-28") {
		t.Errorf("Latest() = %v, %v, want 2024-05-28", p.Date(), ok)
	}

	other := closes(t, "AAPL", map[string]float64{"2020-01-02": 1})
	if !s.Equal(other) {
		t.Errorf("series of the same symbol are not equal")
	}
	if s.Equal(closes(t, "ADBE", nil)) || s.Equal(nil) {
		t.Errorf("series of different symbols are equal")
	}
	if _, err := NewPriceSeries(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("NewPriceSeries(\"\") error = %v, want %v", err, ErrInvalidArgument)
	}
}

const aaplCSV = `timestamp,open,high,low,close,volume
2024-05-29,189.61,192.247,189.51,190.29,53068016
2024-05-28,191.51,193,189.1,189.99,52280051
2024-05-24,188.82,190.58,188.0404,189.98,36326975
`

func TestDecodeEncodeSeries(t *testing.T) {
	s, err := DecodeSeries("AAPL", strings.NewReader(aaplCSV))
	if err != nil {
		t.Fatalf("DecodeSeries() unexpected error: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	p, ok := s.On(day("2024-05-24"))
	if !ok {
		t.Fatalf("On(2024-05-24) not found")
	}
	if !p.Low().Equal(M(188.0404)) || p.Volume() != 36326975 {
		t.Errorf("On(2024-05-24) = low %v volume %d, want low 188.0404 volume 36326975", p.Low(), p.Volume())
	}

	var buf bytes.Buffer
	if err := EncodeSeries(&buf, s); err != nil {
		t.Fatalf("EncodeSeries() unexpected error: %v", err)
	}
	if diff := cmp.Diff(aaplCSV, buf.String()); diff != "" {
		t.Errorf("EncodeSeries() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSeriesErrors(t *testing.T) {
	tests := map[string]string{
		"short row":    "2024-05-29,1,2,3\n",
		"bad date":     "2024-13-29,1,2,1,1,10\n",
		"bad number":   "2024-05-29,x,2,1,1,10\n",
		"bad volume":   "2024-05-29,1,2,1,1,1.5\n",
		"invalid data": "2024-05-29,1,1,2,1,10\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeSeries("X", strings.NewReader(input)); err == nil {
				t.Errorf("DecodeSeries(%q) expected an error", input)
			}
		})
	}
}
