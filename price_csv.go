package stockfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
)

// CSVHeader is the header line of the price cache files.
var CSVHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// DecodeSeries reads a price series for symbol from r.
//
// The format is one row per trading day: date, open, high, low, close, volume.
// An optional header line is skipped, rows can be in any order.
func DecodeSeries(symbol string, r io.Reader) (*PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var points []PricePoint
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read %s prices: %w", symbol, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), CSVHeader[0]) {
			continue
		}
		p, err := decodePricePoint(record)
		if err != nil {
			return nil, fmt.Errorf("%s prices line %d: %w", symbol, line, err)
		}
		points = append(points, p)
	}
	return NewPriceSeries(symbol, points...)
}

// decodePricePoint parses a single csv row.
func decodePricePoint(record []string) (PricePoint, error) {
	if len(record) < 6 {
		return PricePoint{}, fmt.Errorf("want 6 fields got %d", len(record))
	}
	on, err := date.Parse(strings.TrimSpace(record[0]))
	if err != nil {
		return PricePoint{}, err
	}
	values := make([]Money, 4)
	for i := range values {
		d, err := decimal.NewFromString(strings.TrimSpace(record[i+1]))
		if err != nil {
			return PricePoint{}, fmt.Errorf("invalid %s %q: %w", CSVHeader[i+1], record[i+1], err)
		}
		values[i] = M(d)
	}
	volume, err := strconv.ParseInt(strings.TrimSpace(record[5]), 10, 64)
	if err != nil {
		return PricePoint{}, fmt.Errorf("invalid volume %q: %w", record[5], err)
	}
	return NewPricePoint(on, values[0], values[1], values[2], values[3], volume)
}

// EncodeSeries writes s to w in the price cache format, most recent day first.
func EncodeSeries(w io.Writer, s *PriceSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for p := range s.Backward() {
		row := []string{
			p.on.String(),
			p.open.String(),
			p.high.String(),
			p.low.String(),
			p.close.String(),
			strconv.FormatInt(p.volume, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
