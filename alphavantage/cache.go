package alphavantage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
)

// Fetcher returns the full price history of a symbol.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (*stockfolio.PriceSeries, error)
}

// Cache keeps the price history of each symbol in a CSV file "<dir>/<SYMBOL>.csv",
// most recent day first.
type Cache struct {
	dir   string
	fetch Fetcher // can be nil
	today func() date.Date
}

// NewCache returns a cache in dir, refreshed from fetch. With a nil fetch the
// cache is read only.
func NewCache(dir string, fetch Fetcher) *Cache {
	return &Cache{dir: dir, fetch: fetch, today: date.Today}
}

func (c *Cache) path(symbol string) (string, error) {
	if symbol == "" || strings.ContainsAny(symbol, `/\`) || symbol == "." || symbol == ".." {
		return "", fmt.Errorf("%w: invalid symbol %q", stockfolio.ErrInvalidArgument, symbol)
	}
	return filepath.Join(c.dir, strings.ToUpper(symbol)+".csv"), nil
}

// Load reads the cached history of symbol. The error wraps fs.ErrNotExist if
// symbol was never fetched.
func (c *Cache) Load(symbol string) (*stockfolio.PriceSeries, error) {
	file, err := c.path(symbol)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("could not open price file %q: %w", file, err)
	}
	defer f.Close()
	return stockfolio.DecodeSeries(strings.ToUpper(symbol), f)
}

// Refresh fetches the history of symbol unless the cache already holds
// yesterday's prices or more recent ones. It reports whether the cache has
// been updated.
func (c *Cache) Refresh(ctx context.Context, symbol string) (bool, error) {
	file, err := c.path(symbol)
	if err != nil {
		return false, err
	}
	if cached, err := c.Load(symbol); err == nil {
		if latest, ok := cached.Latest(); ok && !latest.Date().Before(c.today().Add(-1)) {
			return false, nil
		}
	}
	if c.fetch == nil {
		return false, fmt.Errorf("cannot refresh %s prices: no price provider", symbol)
	}

	series, err := c.fetch.Fetch(ctx, strings.ToUpper(symbol))
	if err != nil {
		return false, err
	}
	var buf bytes.Buffer
	if err := stockfolio.EncodeSeries(&buf, series); err != nil {
		return false, err
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return false, fmt.Errorf("could not create price directory %q: %w", c.dir, err)
	}
	if err := os.WriteFile(file, buf.Bytes(), 0644); err != nil {
		return false, fmt.Errorf("cannot write price file %q: %w", file, err)
	}
	log.Printf("%s: %d days of prices cached", series.Symbol(), series.Len())
	return true, nil
}

// Series implements stockfolio.PriceSource. A symbol never fetched is fetched first.
func (c *Cache) Series(ctx context.Context, symbol string) (*stockfolio.PriceSeries, error) {
	s, err := c.Load(symbol)
	if errors.Is(err, fs.ErrNotExist) && c.fetch != nil {
		if _, err := c.Refresh(ctx, symbol); err != nil {
			return nil, err
		}
		return c.Load(symbol)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no price data for %q", stockfolio.ErrInvalidArgument, symbol)
	}
	return s, err
}

// Symbols lists the symbols in the cache.
func (c *Cache) Symbols() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var symbols []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".csv"); ok && !e.IsDir() {
			symbols = append(symbols, name)
		}
	}
	return symbols, nil
}
