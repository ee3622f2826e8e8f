// Package alphavantage fetches daily stock prices from the Alpha Vantage API,
// and keeps them in a local CSV cache.
package alphavantage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the address of the Alpha Vantage API.
const DefaultBaseURL = "https://www.alphavantage.co/query"

// Format is the data type requested to the API.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// ErrUnknownSymbol is returned when the API has no data for a symbol.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Client fetches daily time series.
type Client struct {
	apiKey  string
	baseURL string
	format  Format
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL changes the address of the API.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithFormat changes the data type requested, CSV by default.
func WithFormat(f Format) Option { return func(c *Client) { c.format = f } }

// WithHTTPClient replaces the default http client, that caches responses for
// the day in the temporary directory.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// NewClient returns a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		format:  CSV,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = newDailyCachingClient(filepath.Join(os.TempDir(), "folio-http"))
	}
	return c
}

// Fetch returns the full daily history of symbol.
func (c *Client) Fetch(ctx context.Context, symbol string) (*stockfolio.PriceSeries, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("cannot fetch %s: missing Alpha Vantage API key", symbol)
	}
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("outputsize", "full")
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)
	q.Set("datatype", string(c.format))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch %s prices: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s prices: %w", symbol, err)
	}

	// Errors are reported as a json object, whatever the requested format.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: no price data found for %s", ErrUnknownSymbol, symbol)
	}
	if trimmed[0] == '{' {
		return decodeJSON(symbol, trimmed)
	}
	return stockfolio.DecodeSeries(symbol, bytes.NewReader(trimmed))
}

// decodeJSON parses a TIME_SERIES_DAILY json payload.
//
//	{
//	  "Meta Data": {...},
//	  "Time Series (Daily)": {
//	    "2024-05-29": {
//	      "1. open": "189.6100",
//	      "2. high": "192.2470",
//	      "3. low": "189.5100",
//	      "4. close": "190.2900",
//	      "5. volume": "53068016"
//	    },
func decodeJSON(symbol string, body []byte) (*stockfolio.PriceSeries, error) {
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return nil, fmt.Errorf("cannot decode %s prices: %w", symbol, err)
	}
	for _, field := range []string{"Error Message", "Information", "Note"} {
		if msg, err := jsonpath.Get(fmt.Sprintf("$[%q]", field), jobj); err == nil {
			if field == "Error Message" {
				return nil, fmt.Errorf("%w: %s: %v", ErrUnknownSymbol, symbol, msg)
			}
			return nil, fmt.Errorf("cannot fetch %s prices: %v", symbol, msg)
		}
	}

	path := `$["Time Series (Daily)"]`
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s prices: %q %w", symbol, path, err)
	}
	days, ok := jval.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("error parsing %s prices: %q is not an object", symbol, path)
	}

	points := make([]stockfolio.PricePoint, 0, len(days))
	for day, jday := range days {
		p, err := decodeJSONPoint(day, jday)
		if err != nil {
			return nil, fmt.Errorf("error parsing %s prices on %s: %w", symbol, day, err)
		}
		points = append(points, p)
	}
	return stockfolio.NewPriceSeries(symbol, points...)
}

var jsonFields = []string{"1. open", "2. high", "3. low", "4. close"}

func decodeJSONPoint(day string, jday any) (stockfolio.PricePoint, error) {
	on, err := date.Parse(day)
	if err != nil {
		return stockfolio.PricePoint{}, err
	}
	values := make([]stockfolio.Money, len(jsonFields))
	for i, field := range jsonFields {
		jval, err := jsonpath.Get(fmt.Sprintf("$[%q]", field), jday)
		if err != nil {
			return stockfolio.PricePoint{}, err
		}
		d, err := decimal.NewFromString(strings.TrimSpace(fmt.Sprint(jval)))
		if err != nil {
			return stockfolio.PricePoint{}, fmt.Errorf("invalid %q: %w", field, err)
		}
		values[i] = stockfolio.M(d)
	}
	jvol, err := jsonpath.Get(`$["5. volume"]`, jday)
	if err != nil {
		return stockfolio.PricePoint{}, err
	}
	volume, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(jvol)), 10, 64)
	if err != nil {
		return stockfolio.PricePoint{}, fmt.Errorf("invalid volume: %w", err)
	}
	return stockfolio.NewPricePoint(on, values[0], values[1], values[2], values[3], volume)
}
