package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func series(t *testing.T, symbol string, closes map[string]float64) *stockfolio.PriceSeries {
	t.Helper()
	var points []stockfolio.PricePoint
	for on, c := range closes {
		m := stockfolio.M(c)
		p, err := stockfolio.NewPricePoint(date.MustParse(on), m, m, m, m, 100)
		if err != nil {
			t.Fatal(err)
		}
		points = append(points, p)
	}
	s, err := stockfolio.NewPriceSeries(symbol, points...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	book := stockfolio.NewPriceBook(nil)
	book.Put(series(t, "A", map[string]float64{"2023-06-01": 100, "2023-06-02": 100}))
	book.Put(series(t, "B", map[string]float64{"2023-06-02": 100}))
	book.Put(series(t, "C", map[string]float64{"2023-06-01": 10, "2023-06-02": 12.5}))
	svc := stockfolio.NewService(new(stockfolio.MemoryStore), stockfolio.NewRegistry(), book)
	return New(svc)
}

// do runs a request against s and decodes the JSON response.
func do(t *testing.T, s *Server, method, target, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("%s %s: invalid JSON response %q: %v", method, target, w.Body.String(), err)
	}
	return w.Code, got
}

func TestAPI(t *testing.T) {
	s := newTestServer(t)

	// Steps share the server state and must run in order.
	steps := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		want       map[string]any
	}{
		{
			name:       "buy A",
			method:     http.MethodPost,
			target:     "/api/portfolios/growth/holdings",
			body:       `{"symbol":"A","quantity":10,"date":"2023-06-01"}`,
			wantStatus: http.StatusOK,
			want:       map[string]any{"portfolio": "growth", "holdings": map[string]any{"A": 10.0}},
		},
		{
			name:       "buy B",
			method:     http.MethodPost,
			target:     "/api/portfolios/growth/holdings",
			body:       `{"kind":"add","symbol":"B","quantity":10,"date":"2023-06-02"}`,
			wantStatus: http.StatusOK,
			want:       map[string]any{"portfolio": "growth", "holdings": map[string]any{"A": 10.0, "B": 10.0}},
		},
		{
			name:       "list",
			method:     http.MethodGet,
			target:     "/api/portfolios",
			wantStatus: http.StatusOK,
			want: map[string]any{"portfolios": []any{
				map[string]any{"name": "growth", "mostRecent": "2023-06-02"},
			}},
		},
		{
			name:       "composition before B",
			method:     http.MethodGet,
			target:     "/api/portfolios/growth/composition?date=2023-06-01",
			wantStatus: http.StatusOK,
			want:       map[string]any{"portfolio": "growth", "date": "2023-06-01", "holdings": map[string]any{"A": 10.0}},
		},
		{
			name:       "value",
			method:     http.MethodGet,
			target:     "/api/portfolios/growth/value?date=2023-06-02",
			wantStatus: http.StatusOK,
			want:       map[string]any{"portfolio": "growth", "date": "2023-06-02", "value": 2000.0},
		},
		{
			name:       "distribution",
			method:     http.MethodGet,
			target:     "/api/portfolios/growth/distribution?date=2023-06-02",
			wantStatus: http.StatusOK,
			want:       map[string]any{"portfolio": "growth", "date": "2023-06-02", "values": map[string]any{"A": 1000.0, "B": 1000.0}},
		},
		{
			name:       "rebalance",
			method:     http.MethodPost,
			target:     "/api/portfolios/growth/rebalance",
			body:       `{"date":"2023-06-02","targets":{"A":60,"B":40}}`,
			wantStatus: http.StatusOK,
			want: map[string]any{"portfolio": "growth", "date": "2023-06-02", "trades": []any{
				map[string]any{"kind": "add", "symbol": "A", "quantity": 2.0},
				map[string]any{"kind": "remove", "symbol": "B", "quantity": 2.0},
			}},
		},
		{
			name:       "sell too much",
			method:     http.MethodPost,
			target:     "/api/portfolios/growth/holdings",
			body:       `{"kind":"remove","symbol":"A","quantity":100,"date":"2023-06-02"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown stock",
			method:     http.MethodPost,
			target:     "/api/portfolios/growth/holdings",
			body:       `{"symbol":"Z","quantity":1,"date":"2023-06-02"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing symbol",
			method:     http.MethodPost,
			target:     "/api/portfolios/growth/holdings",
			body:       `{"quantity":1,"date":"2023-06-02"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad date",
			method:     http.MethodGet,
			target:     "/api/portfolios/growth/value?date=yesterday",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown portfolio",
			method:     http.MethodGet,
			target:     "/api/portfolios/nobody/value?date=2023-06-02",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "create",
			method:     http.MethodPost,
			target:     "/api/portfolios",
			body:       `{"name":"income"}`,
			wantStatus: http.StatusCreated,
			want:       map[string]any{"name": "income"},
		},
		{
			name:       "create twice",
			method:     http.MethodPost,
			target:     "/api/portfolios",
			body:       `{"name":"income"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "gain",
			method:     http.MethodGet,
			target:     "/api/stocks/C/gain?from=2023-06-01&to=2023-06-02",
			wantStatus: http.StatusOK,
			want:       map[string]any{"symbol": "C", "from": "2023-06-01", "to": "2023-06-02", "gain": 2.5},
		},
		{
			name:       "gain on a missing day",
			method:     http.MethodGet,
			target:     "/api/stocks/C/gain?from=2023-05-31&to=2023-06-02",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "average",
			method:     http.MethodGet,
			target:     "/api/stocks/C/average?date=2023-06-02&days=2",
			wantStatus: http.StatusOK,
			want:       map[string]any{"symbol": "C", "date": "2023-06-02", "days": 2.0, "average": 11.25},
		},
		{
			name:       "average default window",
			method:     http.MethodGet,
			target:     "/api/stocks/C/average?date=2023-06-02",
			wantStatus: http.StatusOK,
			want:       map[string]any{"symbol": "C", "date": "2023-06-02", "days": 50.0, "average": 11.25},
		},
		{
			name:       "average invalid days",
			method:     http.MethodGet,
			target:     "/api/stocks/C/average?date=2023-06-02&days=two",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "crossovers",
			method:     http.MethodGet,
			target:     "/api/stocks/C/crossovers?from=2023-06-01&to=2023-06-02&days=2",
			wantStatus: http.StatusOK,
			want:       map[string]any{"symbol": "C", "from": "2023-06-01", "to": "2023-06-02", "days": 2.0, "dates": []any{"2023-06-02"}},
		},
	}

	for _, step := range steps {
		status, got := do(t, s, step.method, step.target, step.body)
		if status != step.wantStatus {
			t.Errorf("%s: %s %s status = %d, want %d (body %v)", step.name, step.method, step.target, status, step.wantStatus, got)
			continue
		}
		if step.want == nil {
			if _, ok := got["error"]; !ok {
				t.Errorf("%s: %s %s = %v, want an error message", step.name, step.method, step.target, got)
			}
			continue
		}
		if diff := cmp.Diff(step.want, got); diff != "" {
			t.Errorf("%s: %s %s mismatch (-want +got):\n%s", step.name, step.method, step.target, diff)
		}
	}
}

func TestPlot(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/portfolios/growth/holdings", `{"symbol":"A","quantity":10,"date":"2023-06-01"}`)

	status, got := do(t, s, http.MethodGet, "/api/portfolios/growth/plot?from=2023-06-01&to=2023-06-02", "")
	if status != http.StatusOK {
		t.Fatalf("plot status = %d, want 200 (body %v)", status, got)
	}
	if got["interval"] != 1.0 {
		t.Errorf("plot interval = %v, want 1", got["interval"])
	}
	if samples, _ := got["samples"].([]any); len(samples) != 2 {
		t.Errorf("plot samples = %v, want 2 samples", got["samples"])
	}
	lines, _ := got["lines"].([]any)
	if len(lines) == 0 || !strings.HasPrefix(lines[len(lines)-1].(string), "Scale: * = ") {
		t.Errorf("plot lines = %v, want a trailing scale line", got["lines"])
	}

	status, _ = do(t, s, http.MethodGet, "/api/portfolios/growth/plot?to=2023-06-02", "")
	if status != http.StatusBadRequest {
		t.Errorf("plot without from status = %d, want 400", status)
	}
}

func TestEvents(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/events", nil)
	if err != nil {
		t.Fatalf("Dial() unexpected error: %v", err)
	}
	defer conn.Close()

	resp, err := http.Post(ts.URL+"/api/portfolios/growth/holdings", "application/json",
		strings.NewReader(`{"symbol":"A","quantity":10,"date":"2023-06-01"}`))
	if err != nil {
		t.Fatalf("Post() unexpected error: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var got map[string]any
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() unexpected error: %v", err)
	}
	delete(got, "revision")
	want := map[string]any{"kind": "add", "portfolio": "growth", "symbol": "A", "quantity": 10.0, "on": "2023-06-01"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}
