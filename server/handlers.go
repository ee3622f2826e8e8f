package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	"github.com/gin-gonic/gin"
)

var errUnknownPortfolio = errors.New("unknown portfolio")

// dateQuery parses the query parameter key, or returns def when it is absent.
func dateQuery(c *gin.Context, key string, def date.Date) (date.Date, error) {
	v := c.Query(key)
	if v == "" {
		if def.IsZero() {
			return date.Date{}, fmt.Errorf("%w: query parameter %q is required", stockfolio.ErrInvalidArgument, key)
		}
		return def, nil
	}
	d, err := date.Parse(v)
	if err != nil {
		return date.Date{}, fmt.Errorf("%w: %v", stockfolio.ErrInvalidArgument, err)
	}
	return d, nil
}

// defaultWindow is the moving average window when "days" is omitted.
const defaultWindow = 50

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: query parameter %q must be an integer", stockfolio.ErrInvalidArgument, key)
	}
	return v, nil
}

// stateOn returns the portfolio of the request path as of the "date" query
// parameter, today by default.
func (s *Server) stateOn(c *gin.Context) (*stockfolio.Portfolio, date.Date, error) {
	name := c.Param("name")
	if !s.svc.Registry().Has(name) {
		return nil, date.Date{}, fmt.Errorf("%w %q", errUnknownPortfolio, name)
	}
	on, err := dateQuery(c, "date", date.Today())
	if err != nil {
		return nil, date.Date{}, err
	}
	p, err := s.svc.Reconstruct(c.Request.Context(), name, on)
	return p, on, err
}

type portfolioItem struct {
	Name       string    `json:"name"`
	MostRecent date.Date `json:"mostRecent"`
}

func (s *Server) listPortfolios(c *gin.Context) {
	items := make([]portfolioItem, 0)
	for _, name := range s.svc.Registry().Names() {
		recent, _ := s.svc.Registry().MostRecent(name)
		items = append(items, portfolioItem{Name: name, MostRecent: recent})
	}
	c.JSON(http.StatusOK, gin.H{"portfolios": items})
}

type createRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) createPortfolio(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", stockfolio.ErrInvalidArgument, err))
		return
	}
	if err := s.svc.Create(c.Request.Context(), req.Name); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": req.Name})
}

func (s *Server) composition(c *gin.Context) {
	p, on, err := s.stateOn(c)
	if err != nil {
		fail(c, err)
		return
	}
	holdings, err := p.Composition(on)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolio": p.Name(), "date": on, "holdings": holdings})
}

func (s *Server) distribution(c *gin.Context) {
	p, on, err := s.stateOn(c)
	if err != nil {
		fail(c, err)
		return
	}
	values, err := p.Distribution(on)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolio": p.Name(), "date": on, "values": values})
}

func (s *Server) value(c *gin.Context) {
	p, on, err := s.stateOn(c)
	if err != nil {
		fail(c, err)
		return
	}
	total, err := p.TotalValue(on)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolio": p.Name(), "date": on, "value": total})
}

type sampleItem struct {
	On    date.Date        `json:"date"`
	Value stockfolio.Money `json:"value"`
	Bar   int              `json:"bar"`
}

func (s *Server) plot(c *gin.Context) {
	name := c.Param("name")
	if !s.svc.Registry().Has(name) {
		fail(c, fmt.Errorf("%w %q", errUnknownPortfolio, name))
		return
	}
	from, err := dateQuery(c, "from", date.Date{})
	if err != nil {
		fail(c, err)
		return
	}
	to, err := dateQuery(c, "to", date.Today())
	if err != nil {
		fail(c, err)
		return
	}
	plot, err := s.svc.PlotPerformance(c.Request.Context(), name, from, to)
	if err != nil {
		fail(c, err)
		return
	}
	samples := make([]sampleItem, 0, len(plot.Samples))
	for _, x := range plot.Samples {
		samples = append(samples, sampleItem{On: x.On, Value: x.Value, Bar: x.Bar})
	}
	c.JSON(http.StatusOK, gin.H{
		"portfolio": plot.Portfolio,
		"from":      plot.Range.From,
		"to":        plot.Range.To,
		"interval":  plot.Interval,
		"scale":     plot.Scale,
		"samples":   samples,
		"lines":     plot.Lines(),
	})
}

type mutationRequest struct {
	Kind     stockfolio.MutationKind `json:"kind"`
	Symbol   string                  `json:"symbol" binding:"required"`
	Quantity stockfolio.Quantity     `json:"quantity"`
	Date     date.Date               `json:"date"`
}

// mutate adds or removes stocks, "kind" defaults to "add".
func (s *Server) mutate(c *gin.Context) {
	var req mutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", stockfolio.ErrInvalidArgument, err))
		return
	}
	ctx := c.Request.Context()
	name := c.Param("name")
	stock, err := s.svc.Prices().Series(ctx, req.Symbol)
	if err != nil {
		fail(c, err)
		return
	}
	switch req.Kind {
	case stockfolio.Remove:
		err = s.svc.Remove(ctx, name, stock, req.Quantity, req.Date)
	default:
		err = s.svc.Add(ctx, name, stock, req.Quantity, req.Date)
	}
	if err != nil {
		fail(c, err)
		return
	}
	p, err := s.svc.Live(ctx, name)
	if err != nil {
		fail(c, err)
		return
	}
	holdings := make(map[string]stockfolio.Quantity, p.Len())
	for series, qty := range p.Holdings() {
		holdings[series.Symbol()] = qty
	}
	c.JSON(http.StatusOK, gin.H{"portfolio": name, "holdings": holdings})
}

type rebalanceRequest struct {
	Date    date.Date                     `json:"date"`
	Targets map[string]stockfolio.Percent `json:"targets" binding:"required"`
}

func (s *Server) rebalance(c *gin.Context) {
	name := c.Param("name")
	if !s.svc.Registry().Has(name) {
		fail(c, fmt.Errorf("%w %q", errUnknownPortfolio, name))
		return
	}
	var req rebalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", stockfolio.ErrInvalidArgument, err))
		return
	}
	trades, err := s.svc.Rebalance(c.Request.Context(), name, req.Targets, req.Date)
	if err != nil {
		fail(c, err)
		return
	}
	if trades == nil {
		trades = []stockfolio.Trade{}
	}
	c.JSON(http.StatusOK, gin.H{"portfolio": name, "date": req.Date, "trades": trades})
}

func (s *Server) stock(c *gin.Context) (*stockfolio.PriceSeries, error) {
	return s.svc.Prices().Series(c.Request.Context(), c.Param("symbol"))
}

func (s *Server) gain(c *gin.Context) {
	stock, err := s.stock(c)
	if err != nil {
		fail(c, err)
		return
	}
	from, err := dateQuery(c, "from", date.Date{})
	if err != nil {
		fail(c, err)
		return
	}
	to, err := dateQuery(c, "to", date.Date{})
	if err != nil {
		fail(c, err)
		return
	}
	change, err := stockfolio.GainLossStrict(stock, from, to)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": stock.Symbol(), "from": from, "to": to, "gain": change})
}

func (s *Server) average(c *gin.Context) {
	stock, err := s.stock(c)
	if err != nil {
		fail(c, err)
		return
	}
	on, err := dateQuery(c, "date", date.Date{})
	if err != nil {
		fail(c, err)
		return
	}
	days, err := intQuery(c, "days", defaultWindow)
	if err != nil {
		fail(c, err)
		return
	}
	avg, err := stockfolio.MovingAverage(stock, on, days)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": stock.Symbol(), "date": on, "days": days, "average": avg})
}

func (s *Server) crossovers(c *gin.Context) {
	stock, err := s.stock(c)
	if err != nil {
		fail(c, err)
		return
	}
	from, err := dateQuery(c, "from", date.Date{})
	if err != nil {
		fail(c, err)
		return
	}
	to, err := dateQuery(c, "to", date.Date{})
	if err != nil {
		fail(c, err)
		return
	}
	days, err := intQuery(c, "days", defaultWindow)
	if err != nil {
		fail(c, err)
		return
	}
	dates, err := stockfolio.CrossoverDates(stock, from, to, days)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": stock.Symbol(), "from": from, "to": to, "days": days, "dates": dates})
}
