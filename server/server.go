// Package server exposes a stockfolio Service as a JSON API, and streams its
// mutation events over a websocket.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/etnz/stockfolio"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Server routes HTTP requests to a Service.
type Server struct {
	svc      *stockfolio.Service
	router   *gin.Engine
	upgrader websocket.Upgrader
}

// New returns a Server over svc.
func New(svc *stockfolio.Service) *Server {
	s := &Server{
		svc:    svc,
		router: gin.New(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.router.Use(gin.Logger(), gin.Recovery())

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := s.router.Group("/api")
	{
		api.GET("/portfolios", s.listPortfolios)
		api.POST("/portfolios", s.createPortfolio)

		p := api.Group("/portfolios/:name")
		p.GET("/composition", s.composition)
		p.GET("/distribution", s.distribution)
		p.GET("/value", s.value)
		p.GET("/plot", s.plot)
		p.POST("/holdings", s.mutate)
		p.POST("/rebalance", s.rebalance)

		st := api.Group("/stocks/:symbol")
		st.GET("/gain", s.gain)
		st.GET("/average", s.average)
		st.GET("/crossovers", s.crossovers)
	}

	s.router.GET("/ws/events", s.events)
	return s
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errc := make(chan error, 1)
	go func() {
		log.Printf("serving on http://%s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// fail writes err as a JSON error, with a 400 status for invalid arguments.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, stockfolio.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, errUnknownPortfolio):
		status = http.StatusNotFound
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
