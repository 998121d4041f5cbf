// Package dashboard serves forecasts and charts over HTTP.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"TickerCast/internal/service"
)

// Server is the dashboard HTTP server.
type Server struct {
	Service *service.Service
	Tickers []string

	router *gin.Engine
}

// NewServer builds the router.
func NewServer(svc *service.Service, tickers []string) *Server {
	s := &Server{Service: svc, Tickers: tickers}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", healthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/tickers", s.listTickers)
	api.GET("/series/:ticker", s.getSeries)
	api.GET("/forecast/:ticker", s.getForecast)
	api.GET("/runs/:ticker", s.getRuns)

	r.GET("/charts/:ticker/:chart", s.getChart)

	s.router = r
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("dashboard shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(began)).
			Msg("request")
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
