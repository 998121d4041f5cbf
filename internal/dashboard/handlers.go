package dashboard

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"

	"TickerCast/internal/backtest"
	"TickerCast/internal/calculator"
	"TickerCast/internal/collector"
	"TickerCast/internal/metrics"
	"TickerCast/internal/model"
	"TickerCast/internal/recorder"
	"TickerCast/internal/render"
	"TickerCast/internal/service"
)

var validate = validator.New()

type forecastQuery struct {
	Years    int    `form:"years" default:"1" validate:"gte=1,lte=3"`
	Backtest bool   `form:"backtest"`
	Holidays string `form:"holidays" validate:"omitempty,alpha,min=2,max=3"`
	Samples  int    `form:"samples" validate:"gte=0,lte=1000"`
	From     string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

func (q forecastQuery) window() render.Window {
	var w render.Window
	w.From, _ = time.Parse(time.DateOnly, q.From)
	w.To, _ = time.Parse(time.DateOnly, q.To)
	return w
}

type runsQuery struct {
	Limit int `form:"limit" default:"10" validate:"gte=1,lte=100"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// bindQuery binds, defaults and validates query parameters.
func bindQuery(c *gin.Context, q any) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	if err := defaults.Set(q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	if err := validate.StructCtx(c.Request.Context(), q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

// statusFor maps pipeline errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrAssetNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInsufficientHistory), errors.Is(err, model.ErrUnorderedHistory),
		errors.Is(err, model.ErrModelFit):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		metrics.IncError("dashboard")
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

func (s *Server) listTickers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tickers": s.Tickers})
}

func (s *Server) load(c *gin.Context) (*collector.Loaded, bool) {
	loaded, err := s.Service.Pipeline.Loader.Load(c.Request.Context(), collector.Request{
		Ticker:   c.Param("ticker"),
		Start:    s.Service.Config.Start(),
		End:      s.Service.Today(),
		Interval: s.Service.Config.Forecast.Interval,
	})
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return loaded, true
}

func (s *Server) getSeries(c *gin.Context) {
	var q forecastQuery
	if !bindQuery(c, &q) {
		return
	}
	loaded, ok := s.load(c)
	if !ok {
		return
	}
	w := q.window()
	bars := make([]model.OHLCV, 0, loaded.Series.Len())
	for _, b := range loaded.Series.Bars {
		if w.Contains(b.Time) {
			bars = append(bars, b)
		}
	}
	c.JSON(http.StatusOK, gin.H{"asset": loaded.Asset, "bars": bars})
}

func (s *Server) forecast(c *gin.Context, q forecastQuery, withBacktest bool) (*service.Outcome, bool) {
	opts := s.Service.Options(c.Param("ticker"), q.Years)
	if q.Holidays != "" {
		opts.HolidayCountry = strings.ToUpper(q.Holidays)
	}
	if q.Samples > 0 {
		opts.UncertaintySamples = q.Samples
	}
	out, err := s.Service.Forecast(c.Request.Context(), service.Request{
		Options:  opts,
		Backtest: withBacktest,
		Window:   backtest.DefaultWindow,
	})
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return out, true
}

type forecastResponse struct {
	*model.ForecastResult
	LastPrice   float64               `json:"last_price"`
	AsOf        time.Time             `json:"as_of"`
	Indicators  calculator.Indicators `json:"indicators"`
	Performance []backtest.Metrics    `json:"performance,omitempty"`
}

func (s *Server) getForecast(c *gin.Context) {
	var q forecastQuery
	if !bindQuery(c, &q) {
		return
	}
	out, ok := s.forecast(c, q, q.Backtest)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, forecastResponse{
		ForecastResult: out.Result,
		LastPrice:      out.LastPrice,
		AsOf:           out.AsOf,
		Indicators:     out.Indicators,
		Performance:    out.Performance,
	})
}

func (s *Server) getRuns(c *gin.Context) {
	var q runsQuery
	if !bindQuery(c, &q) {
		return
	}
	runs, err := s.Service.History(c.Request.Context(), c.Param("ticker"), q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if runs == nil {
		runs = []recorder.ForecastRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) getChart(c *gin.Context) {
	name, ok := strings.CutSuffix(c.Param("chart"), ".png")
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "charts are served as .png"})
		return
	}
	switch name {
	case "raw", "forecast", "components", "backtest":
	default:
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown chart " + name})
		return
	}
	var q forecastQuery
	if !bindQuery(c, &q) {
		return
	}

	var buf bytes.Buffer
	var err error
	if name == "raw" {
		loaded, ok := s.load(c)
		if !ok {
			return
		}
		var p *plot.Plot
		if p, err = render.Series(loaded.Series, q.window()); err == nil {
			err = render.WritePNG(&buf, p, render.Width, render.Height)
		}
	} else {
		out, ok := s.forecast(c, q, name == "backtest")
		if !ok {
			return
		}
		err = drawForecastChart(&buf, name, out, q.window())
	}
	if errors.Is(err, render.ErrEmptyWindow) {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("chart", name).Msg("render chart")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func drawForecastChart(buf *bytes.Buffer, name string, out *service.Outcome, w render.Window) error {
	switch name {
	case "components":
		panels, err := render.Components(out.Result, w)
		if err != nil {
			return err
		}
		return render.WritePanels(buf, panels, render.Width, render.PanelHeight)
	case "backtest":
		p, err := render.Backtest(out.Asset.Ticker, out.Performance)
		if err != nil {
			return err
		}
		return render.WritePNG(buf, p, render.Width, render.Height)
	default:
		p, err := render.Forecast(out.Result, out.History, w)
		if err != nil {
			return err
		}
		return render.WritePNG(buf, p, render.Width, render.Height)
	}
}
