package render

import (
	"errors"
	"fmt"
	"image/color"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"TickerCast/internal/backtest"
	"TickerCast/internal/forecast"
	"TickerCast/internal/model"
)

var (
	openColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	closeColor    = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	forecastColor = color.RGBA{R: 0, G: 114, B: 178, A: 255}
	bandColor     = color.NRGBA{R: 0, G: 114, B: 178, A: 60}
	observedColor = color.RGBA{A: 255}
)

// ErrEmptyWindow is returned when no data falls inside the window.
var ErrEmptyWindow = errors.New("no data in window")

func newTimePlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = ylabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())
	return p
}

// Series charts the opening and closing prices.
func Series(s *model.PriceSeries, w Window) (*plot.Plot, error) {
	var opens, closes plotter.XYs
	for _, b := range s.Bars {
		if !w.Contains(b.Time) {
			continue
		}
		opens = append(opens, plotter.XY{X: unix(b.Time), Y: b.Open})
		closes = append(closes, plotter.XY{X: unix(b.Time), Y: b.Close})
	}
	if len(opens) == 0 {
		return nil, ErrEmptyWindow
	}
	p := newTimePlot(fmt.Sprintf("%s raw data", s.Ticker), "Price")

	openLine, err := plotter.NewLine(opens)
	if err != nil {
		return nil, err
	}
	openLine.Color = openColor
	closeLine, err := plotter.NewLine(closes)
	if err != nil {
		return nil, err
	}
	closeLine.Color = closeColor

	p.Add(openLine, closeLine)
	p.Legend.Add("stock_open", openLine)
	p.Legend.Add("stock_close", closeLine)
	p.Legend.Top = true
	return p, nil
}

// Forecast charts the observations, the predicted line and its band.
func Forecast(res *model.ForecastResult, history *forecast.Table, w Window) (*plot.Plot, error) {
	var line, upper, lower plotter.XYs
	for _, r := range res.Rows {
		if !w.Contains(r.DS) {
			continue
		}
		x := unix(r.DS)
		line = append(line, plotter.XY{X: x, Y: r.YHat})
		upper = append(upper, plotter.XY{X: x, Y: r.Upper})
		lower = append(lower, plotter.XY{X: x, Y: r.Lower})
	}
	if len(line) == 0 {
		return nil, ErrEmptyWindow
	}
	title := fmt.Sprintf("%s forecast (%s)", res.Asset.Name, res.Mode)
	if res.Asset.Name == "" {
		title = fmt.Sprintf("%s forecast (%s)", res.Asset.Ticker, res.Mode)
	}
	p := newTimePlot(title, "Open")

	slices.Reverse(lower)
	band, err := plotter.NewPolygon(append(slices.Clone(upper), lower...))
	if err != nil {
		return nil, err
	}
	band.Color = bandColor
	band.LineStyle.Width = 0
	p.Add(band)

	if history != nil {
		var obs plotter.XYs
		y := history.Column(forecast.ColumnY)
		for i, t := range history.Times {
			if w.Contains(t) {
				obs = append(obs, plotter.XY{X: unix(t), Y: y[i]})
			}
		}
		if len(obs) > 0 {
			sc, err := plotter.NewScatter(obs)
			if err != nil {
				return nil, err
			}
			sc.GlyphStyle.Color = observedColor
			sc.GlyphStyle.Radius = vg.Points(1)
			p.Add(sc)
			p.Legend.Add("observed", sc)
		}
	}

	l, err := plotter.NewLine(line)
	if err != nil {
		return nil, err
	}
	l.Color = forecastColor
	l.Width = vg.Points(1.5)
	p.Add(l)
	p.Legend.Add("yhat", l)
	p.Legend.Add("uncertainty", band)
	p.Legend.Top = true
	return p, nil
}

// componentOrder is the panel order of the components chart.
var componentOrder = []string{"trend", "holidays", "weekly", "yearly", "daily"}

// Components returns one panel per model component present in res.
func Components(res *model.ForecastResult, w Window) ([]*plot.Plot, error) {
	var panels []*plot.Plot
	for _, name := range componentOrder {
		values, ok := res.Components[name]
		if !ok {
			continue
		}
		var xys plotter.XYs
		for i, r := range res.Rows {
			if i < len(values) && w.Contains(r.DS) {
				xys = append(xys, plotter.XY{X: unix(r.DS), Y: values[i]})
			}
		}
		if len(xys) == 0 {
			continue
		}
		ylabel := name
		if name != "trend" && res.Mode == model.ModeMultiplicative {
			ylabel = name + " (x trend)"
		}
		p := newTimePlot("", ylabel)
		l, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		l.Color = forecastColor
		p.Add(l)
		panels = append(panels, p)
	}
	if len(panels) == 0 {
		return nil, ErrEmptyWindow
	}
	panels[0].Title.Text = fmt.Sprintf("%s components", res.Asset.Ticker)
	return panels, nil
}

// Backtest charts RMSE against the forecast horizon.
func Backtest(ticker string, perf []backtest.Metrics) (*plot.Plot, error) {
	if len(perf) == 0 {
		return nil, errors.New("no backtest metrics")
	}
	xys := make(plotter.XYs, len(perf))
	for i, m := range perf {
		xys[i] = plotter.XY{X: m.HorizonDays(), Y: m.RMSE}
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s cross-validation", ticker)
	p.X.Label.Text = "Horizon (days)"
	p.Y.Label.Text = "RMSE"
	p.Add(plotter.NewGrid())

	l, pts, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, err
	}
	l.Color = forecastColor
	pts.Color = forecastColor
	p.Add(l, pts)
	return p, nil
}
