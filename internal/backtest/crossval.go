// Package backtest simulates historical forecasts and scores them.
package backtest

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"TickerCast/internal/forecast"
	"TickerCast/internal/model"
)

const day = 24 * time.Hour

// Window sets the cross-validation geometry.
type Window struct {
	Initial time.Duration // minimum training span
	Period  time.Duration // spacing between cutoffs
	Horizon time.Duration // evaluation span after each cutoff
}

// DefaultWindow is 30 days initial, 18 days period and 65 days horizon.
var DefaultWindow = Window{Initial: 30 * day, Period: 18 * day, Horizon: 65 * day}

// Point is one out-of-sample prediction.
type Point struct {
	DS     time.Time `json:"ds"`
	Cutoff time.Time `json:"cutoff"`
	Y      float64   `json:"y"`
	YHat   float64   `json:"yhat"`
	Lower  float64   `json:"yhat_lower"`
	Upper  float64   `json:"yhat_upper"`
}

// Horizon is the distance from the cutoff.
func (p Point) Horizon() time.Duration { return p.DS.Sub(p.Cutoff) }

// Cutoffs returns ascending cutoffs, stepping back from the last timestamp
// minus the horizon while at least Initial of history precedes them.
func Cutoffs(ds []time.Time, w Window) ([]time.Time, error) {
	if w.Initial < 0 || w.Period <= 0 || w.Horizon <= 0 {
		return nil, fmt.Errorf("invalid window %+v", w)
	}
	if len(ds) < 2 {
		return nil, model.ErrInsufficientHistory
	}
	first, last := ds[0], ds[len(ds)-1]
	var out []time.Time
	for c := last.Add(-w.Horizon); !c.Before(first.Add(w.Initial)); c = c.Add(-w.Period) {
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("history spans %s, need initial %s plus horizon %s: %w",
			last.Sub(first), w.Initial, w.Horizon, model.ErrInsufficientHistory)
	}
	slices.Reverse(out)
	return out, nil
}

// CrossValidate refits the model at every cutoff on the rows up to it and
// predicts the rows in (cutoff, cutoff+Horizon].
func CrossValidate(ctx context.Context, history *forecast.Table, factory forecast.Factory, cfg forecast.Config, w Window) ([]Point, error) {
	cutoffs, err := Cutoffs(history.Times, w)
	if err != nil {
		return nil, err
	}
	y := history.Column(forecast.ColumnY)
	var points []Point
	for _, cutoff := range cutoffs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		train := history.Slice(history.Times[0], cutoff)
		var testDS []time.Time
		var testY []float64
		for i, t := range history.Times {
			if t.After(cutoff) && !t.After(cutoff.Add(w.Horizon)) {
				testDS = append(testDS, t)
				testY = append(testY, y[i])
			}
		}
		if train.Len() < 2 || len(testDS) == 0 {
			continue
		}

		m := factory(cfg)
		if err := m.Fit(ctx, train); err != nil {
			return nil, fmt.Errorf("fold %s: %w", cutoff.Format(time.DateOnly), err)
		}
		pred, err := m.Predict(ctx, testDS)
		if err != nil {
			return nil, fmt.Errorf("fold %s: %w", cutoff.Format(time.DateOnly), err)
		}
		for i, row := range pred.Rows {
			points = append(points, Point{
				DS:     row.DS,
				Cutoff: cutoff,
				Y:      testY[i],
				YHat:   row.YHat,
				Lower:  row.Lower,
				Upper:  row.Upper,
			})
		}
	}
	log.Debug().Int("folds", len(cutoffs)).Int("points", len(points)).Msg("cross-validation done")
	return points, nil
}
