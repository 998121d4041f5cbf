package forecast

import (
	"context"
	"errors"
	"time"

	"TickerCast/internal/model"
)

// ErrNotFitted is returned when predicting with a model that has not been fit.
var ErrNotFitted = errors.New("model has not been fit")

// Toggle controls a seasonal component.
type Toggle int

const (
	Auto Toggle = iota
	On
	Off
)

// Config configures a Model.
type Config struct {
	Mode           model.SeasonalityMode
	HolidayCountry string

	Weekly Toggle
	Yearly Toggle
	Daily  Toggle

	// UncertaintySamples > 0 simulates the bands instead of using the
	// analytic normal interval.
	UncertaintySamples int
	IntervalWidth      float64
	// Seed fixes the simulation. Zero draws a fresh seed per prediction.
	Seed uint64
}

func (c Config) width() float64 {
	if c.IntervalWidth <= 0 || c.IntervalWidth >= 1 {
		return 0.8
	}
	return c.IntervalWidth
}

// Prediction holds predicted rows and the per-row component contributions.
type Prediction struct {
	Rows       []model.ForecastRow
	Components map[string][]float64
}

// Model is a forecaster that is fit once on a canonical ds/y table.
type Model interface {
	Fit(ctx context.Context, history *Table) error
	MakeFuture(horizon int, unit model.PeriodUnit) ([]time.Time, error)
	Predict(ctx context.Context, ds []time.Time) (*Prediction, error)
}

// Factory builds a fresh, unfitted model.
type Factory func(Config) Model

// DefaultFactory builds the bundled Decomposer.
func DefaultFactory(cfg Config) Model { return NewDecomposer(cfg) }
