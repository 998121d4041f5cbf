package model

import (
	"fmt"
	"strings"
	"time"
)

// PeriodUnit is the step used to extend the time index past the history.
type PeriodUnit string

const (
	UnitDay         PeriodUnit = "D"
	UnitHour        PeriodUnit = "H"
	UnitBusinessDay PeriodUnit = "B"
)

// ParsePeriodUnit accepts the short codes (D, H, B) and long names.
func ParsePeriodUnit(s string) (PeriodUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "d", "day", "days", "calendar_day":
		return UnitDay, nil
	case "h", "hour", "hours":
		return UnitHour, nil
	case "b", "bday", "business_day", "business":
		return UnitBusinessDay, nil
	}
	return "", fmt.Errorf("unknown period unit %q", s)
}

// Next returns the first instant strictly after t at this unit.
// Business days skip Saturday and Sunday; holidays are not skipped.
func (u PeriodUnit) Next(t time.Time) time.Time {
	switch u {
	case UnitHour:
		return t.Add(time.Hour)
	case UnitBusinessDay:
		n := t.AddDate(0, 0, 1)
		for n.Weekday() == time.Saturday || n.Weekday() == time.Sunday {
			n = n.AddDate(0, 0, 1)
		}
		return n
	default:
		return t.AddDate(0, 0, 1)
	}
}

// SeasonalityMode says whether seasonal effects add to or scale the trend.
type SeasonalityMode string

const (
	ModeAdditive       SeasonalityMode = "additive"
	ModeMultiplicative SeasonalityMode = "multiplicative"
)

// ParseSeasonalityMode maps user input to a mode.
func ParseSeasonalityMode(s string) (SeasonalityMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "additive", "add":
		return ModeAdditive, nil
	case "multiplicative", "mul", "mult":
		return ModeMultiplicative, nil
	}
	return "", fmt.Errorf("unknown seasonality mode %q", s)
}

// ForecastOptions is the full configuration of one forecasting run.
type ForecastOptions struct {
	Ticker   string    `json:"ticker" validate:"required"`
	Start    time.Time `json:"start" validate:"required"`
	AsOf     time.Time `json:"as_of" validate:"required"`
	Interval string    `json:"interval" default:"1d" validate:"oneof=1d 1h"`

	Horizon int        `json:"horizon" validate:"gte=0"`
	Unit    PeriodUnit `json:"unit" default:"D" validate:"oneof=D H B"`

	// SeasonalityOverride forces a mode regardless of the asset class.
	SeasonalityOverride SeasonalityMode `json:"seasonality_override,omitempty" validate:"omitempty,oneof=additive multiplicative"`
	// AssetClassOverride replaces the metadata-derived classification.
	AssetClassOverride AssetClass `json:"asset_class_override,omitempty" validate:"omitempty,oneof=VOLATILE TRADITIONAL UNKNOWN"`
	// HolidayCountry attaches country holiday effects for non-volatile assets.
	HolidayCountry string `json:"holiday_country,omitempty" validate:"omitempty,oneof=US USA"`
	// UncertaintySamples > 0 switches to simulated uncertainty bands.
	UncertaintySamples int     `json:"uncertainty_samples" validate:"gte=0,lte=10000"`
	IntervalWidth      float64 `json:"interval_width" default:"0.8" validate:"gt=0,lt=1"`
	Seed               uint64  `json:"seed,omitempty"`
}

// ForecastRow is one point of the prediction table.
type ForecastRow struct {
	DS    time.Time `json:"ds"`
	YHat  float64   `json:"yhat"`
	Lower float64   `json:"yhat_lower"`
	Upper float64   `json:"yhat_upper"`
}

// ForecastResult covers the historical range plus the horizon.
type ForecastResult struct {
	Asset      Asset                `json:"asset"`
	Mode       SeasonalityMode      `json:"mode"`
	Unit       PeriodUnit           `json:"unit"`
	HistoryLen int                  `json:"history_len"`
	Rows       []ForecastRow        `json:"rows"`
	Components map[string][]float64 `json:"components"`
}

// History returns the rows that align with the fitted history.
func (r *ForecastResult) History() []ForecastRow { return r.Rows[:r.HistoryLen] }

// Future returns the rows past the last observation.
func (r *ForecastResult) Future() []ForecastRow { return r.Rows[r.HistoryLen:] }

// Last returns the final row, or the zero row if empty.
func (r *ForecastResult) Last() ForecastRow {
	if len(r.Rows) == 0 {
		return ForecastRow{}
	}
	return r.Rows[len(r.Rows)-1]
}
