// Package calculator derives summary indicators from a price series shown
// next to each forecast.
package calculator

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"TickerCast/internal/model"
)

// Lookbacks in bars.
const (
	ShortPeriod = 50
	LongPeriod  = 200
	RSIPeriod   = 14
	YearBars    = 252
)

// Indicators summarises the recent history of a series. Pointer fields are
// nil when the series is too short to compute them.
type Indicators struct {
	SMA50     *float64 `json:"sma_50,omitempty"`
	SMA200    *float64 `json:"sma_200,omitempty"`
	RSI14     *float64 `json:"rsi_14,omitempty"`
	YearHigh  float64  `json:"year_high"`
	YearLow   float64  `json:"year_low"`
	YearPos   float64  `json:"year_position"`
	LastClose float64  `json:"last_close"`
	Bars      int      `json:"bars"`
}

// Summarize computes Indicators from closes and the high/low range.
func Summarize(bars []model.OHLCV) (Indicators, error) {
	if len(bars) == 0 {
		return Indicators{}, errors.New("no bars provided")
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	ind := Indicators{LastClose: closes[len(closes)-1], Bars: len(bars)}
	if v, err := SMA(closes, ShortPeriod); err == nil {
		ind.SMA50 = &v
	}
	if v, err := SMA(closes, LongPeriod); err == nil {
		ind.SMA200 = &v
	}
	if v, err := RSI(closes, RSIPeriod); err == nil {
		ind.RSI14 = &v
	}
	ind.YearHigh, ind.YearLow = Range(bars, YearBars)
	ind.YearPos = Position(ind.LastClose, ind.YearHigh, ind.YearLow)
	return ind, nil
}

// SMA is the mean of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA")
	}
	return stat.Mean(values[len(values)-period:], nil), nil
}

// Range scans the last n bars for the highest high and the lowest low.
func Range(bars []model.OHLCV, n int) (high, low float64) {
	start := max(len(bars)-n, 0)
	high, low = math.Inf(-1), math.Inf(1)
	for _, b := range bars[start:] {
		high = max(high, b.High)
		low = min(low, b.Low)
	}
	return high, low
}

// Position places current within [low, high] as a fraction clamped to [0, 1].
// A flat range yields 0.5.
func Position(current, high, low float64) float64 {
	if high <= low {
		return 0.5
	}
	return min(max((current-low)/(high-low), 0), 1)
}

// RSI is the Wilder-smoothed relative strength index. It needs period+1 values.
func RSI(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period+1 {
		return 0, errors.New("not enough data for RSI")
	}
	var gain, loss float64
	for i := 1; i <= period; i++ {
		if d := values[i] - values[i-1]; d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	p := float64(period)
	gain /= p
	loss /= p
	for i := period + 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		gain = (gain*(p-1) + max(d, 0)) / p
		loss = (loss*(p-1) + max(-d, 0)) / p
	}
	if loss == 0 {
		return 100, nil
	}
	return 100 - 100/(1+gain/loss), nil
}
