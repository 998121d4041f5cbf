// Package render draws series, forecasts and backtest scores with gonum/plot.
package render

import "time"

// Window limits the time axis of a chart. Zero bounds are open.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t lies inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// LastYears opens the window n years before end.
func LastYears(end time.Time, n int) Window {
	return Window{From: end.AddDate(-n, 0, 0)}
}

func unix(t time.Time) float64 { return float64(t.Unix()) }
