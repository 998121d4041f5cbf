// Package metrics exposes Prometheus collectors for fetches, fits and errors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tickercast_fetch_duration_seconds",
			Help:    "Duration of upstream series fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	fitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tickercast_fit_duration_seconds",
			Help:    "Duration of model fits in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
	forecastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickercast_forecasts_total",
			Help: "Total number of completed forecasts",
		},
		[]string{"ticker", "mode"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickercast_errors_total",
			Help: "Total number of errors encountered",
		},
		[]string{"kind"},
	)
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickercast_cache_lookups_total",
			Help: "Series cache lookups by result",
		},
		[]string{"result"},
	)
)

// ObserveFetch records the latency of one upstream fetch.
func ObserveFetch(source string, d time.Duration) {
	fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveFit records the latency of one model fit.
func ObserveFit(mode string, d time.Duration) {
	fitDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// IncForecast counts a completed forecast.
func IncForecast(ticker, mode string) {
	forecastsTotal.WithLabelValues(ticker, mode).Inc()
}

// IncError counts an error by kind.
func IncError(kind string) {
	errorsTotal.WithLabelValues(kind).Inc()
}

// IncCache counts a cache hit or miss.
func IncCache(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}
