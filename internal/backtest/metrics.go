package backtest

import (
	"errors"
	"math"
	"slices"
	"time"
)

// Metrics scores the predictions made at one horizon.
type Metrics struct {
	Horizon  time.Duration `json:"horizon"`
	Count    int           `json:"count"`
	MSE      float64       `json:"mse"`
	RMSE     float64       `json:"rmse"`
	MAE      float64       `json:"mae"`
	MAPE     float64       `json:"mape"`
	Coverage float64       `json:"coverage"`
}

// HorizonDays is the horizon in days.
func (m Metrics) HorizonDays() float64 { return m.Horizon.Hours() / 24 }

// Score computes the error metrics of a set of points. MAPE skips points
// with a zero observation and is zero when all are zero.
func Score(points []Point) (Metrics, error) {
	if len(points) == 0 {
		return Metrics{}, errors.New("no points to score")
	}
	var se, ae, ape float64
	var apeN, covered int
	for _, p := range points {
		e := p.Y - p.YHat
		se += e * e
		ae += math.Abs(e)
		if p.Y != 0 {
			ape += math.Abs(e / p.Y)
			apeN++
		}
		if p.Y >= p.Lower && p.Y <= p.Upper {
			covered++
		}
	}
	n := float64(len(points))
	m := Metrics{
		Count:    len(points),
		MSE:      se / n,
		MAE:      ae / n,
		Coverage: float64(covered) / n,
	}
	m.RMSE = math.Sqrt(m.MSE)
	if apeN > 0 {
		m.MAPE = ape / float64(apeN)
	}
	return m, nil
}

// PerformanceMetrics scores the points grouped by horizon, ascending.
func PerformanceMetrics(points []Point) ([]Metrics, error) {
	if len(points) == 0 {
		return nil, errors.New("no points to score")
	}
	groups := map[time.Duration][]Point{}
	for _, p := range points {
		groups[p.Horizon()] = append(groups[p.Horizon()], p)
	}
	horizons := make([]time.Duration, 0, len(groups))
	for h := range groups {
		horizons = append(horizons, h)
	}
	slices.Sort(horizons)

	out := make([]Metrics, 0, len(horizons))
	for _, h := range horizons {
		m, err := Score(groups[h])
		if err != nil {
			return nil, err
		}
		m.Horizon = h
		out = append(out, m)
	}
	return out, nil
}
