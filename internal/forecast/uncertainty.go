package forecast

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"TickerCast/internal/model"
)

// growth widens the band linearly in variance with distance past the
// history, measured in history spans.
func growth(s float64) float64 {
	return math.Sqrt(1 + math.Max(0, s-1))
}

// analyticBands sets a normal prediction interval around each row.
func (d *Decomposer) analyticBands(points []point, rows []model.ForecastRow) {
	z := distuv.UnitNormal.Quantile(0.5 + d.cfg.width()/2)
	for i, p := range points {
		ds := p.s - d.sMean
		se := d.sigma * math.Sqrt(1+1/float64(d.n)+ds*ds/d.sxx) * growth(p.s)
		half := z * se * d.yScale
		rows[i].Lower = rows[i].YHat - half
		rows[i].Upper = rows[i].YHat + half
	}
}

// simulateBands draws trend and noise paths and takes empirical quantiles.
func (d *Decomposer) simulateBands(ctx context.Context, points []point, rows []model.ForecastRow) error {
	seed := d.cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	samples := d.cfg.UncertaintySamples
	draws := make([][]float64, len(points))
	for i := range draws {
		draws[i] = make([]float64, samples)
	}
	seIntercept := d.sigma / math.Sqrt(float64(d.n))
	seSlope := d.sigma / math.Sqrt(d.sxx)
	for j := 0; j < samples; j++ {
		if j%64 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		dIntercept := rng.NormFloat64() * seIntercept
		dSlope := rng.NormFloat64() * seSlope
		for i, p := range points {
			trend := p.trend + dIntercept + dSlope*(p.s-d.sMean)
			noise := rng.NormFloat64() * d.sigma * growth(p.s)
			draws[i][j] = (d.combine(trend, p.total) + noise) * d.yScale
		}
	}

	lo := (1 - d.cfg.width()) / 2
	hi := 1 - lo
	for i := range rows {
		slices.Sort(draws[i])
		rows[i].Lower = stat.Quantile(lo, stat.Empirical, draws[i], nil)
		rows[i].Upper = stat.Quantile(hi, stat.Empirical, draws[i], nil)
	}
	return nil
}
