package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"TickerCast/internal/model"
)

const (
	secondsPerDay = 86400.0
	ridgePenalty  = 1e-2
)

type seasonality struct {
	name   string
	period float64 // days
	order  int
}

var (
	weeklySeasonality = seasonality{name: "weekly", period: 7, order: 3}
	yearlySeasonality = seasonality{name: "yearly", period: 365.25, order: 10}
	dailySeasonality  = seasonality{name: "daily", period: 1, order: 4}
)

// Decomposer fits a linear trend plus Fourier seasonalities and holiday
// effects by penalised least squares. Seasonal terms are fit on the
// detrended series, as a difference in additive mode and as a ratio in
// multiplicative mode. In multiplicative mode the ratio is taken against the
// trend floored at half the smallest observation, so a trend that dips below
// zero over a falling series stays usable.
type Decomposer struct {
	cfg Config

	fitted  bool
	history []time.Time
	t0      time.Time
	span    float64
	yScale  float64
	// floor is the smallest trend level seasonal ratios scale in
	// multiplicative mode, in scaled units.
	floor float64

	intercept, slope float64
	sMean, sxx       float64
	n                int
	sigma            float64

	seasonalities []seasonality
	calendar      *HolidayCalendar
	holidayNames  []string
	beta          []float64
}

// NewDecomposer returns an unfitted model.
func NewDecomposer(cfg Config) *Decomposer {
	if cfg.Mode == "" {
		cfg.Mode = model.ModeAdditive
	}
	return &Decomposer{cfg: cfg}
}

// Mode returns the configured seasonality mode.
func (d *Decomposer) Mode() model.SeasonalityMode { return d.cfg.Mode }

// Components lists the component names the fitted model reports.
func (d *Decomposer) Components() []string {
	names := []string{"trend"}
	for _, s := range d.seasonalities {
		names = append(names, s.name)
	}
	if len(d.holidayNames) > 0 {
		names = append(names, "holidays")
	}
	return names
}

func (d *Decomposer) scaled(t time.Time) float64 {
	return t.Sub(d.t0).Seconds() / d.span
}

// Fit estimates the model on a canonical ds/y table.
func (d *Decomposer) Fit(ctx context.Context, history *Table) error {
	if err := checkHistory(history); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ds, y := history.Times, history.Column(ColumnY)
	n := len(ds)

	d.fitted = false
	d.history = slices.Clone(ds)
	d.t0 = ds[0]
	d.span = ds[n-1].Sub(ds[0]).Seconds()
	d.n = n

	d.yScale = 0
	for _, v := range y {
		d.yScale = math.Max(d.yScale, math.Abs(v))
	}
	if d.yScale == 0 {
		d.yScale = 1
	}
	ys := make([]float64, n)
	s := make([]float64, n)
	for i := range y {
		ys[i] = y[i] / d.yScale
		s[i] = d.scaled(ds[i])
	}
	d.floor = 0
	if d.cfg.Mode == model.ModeMultiplicative {
		lowest := slices.Min(ys)
		if lowest <= 0 {
			i := slices.Index(ys, lowest)
			return fmt.Errorf("multiplicative seasonality needs positive prices, row %d has %.4g", i, y[i])
		}
		d.floor = lowest / 2
	}

	d.sMean = stat.Mean(s, nil)
	yMean := stat.Mean(ys, nil)
	var sxy float64
	d.sxx = 0
	for i := range s {
		d.sxx += (s[i] - d.sMean) * (s[i] - d.sMean)
		sxy += (s[i] - d.sMean) * (ys[i] - yMean)
	}
	d.slope = sxy / d.sxx
	d.intercept = yMean - d.slope*d.sMean

	d.seasonalities = d.chooseSeasonalities(ds)
	d.calendar, d.holidayNames = nil, nil
	if d.cfg.HolidayCountry != "" {
		c, err := NewHolidayCalendar(d.cfg.HolidayCountry)
		if err != nil {
			return err
		}
		d.calendar = c
		d.holidayNames = holidaysIn(c, ds)
	}

	target := make([]float64, n)
	for i := range ys {
		tr := d.intercept + d.slope*s[i]
		if d.cfg.Mode == model.ModeMultiplicative {
			target[i] = ys[i]/d.level(tr) - 1
		} else {
			target[i] = ys[i] - tr
		}
	}

	d.beta = nil
	p := d.width()
	if p > 0 {
		x := mat.NewDense(n, p, nil)
		for i, t := range ds {
			x.SetRow(i, d.features(t))
		}
		beta, err := ridge(x, target, ridgePenalty)
		if err != nil {
			return fmt.Errorf("fit seasonal terms: %w", err)
		}
		d.beta = beta
	}

	var sse float64
	for i, t := range ds {
		e := ys[i] - d.point(t).yhat
		sse += e * e
	}
	dof := n - 2 - p
	if dof <= 0 {
		dof = n
	}
	d.sigma = math.Sqrt(sse / float64(dof))
	d.fitted = true
	return nil
}

func (d *Decomposer) chooseSeasonalities(ds []time.Time) []seasonality {
	spanDays := d.span / secondsPerDay
	minGap := math.Inf(1)
	for i := 1; i < len(ds); i++ {
		minGap = math.Min(minGap, ds[i].Sub(ds[i-1]).Seconds()/secondsPerDay)
	}
	enabled := func(t Toggle, auto bool) bool {
		switch t {
		case On:
			return true
		case Off:
			return false
		}
		return auto
	}
	var out []seasonality
	if enabled(d.cfg.Yearly, spanDays >= 730) {
		out = append(out, yearlySeasonality)
	}
	if enabled(d.cfg.Weekly, spanDays >= 14 && minGap < 7) {
		out = append(out, weeklySeasonality)
	}
	if enabled(d.cfg.Daily, spanDays >= 2 && minGap < 1) {
		out = append(out, dailySeasonality)
	}
	return out
}

// holidaysIn returns the distinct holiday names present in ds, sorted.
func holidaysIn(c *HolidayCalendar, ds []time.Time) []string {
	seen := map[string]bool{}
	for _, t := range ds {
		if name, ok := c.Name(t); ok {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (d *Decomposer) width() int {
	p := len(d.holidayNames)
	for _, s := range d.seasonalities {
		p += 2 * s.order
	}
	return p
}

// features is the regressor row for t: Fourier pairs per seasonality, then
// one indicator per holiday.
func (d *Decomposer) features(t time.Time) []float64 {
	row := make([]float64, 0, d.width())
	days := float64(t.Unix()) / secondsPerDay
	for _, s := range d.seasonalities {
		for k := 1; k <= s.order; k++ {
			x := 2 * math.Pi * float64(k) * days / s.period
			row = append(row, math.Sin(x), math.Cos(x))
		}
	}
	if len(d.holidayNames) > 0 {
		name, ok := d.calendar.Name(t)
		for _, h := range d.holidayNames {
			if ok && h == name {
				row = append(row, 1)
			} else {
				row = append(row, 0)
			}
		}
	}
	return row
}

// point is a prediction in scaled units.
type point struct {
	s, trend, yhat float64
	// parts maps component name to its contribution: scaled price units in
	// additive mode, a fraction of trend in multiplicative mode.
	parts map[string]float64
	total float64
}

func (d *Decomposer) point(t time.Time) point {
	s := d.scaled(t)
	p := point{s: s, trend: d.intercept + d.slope*s, parts: map[string]float64{}}
	if len(d.beta) > 0 {
		x := d.features(t)
		j := 0
		for _, se := range d.seasonalities {
			var c float64
			for k := 0; k < 2*se.order; k++ {
				c += d.beta[j] * x[j]
				j++
			}
			p.parts[se.name] = c
			p.total += c
		}
		if len(d.holidayNames) > 0 {
			var c float64
			for ; j < len(x); j++ {
				c += d.beta[j] * x[j]
			}
			p.parts["holidays"] = c
			p.total += c
		}
	}
	p.yhat = d.combine(p.trend, p.total)
	return p
}

// level is the trend value seasonal ratios scale in multiplicative mode.
func (d *Decomposer) level(trend float64) float64 { return math.Max(trend, d.floor) }

// combine joins a trend value and the summed seasonal terms.
func (d *Decomposer) combine(trend, seasonal float64) float64 {
	if d.cfg.Mode == model.ModeMultiplicative {
		return trend + d.level(trend)*seasonal
	}
	return trend + seasonal
}

// MakeFuture returns the fitted history followed by horizon steps of unit.
func (d *Decomposer) MakeFuture(horizon int, unit model.PeriodUnit) ([]time.Time, error) {
	if !d.fitted {
		return nil, ErrNotFitted
	}
	return ExtendIndex(d.history, horizon, unit)
}

// Predict evaluates the model and its uncertainty band at ds.
func (d *Decomposer) Predict(ctx context.Context, ds []time.Time) (*Prediction, error) {
	if !d.fitted {
		return nil, ErrNotFitted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pred := &Prediction{
		Rows:       make([]model.ForecastRow, len(ds)),
		Components: map[string][]float64{},
	}
	for _, name := range d.Components() {
		pred.Components[name] = make([]float64, len(ds))
	}
	points := make([]point, len(ds))
	for i, t := range ds {
		p := d.point(t)
		points[i] = p
		pred.Rows[i] = model.ForecastRow{DS: t, YHat: p.yhat * d.yScale}
		pred.Components["trend"][i] = p.trend * d.yScale
		for name, c := range p.parts {
			if d.cfg.Mode == model.ModeAdditive {
				c *= d.yScale
			}
			pred.Components[name][i] = c
		}
	}

	var err error
	if d.cfg.UncertaintySamples > 0 {
		err = d.simulateBands(ctx, points, pred.Rows)
	} else {
		d.analyticBands(points, pred.Rows)
	}
	if err != nil {
		return nil, err
	}
	return pred, nil
}

// ridge solves (XᵀX + λI)β = Xᵀy. Ill-conditioning is tolerated.
func ridge(x *mat.Dense, y []float64, lambda float64) ([]float64, error) {
	_, p := x.Dims()
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for i := 0; i < p; i++ {
		xtx.Set(i, i, xtx.At(i, i)+lambda)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), mat.NewVecDense(len(y), y))

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}
	out := make([]float64, p)
	for i := range out {
		out[i] = beta.AtVec(i)
	}
	return out, nil
}
