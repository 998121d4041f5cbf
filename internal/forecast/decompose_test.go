package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerCast/internal/model"
)

func frame(t *testing.T, start time.Time, n int, f func(i int) float64) *Table {
	t.Helper()
	ds := make([]time.Time, n)
	y := make([]float64, n)
	for i := range ds {
		ds[i] = start.AddDate(0, 0, i)
		y[i] = f(i)
	}
	tbl, err := NewFrame(ds, y)
	require.NoError(t, err)
	return tbl
}

var jan2020 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func TestDecomposer_RecoversLinearTrend(t *testing.T) {
	hist := frame(t, jan2020, 30, func(i int) float64 { return 100 + 2*float64(i) })
	d := NewDecomposer(Config{Mode: model.ModeAdditive})
	require.NoError(t, d.Fit(context.Background(), hist))

	future, err := d.MakeFuture(5, model.UnitDay)
	require.NoError(t, err)
	pred, err := d.Predict(context.Background(), future)
	require.NoError(t, err)

	require.Len(t, pred.Rows, 35)
	for i, row := range pred.Rows {
		assert.InDelta(t, 100+2*float64(i), row.YHat, 1e-6, "row %d", i)
	}
	assert.Equal(t, []string{"trend", "weekly"}, d.Components())
}

func TestDecomposer_HistoryPreconditions(t *testing.T) {
	d := NewDecomposer(Config{})

	one := frame(t, jan2020, 1, func(int) float64 { return 1 })
	assert.ErrorIs(t, d.Fit(context.Background(), one), model.ErrInsufficientHistory)

	same, err := NewFrame([]time.Time{jan2020, jan2020}, []float64{1, 2})
	require.NoError(t, err)
	assert.ErrorIs(t, d.Fit(context.Background(), same), model.ErrInsufficientHistory)

	unordered, err := NewFrame([]time.Time{jan2020, jan2020.AddDate(0, 0, 2), jan2020.AddDate(0, 0, 1)}, []float64{1, 2, 3})
	require.NoError(t, err)
	err = d.Fit(context.Background(), unordered)
	assert.ErrorIs(t, err, model.ErrUnorderedHistory)
	var he *model.HistoryError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, 2, he.Index)

	notCanonical := FromSeries(seriesFixture(5, true))
	assert.Error(t, d.Fit(context.Background(), notCanonical))
}

func TestDecomposer_NotFitted(t *testing.T) {
	d := NewDecomposer(Config{})
	_, err := d.MakeFuture(1, model.UnitDay)
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = d.Predict(context.Background(), []time.Time{jan2020})
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestDecomposer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hist := frame(t, jan2020, 10, func(i int) float64 { return float64(i) })
	assert.ErrorIs(t, NewDecomposer(Config{}).Fit(ctx, hist), context.Canceled)
}

func TestDecomposer_MultiplicativeWeekly(t *testing.T) {
	hist, err := Reshape(FromSeries(seriesFixture(90, true)), TargetColumn)
	require.NoError(t, err)
	d := NewDecomposer(Config{Mode: model.ModeMultiplicative})
	require.NoError(t, d.Fit(context.Background(), hist))

	pred, err := d.Predict(context.Background(), hist.Times)
	require.NoError(t, err)
	y := hist.Column(ColumnY)
	for i, row := range pred.Rows {
		assert.InEpsilon(t, y[i], row.YHat, 0.02, "row %d", i)
	}
	weekly := pred.Components["weekly"]
	require.Len(t, weekly, hist.Len())
	var peak float64
	for _, w := range weekly {
		peak = math.Max(peak, math.Abs(w))
	}
	assert.Greater(t, peak, 0.001)
	assert.Less(t, peak, 0.05, "multiplicative components are fractions of trend")
}

func TestDecomposer_MultiplicativeNeedsPositivePrices(t *testing.T) {
	hist := frame(t, jan2020, 20, func(i int) float64 { return 5 - float64(i) })
	err := NewDecomposer(Config{Mode: model.ModeMultiplicative}).Fit(context.Background(), hist)
	assert.ErrorContains(t, err, "positive prices")
}

func TestDecomposer_MultiplicativeFitsCrash(t *testing.T) {
	// a linear trend through this series goes negative well before the end
	hist := frame(t, jan2020, 40, func(i int) float64 {
		if i < 5 {
			return 1000
		}
		return 1
	})
	d := NewDecomposer(Config{Mode: model.ModeMultiplicative, UncertaintySamples: 100, Seed: 3})
	require.NoError(t, d.Fit(context.Background(), hist))

	future, err := d.MakeFuture(30, model.UnitDay)
	require.NoError(t, err)
	pred, err := d.Predict(context.Background(), future)
	require.NoError(t, err)
	require.Len(t, pred.Rows, 70)
	assert.Less(t, pred.Components["trend"][39], 0.0)
	for _, r := range pred.Rows {
		assert.False(t, math.IsNaN(r.YHat) || math.IsInf(r.YHat, 0), r.DS)
		assert.LessOrEqual(t, r.Lower, r.Upper, r.DS)
	}
}

func noisy(i int) float64 {
	return 100 + float64(i) + 3*math.Sin(float64(i)*1.3)
}

func TestDecomposer_AnalyticBandWidensPastHistory(t *testing.T) {
	hist := frame(t, jan2020, 60, noisy)
	d := NewDecomposer(Config{IntervalWidth: 0.8})
	require.NoError(t, d.Fit(context.Background(), hist))
	require.Greater(t, d.sigma, 0.0)

	future, err := d.MakeFuture(120, model.UnitDay)
	require.NoError(t, err)
	pred, err := d.Predict(context.Background(), future)
	require.NoError(t, err)

	for i, row := range pred.Rows {
		assert.LessOrEqual(t, row.Lower, row.YHat, "row %d", i)
		assert.GreaterOrEqual(t, row.Upper, row.YHat, "row %d", i)
	}
	lastHist := pred.Rows[59]
	last := pred.Rows[len(pred.Rows)-1]
	assert.Greater(t, last.Upper-last.Lower, lastHist.Upper-lastHist.Lower)
	for i := 61; i < len(pred.Rows); i++ {
		prev, cur := pred.Rows[i-1], pred.Rows[i]
		assert.GreaterOrEqual(t, cur.Upper-cur.Lower, prev.Upper-prev.Lower-1e-9)
	}
}

func TestDecomposer_SimulatedBandsSeeded(t *testing.T) {
	hist := frame(t, jan2020, 60, noisy)
	run := func(seed uint64) *Prediction {
		d := NewDecomposer(Config{UncertaintySamples: 200, Seed: seed})
		require.NoError(t, d.Fit(context.Background(), hist))
		future, err := d.MakeFuture(30, model.UnitDay)
		require.NoError(t, err)
		pred, err := d.Predict(context.Background(), future)
		require.NoError(t, err)
		return pred
	}

	a, b := run(42), run(42)
	assert.Equal(t, a.Rows, b.Rows)
	for _, row := range a.Rows {
		assert.Less(t, row.Lower, row.Upper)
	}

	c := run(43)
	assert.NotEqual(t, a.Rows[len(a.Rows)-1].Upper, c.Rows[len(c.Rows)-1].Upper)
}

func TestDecomposer_HolidayEffects(t *testing.T) {
	cal, err := NewHolidayCalendar("US")
	require.NoError(t, err)
	july4 := time.Date(2019, 7, 4, 0, 0, 0, 0, time.UTC)
	_, ok := cal.Name(july4)
	require.True(t, ok)

	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	var ds []time.Time
	var y []float64
	for t0 := start; t0.Year() < 2020; t0 = model.UnitBusinessDay.Next(t0) {
		v := 50 + 0.01*float64(len(ds))
		if t0.Month() == time.July && t0.Day() == 4 {
			v += 5
		}
		ds = append(ds, t0)
		y = append(y, v)
	}
	hist, err := NewFrame(ds, y)
	require.NoError(t, err)

	d := NewDecomposer(Config{Mode: model.ModeAdditive, HolidayCountry: "US"})
	require.NoError(t, d.Fit(context.Background(), hist))
	assert.Contains(t, d.Components(), "holidays")

	pred, err := d.Predict(context.Background(), []time.Time{july4, july4.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Greater(t, pred.Components["holidays"][0], 2.0)
	assert.InDelta(t, 0, pred.Components["holidays"][1], 1e-9)
}

func TestNewHolidayCalendar_Unsupported(t *testing.T) {
	_, err := NewHolidayCalendar("ZZ")
	assert.ErrorIs(t, err, model.ErrInvalidRequest)
}
