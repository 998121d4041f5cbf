package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerCast/internal/collector"
	"TickerCast/internal/model"
)

func seriesFixture(days int, everyDay bool) *model.PriceSeries {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return &model.PriceSeries{Ticker: "TEST", Interval: "1d", Bars: collector.GenerateBars(start, days, 100, everyDay)}
}

func TestFromSeries_Columns(t *testing.T) {
	s := seriesFixture(5, true)
	tbl := FromSeries(s)
	assert.Equal(t, "Date", tbl.Index)
	assert.Equal(t, []string{"Open", "High", "Low", "Close", "Volume"}, tbl.Order)
	assert.Equal(t, 5, tbl.Len())
	assert.Equal(t, s.Opens(), tbl.Column("Open"))
	assert.Equal(t, s.Closes(), tbl.Column("Close"))
}

func TestReshape_SelectsOpen(t *testing.T) {
	s := seriesFixture(5, true)
	got, err := Reshape(FromSeries(s), TargetColumn)
	require.NoError(t, err)
	assert.True(t, got.IsCanonical())
	assert.Equal(t, ColumnDS, got.Index)
	assert.Equal(t, s.Times(), got.Times)
	assert.Equal(t, s.Opens(), got.Column(ColumnY))
}

func TestReshape_IdempotentOnCanonical(t *testing.T) {
	once, err := Reshape(FromSeries(seriesFixture(5, true)), TargetColumn)
	require.NoError(t, err)
	twice, err := Reshape(once, TargetColumn)
	require.NoError(t, err)
	assert.Same(t, once, twice)
	assert.Equal(t, once, twice)
}

func TestReshape_CanonicalWithExtraColumns(t *testing.T) {
	tbl, err := Reshape(FromSeries(seriesFixture(5, true)), TargetColumn)
	require.NoError(t, err)
	tbl.Columns["cap"] = []float64{1, 2, 3, 4, 5}
	tbl.Order = append(tbl.Order, "cap")

	got, err := Reshape(tbl, TargetColumn)
	require.NoError(t, err)
	assert.Same(t, tbl, got)
	assert.Equal(t, []string{ColumnY, "cap"}, got.Order)

	d := NewDecomposer(Config{})
	assert.NoError(t, d.Fit(context.Background(), got))
}

func TestReshape_MissingColumn(t *testing.T) {
	_, err := Reshape(FromSeries(seriesFixture(5, true)), "Adj Close")
	assert.Error(t, err)
}

func TestNewFrame_LengthMismatch(t *testing.T) {
	_, err := NewFrame([]time.Time{time.Now()}, []float64{1, 2})
	assert.Error(t, err)
}

func TestTable_Slice(t *testing.T) {
	tbl, err := Reshape(FromSeries(seriesFixture(10, true)), TargetColumn)
	require.NoError(t, err)
	from := time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC)
	got := tbl.Slice(from, to)
	assert.Equal(t, 3, got.Len())
	assert.Equal(t, from, got.Times[0])
	assert.Len(t, got.Column(ColumnY), 3)
}
