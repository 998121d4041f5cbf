package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerCast/internal/backtest"
	"TickerCast/internal/collector"
	"TickerCast/internal/forecast"
	"TickerCast/internal/model"
)

var start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func fixtureRun(t *testing.T) *forecast.Run {
	t.Helper()
	series := &model.PriceSeries{Ticker: "ETH-USD", Interval: "1d", Bars: collector.GenerateBars(start, 61, 130, true)}
	asset := model.Asset{Ticker: "ETH-USD", Name: "Ethereum USD", Class: model.ClassVolatile}
	run, err := forecast.Forecast(context.Background(), forecast.DefaultFactory, series, asset, model.ForecastOptions{
		Horizon: 30, Unit: model.UnitDay, IntervalWidth: 0.8,
	})
	require.NoError(t, err)
	return run
}

func isPNG(t *testing.T, b []byte) {
	t.Helper()
	require.Greater(t, len(b), 8)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), b[:8])
}

func TestWindow_Contains(t *testing.T) {
	w := Window{From: start, To: start.AddDate(0, 0, 10)}
	assert.True(t, w.Contains(start))
	assert.True(t, w.Contains(start.AddDate(0, 0, 10)))
	assert.False(t, w.Contains(start.AddDate(0, 0, -1)))
	assert.False(t, w.Contains(start.AddDate(0, 0, 11)))
	assert.True(t, Window{}.Contains(time.Time{}))

	ly := LastYears(start, 1)
	assert.Equal(t, start.AddDate(-1, 0, 0), ly.From)
	assert.True(t, ly.To.IsZero())
}

func TestSeries(t *testing.T) {
	run := fixtureRun(t)
	p, err := Series(run.Series, Window{})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, p, Width, Height))
	isPNG(t, buf.Bytes())

	_, err = Series(run.Series, Window{From: start.AddDate(1, 0, 0)})
	assert.ErrorIs(t, err, ErrEmptyWindow)
}

func TestForecastChart(t *testing.T) {
	run := fixtureRun(t)
	p, err := Forecast(run.Result, run.History, Window{From: start.AddDate(0, 0, 30)})
	require.NoError(t, err)
	assert.Contains(t, p.Title.Text, "Ethereum USD")

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, p, Width, Height))
	isPNG(t, buf.Bytes())
}

func TestComponentsPanels(t *testing.T) {
	run := fixtureRun(t)
	panels, err := Components(run.Result, Window{})
	require.NoError(t, err)
	assert.Len(t, panels, 2, "trend and weekly")

	var buf bytes.Buffer
	require.NoError(t, WritePanels(&buf, panels, Width, PanelHeight))
	isPNG(t, buf.Bytes())
}

func TestBacktestChart(t *testing.T) {
	perf := []backtest.Metrics{
		{Horizon: 24 * time.Hour, RMSE: 1},
		{Horizon: 48 * time.Hour, RMSE: 1.5},
	}
	p, err := Backtest("GOOG", perf)
	require.NoError(t, err)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "backtest.png")
	require.NoError(t, SaveFile(p, path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	isPNG(t, b)

	_, err = Backtest("GOOG", nil)
	assert.Error(t, err)
}

func TestSavePanels(t *testing.T) {
	run := fixtureRun(t)
	panels, err := Components(run.Result, Window{})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, SavePanels(panels, filepath.Join(dir, "components.png")))
	assert.Error(t, SavePanels(panels, filepath.Join(dir, "components.svg")))
}

func TestWriteCSV(t *testing.T) {
	run := fixtureRun(t)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, run.Result))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1+91)
	assert.Equal(t, "ds,yhat,yhat_lower,yhat_upper,history,trend,weekly", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2020-01-01 00:00:00,"))
	assert.Contains(t, lines[61], ",true,")
	assert.Contains(t, lines[62], ",false,")
}
