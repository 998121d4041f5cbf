package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerCast/internal/model"
)

func bars(closes ...float64) []model.OHLCV {
	out := make([]model.OHLCV, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return out
}

func TestSMA(t *testing.T) {
	v, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-12)

	_, err = SMA([]float64{1, 2}, 3)
	assert.Error(t, err)
	_, err = SMA([]float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(i)
	}
	v, err := RSI(rising, 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)

	// alternating +1/-1 balances gains and losses
	alt := make([]float64, 15)
	for i := range alt {
		alt[i] = float64(i % 2)
	}
	v, err = RSI(alt, 14)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, v, 1e-9)

	_, err = RSI(rising[:14], 14)
	assert.Error(t, err)
}

func TestRangeAndPosition(t *testing.T) {
	high, low := Range(bars(10, 50, 20, 30), 3)
	assert.Equal(t, 51.0, high)
	assert.Equal(t, 19.0, low)

	assert.Equal(t, 0.5, Position(5, 5, 5))
	assert.Equal(t, 0.0, Position(1, 10, 2))
	assert.Equal(t, 1.0, Position(11, 10, 2))
	assert.InDelta(t, 0.25, Position(4, 10, 2), 1e-12)
}

func TestSummarize(t *testing.T) {
	_, err := Summarize(nil)
	assert.Error(t, err)

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	ind, err := Summarize(bars(closes...))
	require.NoError(t, err)
	assert.Equal(t, 60, ind.Bars)
	assert.Equal(t, 159.0, ind.LastClose)
	require.NotNil(t, ind.SMA50)
	assert.InDelta(t, 134.5, *ind.SMA50, 1e-9)
	assert.Nil(t, ind.SMA200)
	require.NotNil(t, ind.RSI14)
	assert.Equal(t, 160.0, ind.YearHigh)
	assert.Equal(t, 99.0, ind.YearLow)
	assert.InDelta(t, 60.0/61.0, ind.YearPos, 1e-12)
}
