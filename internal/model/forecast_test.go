package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodUnit_Next(t *testing.T) {
	fri := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) // Friday
	tests := []struct {
		unit PeriodUnit
		from time.Time
		want time.Time
	}{
		{UnitDay, fri, fri.AddDate(0, 0, 1)},
		{UnitHour, fri, fri.Add(time.Hour)},
		{UnitBusinessDay, fri, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{UnitBusinessDay, fri.AddDate(0, 0, 1), time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{UnitBusinessDay, fri.AddDate(0, 0, -1), fri},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.unit.Next(tt.from), "unit %s from %s", tt.unit, tt.from.Weekday())
	}
}

func TestParsePeriodUnit(t *testing.T) {
	for in, want := range map[string]PeriodUnit{"D": UnitDay, "hour": UnitHour, "b": UnitBusinessDay} {
		got, err := ParsePeriodUnit(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePeriodUnit("W")
	assert.Error(t, err)
}

func TestPriceSeries_Validate(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ok := &PriceSeries{Bars: []OHLCV{{Time: t0}, {Time: t0.AddDate(0, 0, 1)}}}
	assert.NoError(t, ok.Validate())

	dup := &PriceSeries{Bars: []OHLCV{{Time: t0}, {Time: t0}}}
	err := dup.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnorderedHistory))

	var he *HistoryError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, 1, he.Index)
}

func TestLookupError_IsAssetNotFound(t *testing.T) {
	err := error(&LookupError{Ticker: "NOPE", Source: "yahoo"})
	assert.True(t, errors.Is(err, ErrAssetNotFound))
	assert.Contains(t, err.Error(), "NOPE")
}
