package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerCast/internal/model"
)

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if r.URL.Query().Get("symbol") != "AAPL" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.URL.Path {
		case "/api/v1/bars":
			// deliberately out of order
			_, _ = w.Write([]byte(`[{"timestamp":1578009600,"open":2,"close":2},{"timestamp":1577923200,"open":1,"close":1}]`))
		case "/api/v1/meta":
			_, _ = w.Write([]byte(`{"long_name":"Apple Inc.","instrument_type":"EQUITY"}`))
		}
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL+"/", "secret", "")
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	bars, err := f.FetchSeries(context.Background(), "AAPL", start, start.AddDate(0, 0, 5), "1d")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, 1.0, bars[0].Open)

	meta, err := f.FetchMeta(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, model.ClassTraditional, Classify(meta, ""))

	_, err = f.FetchMeta(context.Background(), "MSFT")
	assert.True(t, errors.Is(err, model.ErrAssetNotFound))
}
