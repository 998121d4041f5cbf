package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerCast/internal/calculator"
	"TickerCast/internal/model"
	"TickerCast/internal/recorder"
)

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.BaseURL = url
	n.Backoff = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	require.NoError(t, n.SendWithRetry(context.Background(), "x", 3))
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(-10)
	err := n.SendWithRetry(context.Background(), "x", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 retries exhausted")
}

func TestPoll_DispatchesCommands(t *testing.T) {
	var mu sync.Mutex
	var replies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			assert.Equal(t, "7", r.URL.Query().Get("offset"))
			fmt.Fprint(w, `{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /tickers "}},
				{"update_id":8},
				{"update_id":9,"message":{"text":"/help"}}]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			replies = append(replies, body["text"])
			mu.Unlock()
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	var seen []string
	next, err := n.poll(context.Background(), srv.Client(), 7, func(_ context.Context, cmd string) string {
		seen = append(seen, cmd)
		if cmd == "/help" {
			return ""
		}
		return "reply to " + cmd
	})
	require.NoError(t, err)
	assert.Equal(t, 10, next)
	assert.Equal(t, []string{"/tickers", "/help"}, seen)
	assert.Equal(t, []string{"reply to /tickers"}, replies)
}

func TestFormatForecast(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	res := &model.ForecastResult{
		Asset:      model.Asset{Ticker: "ETH-USD", Name: "Ethereum <USD>", Class: model.ClassVolatile},
		Mode:       model.ModeMultiplicative,
		HistoryLen: 2,
	}
	for i := 0; i < 2+200; i++ {
		res.Rows = append(res.Rows, model.ForecastRow{DS: start.AddDate(0, 0, i), YHat: 100 + float64(i), Lower: 90, Upper: 400})
	}
	msg := FormatForecast(res, 100, start.AddDate(0, 0, 1))
	assert.Contains(t, msg, "Ethereum &lt;USD&gt;")
	assert.Contains(t, msg, "Seasonality: multiplicative")
	assert.Contains(t, msg, "Last open: 100.00 (2020-01-02)")
	// Rows 90, 180 and the final row of the 200-day horizon.
	assert.Equal(t, 3, strings.Count(msg, "  2020-"))
	assert.Contains(t, msg, "+201.0%")

	res.Rows = res.Rows[:2]
	assert.Contains(t, FormatForecast(res, 100, start), "No horizon requested")
}

func TestFormatMisc(t *testing.T) {
	assert.Contains(t, FormatTickers([]string{"GOOG", "ETH-USD"}), "  ETH-USD\n")
	assert.Contains(t, FormatError("X", errors.New("a<b")), "a&lt;b")
	assert.Contains(t, FormatHelp(), "/forecast")
}

func TestFormatHistory(t *testing.T) {
	assert.Contains(t, FormatHistory("GOOG", nil), "No recorded forecasts")

	rmse := 1.5
	runs := []recorder.ForecastRun{{
		CreatedAt:    time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		LastPrice:    100,
		FinalDS:      time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		YHat:         120,
		Lower:        110,
		Upper:        130,
		BacktestRMSE: &rmse,
	}}
	out := FormatHistory("GOOG", runs)
	assert.Contains(t, out, "2020-03-01: 100.00 → 2021-03-01 120.00 [110.00, 130.00] rmse 1.50")
	assert.Contains(t, FormatHelp(), "/history")
}

func TestFormatIndicators(t *testing.T) {
	rsi := 61.34
	out := FormatIndicators(calculator.Indicators{YearHigh: 120, YearLow: 80, YearPos: 0.5, RSI14: &rsi})
	assert.Contains(t, out, "80.00 - 120.00 (position 50%)")
	assert.Contains(t, out, "RSI14: 61.3")
	assert.NotContains(t, out, "SMA200")
}
