package collector

import (
	"fmt"
	"regexp"
	"strings"

	"TickerCast/internal/model"
)

// tickerPattern matches provider symbols: BRK.A, BTC-USD, ^GSPC, EURUSD=X.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^]{0,15}$`)

// DefaultTickers is the selection offered by the dashboard.
var DefaultTickers = []string{"GOOG", "AAPL", "FB", "AMZN", "TSLA", "GLD", "SLV", "BTC-USD", "ETH-USD"}

// SanitizeTicker upper-cases and validates a ticker symbol.
func SanitizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return "", fmt.Errorf("ticker cannot be empty: %w", model.ErrInvalidRequest)
	}
	if !tickerPattern.MatchString(t) {
		return "", fmt.Errorf("ticker format %q: %w", ticker, model.ErrInvalidRequest)
	}
	return t, nil
}
