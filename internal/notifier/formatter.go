package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"TickerCast/internal/calculator"
	"TickerCast/internal/model"
	"TickerCast/internal/recorder"
)

// FormatForecast summarises a forecast for Telegram.
func FormatForecast(res *model.ForecastResult, lastPrice float64, asOf time.Time) string {
	var b strings.Builder
	name := res.Asset.Name
	if name == "" {
		name = res.Asset.Ticker
	}
	fmt.Fprintf(&b, "🔮 <b>%s</b> (%s) | %s\n\n", html.EscapeString(name), res.Asset.Ticker, asOf.Format("2006-01-02"))
	fmt.Fprintf(&b, "Class: %s | Seasonality: %s\n", res.Asset.Class, res.Mode)
	fmt.Fprintf(&b, "History: %d points\n", res.HistoryLen)

	hist := res.History()
	if len(hist) > 0 {
		fmt.Fprintf(&b, "Last open: %.2f (%s)\n", lastPrice, hist[len(hist)-1].DS.Format("2006-01-02"))
	}

	future := res.Future()
	if len(future) == 0 {
		b.WriteString("\nNo horizon requested.\n")
		return b.String()
	}
	b.WriteString("\n📈 <b>Forecast</b>\n")
	for _, row := range milestones(future) {
		change := 0.0
		if lastPrice != 0 {
			change = (row.YHat - lastPrice) / lastPrice * 100
		}
		fmt.Fprintf(&b, "  %s: %.2f (%+.1f%%) [%.2f, %.2f]\n",
			row.DS.Format("2006-01-02"), row.YHat, change, row.Lower, row.Upper)
	}
	return b.String()
}

// milestones picks roughly quarterly rows plus the final one.
func milestones(rows []model.ForecastRow) []model.ForecastRow {
	const step = 90
	var out []model.ForecastRow
	for i := step - 1; i < len(rows)-1; i += step {
		out = append(out, rows[i])
	}
	return append(out, rows[len(rows)-1])
}

// FormatIndicators renders the recent-history summary.
func FormatIndicators(ind calculator.Indicators) string {
	var b strings.Builder
	b.WriteString("📊 <b>Indicators</b>\n")
	fmt.Fprintf(&b, "  52w range: %.2f - %.2f (position %.0f%%)\n", ind.YearLow, ind.YearHigh, ind.YearPos*100)
	if ind.SMA50 != nil {
		fmt.Fprintf(&b, "  SMA50: %.2f\n", *ind.SMA50)
	}
	if ind.SMA200 != nil {
		fmt.Fprintf(&b, "  SMA200: %.2f\n", *ind.SMA200)
	}
	if ind.RSI14 != nil {
		fmt.Fprintf(&b, "  RSI14: %.1f\n", *ind.RSI14)
	}
	return b.String()
}

// FormatHistory lists recorded runs, newest first.
func FormatHistory(ticker string, runs []recorder.ForecastRun) string {
	if len(runs) == 0 {
		return fmt.Sprintf("No recorded forecasts for <b>%s</b>.", html.EscapeString(ticker))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🗂 <b>%s</b> recent forecasts\n\n", html.EscapeString(ticker))
	for _, r := range runs {
		fmt.Fprintf(&b, "  %s: %.2f → %s %.2f [%.2f, %.2f]",
			r.CreatedAt.Format("2006-01-02"), r.LastPrice, r.FinalDS.Format("2006-01-02"), r.YHat, r.Lower, r.Upper)
		if r.BacktestRMSE != nil {
			fmt.Fprintf(&b, " rmse %.2f", *r.BacktestRMSE)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatTickers lists the selectable tickers.
func FormatTickers(tickers []string) string {
	var b strings.Builder
	b.WriteString("📋 <b>Tickers</b>\n\n")
	for _, t := range tickers {
		fmt.Fprintf(&b, "  %s\n", t)
	}
	return b.String()
}

// FormatError reports a failed forecast.
func FormatError(ticker string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s</b> forecast failed: %s", ticker, html.EscapeString(err.Error()))
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	b.WriteString("/forecast &lt;TICKER&gt; [years] - forecast 1 to 3 years ahead\n")
	b.WriteString("/history &lt;TICKER&gt; - recent recorded forecasts\n")
	b.WriteString("/tickers - list tickers\n")
	b.WriteString("/help - this message")
	return b.String()
}
