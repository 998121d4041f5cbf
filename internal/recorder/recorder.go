package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"TickerCast/internal/model"
)

// ForecastRun is the persisted summary of one forecast.
type ForecastRun struct {
	ID            string                `json:"id"`
	CreatedAt     time.Time             `json:"created_at"`
	Ticker        string                `json:"ticker"`
	Class         model.AssetClass      `json:"class"`
	Mode          model.SeasonalityMode `json:"mode"`
	Unit          model.PeriodUnit      `json:"unit"`
	Horizon       int                   `json:"horizon"`
	HistoryPoints int                   `json:"history_points"`
	LastObserved  time.Time             `json:"last_observed"`
	LastPrice     float64               `json:"last_price"`
	FinalDS       time.Time             `json:"final_ds"`
	YHat          float64               `json:"yhat"`
	Lower         float64               `json:"yhat_lower"`
	Upper         float64               `json:"yhat_upper"`
	// BacktestRMSE is the mean RMSE across horizons, nil when no backtest ran.
	BacktestRMSE *float64 `json:"backtest_rmse,omitempty"`
}

// NewForecastRun summarises a forecast result. lastPrice is the last observed
// target value.
func NewForecastRun(res *model.ForecastResult, lastPrice float64, now time.Time) *ForecastRun {
	run := &ForecastRun{
		ID:            uuid.NewString(),
		CreatedAt:     now,
		Ticker:        res.Asset.Ticker,
		Class:         res.Asset.Class,
		Mode:          res.Mode,
		Unit:          res.Unit,
		Horizon:       len(res.Rows) - res.HistoryLen,
		HistoryPoints: res.HistoryLen,
		LastPrice:     lastPrice,
	}
	if res.HistoryLen > 0 {
		run.LastObserved = res.Rows[res.HistoryLen-1].DS
	}
	last := res.Last()
	run.FinalDS, run.YHat, run.Lower, run.Upper = last.DS, last.YHat, last.Lower, last.Upper
	return run
}

// Recorder persists forecast runs for later analysis.
type Recorder interface {
	RecordForecast(ctx context.Context, run *ForecastRun) error
	Recent(ctx context.Context, ticker string, limit int) ([]ForecastRun, error)
	Close() error
}
