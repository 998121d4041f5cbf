package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"TickerCast/internal/model"
)

// SQLiteRecorder persists forecast runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read while the watcher writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id             TEXT PRIMARY KEY,
			created_at     INTEGER NOT NULL,
			ticker         TEXT NOT NULL,
			asset_class    TEXT,
			mode           TEXT,
			unit           TEXT,
			horizon        INTEGER,
			history_points INTEGER,
			last_observed  INTEGER,
			last_price     REAL,
			final_ds       INTEGER,
			yhat           REAL,
			yhat_lower     REAL,
			yhat_upper     REAL,
			backtest_rmse  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ticker_ts ON forecast_runs(ticker, created_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordForecast(ctx context.Context, run *ForecastRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	var rmse sql.NullFloat64
	if run.BacktestRMSE != nil {
		rmse = sql.NullFloat64{Float64: *run.BacktestRMSE, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO forecast_runs
		(id, created_at, ticker, asset_class, mode, unit, horizon, history_points,
		 last_observed, last_price, final_ds, yhat, yhat_lower, yhat_upper, backtest_rmse)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.CreatedAt.Unix(), run.Ticker, string(run.Class), string(run.Mode), string(run.Unit),
		run.Horizon, run.HistoryPoints,
		run.LastObserved.Unix(), run.LastPrice, run.FinalDS.Unix(),
		run.YHat, run.Lower, run.Upper, rmse,
	)
	return err
}

// Recent returns up to limit runs for ticker, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, ticker string, limit int) ([]ForecastRun, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, created_at, ticker, asset_class, mode, unit, horizon, history_points,
		last_observed, last_price, final_ds, yhat, yhat_lower, yhat_upper, backtest_rmse
		FROM forecast_runs WHERE ticker = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, ticker, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ForecastRun
	for rows.Next() {
		var (
			run                            ForecastRun
			created, lastObserved, finalDS int64
			class, mode, unit              string
			rmse                           sql.NullFloat64
		)
		if err := rows.Scan(&run.ID, &created, &run.Ticker, &class, &mode, &unit,
			&run.Horizon, &run.HistoryPoints, &lastObserved, &run.LastPrice, &finalDS,
			&run.YHat, &run.Lower, &run.Upper, &rmse); err != nil {
			return nil, err
		}
		run.CreatedAt = time.Unix(created, 0)
		run.LastObserved = time.Unix(lastObserved, 0).UTC()
		run.FinalDS = time.Unix(finalDS, 0).UTC()
		run.Class = model.AssetClass(class)
		run.Mode = model.SeasonalityMode(mode)
		run.Unit = model.PeriodUnit(unit)
		if rmse.Valid {
			v := rmse.Float64
			run.BacktestRMSE = &v
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
