package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"TrendSentinel/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read while a report run writes.
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
		`CREATE TABLE IF NOT EXISTS signal_history (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			run_id      TEXT NOT NULL,
			code        TEXT NOT NULL,
			name        TEXT,
			trade_date  TEXT,
			close       REAL,
			macd        REAL,
			signal      REAL,
			d           REAL,
			d_slow      REAL,
			label       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_code_ts ON signal_history(code, timestamp)`,

		`CREATE TABLE IF NOT EXISTS scrape_runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			run_id       TEXT NOT NULL,
			window_start TEXT,
			window_end   TEXT,
			succeeded    INTEGER,
			failed       INTEGER,
			row_count    INTEGER,
			duration_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scrape_ts ON scrape_runs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable stores NaN as NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func stamp(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Unix()
}

func (r *SQLiteRecorder) RecordSignal(evt *SignalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO signal_history
		(timestamp, run_id, code, name, trade_date, close, macd, signal, d, d_slow, label)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		stamp(evt.At), evt.RunID, evt.Code, evt.Name, evt.Row.Date.String(),
		nullable(evt.Close), nullable(evt.Row.MACD), nullable(evt.Row.Signal),
		nullable(evt.Row.D), nullable(evt.Row.DSlow), string(evt.Signal),
	)
	return err
}

func (r *SQLiteRecorder) RecordScrape(run *ScrapeRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO scrape_runs
		(timestamp, run_id, window_start, window_end, succeeded, failed, row_count, duration_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		stamp(run.At), run.RunID, run.Window.Start.String(), run.Window.End.String(),
		run.Succeeded, run.Failed, run.Rows, run.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) Signals(code string, limit int) ([]SignalEvent, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.db.Query(`SELECT timestamp, run_id, code, name, trade_date, close, macd, signal, d, d_slow, label
		FROM signal_history WHERE code = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, code, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []SignalEvent
	for rows.Next() {
		var (
			ts                         int64
			date, label                string
			closeV, macd, sig, d, slow sql.NullFloat64
			evt                        SignalEvent
		)
		if err := rows.Scan(&ts, &evt.RunID, &evt.Code, &evt.Name, &date,
			&closeV, &macd, &sig, &d, &slow, &label); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		evt.At = time.Unix(ts, 0)
		evt.Row.Date, _ = model.ParseDate(date)
		evt.Close = orNaN(closeV)
		evt.Row.MACD = orNaN(macd)
		evt.Row.Signal = orNaN(sig)
		evt.Row.D = orNaN(d)
		evt.Row.DSlow = orNaN(slow)
		evt.Signal = model.Signal(label)
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
