package recorder

import (
	"time"

	"TrendSentinel/internal/model"
)

// SignalEvent is one ticker's classified snapshot from a report run.
type SignalEvent struct {
	RunID  string
	Code   string
	Name   string
	Row    model.IndicatorRow // Row.Date is the trading date classified
	Close  float64
	Signal model.Signal
	At     time.Time
}

// ScrapeRun summarises one scrape run.
type ScrapeRun struct {
	RunID     string
	Window    model.Window
	Succeeded int
	Failed    int
	Rows      int
	Duration  time.Duration
	At        time.Time
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordSignal(evt *SignalEvent) error
	RecordScrape(run *ScrapeRun) error
	// Signals returns the latest events for code, newest first.
	Signals(code string, limit int) ([]SignalEvent, error)
	Close() error
}
