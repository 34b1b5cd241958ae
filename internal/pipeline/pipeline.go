// Package pipeline runs the scrape and report jobs end to end: load the
// store, do the work, persist, record and notify.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/config"
	"TrendSentinel/internal/logger"
	"TrendSentinel/internal/metrics"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/recorder"
	"TrendSentinel/internal/report"
	"TrendSentinel/internal/store"
)

// ErrBusy is returned when another run is already in progress in this
// process. Runs in separate processes are not coordinated.
var ErrBusy = errors.New("another run is in progress")

// Pipeline owns the dependencies shared by scrape and report runs.
type Pipeline struct {
	Cfg      *config.Config
	Fetcher  collector.Fetcher
	Recorder recorder.Recorder
	Notifier *notifier.TelegramNotifier
	Metrics  *metrics.Metrics

	mu sync.Mutex
}

// New wires a pipeline from configuration. A nil recorder becomes a no-op.
func New(cfg *config.Config, rec recorder.Recorder, m *metrics.Metrics) *Pipeline {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Pipeline{
		Cfg:      cfg,
		Fetcher:  NewFetcher(cfg),
		Recorder: rec,
		Notifier: notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy),
		Metrics:  m,
	}
}

// NewFetcher builds the history page fetcher described by cfg.
func NewFetcher(cfg *config.Config) *collector.YahooJPFetcher {
	f := collector.NewYahooJPFetcher(cfg.Source.BaseURL, cfg.Proxy, cfg.Source.Timeout)
	f.Markers = collector.Markers{
		Table:    cfg.Source.TableSelector,
		NextText: cfg.Source.NextText,
		Symbol:   cfg.Source.SymbolSelector,
	}
	return f
}

// Analyzer returns the report analyzer configured for this pipeline.
func (p *Pipeline) Analyzer() report.Analyzer {
	return report.Analyzer{Params: p.Cfg.Indicators, WarmupDays: p.Cfg.Report.WarmupDays}
}

// ScrapeOptions overrides the configured scrape knobs for one run. Zero
// values fall back to configuration; Sleep < 0 disables the pause.
type ScrapeOptions struct {
	Start   model.Date
	End     model.Date
	Months  int
	Sleep   time.Duration
	Workers int
	Codes   []string
}

// ScrapeResult is what a scrape run did.
type ScrapeResult struct {
	Run    *recorder.ScrapeRun
	Failed map[string]error
}

// FailedCodes lists the failed tickers in order.
func (r *ScrapeResult) FailedCodes() []string {
	codes := make([]string, 0, len(r.Failed))
	for c := range r.Failed {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Scrape fetches every configured ticker, merges the results into the store
// and writes it back once.
func (p *Pipeline) Scrape(ctx context.Context, opts ScrapeOptions) (*ScrapeResult, error) {
	if !p.mu.TryLock() {
		return nil, ErrBusy
	}
	defer p.mu.Unlock()

	runID := uuid.NewString()
	log := logger.WithRun("scrape", runID)
	started := time.Now()

	months := opts.Months
	if months <= 0 {
		months = p.Cfg.Scrape.Months
	}
	w := model.ResolveWindow(opts.Start, opts.End, months)
	codes := opts.Codes
	if len(codes) == 0 {
		codes = p.Cfg.Codes
	}

	s, err := store.Load(p.Cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	sleep := p.Cfg.Scrape.Sleep
	switch {
	case opts.Sleep < 0:
		sleep = 0
	case opts.Sleep > 0:
		sleep = opts.Sleep
	}
	workers := p.Cfg.Scrape.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	log.Info().Str("window", w.String()).Int("tickers", len(codes)).Msg("scrape started")
	scraper := &collector.Scraper{
		Fetcher:     p.Fetcher,
		Delay:       sleep,
		RateLimit:   p.Cfg.Scrape.RateLimit,
		Workers:     workers,
		MaxPages:    p.Cfg.Scrape.MaxPages,
		SplitMarker: p.Cfg.Source.SplitMarker,
		Metrics:     p.Metrics,
	}
	res := scraper.Run(ctx, codes, w)

	for _, b := range res.Batches {
		s.Merge(b)
	}
	if len(res.Batches) > 0 {
		if err := s.Save(p.Cfg.Store.Path); err != nil {
			return nil, err
		}
	}

	run := &recorder.ScrapeRun{
		RunID:     runID,
		Window:    w,
		Succeeded: len(res.Batches),
		Failed:    len(res.Failed),
		Rows:      res.Rows(),
		Duration:  time.Since(started),
		At:        started,
	}
	if err := p.Recorder.RecordScrape(run); err != nil {
		log.Error().Err(err).Msg("record scrape run")
	}
	p.Metrics.RunFinished("scrape", time.Now())

	out := &ScrapeResult{Run: run, Failed: res.Failed}
	log.Info().
		Int("ok", run.Succeeded).
		Int("failed", run.Failed).
		Int("rows", run.Rows).
		Dur("took", run.Duration).
		Msg("scrape finished")
	if run.Failed > 0 {
		p.notify(ctx, log, notifier.FormatScrapeSummary(run, out.FailedCodes()))
	}
	return out, nil
}

// ReportOptions overrides the configured report knobs for one run.
type ReportOptions struct {
	Start  model.Date
	End    model.Date
	Months int
	Output string // workbook path; empty derives one from the output dir
	Codes  []string
}

// ReportResult is what a report run produced.
type ReportResult struct {
	RunID    string
	Window   model.Window
	Reports  []*report.TickerReport
	Workbook string
}

// Report analyses every configured ticker, writes the workbook, records the
// signals and notifies the BUY/SELL summary.
func (p *Pipeline) Report(ctx context.Context, opts ReportOptions) (*ReportResult, error) {
	if !p.mu.TryLock() {
		return nil, ErrBusy
	}
	defer p.mu.Unlock()

	runID := uuid.NewString()
	log := logger.WithRun("report", runID)

	months := opts.Months
	if months <= 0 {
		months = p.Cfg.Report.Months
	}
	w := model.ResolveWindow(opts.Start, opts.End, months)
	codes := opts.Codes
	if len(codes) == 0 {
		codes = p.Cfg.Codes
	}

	s, err := store.LoadExisting(p.Cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	reports, err := p.Analyzer().Build(s, codes, w)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == "" {
		out = filepath.Join(p.Cfg.Report.OutputDir, fmt.Sprintf("trend_%s.xlsx", w.End))
	}
	if err := report.WriteWorkbook(out, reports); err != nil {
		return nil, err
	}

	now := time.Now()
	for _, r := range reports {
		p.Metrics.Signal(string(r.Signal))
		last, ok := r.Last()
		if !ok {
			continue
		}
		evt := &recorder.SignalEvent{
			RunID:  runID,
			Code:   r.Code,
			Name:   r.Name,
			Row:    last.Rounded(),
			Close:  r.Points[len(r.Points)-1].AdjClose,
			Signal: r.Signal,
			At:     now,
		}
		if err := p.Recorder.RecordSignal(evt); err != nil {
			log.Error().Err(err).Str("code", r.Code).Msg("record signal")
		}
	}
	p.Metrics.RunFinished("report", now)

	log.Info().
		Str("window", w.String()).
		Int("tickers", len(reports)).
		Int("actionable", len(report.Actionable(reports))).
		Str("workbook", out).
		Msg("report finished")
	p.notify(ctx, log, notifier.FormatReport(reports, w))

	return &ReportResult{RunID: runID, Window: w, Reports: reports, Workbook: out}, nil
}

// Indicators analyses one ticker over [start, end] without writing anything.
func (p *Pipeline) Indicators(code string, start, end model.Date) (*report.TickerReport, error) {
	s, err := store.LoadExisting(p.Cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	w := model.ResolveWindow(start, end, p.Cfg.Report.Months)
	return p.Analyzer().Analyze(s, code, w)
}

func (p *Pipeline) notify(ctx context.Context, log zerolog.Logger, text string) {
	if !p.Notifier.Enabled() {
		return
	}
	if err := p.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
