package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/pipeline"
)

// historyLimit is how many recorded signals /history shows.
const historyLimit = 10

// Scheduler runs the scrape and report jobs on cron and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline *pipeline.Pipeline
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler. Cron expressions carry a seconds field.
func NewScheduler(ctx context.Context, p *pipeline.Pipeline) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Pipeline: p,
		Ctx:      ctx,
	}
}

// RegisterAll registers the scrape and report jobs. An empty expression skips that job.
func (s *Scheduler) RegisterAll(scrapeCron, reportCron string) error {
	if scrapeCron != "" {
		if _, err := s.Cron.AddFunc(scrapeCron, s.scrapeTask); err != nil {
			return fmt.Errorf("register scrape task: %w", err)
		}
	}
	if reportCron != "" {
		if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
			return fmt.Errorf("register report task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunScrapeNow executes the scrape job immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunScrapeNow() { s.scrapeTask() }

// RunReportNow executes the report job immediately.
func (s *Scheduler) RunReportNow() { s.reportTask() }

func (s *Scheduler) scrapeTask() {
	if _, err := s.Pipeline.Scrape(s.Ctx, pipeline.ScrapeOptions{}); err != nil {
		s.fail("scrape", err)
	}
}

func (s *Scheduler) reportTask() {
	if _, err := s.Pipeline.Report(s.Ctx, pipeline.ReportOptions{}); err != nil {
		s.fail("report", err)
	}
}

func (s *Scheduler) fail(job string, err error) {
	if errors.Is(err, pipeline.ErrBusy) {
		log.Warn().Str("job", job).Msg("previous run still in progress, skipped")
		return
	}
	log.Error().Err(err).Str("job", job).Msg("scheduled run failed")
	s.trySend(fmt.Sprintf("❌ %s failed: %v", job, err))
}

// HandleCommand processes a chat command and returns a reply. Jobs started
// from chat report back through the notifier, so they reply immediately.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch fields[0] {
	case "/scrape":
		go s.scrapeTask()
		return "scrape started"
	case "/report":
		go s.reportTask()
		return "report started"
	case "/history":
		if len(fields) < 2 {
			return "usage: /history CODE"
		}
		code := fields[1]
		events, err := s.Pipeline.Recorder.Signals(code, historyLimit)
		if err != nil {
			log.Error().Err(err).Str("code", code).Msg("load signal history")
			return fmt.Sprintf("history for %s unavailable", code)
		}
		return notifier.FormatHistory(code, events)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if !s.Pipeline.Notifier.Enabled() {
		return
	}
	if err := s.Pipeline.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
