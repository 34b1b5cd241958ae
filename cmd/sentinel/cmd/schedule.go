package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"TrendSentinel/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run scrape and report on their cron schedules",
	Long: `Run the scrape and report jobs on the configured cron expressions and
answer Telegram commands when a bot token is set. RUN_ON_START=true runs a
scrape followed by a report right away.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closeFn := openPipeline()
		defer closeFn()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sched := scheduler.NewScheduler(ctx, p)
		if err := sched.RegisterAll(cfg.Schedule.ScrapeCron, cfg.Schedule.ReportCron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if p.Notifier.Enabled() {
			go p.Notifier.StartPolling(ctx, sched.HandleCommand)
			log.Info().Msg("telegram polling started")
		}

		if os.Getenv("RUN_ON_START") == "true" {
			log.Info().Msg("RUN_ON_START enabled, running scrape and report now")
			go func() {
				sched.RunScrapeNow()
				sched.RunReportNow()
			}()
		}

		log.Info().
			Str("scrape_cron", cfg.Schedule.ScrapeCron).
			Str("report_cron", cfg.Schedule.ReportCron).
			Msg("sentinel is running, press Ctrl+C to stop")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			log.Info().Msg("shutdown signal received, stopping")
		case <-ctx.Done():
		}
		cancel()
		return nil
	},
}
