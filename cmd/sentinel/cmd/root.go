// Package cmd holds the sentinel subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"TrendSentinel/internal/config"
	"TrendSentinel/internal/logger"
	"TrendSentinel/internal/metrics"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/pipeline"
	"TrendSentinel/internal/recorder"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Daily stock price scraper and trend signal reporter",
	Long: `sentinel keeps a JSON store of daily prices scraped from Yahoo! Finance
Japan and reports BUY/SELL/STAY signals from MACD and slow stochastics.

Commands:
    scrape      fetch the price window for every configured ticker
    report      write the indicator workbook and signal summary
    extract     print one ticker's stored window
    schedule    run scrape and report on cron
    serve       expose the store and indicators over HTTP
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", def, "config file")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if err := logger.Init(c.Log); err != nil {
		return err
	}
	cfg = c
	return nil
}

// openPipeline wires the recorder, metrics and pipeline. A recorder that
// cannot be opened degrades to the no-op one.
func openPipeline() (*pipeline.Pipeline, func()) {
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}
	p := pipeline.New(cfg, rec, metrics.New())
	return p, func() {
		if err := rec.Close(); err != nil {
			log.Error().Err(err).Msg("close recorder")
		}
	}
}

// dateFlag parses an optional YYYY-MM-DD flag value.
func dateFlag(name, v string) (model.Date, error) {
	if v == "" {
		return model.Date{}, nil
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return model.Date{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}
