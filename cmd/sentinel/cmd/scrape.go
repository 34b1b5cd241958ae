package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"TrendSentinel/internal/pipeline"
)

var scrapeFlags struct {
	start, end string
	months     int
	sleep      time.Duration
	workers    int
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [CODE...]",
	Short: "Scrape the price window and merge it into the store",
	Long: `Fetch every history page of each ticker for the window and merge the
rows into the JSON store. Without arguments all configured codes are scraped.
The window defaults to end=today and start=end minus --months.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := dateFlag("start", scrapeFlags.start)
		if err != nil {
			return err
		}
		end, err := dateFlag("end", scrapeFlags.end)
		if err != nil {
			return err
		}

		p, closeFn := openPipeline()
		defer closeFn()

		res, err := p.Scrape(cmd.Context(), pipeline.ScrapeOptions{
			Start:   start,
			End:     end,
			Months:  scrapeFlags.months,
			Sleep:   scrapeFlags.sleep,
			Workers: scrapeFlags.workers,
			Codes:   args,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d ok, %d failed, %d rows\n",
			res.Run.Window, res.Run.Succeeded, res.Run.Failed, res.Run.Rows)
		for _, code := range res.FailedCodes() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", code, res.Failed[code])
		}
		return nil
	},
}

func init() {
	f := scrapeCmd.Flags()
	f.StringVar(&scrapeFlags.start, "start", "", "first date, YYYY-MM-DD")
	f.StringVar(&scrapeFlags.end, "end", "", "last date, YYYY-MM-DD (default today)")
	f.IntVar(&scrapeFlags.months, "months", 0, "window length when --start is omitted (default from config)")
	f.DurationVar(&scrapeFlags.sleep, "sleep", 0, "pause between page fetches; negative disables (default from config)")
	f.IntVar(&scrapeFlags.workers, "workers", 0, "tickers scraped in parallel (default from config)")
}
