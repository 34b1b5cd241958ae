package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"TrendSentinel/internal/pipeline"
)

var reportFlags struct {
	start, end, out string
	months          int
}

var reportCmd = &cobra.Command{
	Use:   "report [CODE...]",
	Short: "Compute indicators, classify and write the workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := dateFlag("start", reportFlags.start)
		if err != nil {
			return err
		}
		end, err := dateFlag("end", reportFlags.end)
		if err != nil {
			return err
		}

		p, closeFn := openPipeline()
		defer closeFn()

		res, err := p.Report(cmd.Context(), pipeline.ReportOptions{
			Start:  start,
			End:    end,
			Months: reportFlags.months,
			Output: reportFlags.out,
			Codes:  args,
		})
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, r := range res.Reports {
			fmt.Fprintf(w, "%-6s %-4s %s\n", r.Code, r.Signal, r.Name)
		}
		fmt.Fprintf(w, "workbook: %s\n", res.Workbook)
		return nil
	},
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportFlags.start, "start", "", "first reported date, YYYY-MM-DD")
	f.StringVar(&reportFlags.end, "end", "", "last reported date, YYYY-MM-DD (default today)")
	f.IntVar(&reportFlags.months, "months", 0, "window length when --start is omitted (default from config)")
	f.StringVar(&reportFlags.out, "out", "", "workbook path (default <output_dir>/trend_<end>.xlsx)")
}
