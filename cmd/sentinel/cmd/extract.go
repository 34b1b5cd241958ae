package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"TrendSentinel/internal/model"
	"TrendSentinel/internal/store"
)

var extractFlags struct {
	start, end string
}

var extractCmd = &cobra.Command{
	Use:   "extract CODE",
	Short: "Print one ticker's stored window as a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := dateFlag("start", extractFlags.start)
		if err != nil {
			return err
		}
		end, err := dateFlag("end", extractFlags.end)
		if err != nil {
			return err
		}
		w := model.ResolveWindow(start, end, 6)

		s, err := store.LoadExisting(cfg.Store.Path)
		if err != nil {
			return err
		}
		series, err := s.Window(args[0], w.Start, w.End)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", args[0], s.Name(args[0]), w)
		return printSeries(cmd.OutOrStdout(), series)
	},
}

func printSeries(out io.Writer, series model.Series) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "date\topen\thigh\tlow\tclose\tvolume\tadj close\t")
	// every stored day, split and unreadable ones included
	for _, d := range series.Dates() {
		r := series[d]
		switch r.Kind {
		case model.KindQuote:
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t\n",
				d, r.Open, r.High, r.Low, r.Close, r.Volume, r.AdjClose)
		case model.KindSplit:
			fmt.Fprintf(tw, "%s\t%s\t\t\t\t\t\t\n", d, r.Note)
		default:
			fmt.Fprintf(tw, "%s\t(unreadable)\t\t\t\t\t\t\n", d)
		}
	}
	return tw.Flush()
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&extractFlags.start, "start", "", "first date, YYYY-MM-DD (default end minus 6 months)")
	f.StringVar(&extractFlags.end, "end", "", "last date, YYYY-MM-DD (default today)")
}
