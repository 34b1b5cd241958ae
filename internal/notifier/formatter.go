package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"TrendSentinel/internal/model"
	"TrendSentinel/internal/recorder"
	"TrendSentinel/internal/report"
)

// FormatReport lists the BUY and SELL tickers of a report run.
func FormatReport(reports []*report.TickerReport, w model.Window) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>TrendSentinel</b> | %s\n", w.End))
	b.WriteString(fmt.Sprintf("window %s, %d tickers\n\n", w, len(reports)))

	actionable := report.Actionable(reports)
	if len(actionable) == 0 {
		b.WriteString("No BUY or SELL signals today.")
		return b.String()
	}
	for _, r := range actionable {
		icon := "🔴"
		if r.Signal == model.SignalSell {
			icon = "🔵"
		}
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n", icon, r.Signal, html.EscapeString(r.Title())))
		if last, ok := r.Last(); ok {
			row := last.Rounded()
			b.WriteString(fmt.Sprintf("   MACD %s / signal %s | %%D slow %s\n",
				num(row.MACD), num(row.Signal), num(row.DSlow)))
		}
	}
	return b.String()
}

// FormatScrapeSummary reports the outcome of one scrape run.
func FormatScrapeSummary(run *recorder.ScrapeRun, failed []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📥 <b>Scrape finished</b> | %s\n\n", run.Window))
	b.WriteString(fmt.Sprintf("tickers: %d ok, %d failed\n", run.Succeeded, run.Failed))
	b.WriteString(fmt.Sprintf("rows merged: %d\n", run.Rows))
	b.WriteString(fmt.Sprintf("took: %s\n", run.Duration.Round(time.Second)))
	if len(failed) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ failed: %s", html.EscapeString(strings.Join(failed, ", "))))
	}
	return b.String()
}

// FormatHistory lists recorded signals of one ticker, newest first.
func FormatHistory(code string, events []recorder.SignalEvent) string {
	if len(events) == 0 {
		return fmt.Sprintf("No recorded signals for %s.", html.EscapeString(code))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>%s</b> signal history\n\n", html.EscapeString(code)))
	for _, e := range events {
		b.WriteString(fmt.Sprintf("%s  %-4s  MACD %s  %%D slow %s\n",
			e.Row.Date, e.Signal, num(e.Row.MACD), num(e.Row.DSlow)))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "Commands:\n• /report  run a report now\n• /scrape  scrape all tickers now\n• /history CODE  recorded signals"
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.0f", v)
}
