// Package report turns stored price history into per-ticker indicator tables
// and trend labels.
package report

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/store"
	"TrendSentinel/internal/strategy"
)

// TickerReport is the analysed window of one ticker. Points, Rows and the EMA
// columns are aligned by index and cover only the requested window.
type TickerReport struct {
	Code     string
	Name     string
	Window   model.Window
	Points   []model.PricePoint
	Rows     []model.IndicatorRow
	EMAShort []float64
	EMALong  []float64
	Signal   model.Signal
}

// Title is the "code_name" label used for sheets and messages.
func (r *TickerReport) Title() string {
	if r.Name == "" {
		return r.Code
	}
	return r.Code + "_" + r.Name
}

// Last returns the final indicator row, if any.
func (r *TickerReport) Last() (model.IndicatorRow, bool) {
	if len(r.Rows) == 0 {
		return model.IndicatorRow{}, false
	}
	return r.Rows[len(r.Rows)-1], true
}

// Analyzer computes reports from a store.
type Analyzer struct {
	Params calculator.Params
	// WarmupDays of history before the window start feed the indicators
	// so the first rows of the window are not all NaN.
	WarmupDays int
}

// Analyze builds the report of code over w.
func (a Analyzer) Analyze(s store.Store, code string, w model.Window) (*TickerReport, error) {
	from := w.Start.AddDays(-a.WarmupDays)
	series, err := s.Window(code, from, w.End)
	if err != nil {
		return nil, err
	}
	points := model.Points(series.Ordered())

	rows, err := calculator.Calculate(points, a.Params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", code, err)
	}
	adj := calculator.AdjCloses(points)
	emaShort := calculator.EMA(adj, a.Params.Short)
	emaLong := calculator.EMA(adj, a.Params.Long)

	first := len(points)
	for i, p := range points {
		if !p.Date.Before(w.Start) {
			first = i
			break
		}
	}

	r := &TickerReport{
		Code:     code,
		Name:     s.Name(code),
		Window:   w,
		Points:   points[first:],
		Rows:     rows[first:],
		EMAShort: emaShort[first:],
		EMALong:  emaLong[first:],
	}
	r.Signal = strategy.Evaluate(r.Rows)
	return r, nil
}

// Build analyses every code. Codes missing from the store are logged and
// skipped; any other error aborts.
func (a Analyzer) Build(s store.Store, codes []string, w model.Window) ([]*TickerReport, error) {
	reports := make([]*TickerReport, 0, len(codes))
	for _, code := range codes {
		r, err := a.Analyze(s, code, w)
		if errors.Is(err, store.ErrTickerNotFound) {
			log.Warn().Str("code", code).Msg("ticker not in store, skipped")
			continue
		}
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("code", code).
			Str("name", r.Name).
			Int("rows", len(r.Rows)).
			Str("signal", string(r.Signal)).
			Msg("ticker analysed")
		reports = append(reports, r)
	}
	return reports, nil
}

// Actionable returns the BUY and SELL reports in input order.
func Actionable(reports []*TickerReport) []*TickerReport {
	var out []*TickerReport
	for _, r := range reports {
		if r.Signal != model.SignalStay {
			out = append(out, r)
		}
	}
	return out
}
