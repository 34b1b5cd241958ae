package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"TrendSentinel/internal/model"
)

// PredictionSheet lists the BUY and SELL tickers of a run.
const PredictionSheet = "予測"

const maxSheetName = 30

var tableHeader = []interface{}{
	"Date", "Open", "High", "Low", "Close", "AdjClose", "Volume",
	"EMAShort", "EMALong", "MACD", "Signal", "D", "DSlow",
}

var tabColors = map[model.Signal]string{
	model.SignalBuy:  "FF0000",
	model.SignalSell: "0000FF",
}

// WriteWorkbook writes reports to an xlsx file at path: a prediction sheet
// first, then one sheet per ticker with its table and charts.
func WriteWorkbook(path string, reports []*TickerReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), PredictionSheet); err != nil {
		return fmt.Errorf("rename prediction sheet: %w", err)
	}

	line := 1
	for _, r := range reports {
		sheet := SheetName(r)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("new sheet %s: %w", sheet, err)
		}
		if color, ok := tabColors[r.Signal]; ok {
			if err := f.SetSheetProps(sheet, &excelize.SheetPropsOptions{TabColorRGB: &color}); err != nil {
				return fmt.Errorf("tab colour %s: %w", sheet, err)
			}
			cell := fmt.Sprintf("A%d", line)
			if err := f.SetSheetRow(PredictionSheet, cell, &[]interface{}{string(r.Signal), r.Title()}); err != nil {
				return fmt.Errorf("write prediction: %w", err)
			}
			line++
		}
		if err := writeTable(f, sheet, r); err != nil {
			return err
		}
		if err := addCharts(f, sheet, len(r.Points)); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// SheetName is the ticker's title cut to the sheet name limit, with the
// characters Excel forbids replaced.
func SheetName(r *TickerReport) string {
	name := strings.NewReplacer(
		":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
	).Replace(r.Title())
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}

func writeTable(f *excelize.File, sheet string, r *TickerReport) error {
	if err := f.SetSheetRow(sheet, "A1", &tableHeader); err != nil {
		return fmt.Errorf("write header %s: %w", sheet, err)
	}
	for i, p := range r.Points {
		row := r.Rows[i].Rounded()
		values := []interface{}{
			p.Date.String(), p.Open, p.High, p.Low, p.Close, p.AdjClose, p.Volume,
			cellValue(math.RoundToEven(r.EMAShort[i])), cellValue(math.RoundToEven(r.EMALong[i])),
			cellValue(row.MACD), cellValue(row.Signal), cellValue(row.D), cellValue(row.DSlow),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %s: %w", sheet, err)
		}
	}
	return nil
}

// cellValue leaves NaN cells empty.
func cellValue(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

type chartSpec struct {
	anchor  string
	title   string
	columns []string
}

var charts = []chartSpec{
	{"O1", "Price", []string{"E", "H", "I"}},
	{"O21", "MACD", []string{"J", "K"}},
	{"O41", "Stochastic", []string{"L", "M"}},
}

func addCharts(f *excelize.File, sheet string, n int) error {
	if n == 0 {
		return nil
	}
	ref := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	last := n + 1
	for _, c := range charts {
		series := make([]excelize.ChartSeries, 0, len(c.columns))
		for _, col := range c.columns {
			series = append(series, excelize.ChartSeries{
				Name:       fmt.Sprintf("%s!$%s$1", ref, col),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", ref, last),
				Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", ref, col, col, last),
			})
		}
		err := f.AddChart(sheet, c.anchor, &excelize.Chart{
			Type:      excelize.Line,
			Series:    series,
			Title:     []excelize.RichTextRun{{Text: c.title}},
			Dimension: excelize.ChartDimension{Width: 640, Height: 300},
		})
		if err != nil {
			return fmt.Errorf("add %s chart to %s: %w", c.title, sheet, err)
		}
	}
	return nil
}
