package collector

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"TrendSentinel/internal/model"
)

// DefaultSplitMarker prefixes the announcement cell of a split row.
const DefaultSplitMarker = "分割"

type column int

const (
	colDate column = iota
	colOpen
	colHigh
	colLow
	colClose
	colVolume
	colAdjClose
	numColumns
)

var headerColumns = map[string]column{
	"日付":        colDate,
	"始値":        colOpen,
	"高値":        colHigh,
	"安値":        colLow,
	"終値":        colClose,
	"出来高":       colVolume,
	"調整後終値":     colAdjClose,
	"Date":      colDate,
	"Open":      colOpen,
	"High":      colHigh,
	"Low":       colLow,
	"Close":     colClose,
	"Volume":    colVolume,
	"Adj Close": colAdjClose,
}

var dateLayouts = []string{"2006年1月2日", "2006-01-02", "2006/1/2"}

// ExtractRows turns a raw table (header row first) into dated records. A row
// whose first value cell starts with marker is a split announcement and
// becomes a split record without prices.
func ExtractRows(rows [][]string, marker string) ([]model.DatedRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	idx, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}
	width := len(rows[0])

	out := make([]model.DatedRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		if idx[colDate] >= len(row) {
			return nil, fmt.Errorf("row %d: %d cells, want %d: %w", line, len(row), width, ErrMalformedRow)
		}
		date, err := parseDate(row[idx[colDate]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		if note, ok := splitNote(row, idx[colDate], marker); ok {
			out = append(out, model.DatedRecord{Date: date, Record: model.NewSplit(note)})
			continue
		}
		if len(row) != width {
			return nil, fmt.Errorf("row %d: %d cells, want %d: %w", line, len(row), width, ErrMalformedRow)
		}

		var vals [numColumns]decimal.Decimal
		for c := colOpen; c < numColumns; c++ {
			if c == colVolume {
				continue
			}
			if vals[c], err = parseDecimal(row[idx[c]]); err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
		}
		vol, err := parseVolume(row[idx[colVolume]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		rec := model.NewQuote(vals[colOpen], vals[colHigh], vals[colLow], vals[colClose], vals[colAdjClose], vol)
		out = append(out, model.DatedRecord{Date: date, Record: rec})
	}
	return out, nil
}

func mapHeader(header []string) ([numColumns]int, error) {
	var idx [numColumns]int
	for i := range idx {
		idx[i] = -1
	}
	for i, label := range header {
		key := strings.TrimRight(strings.TrimSpace(label), "*")
		c, ok := headerColumns[key]
		if !ok {
			return idx, fmt.Errorf("unknown header %q: %w", label, ErrMalformedRow)
		}
		idx[c] = i
	}
	for c, i := range idx {
		if i < 0 {
			return idx, fmt.Errorf("header missing column %d: %w", c, ErrMalformedRow)
		}
	}
	return idx, nil
}

func splitNote(row []string, dateIdx int, marker string) (string, bool) {
	if marker == "" {
		return "", false
	}
	for i, cell := range row {
		if i == dateIdx {
			continue
		}
		cell = strings.TrimSpace(cell)
		return cell, strings.HasPrefix(cell, marker)
	}
	return "", false
}

func parseDate(s string) (model.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t), nil
		}
	}
	return model.Date{}, fmt.Errorf("bad date %q: %w", s, ErrMalformedRow)
}

func cleanNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(cleanNumber(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad number %q: %w", s, ErrMalformedRow)
	}
	return d, nil
}

func parseVolume(s string) (int64, error) {
	v, err := strconv.ParseInt(cleanNumber(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad volume %q: %w", s, ErrMalformedRow)
	}
	return v, nil
}

var bracketed = regexp.MustCompile(`(?s)[(（].*[)）]`)

// CleanName normalises a ticker header into a display name: bracketed
// suffixes, commas, newlines and plus signs are removed, full-width minus
// becomes "-", and all whitespace is dropped.
func CleanName(s string) string {
	s = bracketed.ReplaceAllString(s, "")
	s = strings.NewReplacer(",", "", "\n", "", "＋", "", "+", "", "－", "-").Replace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
