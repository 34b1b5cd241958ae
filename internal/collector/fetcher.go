package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"TrendSentinel/internal/model"
)

var (
	// ErrFetch wraps any failure to retrieve a history page.
	ErrFetch = errors.New("fetch failed")
	// ErrMalformedRow is returned when a table row cannot be read.
	ErrMalformedRow = errors.New("malformed row")
)

// Fetcher retrieves one page of a ticker's price history.
type Fetcher interface {
	FetchPage(ctx context.Context, code string, w model.Window, page int) (*Page, error)
	Name() string
}

// Page is one parsed history page: the raw table cells (header first),
// whether a next-page link was present, and the ticker's display header.
type Page struct {
	Rows    [][]string
	HasNext bool
	Symbol  string
}

// Markers locate the pieces of a history page.
type Markers struct {
	Table    string // CSS selector of the price table
	NextText string // exact text of the next-page anchor
	Symbol   string // CSS selector of the ticker name header
}

// DefaultMarkers matches the Yahoo! Finance Japan history page.
var DefaultMarkers = Markers{
	Table:    "table.boardFin",
	NextText: "次へ",
	Symbol:   "th.symbol",
}

// ParsePage reads an HTML history page.
func ParsePage(r io.Reader, m Markers) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &Page{}
	doc.Find(m.Table).First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("th, td")
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, c *goquery.Selection) {
			row = append(row, strings.TrimSpace(c.Text()))
		})
		page.Rows = append(page.Rows, row)
	})

	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.TrimSpace(a.Text()) == m.NextText {
			page.HasNext = true
			return false
		}
		return true
	})

	page.Symbol = doc.Find(m.Symbol).First().Text()
	return page, nil
}
