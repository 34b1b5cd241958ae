package model

import "sort"

// DatedRecord pairs a record with its trading date.
type DatedRecord struct {
	Date   Date
	Record PriceRecord
}

// Series maps trading dates to records for one ticker. It has no order of
// its own; use Ordered for an ascending view.
type Series map[Date]PriceRecord

// Upsert stores rec under d, replacing any existing record for that date.
func (s Series) Upsert(d Date, rec PriceRecord) { s[d] = rec }

// Dates returns every date in ascending order, including incomplete records.
func (s Series) Dates() []Date {
	dates := make([]Date, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Ordered returns the complete records in ascending date order. Split events
// and unreadable records are left out: they are absent days, not zero days.
func (s Series) Ordered() []DatedRecord {
	out := make([]DatedRecord, 0, len(s))
	for d, rec := range s {
		if !rec.Complete() {
			continue
		}
		out = append(out, DatedRecord{Date: d, Record: rec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Ticker is one stock code's display name and price history.
type Ticker struct {
	Name string `json:"name"`
	Data Series `json:"data"`
}

// NewTicker returns a ticker with an empty series.
func NewTicker(name string) *Ticker {
	return &Ticker{Name: name, Data: Series{}}
}

// Batch is everything one scrape produced for one ticker.
type Batch struct {
	Code    string
	Name    string
	Records []DatedRecord
	Pages   int
}
