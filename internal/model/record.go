package model

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// RecordKind tags what a PriceRecord holds.
type RecordKind int

const (
	// KindQuote is an ordinary daily price row.
	KindQuote RecordKind = iota
	// KindSplit is a stock split announcement; it carries no comparable prices.
	KindSplit
	// KindInvalid is a stored record whose fields could not be read as numbers.
	// Its original JSON is kept untouched.
	KindInvalid
)

func (k RecordKind) String() string {
	switch k {
	case KindQuote:
		return "quote"
	case KindSplit:
		return "split"
	default:
		return "invalid"
	}
}

// PriceRecord is one trading day of one ticker.
type PriceRecord struct {
	Kind     RecordKind
	Open     decimal.Decimal
	Close    decimal.Decimal
	Low      decimal.Decimal
	High     decimal.Decimal
	AdjClose decimal.Decimal
	Volume   int64
	Note     string // split announcement text

	raw json.RawMessage
}

// NewQuote builds a price record.
func NewQuote(open, high, low, close, adjClose decimal.Decimal, volume int64) PriceRecord {
	return PriceRecord{
		Kind:     KindQuote,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		AdjClose: adjClose,
		Volume:   volume,
	}
}

// NewSplit builds a split-event record.
func NewSplit(note string) PriceRecord {
	return PriceRecord{Kind: KindSplit, Note: note}
}

// Complete reports whether the record can feed numeric computation.
func (r PriceRecord) Complete() bool { return r.Kind == KindQuote }

// Equal compares two records by value.
func (r PriceRecord) Equal(o PriceRecord) bool {
	if r.Kind != o.Kind {
		return false
	}
	switch r.Kind {
	case KindQuote:
		return r.Open.Equal(o.Open) && r.Close.Equal(o.Close) &&
			r.Low.Equal(o.Low) && r.High.Equal(o.High) &&
			r.AdjClose.Equal(o.AdjClose) && r.Volume == o.Volume
	case KindSplit:
		return r.Note == o.Note
	default:
		return string(r.raw) == string(o.raw)
	}
}

// quoteJSON is the stored shape of a quote. "volumn" is the historical key
// used by existing databases and must not be corrected.
type quoteJSON struct {
	Start  *decimal.Decimal `json:"start"`
	End    *decimal.Decimal `json:"end"`
	Low    *decimal.Decimal `json:"low"`
	High   *decimal.Decimal `json:"high"`
	EndAdj *decimal.Decimal `json:"end_adj"`
	Volumn *decimal.Decimal `json:"volumn"`
}

func (q quoteJSON) complete() bool {
	return q.Start != nil && q.End != nil && q.Low != nil &&
		q.High != nil && q.EndAdj != nil && q.Volumn != nil
}

type splitJSON struct {
	Split bool   `json:"split"`
	Note  string `json:"note,omitempty"`
}

func (r PriceRecord) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindQuote:
		vol := decimal.NewFromInt(r.Volume)
		return json.Marshal(quoteJSON{
			Start:  &r.Open,
			End:    &r.Close,
			Low:    &r.Low,
			High:   &r.High,
			EndAdj: &r.AdjClose,
			Volumn: &vol,
		})
	case KindSplit:
		return json.Marshal(splitJSON{Split: true, Note: r.Note})
	default:
		if len(r.raw) == 0 {
			return []byte("null"), nil
		}
		return r.raw, nil
	}
}

// UnmarshalJSON accepts numbers written either as JSON strings or as JSON
// numbers. Records that are neither a split nor a full quote are kept as
// KindInvalid rather than rejected, so a legacy database still loads.
func (r *PriceRecord) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("price record: %w", err)
	}
	if flag, ok := fields["split"]; ok {
		if split, _ := strconv.ParseBool(string(flag)); split {
			var s splitJSON
			if err := json.Unmarshal(b, &s); err != nil {
				return fmt.Errorf("split record: %w", err)
			}
			*r = NewSplit(s.Note)
			return nil
		}
	}
	var q quoteJSON
	if err := json.Unmarshal(b, &q); err != nil || !q.complete() {
		*r = PriceRecord{Kind: KindInvalid, raw: append(json.RawMessage(nil), b...)}
		return nil
	}
	*r = NewQuote(*q.Start, *q.High, *q.Low, *q.End, *q.EndAdj, q.Volumn.IntPart())
	return nil
}
