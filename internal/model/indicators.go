package model

import "math"

// PricePoint is the numeric view of one complete trading day.
type PricePoint struct {
	Date     Date
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// Points converts ordered records into price points.
func Points(recs []DatedRecord) []PricePoint {
	pts := make([]PricePoint, 0, len(recs))
	for _, dr := range recs {
		r := dr.Record
		pts = append(pts, PricePoint{
			Date:     dr.Date,
			Open:     r.Open.InexactFloat64(),
			High:     r.High.InexactFloat64(),
			Low:      r.Low.InexactFloat64(),
			Close:    r.Close.InexactFloat64(),
			AdjClose: r.AdjClose.InexactFloat64(),
			Volume:   r.Volume,
		})
	}
	return pts
}

// IndicatorRow holds the derived values for one date. Any field may be NaN
// while its indicator is still warming up.
type IndicatorRow struct {
	Date   Date
	MACD   float64
	Signal float64
	D      float64
	DSlow  float64
}

// Rounded returns the row rounded to integers, half to even. NaN stays NaN.
func (r IndicatorRow) Rounded() IndicatorRow {
	return IndicatorRow{
		Date:   r.Date,
		MACD:   math.RoundToEven(r.MACD),
		Signal: math.RoundToEven(r.Signal),
		D:      math.RoundToEven(r.D),
		DSlow:  math.RoundToEven(r.DSlow),
	}
}
