package strategy

import "TrendSentinel/internal/model"

// Thresholds on the slow stochastic that gate a BUY or SELL.
const (
	OversoldDSlow   = 20.0
	OverboughtDSlow = 80.0
)

// Classify maps one indicator row to a trend label. Rules are checked in
// order and the first match wins:
//
//	BUY  macd >= 0 && macd > signal && dSlow <= 20
//	SELL macd <= 0 && macd < signal && dSlow >= 80
//	STAY otherwise
//
// NaN fails every comparison, so a row still warming up is STAY.
func Classify(row model.IndicatorRow) model.Signal {
	switch {
	case row.MACD >= 0 && row.MACD > row.Signal && row.DSlow <= OversoldDSlow:
		return model.SignalBuy
	case row.MACD <= 0 && row.MACD < row.Signal && row.DSlow >= OverboughtDSlow:
		return model.SignalSell
	default:
		return model.SignalStay
	}
}

// Evaluate classifies the last row of an indicator table after rounding it
// the way the report presents it. An empty table is STAY.
func Evaluate(rows []model.IndicatorRow) model.Signal {
	if len(rows) == 0 {
		return model.SignalStay
	}
	return Classify(rows[len(rows)-1].Rounded())
}
