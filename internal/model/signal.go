package model

// Signal is the trend label for a ticker's most recent indicator row.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalStay Signal = "STAY"
)
