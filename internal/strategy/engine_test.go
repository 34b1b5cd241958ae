package strategy

import (
	"math"
	"testing"

	"TrendSentinel/internal/model"
)

func TestClassify_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		row  model.IndicatorRow
		want model.Signal
	}{
		{"buy", model.IndicatorRow{MACD: 5, Signal: 2, DSlow: 15}, model.SignalBuy},
		{"sell", model.IndicatorRow{MACD: -3, Signal: -1, DSlow: 85}, model.SignalSell},
		{"macd not above signal", model.IndicatorRow{MACD: 1, Signal: 2, DSlow: 10}, model.SignalStay},
		{"macd equal signal", model.IndicatorRow{MACD: 2, Signal: 2, DSlow: 10}, model.SignalStay},
		{"buy at zero macd", model.IndicatorRow{MACD: 0, Signal: -1, DSlow: 20}, model.SignalBuy},
		{"sell at zero macd", model.IndicatorRow{MACD: 0, Signal: 1, DSlow: 80}, model.SignalSell},
		{"stochastic not oversold", model.IndicatorRow{MACD: 5, Signal: 2, DSlow: 21}, model.SignalStay},
		{"stochastic not overbought", model.IndicatorRow{MACD: -3, Signal: -1, DSlow: 79}, model.SignalStay},
		{"negative macd above signal", model.IndicatorRow{MACD: -1, Signal: -2, DSlow: 10}, model.SignalStay},
	}
	for _, tt := range tests {
		if got := Classify(tt.row); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestClassify_NaNIsStay(t *testing.T) {
	nan := math.NaN()
	rows := []model.IndicatorRow{
		{MACD: nan, Signal: 2, DSlow: 10},
		{MACD: 5, Signal: nan, DSlow: 10},
		{MACD: 5, Signal: 2, DSlow: nan},
		{MACD: -3, Signal: -1, DSlow: nan},
	}
	for i, row := range rows {
		if got := Classify(row); got != model.SignalStay {
			t.Errorf("row %d: expected STAY, got %s", i, got)
		}
	}
}

func TestEvaluate_UsesRoundedLastRow(t *testing.T) {
	rows := []model.IndicatorRow{
		{MACD: -9, Signal: -1, DSlow: 95},
		// rounds to macd 0, signal 0: macd is no longer above the signal
		{MACD: 0.4, Signal: 0.3, DSlow: 12},
	}
	if got := Evaluate(rows); got != model.SignalStay {
		t.Errorf("expected STAY after rounding, got %s", got)
	}

	rows[1] = model.IndicatorRow{MACD: 4.6, Signal: 2.2, DSlow: 20.4}
	if got := Evaluate(rows); got != model.SignalBuy {
		t.Errorf("expected BUY, got %s", got)
	}
}

func TestEvaluate_EmptyTable(t *testing.T) {
	if got := Evaluate(nil); got != model.SignalStay {
		t.Errorf("expected STAY for empty table, got %s", got)
	}
}
