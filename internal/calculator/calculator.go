// Package calculator computes technical indicators over ordered price series.
//
// Every function takes values in ascending date order and returns a series of
// the same length. Undefined positions (warm-up, gaps) are NaN; nothing is
// rounded here.
package calculator

import (
	"errors"
	"fmt"

	"TrendSentinel/internal/model"
)

// ErrInvalidPeriod is returned for a non-positive indicator period.
var ErrInvalidPeriod = errors.New("period must be positive")

// Params holds the indicator periods.
type Params struct {
	Short  int `yaml:"macd_short" envconfig:"MACD_SHORT"`
	Long   int `yaml:"macd_long" envconfig:"MACD_LONG"`
	Signal int `yaml:"signal" envconfig:"SIGNAL"`
	K      int `yaml:"k" envconfig:"K"`
	D      int `yaml:"d" envconfig:"D"`
	DSlow  int `yaml:"d_slow" envconfig:"D_SLOW"`
}

// DefaultParams are the classic 12/26/9 MACD and 5/3/3 stochastic periods.
func DefaultParams() Params {
	return Params{Short: 12, Long: 26, Signal: 9, K: 5, D: 3, DSlow: 3}
}

// Validate checks every period.
func (p Params) Validate() error {
	periods := []struct {
		name string
		n    int
	}{
		{"macd_short", p.Short}, {"macd_long", p.Long}, {"signal", p.Signal},
		{"k", p.K}, {"d", p.D}, {"d_slow", p.DSlow},
	}
	for _, pp := range periods {
		if pp.n <= 0 {
			return fmt.Errorf("%s=%d: %w", pp.name, pp.n, ErrInvalidPeriod)
		}
	}
	return nil
}

// Warmup is the number of leading rows before every column can be defined.
func (p Params) Warmup() int {
	macd := max(p.Short, p.Long) + p.Signal - 2
	stoch := p.K + p.D + p.DSlow - 3
	return max(macd, stoch)
}

// Calculate computes the indicator table from adjusted closes.
func Calculate(points []model.PricePoint, p Params) ([]model.IndicatorRow, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	v := AdjCloses(points)
	macd := MACD(v, p.Short, p.Long)
	signal := EMA(macd, p.Signal)
	d := StochasticD(v, p.K, p.D)
	dSlow := SMA(d, p.DSlow)

	rows := make([]model.IndicatorRow, len(points))
	for i, pt := range points {
		rows[i] = model.IndicatorRow{
			Date:   pt.Date,
			MACD:   macd[i],
			Signal: signal[i],
			D:      d[i],
			DSlow:  dSlow[i],
		}
	}
	return rows, nil
}

// AdjCloses extracts the adjusted close of every point.
func AdjCloses(points []model.PricePoint) []float64 {
	v := make([]float64, len(points))
	for i, pt := range points {
		v[i] = pt.AdjClose
	}
	return v
}
