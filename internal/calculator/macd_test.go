package calculator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMACD_IsEMADifference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	v := make([]float64, 80)
	for i := range v {
		v[i] = 1000 + rng.NormFloat64()*25
	}
	v[40] = math.NaN()

	macd := MACD(v, 12, 26)
	fast, slow := EMA(v, 12), EMA(v, 26)
	for i := range v {
		want := fast[i] - slow[i]
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) {
			assert.Truef(t, math.IsNaN(macd[i]), "index %d should be NaN", i)
			continue
		}
		assert.InDeltaf(t, want, macd[i], 1e-9, "index %d", i)
	}
	// before the slow EMA is seeded the fast one is defined, the difference is not
	assert.False(t, math.IsNaN(fast[20]))
	assert.True(t, math.IsNaN(macd[20]))
}

func TestSignalLine_IsEMAOfMACD(t *testing.T) {
	v := make([]float64, 60)
	for i := range v {
		v[i] = 50 + math.Sin(float64(i)/4)*10
	}
	want := EMA(MACD(v, 12, 26), 9)
	assertSeries(t, want, SignalLine(v, 9, 12, 26))

	sig := SignalLine(v, 9, 12, 26)
	assert.True(t, math.IsNaN(sig[32]))
	assert.False(t, math.IsNaN(sig[33]))
}
