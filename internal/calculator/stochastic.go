package calculator

import "math"

// StochasticD returns the stochastic %D of v.
//
// For i >= nK-1 the raw numerator is v[i] - min and the raw denominator is
// max - min over the trailing nK values. Numerator and denominator are each
// smoothed by an nD-period SMA and only then divided:
//
//	%D = 100 * SMA(num, nD) / SMA(den, nD)
//
// This is not the SMA of %K and must stay that way.
func StochasticD(v []float64, nK, nD int) []float64 {
	num := nanSeries(len(v))
	den := nanSeries(len(v))
	if nK > 0 {
		for i := nK - 1; i < len(v); i++ {
			lo, hi := windowRange(v[i-nK+1 : i+1])
			num[i] = v[i] - lo
			den[i] = hi - lo
		}
	}
	numAvg := SMA(num, nD)
	denAvg := SMA(den, nD)
	out := make([]float64, len(v))
	for i := range out {
		out[i] = 100 * numAvg[i] / denAvg[i]
	}
	return out
}

// StochasticDSlow returns the nDSlow-period SMA of StochasticD.
func StochasticDSlow(v []float64, nK, nD, nDSlow int) []float64 {
	return SMA(StochasticD(v, nK, nD), nDSlow)
}

// windowRange returns min and max of w; both are NaN if w holds a NaN.
func windowRange(w []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range w {
		if math.IsNaN(x) {
			return math.NaN(), math.NaN()
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}
