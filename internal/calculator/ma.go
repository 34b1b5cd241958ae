package calculator

import "math"

// SMA returns the simple moving average of v over n values. Index i is
// defined only when i >= n-1 and none of v[i-n+1..i] is NaN; every other
// index is NaN. A non-positive n yields an all-NaN series.
func SMA(v []float64, n int) []float64 {
	out := nanSeries(len(v))
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(v); i++ {
		if mean, ok := windowMean(v[i-n+1 : i+1]); ok {
			out[i] = mean
		}
	}
	return out
}

// EMA returns the exponential moving average of v over n values.
//
// Warm-up matches SMA. The first defined value is seeded with the mean of its
// window; each following value is (2*v[i] + (n-1)*prev) / (n+1). When a NaN
// enters the window the chain breaks, and the next NaN-free window seeds it
// again from its mean.
func EMA(v []float64, n int) []float64 {
	out := nanSeries(len(v))
	if n <= 0 {
		return out
	}
	prev := math.NaN()
	for i := 0; i < len(v); i++ {
		if i < n-1 {
			continue
		}
		mean, ok := windowMean(v[i-n+1 : i+1])
		if !ok {
			prev = math.NaN()
			continue
		}
		if math.IsNaN(prev) {
			prev = mean
		} else {
			prev = (2*v[i] + float64(n-1)*prev) / float64(n+1)
		}
		out[i] = prev
	}
	return out
}

// windowMean returns the mean of w, or false if w holds a NaN.
func windowMean(w []float64) (float64, bool) {
	sum := 0.0
	for _, x := range w {
		if math.IsNaN(x) {
			return 0, false
		}
		sum += x
	}
	return sum / float64(len(w)), true
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
