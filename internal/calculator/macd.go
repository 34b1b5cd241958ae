package calculator

// MACD returns EMA(v, short) - EMA(v, long). NaN in either operand gives NaN.
func MACD(v []float64, short, long int) []float64 {
	fast := EMA(v, short)
	slow := EMA(v, long)
	out := make([]float64, len(v))
	for i := range out {
		out[i] = fast[i] - slow[i]
	}
	return out
}

// SignalLine returns the n-period EMA of the MACD line.
func SignalLine(v []float64, n, short, long int) []float64 {
	return EMA(MACD(v, short, long), n)
}
