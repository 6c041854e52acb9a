package filter

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MovingAverage is a centered box filter of length k with zero padding
// outside x. The output has the same length as x; k <= 1 is the identity.
func MovingAverage(x []float64, k int) []float64 {
	n := len(x)
	out := make([]float64, n)
	if k <= 1 || n == 0 {
		copy(out, x)
		return out
	}

	cumsum := make([]float64, n+1)
	floats.CumSum(cumsum[1:], x)

	offset := (k - 1) / 2
	for i := 0; i < n; i++ {
		hi := min(n-1, i+offset)
		lo := max(0, i+offset-k+1)
		if lo > hi {
			continue
		}
		out[i] = (cumsum[hi+1] - cumsum[lo]) / float64(k)
	}
	return out
}

// Diff1 is the forward difference with the first element set to zero, so
// the result keeps the input length.
func Diff1(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	return out
}

// ZScore centers x and scales it by its population standard deviation.
// eps keeps a constant input finite.
func ZScore(x []float64, eps float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	for i, v := range x {
		out[i] = (v - mean) / (std + eps)
	}
	return out
}
