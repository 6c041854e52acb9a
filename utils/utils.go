package utils

import (
	"math"
	"sort"
)

func FormatFloat(f float64, round int32) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	p := math.Pow(10, float64(round))
	return math.Round(f*p) / p
}

func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FiniteValues returns a copy of x without NaN and Inf entries.
func FiniteValues(x []float64) []float64 {
	res := make([]float64, 0, len(x))
	for _, v := range x {
		if IsFinite(v) {
			res = append(res, v)
		}
	}
	return res
}

func SortedCopy(x []float64) []float64 {
	res := make([]float64, len(x))
	copy(res, x)
	sort.Float64s(res)
	return res
}

// Median averages the two middle values for even lengths.
// ok is false when x is empty.
func Median(x []float64) (float64, bool) {
	n := len(x)
	if n == 0 {
		return 0, false
	}
	sorted := SortedCopy(x)
	if n%2 == 1 {
		return sorted[n/2], true
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, true
}

// Percentile returns the p-th percentile (p in [0, 100]) of x, linearly
// interpolated at rank (n-1)*p/100. x does not need to be sorted.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	p = math.Max(0, math.Min(100, p))
	return QuantileSorted(SortedCopy(x), p/100)
}

// IQR returns the interquartile range q75 - q25.
func IQR(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := SortedCopy(x)
	return QuantileSorted(sorted, 0.75) - QuantileSorted(sorted, 0.25)
}

// QuantileSorted interpolates between the order statistics around rank
// (n-1)*q. sorted must be ascending and non-empty, q in [0, 1].
func QuantileSorted(sorted []float64, q float64) float64 {
	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

func Clamp(v, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, v))
}

func IntMax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func IntMin(a, b int) int {
	if a < b {
		return a
	}
	return b
}
