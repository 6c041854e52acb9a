package fiducial

import "sort"

// FindPeaks returns the ascending indices of local maxima of x that are at
// least height, keeping only the highest of any peaks closer than distance
// samples. Flat tops resolve to their middle sample and the first and last
// samples are never peaks.
func FindPeaks(x []float64, height float64, distance int) []int {
	peaks := []int{}
	for _, p := range localMaxima(x) {
		if x[p] >= height {
			peaks = append(peaks, p)
		}
	}
	if distance > 1 && len(peaks) > 1 {
		peaks = selectByDistance(x, peaks, distance)
	}
	return peaks
}

func localMaxima(x []float64) []int {
	res := []int{}
	iMax := len(x) - 1
	for i := 1; i < iMax; i++ {
		if !(x[i-1] < x[i]) {
			continue
		}
		ahead := i + 1
		for ahead < iMax && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			res = append(res, (i+ahead-1)/2)
			i = ahead
		}
	}
	return res
}

// selectByDistance walks peaks from highest to lowest and drops every
// neighbour within distance of a peak that is kept.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return x[peaks[order[a]]] < x[peaks[order[b]]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for i := len(order) - 1; i >= 0; i-- {
		j := order[i]
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	res := make([]int, 0, len(peaks))
	for i, p := range peaks {
		if keep[i] {
			res = append(res, p)
		}
	}
	return res
}
