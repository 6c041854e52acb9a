package fiducial

// PairPTT converts sample indices to seconds and pairs them with PairTimes.
func PairPTT(rpeaks, feet []int, fsECG, fsPPG, maxDelaySec float64) []float64 {
	rTimes := make([]float64, len(rpeaks))
	for i, r := range rpeaks {
		rTimes[i] = float64(r) / fsECG
	}
	footTimes := make([]float64, len(feet))
	for i, f := range feet {
		footTimes[i] = float64(f) / fsPPG
	}
	return PairTimes(rTimes, footTimes, maxDelaySec)
}

// PairTimes matches every R-peak time with the first unused foot strictly
// after it. Feet at or before the current R-peak are dropped; an R-peak
// whose next foot is further than maxDelaySec away yields nothing. Both
// inputs must be ascending.
func PairTimes(rTimes, footTimes []float64, maxDelaySec float64) []float64 {
	ptts := []float64{}
	i, j := 0, 0
	for i < len(rTimes) && j < len(footTimes) {
		tr, tf := rTimes[i], footTimes[j]
		if tf <= tr {
			j++
			continue
		}
		if tf-tr <= maxDelaySec {
			ptts = append(ptts, tf-tr)
			i++
			j++
		} else {
			i++
		}
	}
	return ptts
}
