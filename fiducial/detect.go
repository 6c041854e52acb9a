package fiducial

import (
	"github.com/uyouii/cuffless-bp/filter"
	"github.com/uyouii/cuffless-bp/utils"
)

// Detector locates fiducial points in one window. It keeps no state
// between calls.
type Detector struct {
	cfg Config
}

func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// RPeaks finds R-peaks in a QRS-band filtered ECG sampled at fs Hz.
func (d *Detector) RPeaks(ecg []float64, fs float64) []int {
	if len(ecg) == 0 {
		return []int{}
	}
	energy := make([]float64, len(ecg))
	for i, v := range ecg {
		energy[i] = v * v
	}
	energy = filter.MovingAverage(energy, windowLen(d.cfg.RPeakSmoothSec, fs))
	height := utils.Percentile(energy, d.cfg.RPeakPercentile)
	return FindPeaks(energy, height, int(d.cfg.MinRRSec*fs))
}

// Feet finds pulse onsets in a [0, 1] normalized PPG sampled at fs Hz. The
// steepest upstroke is the most negative point of the negated derivative,
// so feet are the peaks of the smoothed, negated first difference.
func (d *Detector) Feet(ppg []float64, fs float64) []int {
	if len(ppg) == 0 {
		return []int{}
	}
	slope := filter.MovingAverage(filter.Diff1(ppg), windowLen(d.cfg.FootSmoothSec, fs))
	for i := range slope {
		slope[i] = -slope[i]
	}
	height := utils.Percentile(slope, d.cfg.FootPercentile)
	return FindPeaks(slope, height, int(d.cfg.MinRRSec*fs))
}

// PTT pairs R-peak and foot indices of one window into transit times using
// the configured maximum delay.
func (d *Detector) PTT(rpeaks, feet []int, fsECG, fsPPG float64) []float64 {
	return PairPTT(rpeaks, feet, fsECG, fsPPG, d.cfg.MaxDelaySec)
}

func windowLen(sec, fs float64) int {
	return utils.IntMax(1, int(sec*fs))
}
