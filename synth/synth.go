// Package synth generates synthetic ECG, PPG and motion windows with a
// known blood pressure driven PTT, for demos and end-to-end tests.
package synth

import (
	"math"
	"math/rand"

	"github.com/uyouii/cuffless-bp/model"
	"github.com/uyouii/cuffless-bp/utils"
	"gonum.org/v1/gonum/floats"
)

const (
	minRRSec = 0.4
	maxRRSec = 1.5

	// PTT drops this much per mmHg of SBP above 120
	pttPerMMHg = 0.0015
	minPTTSec  = 0.12
	maxPTTSec  = 0.35

	rWaveHalfSec = 0.02
	rWaveSigma   = 0.007
	pulseTailSec = 0.35
	pulseDecay   = 0.08
)

type Params struct {
	FsECG     float64
	FsPPG     float64
	FsMotion  float64
	WindowSec int

	HeartRateBPM float64
	RRStdSec     float64
	BasePTT      float64
	// SBP trend, one value per second. Other lengths are resampled; nil
	// means a linear rise from 120 to 130 mmHg.
	SBPProfile []float64

	ECGNoise  float64
	PPGNoise  float64
	MotionStd float64

	Seed int64
}

func DefaultParams() Params {
	return Params{
		FsECG:        128,
		FsPPG:        128,
		FsMotion:     32,
		WindowSec:    20,
		HeartRateBPM: 72,
		RRStdSec:     0.03,
		BasePTT:      0.25,
		ECGNoise:     0.01,
		PPGNoise:     0.01,
		MotionStd:    0.02,
	}
}

type Signals struct {
	ECG    []float64
	PPG    []float64
	Motion [][]float64
	// true R-peak positions in ECG samples
	RPeaks []int
	// true PTT at each PPG sample
	PTT []float64
}

// Window wraps the signals into a pipeline input.
func (s *Signals) Window(seq int64, reference *model.Reference) *model.Window {
	return &model.Window{
		Seq:       seq,
		ECG:       s.ECG,
		PPG:       s.PPG,
		Motion:    s.Motion,
		Reference: reference,
	}
}

func Generate(p Params) *Signals {
	rng := rand.New(rand.NewSource(p.Seed))

	rpeaks := rrToPeaks(rrSeries(rng, p.HeartRateBPM, float64(p.WindowSec), p.RRStdSec), p.FsECG)

	s := &Signals{RPeaks: rpeaks}
	s.ECG = ecgWave(rng, rpeaks, p)
	s.PTT = pttSeries(p)
	s.PPG = ppgWave(rng, rpeaks, s.PTT, p)
	s.Motion = make([][]float64, int(float64(p.WindowSec)*p.FsMotion))
	for i := range s.Motion {
		s.Motion[i] = []float64{
			p.MotionStd * rng.NormFloat64(),
			p.MotionStd * rng.NormFloat64(),
			p.MotionStd * rng.NormFloat64(),
		}
	}
	return s
}

func rrSeries(rng *rand.Rand, hrBPM, winSec, std float64) []float64 {
	n := int(math.Round(hrBPM / 60 * winSec))
	base := 60 / hrBPM
	rr := make([]float64, n)
	for i := range rr {
		rr[i] = utils.Clamp(base+std*rng.NormFloat64(), minRRSec, maxRRSec)
	}
	return rr
}

// rrToPeaks places the first beat at 0 and the rest by cumulative RR.
func rrToPeaks(rr []float64, fs float64) []int {
	res := []int{}
	t := 0.0
	for i, v := range rr {
		if i > 0 {
			t += v
		}
		idx := int(math.Round(t * fs))
		if len(res) > 0 && idx <= res[len(res)-1] {
			continue
		}
		res = append(res, idx)
	}
	return res
}

func ecgWave(rng *rand.Rand, rpeaks []int, p Params) []float64 {
	n := int(p.FsECG * float64(p.WindowSec))
	ecg := make([]float64, n)
	w := int(rWaveHalfSec * p.FsECG)
	sigma := rWaveSigma * p.FsECG
	for _, rp := range rpeaks {
		if rp-w < 0 || rp+w >= n {
			continue
		}
		for k := -w; k <= w; k++ {
			z := float64(k) / sigma
			ecg[rp+k] += math.Exp(-0.5 * z * z)
		}
	}
	for i := range ecg {
		ecg[i] += p.ECGNoise * rng.NormFloat64()
	}
	return ecg
}

func pttSeries(p Params) []float64 {
	profile := sbpProfile(p)
	n := int(p.FsPPG * float64(p.WindowSec))
	perSec := int(p.FsPPG)
	res := make([]float64, n)
	for i := range res {
		sbp := profile[utils.IntMin(i/perSec, len(profile)-1)]
		res[i] = utils.Clamp(p.BasePTT-pttPerMMHg*(sbp-120), minPTTSec, maxPTTSec)
	}
	return res
}

func sbpProfile(p Params) []float64 {
	n := p.WindowSec
	res := make([]float64, n)
	if len(p.SBPProfile) == 0 {
		for i := range res {
			res[i] = 120 + 10*float64(i)/math.Max(1, float64(n-1))
		}
		return res
	}
	if len(p.SBPProfile) == n {
		copy(res, p.SBPProfile)
		return res
	}
	// linear resampling onto one value per second
	src := p.SBPProfile
	for i := range res {
		if len(src) == 1 || n == 1 {
			res[i] = src[0]
			continue
		}
		pos := float64(i) * float64(len(src)-1) / float64(n-1)
		lo := int(math.Floor(pos))
		if lo >= len(src)-1 {
			res[i] = src[len(src)-1]
			continue
		}
		frac := pos - float64(lo)
		res[i] = src[lo]*(1-frac) + src[lo+1]*frac
	}
	return res
}

func ppgWave(rng *rand.Rand, rpeaks []int, ptt []float64, p Params) []float64 {
	n := int(p.FsPPG * float64(p.WindowSec))
	ppg := make([]float64, n)
	if n == 0 {
		return ppg
	}
	tail := int(pulseTailSec * p.FsPPG)
	decay := pulseDecay * p.FsPPG
	for _, rp := range rpeaks {
		r := int(float64(rp) / p.FsECG * p.FsPPG)
		if r >= n {
			continue
		}
		foot := r + int(math.Round(ptt[r]*p.FsPPG))
		if foot >= n {
			continue
		}
		end := utils.IntMin(n, foot+tail)
		for i := 0; i < end-foot; i++ {
			ppg[foot+i] += math.Exp(-float64(i) / decay)
		}
	}

	lo, hi := floats.Min(ppg), floats.Max(ppg)
	for i := range ppg {
		ppg[i] = (ppg[i]-lo)/(hi-lo+1e-9) + p.PPGNoise*rng.NormFloat64()
	}
	return ppg
}
