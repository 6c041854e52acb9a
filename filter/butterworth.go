package filter

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/uyouii/cuffless-bp/common"
	"github.com/uyouii/cuffless-bp/utils"
)

type Kind int

const (
	KindLowpass Kind = iota
	KindHighpass
	KindBandpass
)

func (k Kind) String() string {
	switch k {
	case KindLowpass:
		return "lowpass"
	case KindHighpass:
		return "highpass"
	case KindBandpass:
		return "bandpass"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// section is one second-order stage in Direct Form II transposed.
// a[0] is always 1.
type section struct {
	b [3]float64
	a [3]float64
}

// Butterworth is a digital Butterworth filter stored as a cascade of
// second-order sections. It holds no sample state, so one value may be
// shared by any number of goroutines.
type Butterworth struct {
	kind     Kind
	order    int
	fs       float64
	cutoffs  []float64
	sections []section
	padLen   int
}

// NewButterworth designs a filter of the given kind. Lowpass and highpass
// take one cutoff, bandpass takes (low, high). Cutoffs are clamped to
// [MinCutoffHz, fs/2 - MinCutoffHz].
func NewButterworth(kind Kind, fs float64, order int, cutoffs ...float64) (*Butterworth, error) {
	if !(fs > 0) || math.IsInf(fs, 0) {
		return nil, fmt.Errorf("sample rate %v: %w", fs, common.ErrorInvalidConfig)
	}
	if order <= 0 {
		return nil, fmt.Errorf("filter order %v: %w", order, common.ErrorInvalidConfig)
	}

	nyquist := fs / 2
	clamped := make([]float64, len(cutoffs))
	for i, c := range cutoffs {
		clamped[i] = math.Max(MinCutoffHz, math.Min(c, nyquist-MinCutoffHz))
	}

	switch kind {
	case KindLowpass, KindHighpass:
		if len(clamped) != 1 {
			return nil, fmt.Errorf("%v needs 1 cutoff, got %v: %w", kind, len(clamped), common.ErrorInvalidConfig)
		}
	case KindBandpass:
		if len(clamped) != 2 {
			return nil, fmt.Errorf("%v needs 2 cutoffs, got %v: %w", kind, len(clamped), common.ErrorInvalidConfig)
		}
		if clamped[0] >= clamped[1] {
			return nil, fmt.Errorf("empty band [%v, %v] at fs %v: %w",
				clamped[0], clamped[1], fs, common.ErrorInvalidConfig)
		}
	default:
		return nil, fmt.Errorf("filter kind %v: %w", kind, common.ErrorInvalidConfig)
	}

	zeros, poles, gain := designZPK(kind, fs, order, clamped)

	return &Butterworth{
		kind:     kind,
		order:    order,
		fs:       fs,
		cutoffs:  clamped,
		sections: zpkToSections(zeros, poles, gain),
		padLen:   PadFactor * (len(poles) + 1),
	}, nil
}

func (f *Butterworth) Kind() Kind {
	return f.kind
}

func (f *Butterworth) Cutoffs() []float64 {
	res := make([]float64, len(f.cutoffs))
	copy(res, f.cutoffs)
	return res
}

// PadLen is the number of samples mirrored at each edge by FiltFilt.
// Inputs not longer than PadLen are returned unfiltered.
func (f *Butterworth) PadLen() int {
	return f.padLen
}

// Gain returns the magnitude response at frequency hz.
func (f *Butterworth) Gain(hz float64) float64 {
	w := 2 * math.Pi * hz / f.fs
	zinv := cmplx.Exp(complex(0, -w))
	zinv2 := zinv * zinv
	h := complex(1, 0)
	for _, s := range f.sections {
		num := complex(s.b[0], 0) + complex(s.b[1], 0)*zinv + complex(s.b[2], 0)*zinv2
		den := complex(s.a[0], 0) + complex(s.a[1], 0)*zinv + complex(s.a[2], 0)*zinv2
		h *= num / den
	}
	return cmplx.Abs(h)
}

// designZPK returns the digital zeros, poles and gain: analog prototype,
// frequency transform, then bilinear transform.
func designZPK(kind Kind, fs float64, order int, cutoffs []float64) ([]complex128, []complex128, float64) {
	proto := make([]complex128, order)
	for k := 0; k < order; k++ {
		m := float64(-order + 1 + 2*k)
		proto[k] = -cmplx.Exp(complex(0, math.Pi*m/float64(2*order)))
	}

	warp := func(hz float64) float64 {
		return 2 * fs * math.Tan(math.Pi*hz/fs)
	}

	var zeros, poles []complex128
	gain := 1.0

	switch kind {
	case KindLowpass:
		wo := warp(cutoffs[0])
		for _, p := range proto {
			poles = append(poles, complex(wo, 0)*p)
		}
		gain = math.Pow(wo, float64(order))
	case KindHighpass:
		wo := warp(cutoffs[0])
		prod := complex(1, 0)
		for _, p := range proto {
			poles = append(poles, complex(wo, 0)/p)
			zeros = append(zeros, 0)
			prod *= -p
		}
		gain = real(1 / prod)
	case KindBandpass:
		w1, w2 := warp(cutoffs[0]), warp(cutoffs[1])
		bw := w2 - w1
		wo := math.Sqrt(w1 * w2)
		for _, p := range proto {
			pl := p * complex(bw/2, 0)
			s := cmplx.Sqrt(pl*pl - complex(wo*wo, 0))
			poles = append(poles, pl+s, pl-s)
			zeros = append(zeros, 0)
		}
		gain = math.Pow(bw, float64(order))
	}

	fs2 := complex(2*fs, 0)
	num, den := complex(1, 0), complex(1, 0)
	dzeros := make([]complex128, 0, len(poles))
	for _, z := range zeros {
		num *= fs2 - z
		dzeros = append(dzeros, (fs2+z)/(fs2-z))
	}
	dpoles := make([]complex128, 0, len(poles))
	for _, p := range poles {
		den *= fs2 - p
		dpoles = append(dpoles, (fs2+p)/(fs2-p))
	}
	// zeros at infinity land on Nyquist
	for len(dzeros) < len(dpoles) {
		dzeros = append(dzeros, -1)
	}
	gain *= real(num / den)

	return dzeros, dpoles, gain
}

// quadratics expands roots into monic polynomials of degree <= 2, pairing
// complex roots with their conjugates and real roots with each other.
func quadratics(roots []complex128) [][3]float64 {
	res := [][3]float64{}
	reals := []float64{}
	for _, r := range roots {
		tol := 1e-9 * math.Max(1, cmplx.Abs(r))
		switch {
		case imag(r) > tol:
			res = append(res, [3]float64{1, -2 * real(r), real(r)*real(r) + imag(r)*imag(r)})
		case imag(r) < -tol:
			// conjugate of a root handled above
		default:
			reals = append(reals, real(r))
		}
	}
	for i := 0; i+1 < len(reals); i += 2 {
		res = append(res, [3]float64{1, -(reals[i] + reals[i+1]), reals[i] * reals[i+1]})
	}
	if len(reals)%2 == 1 {
		res = append(res, [3]float64{1, -reals[len(reals)-1], 0})
	}
	return res
}

func zpkToSections(zeros, poles []complex128, gain float64) []section {
	num := quadratics(zeros)
	den := quadratics(poles)
	n := utils.IntMax(len(num), len(den))
	sections := make([]section, n)
	for i := 0; i < n; i++ {
		s := section{b: [3]float64{1, 0, 0}, a: [3]float64{1, 0, 0}}
		if i < len(num) {
			s.b = num[i]
		}
		if i < len(den) {
			s.a = den[i]
		}
		sections[i] = s
	}
	if n > 0 {
		for j := range sections[0].b {
			sections[0].b[j] *= gain
		}
	}
	return sections
}
