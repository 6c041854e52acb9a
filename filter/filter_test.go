package filter

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cuffless-bp/common"
)

func sine(n int, fs, hz float64) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = math.Sin(2 * math.Pi * hz * float64(i) / fs)
	}
	return res
}

func TestFiltFilt_ShortInputUnchanged(t *testing.T) {
	lp, err := NewButterworth(KindLowpass, 128, 3, 20)
	require.NoError(t, err)
	require.Equal(t, 12, lp.PadLen())

	bp, err := NewButterworth(KindBandpass, 128, 3, 5, 20)
	require.NoError(t, err)
	require.Equal(t, 21, bp.PadLen())

	hp, err := NewButterworth(KindHighpass, 128, 2, 0.05)
	require.NoError(t, err)
	require.Equal(t, 9, hp.PadLen())

	for _, f := range []*Butterworth{lp, bp, hp} {
		x := []float64{1, -2, 3, 7, 0.5, 4, 4, -1, 2}
		out := f.FiltFilt(x)
		assert.Equal(t, x, out, "kind %v", f.Kind())

		// result must be a copy
		out[0] = 100
		assert.Equal(t, 1.0, x[0])

		assert.Empty(t, f.FiltFilt(nil))
	}

	short := make([]float64, 21)
	for i := range short {
		short[i] = float64(i * i)
	}
	assert.Equal(t, short, bp.FiltFilt(short))
}

func TestButterworth_Gain(t *testing.T) {
	lp, err := NewButterworth(KindLowpass, 128, 3, 20)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, lp.Gain(0), 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, lp.Gain(20), 1e-6)
	assert.Less(t, lp.Gain(60), 0.05)

	hp, err := NewButterworth(KindHighpass, 128, 2, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, hp.Gain(0), 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, hp.Gain(0.5), 1e-6)
	assert.InDelta(t, 1.0, hp.Gain(64), 1e-6)

	for _, band := range [][2]float64{{5, 20}, {0.5, 8}} {
		bp, err := NewButterworth(KindBandpass, 128, 3, band[0], band[1])
		require.NoError(t, err)
		assert.InDelta(t, 0.0, bp.Gain(0), 1e-9)
		assert.InDelta(t, 0.0, bp.Gain(64), 1e-9)
		assert.InDelta(t, 1/math.Sqrt2, bp.Gain(band[0]), 1e-6)
		assert.InDelta(t, 1/math.Sqrt2, bp.Gain(band[1]), 1e-6)
		center := math.Sqrt(band[0] * band[1])
		assert.Greater(t, bp.Gain(center), 0.95)
	}
}

func TestButterworth_ClampsCutoffs(t *testing.T) {
	lp, err := NewButterworth(KindLowpass, 100, 3, 80)
	require.NoError(t, err)
	assert.InDelta(t, 50-MinCutoffHz, lp.Cutoffs()[0], 1e-12)

	hp, err := NewButterworth(KindHighpass, 100, 3, -1)
	require.NoError(t, err)
	assert.InDelta(t, MinCutoffHz, hp.Cutoffs()[0], 1e-12)
}

func TestButterworth_InvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		kind    Kind
		fs      float64
		order   int
		cutoffs []float64
	}{
		{"zero fs", KindLowpass, 0, 3, []float64{10}},
		{"negative fs", KindLowpass, -128, 3, []float64{10}},
		{"nan fs", KindLowpass, math.NaN(), 3, []float64{10}},
		{"zero order", KindLowpass, 128, 0, []float64{10}},
		{"missing cutoff", KindHighpass, 128, 3, nil},
		{"band with one cutoff", KindBandpass, 128, 3, []float64{5}},
		{"empty band after clamping", KindBandpass, 2, 3, []float64{5, 20}},
		{"unknown kind", Kind(9), 128, 3, []float64{5}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewButterworth(c.kind, c.fs, c.order, c.cutoffs...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrorInvalidConfig))
		})
	}
}

func TestFiltFilt_ZeroPhase(t *testing.T) {
	fs := 128.0
	x := sine(1280, fs, 1.0)

	out, err := Lowpass(x, fs, 20, 3)
	require.NoError(t, err)
	require.Len(t, out, len(x))
	for i := 200; i < len(x)-200; i++ {
		assert.InDelta(t, x[i], out[i], 1e-3, "sample %d", i)
	}

	// a symmetric pulse keeps its peak position
	pulse := make([]float64, 512)
	for i := range pulse {
		d := float64(i-256) / 3
		pulse[i] = math.Exp(-0.5 * d * d)
	}
	smoothed, err := Bandpass(pulse, fs, 5, 20, 3)
	require.NoError(t, err)
	peak := 0
	for i := range smoothed {
		if smoothed[i] > smoothed[peak] {
			peak = i
		}
	}
	assert.Equal(t, 256, peak)
}

func TestFiltFilt_ConstantAndZeroInput(t *testing.T) {
	constant := make([]float64, 300)
	for i := range constant {
		constant[i] = 5
	}
	out, err := Lowpass(constant, 128, 10, 3)
	require.NoError(t, err)
	for _, v := range out {
		assert.InDelta(t, 5.0, v, 1e-9)
	}

	out, err = Highpass(constant, 128, 0.05, 2)
	require.NoError(t, err)
	for _, v := range out {
		assert.InDelta(t, 0.0, v, 1e-9)
	}

	zeros := make([]float64, 300)
	out, err = Bandpass(zeros, 128, 5, 20, 3)
	require.NoError(t, err)
	assert.Equal(t, zeros, out)
}

func TestFiltFiltChannels(t *testing.T) {
	lp, err := NewButterworth(KindLowpass, 32, 2, 4)
	require.NoError(t, err)

	n := 200
	rows := make([][]float64, n)
	cols := [3][]float64{sine(n, 32, 1), sine(n, 32, 6), sine(n, 32, 10)}
	for i := range rows {
		rows[i] = []float64{cols[0][i], cols[1][i], cols[2][i]}
	}

	out := lp.FiltFiltChannels(rows)
	require.Len(t, out, n)
	for c := 0; c < 3; c++ {
		want := lp.FiltFilt(cols[c])
		for i := 0; i < n; i++ {
			assert.Equal(t, want[i], out[i][c])
		}
	}
	// input untouched
	assert.Equal(t, cols[1][5], rows[5][1])
}

func TestMovingAverage(t *testing.T) {
	x := []float64{3, 6, 9}
	assert.Equal(t, x, MovingAverage(x, 1))
	assert.Equal(t, x, MovingAverage(x, 0))
	assert.Empty(t, MovingAverage(nil, 5))

	out := MovingAverage(x, 3)
	assert.InDeltaSlice(t, []float64{3, 6, 5}, out, 1e-12)

	out = MovingAverage([]float64{1, 2, 3, 4, 5}, 4)
	assert.InDeltaSlice(t, []float64{0.75, 1.5, 2.5, 3.5, 3}, out, 1e-12)

	// window longer than input still keeps the length
	out = MovingAverage([]float64{4, 4}, 8)
	assert.Len(t, out, 2)
}

func TestDiff1(t *testing.T) {
	assert.Equal(t, []float64{0, 3, 5}, Diff1([]float64{1, 4, 9}))
	assert.Equal(t, []float64{0}, Diff1([]float64{7}))
	assert.Empty(t, Diff1(nil))
}

func TestZScore(t *testing.T) {
	out := ZScore([]float64{2, 4, 4, 4, 5, 5, 7, 9}, DefaultZScoreEps)
	assert.InDelta(t, -1.5, out[0], 1e-6)
	assert.InDelta(t, 2.0, out[7], 1e-6)

	flat := ZScore([]float64{3, 3, 3}, DefaultZScoreEps)
	for _, v := range flat {
		assert.Equal(t, 0.0, v)
	}
	assert.Empty(t, ZScore(nil, DefaultZScoreEps))
}
