package calibration

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cuffless-bp/common"
	"github.com/uyouii/cuffless-bp/model"
)

func newCalibrator(t *testing.T, cfg Config) *AdaptiveCalibrator {
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestInitialize_ReproducesSeed(t *testing.T) {
	c := newCalibrator(t, DefaultConfig())
	require.True(t, c.Initialize(120, 0.25))

	a, b, ok := c.Coefficients()
	require.True(t, ok)
	assert.Equal(t, 10.0, a)
	assert.InDelta(t, 80.0, b, 1e-12)

	got := c.Predict(model.Float(0.25))
	require.True(t, got.Valid)
	assert.InDelta(t, 120.0, got.Float64, 1e-9)
}

func TestInitialize_RejectsBadInput(t *testing.T) {
	c := newCalibrator(t, DefaultConfig())
	assert.False(t, c.Initialize(120, 0))
	assert.False(t, c.Initialize(120, 1e-7))
	assert.False(t, c.Initialize(math.NaN(), 0.25))
	assert.False(t, c.Initialized())
}

func TestPredict_Absent(t *testing.T) {
	c := newCalibrator(t, DefaultConfig())
	assert.False(t, c.Predict(model.Float(0.25)).Valid, "uninitialized")

	require.True(t, c.Initialize(120, 0.25))
	assert.False(t, c.Predict(model.Null()).Valid)
	assert.False(t, c.Predict(model.Float(0)).Valid)
	assert.False(t, c.Predict(model.Float(-0.1)).Valid)
}

func TestAddPoint_Converges(t *testing.T) {
	c := newCalibrator(t, DefaultConfig())
	require.True(t, c.Initialize(100, 0.25))

	prev := math.Inf(1)
	for i := 0; i < 500; i++ {
		p := c.Predict(model.Float(0.25))
		require.True(t, p.Valid)
		errAbs := math.Abs(p.Float64 - 120)
		if i < 20 {
			assert.Less(t, errAbs, prev, "step %d", i)
		}
		prev = errAbs
		c.AddPoint(model.Float(0.25), model.Float(120), 1)
	}
	assert.InDelta(t, 120.0, c.Predict(model.Float(0.25)).Float64, 0.05)
}

func TestAddPoint_SeedsWhenUninitialized(t *testing.T) {
	c := newCalibrator(t, DefaultConfig())
	c.AddPoint(model.Float(0.25), model.Float(120), 1)
	require.True(t, c.Initialized())
	// first step starts from an exact fit, so only regularization moves it
	assert.InDelta(t, 120.0, c.Predict(model.Float(0.25)).Float64, 0.1)
}

func TestAddPoint_Unsupervised(t *testing.T) {
	c := newCalibrator(t, DefaultConfig())
	require.True(t, c.Initialize(120, 0.25))
	a0, b0, _ := c.Coefficients()

	c.AddPoint(model.Float(0.3), model.Null(), 1)
	a1, b1, _ := c.Coefficients()
	assert.Equal(t, a0, a1)
	assert.Equal(t, b0, b1)
	assert.Equal(t, 1, c.HistoryLen())
	assert.Equal(t, 0, c.SupervisedCount())

	c.AddPoint(model.Null(), model.Float(120), 1)
	c.AddPoint(model.Float(0), model.Float(120), 1)
	assert.Equal(t, 1, c.HistoryLen())
}

func TestHistory_Bounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistory = 5
	c := newCalibrator(t, cfg)

	for i := 1; i <= 8; i++ {
		c.AddPoint(model.Float(0.1*float64(i)), model.Null(), 1)
	}
	h := c.History()
	require.Len(t, h, 5)
	assert.InDelta(t, 1/0.4, h[0].InvPTT, 1e-9)
	assert.InDelta(t, 1/0.8, h[4].InvPTT, 1e-9)
}

func TestRefit_RecoversLine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.L2 = 0
	c := newCalibrator(t, cfg)
	require.True(t, c.Initialize(120, 0.25))

	for _, ptt := range []float64{0.2, 0.25, 0.3, 0.35, 0.4} {
		c.history.Push(Entry{InvPTT: 1 / ptt, Reference: model.Float(20/ptt + 60), Weight: 1})
	}
	// unsupervised entries do not take part
	c.history.Push(Entry{InvPTT: 5, Reference: model.Null(), Weight: 1})

	require.True(t, c.RefitFromHistory())
	a, b, ok := c.Coefficients()
	require.True(t, ok)
	assert.InDelta(t, 20.0, a, 1e-6)
	assert.InDelta(t, 60.0, b, 1e-6)
}

func TestRefit_RidgeShrinks(t *testing.T) {
	c := newCalibrator(t, DefaultConfig())
	for _, ptt := range []float64{0.2, 0.25, 0.3, 0.35, 0.4} {
		c.history.Push(Entry{InvPTT: 1 / ptt, Reference: model.Float(20/ptt + 60), Weight: 1})
	}
	require.True(t, c.RefitFromHistory())
	a, b, _ := c.Coefficients()
	assert.InDelta(t, 20.05, a, 0.01)
	assert.InDelta(t, 59.82, b, 0.01)
}

func TestRefit_NeedsTwoPoints(t *testing.T) {
	c := newCalibrator(t, DefaultConfig())
	require.True(t, c.Initialize(120, 0.25))
	assert.False(t, c.RefitFromHistory())

	c.AddPoint(model.Float(0.25), model.Float(120), 1)
	a0, b0, _ := c.Coefficients()
	assert.False(t, c.RefitFromHistory())
	a1, b1, _ := c.Coefficients()
	assert.Equal(t, a0, a1)
	assert.Equal(t, b0, b1)
}

func TestRefit_ZeroWeightsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.L2 = 0
	c := newCalibrator(t, cfg)
	require.True(t, c.Initialize(120, 0.25))
	c.history.Push(Entry{InvPTT: 4, Reference: model.Float(120), Weight: 0})
	c.history.Push(Entry{InvPTT: 5, Reference: model.Float(130), Weight: 0})

	assert.False(t, c.RefitFromHistory())
	a, b, _ := c.Coefficients()
	assert.Equal(t, 10.0, a)
	assert.InDelta(t, 80.0, b, 1e-12)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []func(*Config){
		func(c *Config) { c.LearningRate = 0 },
		func(c *Config) { c.L2 = -1 },
		func(c *Config) { c.MaxHistory = 0 },
		func(c *Config) { c.SeedSlope = math.NaN() },
	}
	for i, mut := range bad {
		cfg := DefaultConfig()
		mut(&cfg)
		_, err := New(cfg)
		assert.True(t, errors.Is(err, common.ErrorInvalidConfig), "case %d", i)
	}
}

func TestRing_Order(t *testing.T) {
	r := newRing[int](3)
	assert.Empty(t, r.Slice())
	r.Push(1)
	r.Push(2)
	assert.Equal(t, []int{1, 2}, r.Slice())
	r.Push(3)
	r.Push(4)
	assert.Equal(t, []int{2, 3, 4}, r.Slice())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3, r.Cap())
}
