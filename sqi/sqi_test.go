package sqi

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cuffless-bp/common"
)

func newScorer(t *testing.T) *Scorer {
	s, err := NewScorer(DefaultConfig())
	require.NoError(t, err)
	return s
}

func TestScore_EmptyIsZero(t *testing.T) {
	s := newScorer(t)
	assert.Equal(t, 0.0, s.Score(nil, nil))
	assert.Equal(t, 0.0, s.Score([]float64{}, [][]float64{{1, 1, 1}}))
	assert.Equal(t, 0.0, s.Score([]float64{math.NaN(), math.Inf(1)}, nil))
}

func TestScore_ConstantInRange(t *testing.T) {
	s := newScorer(t)
	assert.InDelta(t, 1.0, s.Score([]float64{0.25, 0.25, 0.25}, nil), 1e-12)
	// non-finite values are ignored
	assert.InDelta(t, 1.0, s.Score([]float64{0.25, math.NaN(), 0.25}, nil), 1e-12)
}

func TestScore_SmallerIQRScoresHigher(t *testing.T) {
	s := newScorer(t)
	tight := s.Score([]float64{0.20, 0.21, 0.22, 0.23}, nil)
	wide := s.Score([]float64{0.15, 0.20, 0.25, 0.30}, nil)
	assert.Greater(t, tight, wide)
	assert.Greater(t, wide, 0.0)
}

func TestScore_OutOfRangeLowersScore(t *testing.T) {
	s := newScorer(t)
	all := s.Score([]float64{0.2, 0.2, 0.2, 0.2}, nil)
	half := s.Score([]float64{0.2, 0.2, 0.5, 0.5}, [][]float64{})
	assert.InDelta(t, 1.0, all, 1e-12)
	assert.Less(t, half, all)

	// bounds are exclusive
	assert.Equal(t, 0.0, s.Score([]float64{0.05, 0.4}, nil))
}

func TestScore_MotionPenalty(t *testing.T) {
	s := newScorer(t)
	ptts := []float64{0.25, 0.25}

	still := s.Score(ptts, [][]float64{{0, 0, 0}, {0, 0, 0}})
	assert.InDelta(t, 1.0, still, 1e-12)

	moving := s.Score(ptts, [][]float64{{0.02, 0, 0}, {0, -0.02, 0}, {0, 0, 0.02}})
	assert.InDelta(t, 1/(1+5*0.02), moving, 1e-12)

	single := s.Score(ptts, [][]float64{{-0.3}, {0.3}, {0.1}})
	assert.InDelta(t, 1/(1+5*0.3), single, 1e-12)
}

func TestActivityLevel(t *testing.T) {
	_, ok := ActivityLevel(nil)
	assert.False(t, ok)

	act, ok := ActivityLevel([][]float64{{3, 4, 0}, {0, 0, 1}, {6, 8, 0}})
	require.True(t, ok)
	assert.InDelta(t, 5.0, act, 1e-12)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PTTMin, cfg.PTTMax = 0.4, 0.05
	_, err := NewScorer(cfg)
	assert.True(t, errors.Is(err, common.ErrorInvalidConfig))

	cfg = DefaultConfig()
	cfg.IQRScale = 0
	_, err = NewScorer(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.MotionPenalty = -1
	_, err = NewScorer(cfg)
	assert.Error(t, err)
}
