package sqi

import (
	"fmt"
	"math"

	"github.com/uyouii/cuffless-bp/common"
	"github.com/uyouii/cuffless-bp/utils"
	"gonum.org/v1/gonum/floats"
)

type Config struct {
	// plausible PTT band in seconds, both bounds exclusive
	PTTMin float64 `yaml:"ptt_min"`
	PTTMax float64 `yaml:"ptt_max"`
	// IQR in seconds at which the dispersion factor drops to 1/e
	IQRScale float64 `yaml:"iqr_scale"`
	// penalty per unit of median motion magnitude
	MotionPenalty float64 `yaml:"motion_penalty"`
}

func DefaultConfig() Config {
	return Config{
		PTTMin:        0.05,
		PTTMax:        0.4,
		IQRScale:      0.03,
		MotionPenalty: 5.0,
	}
}

func (c Config) Validate() error {
	if !(c.PTTMin < c.PTTMax) {
		return fmt.Errorf("ptt band (%v, %v): %w", c.PTTMin, c.PTTMax, common.ErrorInvalidConfig)
	}
	if !(c.IQRScale > 0) {
		return fmt.Errorf("iqr_scale %v: %w", c.IQRScale, common.ErrorInvalidConfig)
	}
	if c.MotionPenalty < 0 {
		return fmt.Errorf("motion_penalty %v: %w", c.MotionPenalty, common.ErrorInvalidConfig)
	}
	return nil
}

type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Score maps the PTTs of one window, and optionally its motion samples, to
// a quality in [0, 1]. Wider dispersion, more implausible values and more
// motion all lower the score. No finite PTT gives 0.
func (s *Scorer) Score(ptts []float64, motion [][]float64) float64 {
	values := utils.FiniteValues(ptts)
	if len(values) == 0 {
		return 0
	}

	inRange := 0
	for _, v := range values {
		if v > s.cfg.PTTMin && v < s.cfg.PTTMax {
			inRange++
		}
	}
	fraction := float64(inRange) / float64(len(values))
	score := math.Exp(-utils.IQR(values)/s.cfg.IQRScale) * fraction

	if act, ok := ActivityLevel(motion); ok {
		score *= 1 / (1 + s.cfg.MotionPenalty*act)
	}
	return utils.Clamp(score, 0, 1)
}

// ActivityLevel is the median Euclidean norm of the motion rows.
// ok is false when there is no motion data.
func ActivityLevel(motion [][]float64) (float64, bool) {
	if len(motion) == 0 {
		return 0, false
	}
	magnitudes := make([]float64, len(motion))
	for i, row := range motion {
		magnitudes[i] = math.Abs(floats.Norm(row, 2))
	}
	return utils.Median(magnitudes)
}
