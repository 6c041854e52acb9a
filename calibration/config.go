package calibration

import (
	"fmt"
	"math"

	"github.com/uyouii/cuffless-bp/common"
)

const (
	// MinInitPTT is the smallest PTT accepted to seed the model, in seconds.
	MinInitPTT = 1e-6

	// singular values below rcond times the largest are treated as zero
	pinvRcond = 1e-15

	minRefitPoints = 2
)

type Config struct {
	LearningRate float64 `yaml:"learning_rate"`
	L2           float64 `yaml:"l2"`
	MaxHistory   int     `yaml:"max_history"`
	// slope used before any data constrains it, in mmHg*s
	SeedSlope float64 `yaml:"seed_slope"`
}

func DefaultConfig() Config {
	return Config{
		LearningRate: 0.01,
		L2:           1e-3,
		MaxHistory:   300,
		SeedSlope:    10.0,
	}
}

func (c Config) Validate() error {
	if !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0) {
		return fmt.Errorf("learning_rate %v: %w", c.LearningRate, common.ErrorInvalidConfig)
	}
	if !(c.L2 >= 0) || math.IsInf(c.L2, 0) {
		return fmt.Errorf("l2 %v: %w", c.L2, common.ErrorInvalidConfig)
	}
	if c.MaxHistory < 1 {
		return fmt.Errorf("max_history %v: %w", c.MaxHistory, common.ErrorInvalidConfig)
	}
	if math.IsNaN(c.SeedSlope) || math.IsInf(c.SeedSlope, 0) {
		return fmt.Errorf("seed_slope %v: %w", c.SeedSlope, common.ErrorInvalidConfig)
	}
	return nil
}
