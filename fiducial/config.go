package fiducial

import (
	"fmt"

	"github.com/uyouii/cuffless-bp/common"
)

type Config struct {
	// refractory period shared by R-peaks and feet, 0.3 s caps at 200 bpm
	MinRRSec float64 `yaml:"min_rr_sec"`
	// longest accepted R-peak to foot delay
	MaxDelaySec float64 `yaml:"max_delay_sec"`

	RPeakSmoothSec  float64 `yaml:"rpeak_smooth_sec"`
	RPeakPercentile float64 `yaml:"rpeak_percentile"`
	FootSmoothSec   float64 `yaml:"foot_smooth_sec"`
	FootPercentile  float64 `yaml:"foot_percentile"`
}

func DefaultConfig() Config {
	return Config{
		MinRRSec:        0.3,
		MaxDelaySec:     0.6,
		RPeakSmoothSec:  0.08,
		RPeakPercentile: 80,
		FootSmoothSec:   0.04,
		FootPercentile:  75,
	}
}

func (c Config) Validate() error {
	if c.MinRRSec < 0 {
		return fmt.Errorf("min_rr_sec %v: %w", c.MinRRSec, common.ErrorInvalidConfig)
	}
	if !(c.MaxDelaySec > 0) {
		return fmt.Errorf("max_delay_sec %v: %w", c.MaxDelaySec, common.ErrorInvalidConfig)
	}
	if c.RPeakSmoothSec < 0 || c.FootSmoothSec < 0 {
		return fmt.Errorf("smoothing windows %v, %v: %w", c.RPeakSmoothSec, c.FootSmoothSec, common.ErrorInvalidConfig)
	}
	for _, p := range []float64{c.RPeakPercentile, c.FootPercentile} {
		if p < 0 || p > 100 {
			return fmt.Errorf("percentile %v: %w", p, common.ErrorInvalidConfig)
		}
	}
	return nil
}
