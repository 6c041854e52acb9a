package drift

import (
	"fmt"

	"github.com/uyouii/cuffless-bp/common"
)

type Config struct {
	Enabled bool `yaml:"enabled"`
	// prior probability of a changepoint at every window
	Hazard float64 `yaml:"hazard"`
	// run-length posterior mass needed to report a changepoint
	Threshold float64 `yaml:"threshold"`
	// only runs younger than this many windows are reported
	ObserveWindows int `yaml:"observe_windows"`
	// observation noise of the PTT median, s²
	VarX float64 `yaml:"var_x"`
	// prior variance of a run mean, s²
	Var0 float64 `yaml:"var_0"`

	MaxHistory     int `yaml:"max_history"`
	ReserveHistory int `yaml:"reserve_history"`

	// more than BurstLimit changepoints within BurstWindows are treated
	// as noise and not reported, 0 disables. Reported changepoints are at
	// least ObserveWindows apart, so BurstLimit*ObserveWindows must stay
	// below BurstWindows.
	BurstWindows int `yaml:"burst_windows"`
	BurstLimit   int `yaml:"burst_limit"`

	// windows scoring below this SQI are not fed to the monitor
	MinSQI float64 `yaml:"min_sqi"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Hazard:         1 / 200.0,
		Threshold:      0.75,
		ObserveWindows: 10,
		VarX:           1e-4,
		Var0:           1e-3,
		MaxHistory:     360,
		ReserveHistory: 180,
		BurstWindows:   60,
		BurstLimit:     3,
		MinSQI:         0.2,
	}
}

func (c Config) Validate() error {
	if !(c.Hazard > 0 && c.Hazard < 1) {
		return fmt.Errorf("drift hazard %v: %w", c.Hazard, common.ErrorInvalidConfig)
	}
	if !(c.Threshold > 0 && c.Threshold <= 1) {
		return fmt.Errorf("drift threshold %v: %w", c.Threshold, common.ErrorInvalidConfig)
	}
	if !(c.VarX > 0) || !(c.Var0 > 0) {
		return fmt.Errorf("drift variances %v, %v: %w", c.VarX, c.Var0, common.ErrorInvalidConfig)
	}
	if c.ObserveWindows < 1 || c.ReserveHistory <= c.ObserveWindows || c.MaxHistory <= c.ReserveHistory {
		return fmt.Errorf("drift windows observe=%v reserve=%v max=%v: %w",
			c.ObserveWindows, c.ReserveHistory, c.MaxHistory, common.ErrorInvalidConfig)
	}
	if c.MinSQI < 0 || c.MinSQI > 1 {
		return fmt.Errorf("drift min_sqi %v: %w", c.MinSQI, common.ErrorInvalidConfig)
	}
	if c.BurstWindows < 0 || c.BurstLimit < 0 {
		return fmt.Errorf("drift burst %v/%v: %w", c.BurstLimit, c.BurstWindows, common.ErrorInvalidConfig)
	}
	if c.BurstLimit > 0 && c.BurstLimit*c.ObserveWindows >= c.BurstWindows {
		return fmt.Errorf("drift burst limit %v never reached in %v windows: %w",
			c.BurstLimit, c.BurstWindows, common.ErrorInvalidConfig)
	}
	return nil
}
