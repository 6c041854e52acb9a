package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/uyouii/cuffless-bp/calibration"
	"github.com/uyouii/cuffless-bp/common"
	"github.com/uyouii/cuffless-bp/drift"
	"github.com/uyouii/cuffless-bp/fiducial"
	"github.com/uyouii/cuffless-bp/kalman"
	"github.com/uyouii/cuffless-bp/preprocess"
	"github.com/uyouii/cuffless-bp/sqi"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "BP"

type Config struct {
	FsECG     float64 `yaml:"fs_ecg"`
	FsPPG     float64 `yaml:"fs_ppg"`
	FsMotion  float64 `yaml:"fs_motion"`
	WindowSec float64 `yaml:"window_sec"`

	// optional starting calibration, all three or none
	InitSBP *float64 `yaml:"init_sbp"`
	InitDBP *float64 `yaml:"init_dbp"`
	InitPTT *float64 `yaml:"init_ptt"`

	Preprocess  preprocess.Config  `yaml:"preprocess"`
	Fiducial    fiducial.Config    `yaml:"fiducial"`
	SQI         sqi.Config         `yaml:"sqi"`
	Calibration calibration.Config `yaml:"calibration"`
	Kalman      kalman.Config      `yaml:"kalman"`
	Drift       drift.Config       `yaml:"drift"`

	Log  LogConfig  `yaml:"log"`
	NATS NATSConfig `yaml:"nats"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Service string `yaml:"service"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
	// windows arrive here
	WindowSubject string `yaml:"window_subject"`
	// results go to ResultPrefix + "." + subject id
	ResultPrefix string `yaml:"result_prefix"`
	// per-subject queue length inside the worker
	QueueSize int `yaml:"queue_size"`
}

func Default() *Config {
	return &Config{
		FsECG:       128,
		FsPPG:       128,
		FsMotion:    32,
		WindowSec:   10,
		Preprocess:  preprocess.DefaultConfig(),
		Fiducial:    fiducial.DefaultConfig(),
		SQI:         sqi.DefaultConfig(),
		Calibration: calibration.DefaultConfig(),
		Kalman:      kalman.DefaultConfig(),
		Drift:       drift.DefaultConfig(),
		Log: LogConfig{
			Level:   "info",
			Format:  "json",
			Service: "cuffless-bp",
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			WindowSubject: "bp.window",
			ResultPrefix:  "bp.result",
			QueueSize:     16,
		},
	}
}

// Load reads path over the defaults, applies BP_* environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %v: %w", path, err)
		}
	}
	if err := cfg.LoadFromEnv(EnvPrefix); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv overrides the most commonly deployed settings from
// environment variables named prefix + "_" + key.
func (c *Config) LoadFromEnv(prefix string) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"FS_ECG", &c.FsECG},
		{"FS_PPG", &c.FsPPG},
		{"FS_MOTION", &c.FsMotion},
		{"WINDOW_SEC", &c.WindowSec},
	}
	for _, f := range floats {
		if v := os.Getenv(prefix + "_" + f.key); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%v_%v=%q: %w", prefix, f.key, v, common.ErrorInvalidConfig)
			}
			*f.dst = parsed
		}
	}

	optionals := []struct {
		key string
		dst **float64
	}{
		{"INIT_SBP", &c.InitSBP},
		{"INIT_DBP", &c.InitDBP},
		{"INIT_PTT", &c.InitPTT},
	}
	for _, f := range optionals {
		if v := os.Getenv(prefix + "_" + f.key); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%v_%v=%q: %w", prefix, f.key, v, common.ErrorInvalidConfig)
			}
			*f.dst = &parsed
		}
	}

	if level := os.Getenv(prefix + "_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv(prefix + "_LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
	if url := os.Getenv(prefix + "_NATS_URL"); url != "" {
		c.NATS.URL = url
	}
	if subject := os.Getenv(prefix + "_NATS_WINDOW_SUBJECT"); subject != "" {
		c.NATS.WindowSubject = subject
	}
	return nil
}

func (c *Config) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{{"fs_ecg", c.FsECG}, {"fs_ppg", c.FsPPG}, {"fs_motion", c.FsMotion}, {"window_sec", c.WindowSec}} {
		if !(v.val > 0) || math.IsInf(v.val, 0) {
			return fmt.Errorf("%v %v: %w", v.name, v.val, common.ErrorInvalidConfig)
		}
	}

	set := 0
	for _, p := range []*float64{c.InitSBP, c.InitDBP, c.InitPTT} {
		if p != nil {
			set++
		}
	}
	if set != 0 && set != 3 {
		return fmt.Errorf("init_sbp, init_dbp and init_ptt must be given together: %w", common.ErrorInvalidConfig)
	}
	if c.InitPTT != nil && !(*c.InitPTT > calibration.MinInitPTT) {
		return fmt.Errorf("init_ptt %v: %w", *c.InitPTT, common.ErrorInvalidConfig)
	}

	if err := c.Fiducial.Validate(); err != nil {
		return err
	}
	if err := c.SQI.Validate(); err != nil {
		return err
	}
	if err := c.Calibration.Validate(); err != nil {
		return err
	}
	if err := c.Kalman.Validate(); err != nil {
		return err
	}
	if c.Drift.Enabled {
		if err := c.Drift.Validate(); err != nil {
			return err
		}
	}
	if c.NATS.QueueSize < 1 {
		return fmt.Errorf("nats queue_size %v: %w", c.NATS.QueueSize, common.ErrorInvalidConfig)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level %q: %w", c.Log.Level, common.ErrorInvalidConfig)
	}
	return nil
}

// InitialCalibration returns the configured starting point, if any.
func (c *Config) InitialCalibration() (sbp, dbp, ptt float64, ok bool) {
	if c.InitSBP == nil || c.InitDBP == nil || c.InitPTT == nil {
		return 0, 0, 0, false
	}
	return *c.InitSBP, *c.InitDBP, *c.InitPTT, true
}
