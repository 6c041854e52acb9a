package kalman

import (
	"fmt"
	"math"

	"github.com/uyouii/cuffless-bp/common"
	"github.com/uyouii/cuffless-bp/model"
)

type Config struct {
	// initial state variance
	P0 float64 `yaml:"p0"`
	// process noise added per update
	Q float64 `yaml:"q"`
	// measurement noise
	R float64 `yaml:"r"`
}

func DefaultConfig() Config {
	return Config{P0: 100, Q: 2, R: 9}
}

func (c Config) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{{"p0", c.P0}, {"q", c.Q}, {"r", c.R}} {
		if !(v.val >= 0) || math.IsInf(v.val, 0) {
			return fmt.Errorf("kalman %v %v: %w", v.name, v.val, common.ErrorInvalidConfig)
		}
	}
	// P reaches 0 after a gain step with R = 0; P + R must stay positive
	if c.Q == 0 && c.R == 0 {
		return fmt.Errorf("kalman q and r both zero: %w", common.ErrorInvalidConfig)
	}
	return nil
}

// Filter1D is a random-walk Kalman filter over one scalar. The state may
// start absent; the first observation then becomes the state unchanged.
type Filter1D struct {
	x model.NullFloat
	p float64
	q float64
	r float64
}

func New(cfg Config, x0 model.NullFloat) (*Filter1D, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Filter1D{x: x0, p: cfg.P0, q: cfg.Q, r: cfg.R}, nil
}

// Update runs the predict step, folds in z when present and returns the
// estimate. An absent z only grows the variance. The first observation of
// an undefined state becomes the state without a gain step.
func (f *Filter1D) Update(z model.NullFloat) model.NullFloat {
	f.p += f.q
	if !z.Valid {
		return f.x
	}
	if !f.x.Valid {
		f.x = z
		return f.x
	}
	k := f.p / (f.p + f.r)
	f.x = model.Float(f.x.Float64 + k*(z.Float64-f.x.Float64))
	f.p *= 1 - k
	return f.x
}

func (f *Filter1D) State() model.NullFloat {
	return f.x
}

func (f *Filter1D) Variance() float64 {
	return f.p
}
