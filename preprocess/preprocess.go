package preprocess

import (
	"fmt"

	"github.com/uyouii/cuffless-bp/common"
	"github.com/uyouii/cuffless-bp/filter"
	"github.com/uyouii/cuffless-bp/utils"
	"gonum.org/v1/gonum/floats"
)

type Config struct {
	// QRS energy band
	ECGLowHz  float64 `yaml:"ecg_low_hz"`
	ECGHighHz float64 `yaml:"ecg_high_hz"`
	ECGOrder  int     `yaml:"ecg_order"`

	// baseline drift removal, then pulsatile band, then light smoothing
	PPGHighpassHz    float64 `yaml:"ppg_highpass_hz"`
	PPGHighpassOrder int     `yaml:"ppg_highpass_order"`
	PPGLowHz         float64 `yaml:"ppg_low_hz"`
	PPGHighHz        float64 `yaml:"ppg_high_hz"`
	PPGOrder         int     `yaml:"ppg_order"`
	PPGSmoothSec     float64 `yaml:"ppg_smooth_sec"`

	// 0 disables motion filtering
	MotionHighpassHz float64 `yaml:"motion_highpass_hz"`
	MotionOrder      int     `yaml:"motion_order"`
}

func DefaultConfig() Config {
	return Config{
		ECGLowHz:         5.0,
		ECGHighHz:        20.0,
		ECGOrder:         3,
		PPGHighpassHz:    0.05,
		PPGHighpassOrder: 2,
		PPGLowHz:         0.5,
		PPGHighHz:        8.0,
		PPGOrder:         3,
		PPGSmoothSec:     0.03,
		MotionHighpassHz: 0,
		MotionOrder:      2,
	}
}

// Preprocessor holds the filters designed for one set of sample rates.
type Preprocessor struct {
	ecgBand        *filter.Butterworth
	ppgHighpass    *filter.Butterworth
	ppgBand        *filter.Butterworth
	motionHighpass *filter.Butterworth
	ppgSmooth      int
}

func New(cfg Config, fsECG, fsPPG, fsMotion float64) (*Preprocessor, error) {
	ecgBand, err := filter.NewButterworth(filter.KindBandpass, fsECG, cfg.ECGOrder, cfg.ECGLowHz, cfg.ECGHighHz)
	if err != nil {
		return nil, fmt.Errorf("ecg bandpass: %w", err)
	}
	ppgHighpass, err := filter.NewButterworth(filter.KindHighpass, fsPPG, cfg.PPGHighpassOrder, cfg.PPGHighpassHz)
	if err != nil {
		return nil, fmt.Errorf("ppg highpass: %w", err)
	}
	ppgBand, err := filter.NewButterworth(filter.KindBandpass, fsPPG, cfg.PPGOrder, cfg.PPGLowHz, cfg.PPGHighHz)
	if err != nil {
		return nil, fmt.Errorf("ppg bandpass: %w", err)
	}
	if cfg.PPGSmoothSec < 0 {
		return nil, fmt.Errorf("ppg smoothing %v: %w", cfg.PPGSmoothSec, common.ErrorInvalidConfig)
	}

	p := &Preprocessor{
		ecgBand:     ecgBand,
		ppgHighpass: ppgHighpass,
		ppgBand:     ppgBand,
		ppgSmooth:   utils.IntMax(1, int(cfg.PPGSmoothSec*fsPPG)),
	}

	if cfg.MotionHighpassHz > 0 {
		p.motionHighpass, err = filter.NewButterworth(filter.KindHighpass, fsMotion, cfg.MotionOrder, cfg.MotionHighpassHz)
		if err != nil {
			return nil, fmt.Errorf("motion highpass: %w", err)
		}
	}
	return p, nil
}

// ECG emphasizes the QRS band.
func (p *Preprocessor) ECG(x []float64) []float64 {
	return p.ecgBand.FiltFilt(x)
}

// PPG removes baseline drift, keeps the pulsatile band and smooths lightly.
func (p *Preprocessor) PPG(x []float64) []float64 {
	res := p.ppgHighpass.FiltFilt(x)
	res = p.ppgBand.FiltFilt(res)
	return filter.MovingAverage(res, p.ppgSmooth)
}

// Motion removes gravity from every axis when a motion highpass is
// configured, otherwise it returns a copy of rows.
func (p *Preprocessor) Motion(rows [][]float64) [][]float64 {
	if p.motionHighpass != nil {
		return p.motionHighpass.FiltFiltChannels(rows)
	}
	res := make([][]float64, len(rows))
	for i, row := range rows {
		res[i] = append([]float64(nil), row...)
	}
	return res
}

// Normalize01 scales x to [0, 1]. A range below NormalizeEps gives zeros.
func Normalize01(x []float64) []float64 {
	res := make([]float64, len(x))
	if len(x) == 0 {
		return res
	}
	lower, upper := floats.Min(x), floats.Max(x)
	if !(upper-lower >= NormalizeEps) {
		return res
	}
	for i, v := range x {
		res[i] = (v - lower) / (upper - lower)
	}
	return res
}

// ClipIQR limits x to [q25 - q*IQR, q75 + q*IQR].
func ClipIQR(x []float64, q float64) []float64 {
	res := make([]float64, len(x))
	if len(x) == 0 {
		return res
	}
	q25, q75 := utils.Percentile(x, 25), utils.Percentile(x, 75)
	iqr := q75 - q25
	lower, upper := q25-q*iqr, q75+q*iqr
	for i, v := range x {
		res[i] = utils.Clamp(v, lower, upper)
	}
	return res
}
