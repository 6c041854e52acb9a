package calibration

import (
	"github.com/uyouii/cuffless-bp/model"
	"github.com/uyouii/cuffless-bp/utils"
	"gonum.org/v1/gonum/mat"
)

// Entry is one history point. Reference is absent for windows without a
// cuff reading.
type Entry struct {
	InvPTT    float64         `json:"inv_ptt"`
	Reference model.NullFloat `json:"reference"`
	Weight    float64         `json:"weight"`
}

// AdaptiveCalibrator maps PTT to blood pressure for one channel (SBP or
// DBP) with BP = a/PTT + b. It is not safe for concurrent use.
type AdaptiveCalibrator struct {
	cfg Config

	a, b        float64
	initialized bool

	history *ring[Entry]
}

func New(cfg Config) (*AdaptiveCalibrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &AdaptiveCalibrator{
		cfg:     cfg,
		history: newRing[Entry](cfg.MaxHistory),
	}, nil
}

// Initialize seeds the model from one reference reading so that it
// reproduces bp at ptt exactly. It reports whether the pair was usable.
func (c *AdaptiveCalibrator) Initialize(bp, ptt float64) bool {
	if !utils.IsFinite(bp) || !utils.IsFinite(ptt) || ptt <= MinInitPTT {
		return false
	}
	c.a = c.cfg.SeedSlope
	c.b = bp - c.a/ptt
	c.initialized = true
	return true
}

// AddPoint records a window's PTT and, when a reference is given, takes
// one L2-regularized gradient step toward it. Absent or non-positive PTTs
// are ignored.
func (c *AdaptiveCalibrator) AddPoint(ptt model.NullFloat, reference model.NullFloat, weight float64) {
	if !ptt.Valid || ptt.Float64 <= 0 {
		return
	}
	inv := 1 / ptt.Float64
	c.history.Push(Entry{InvPTT: inv, Reference: reference, Weight: weight})

	if reference.Valid {
		c.sgdStep(inv, reference.Float64, weight)
	}
}

func (c *AdaptiveCalibrator) sgdStep(inv, bp, w float64) {
	if !c.initialized {
		c.a, c.b = c.cfg.SeedSlope, bp-c.cfg.SeedSlope*inv
		c.initialized = true
	}
	lr, lam := c.cfg.LearningRate, c.cfg.L2
	err := c.a*inv + c.b - bp
	a := c.a - lr*(w*err*inv+lam*c.a)
	b := c.b - lr*(w*err+lam*c.b)
	c.a, c.b = a, b
}

// RefitFromHistory solves the ridge-regularized weighted least squares
// problem over every supervised history entry:
//
//	beta = pinv(XᵀWX + λI) XᵀWy,  rows of X are [1/PTT, 1]
//
// It needs at least two supervised entries and reports whether the
// coefficients were replaced.
func (c *AdaptiveCalibrator) RefitFromHistory() bool {
	var xs, ys, ws []float64
	for _, e := range c.history.Slice() {
		if !e.Reference.Valid {
			continue
		}
		xs = append(xs, e.InvPTT, 1)
		ys = append(ys, e.Reference.Float64)
		ws = append(ws, e.Weight)
	}
	n := len(ys)
	if n < minRefitPoints {
		return false
	}

	x := mat.NewDense(n, 2, xs)
	y := mat.NewVecDense(n, ys)
	w := mat.NewDiagDense(n, ws)

	var xtw mat.Dense
	xtw.Mul(x.T(), w)

	var normal mat.Dense
	normal.Mul(&xtw, x)
	for i := 0; i < 2; i++ {
		normal.Set(i, i, normal.At(i, i)+c.cfg.L2)
	}

	var rhs mat.VecDense
	rhs.MulVec(&xtw, y)

	var svd mat.SVD
	if !svd.Factorize(&normal, mat.SVDFull) {
		return false
	}
	values := svd.Values(nil)
	rank := 0
	for _, v := range values {
		if v > pinvRcond*values[0] {
			rank++
		}
	}
	if rank == 0 {
		return false
	}

	var beta mat.VecDense
	svd.SolveVecTo(&beta, &rhs, rank)

	a, b := beta.AtVec(0), beta.AtVec(1)
	if !utils.IsFinite(a) || !utils.IsFinite(b) {
		return false
	}
	c.a, c.b = a, b
	c.initialized = true
	return true
}

// Predict returns a/ptt + b, or an absent value when ptt is not a positive
// number or the model has not been initialized.
func (c *AdaptiveCalibrator) Predict(ptt model.NullFloat) model.NullFloat {
	if !ptt.Valid || ptt.Float64 <= 0 || !c.initialized {
		return model.Null()
	}
	return model.Float(c.a/ptt.Float64 + c.b)
}

func (c *AdaptiveCalibrator) Coefficients() (float64, float64, bool) {
	return c.a, c.b, c.initialized
}

func (c *AdaptiveCalibrator) Initialized() bool {
	return c.initialized
}

// History returns the retained entries, oldest first.
func (c *AdaptiveCalibrator) History() []Entry {
	return c.history.Slice()
}

func (c *AdaptiveCalibrator) HistoryLen() int {
	return c.history.Len()
}

func (c *AdaptiveCalibrator) SupervisedCount() int {
	cnt := 0
	for _, e := range c.history.Slice() {
		if e.Reference.Valid {
			cnt++
		}
	}
	return cnt
}
