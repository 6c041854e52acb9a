package drift

import (
	"math"

	"github.com/uyouii/cuffless-bp/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// BocdOnlineChecker is Bayesian online changepoint detection with a
// Gaussian likelihood of known variance and a Gaussian prior on each run's
// mean. Index i of means, invVariances and logRunProbs is run length i.
type BocdOnlineChecker struct {
	varX  float64 // known variance
	var0  float64 // prior variance of a run mean
	mean0 float64 // prior mean of a run

	logH   float64
	log1mH float64

	datas        []model.IndexValue
	means        []float64
	invVariances []float64 // 1 / Variance
	logRunProbs  []float64 // normalized log posterior over run length

	pMeans []float64 // prediction mean
	pVars  []float64 // prediction var
}

func NewBocdOnlineChecker(cfg Config, mean0 float64) *BocdOnlineChecker {
	return &BocdOnlineChecker{
		varX:   cfg.VarX,
		var0:   cfg.Var0,
		mean0:  mean0,
		logH:   math.Log(cfg.Hazard),
		log1mH: math.Log1p(-cfg.Hazard),

		datas:        []model.IndexValue{},
		means:        []float64{mean0},
		invVariances: []float64{1 / cfg.Var0},
		logRunProbs:  []float64{0},

		pMeans: []float64{},
		pVars:  []float64{},
	}
}

func (b *BocdOnlineChecker) AppendPoint(point model.IndexValue) {
	b.datas = append(b.datas, point)

	variances := b.calVariances()
	runProbs := ListExp(b.logRunProbs)

	// model predictions for this point before seeing it
	b.pMeans = append(b.pMeans, floats.Dot(runProbs, b.means))
	b.pVars = append(b.pVars, floats.Dot(runProbs, variances))

	logPreProbs := b.logOfPreProb(point.Value, variances)

	growth := make([]float64, len(logPreProbs))
	changePoint := make([]float64, len(logPreProbs))
	for i := range logPreProbs {
		joint := logPreProbs[i] + b.logRunProbs[i]
		growth[i] = joint + b.log1mH
		changePoint[i] = joint + b.logH
	}

	logRunProbs := append([]float64{floats.LogSumExp(changePoint)}, growth...)
	b.logRunProbs = NormalizeData(logRunProbs)

	b.updateGaussianParams(point.Value)
}

// RecentRunStart returns the position in Datas where the current run
// begins, when a run no longer than observe points holds at least
// threshold of the posterior.
func (b *BocdOnlineChecker) RecentRunStart(threshold float64, observe int) (int, bool) {
	t := len(b.datas)
	for j := 1; j < len(b.logRunProbs) && j <= observe; j++ {
		if math.Exp(b.logRunProbs[j]) < threshold {
			continue
		}
		loc := t - j
		if loc <= 0 {
			return 0, false
		}
		return loc, true
	}
	return 0, false
}

func (b *BocdOnlineChecker) updateGaussianParams(x float64) {
	newInvVariances := make([]float64, len(b.invVariances))
	newMeans := make([]float64, len(b.means)+1)
	newMeans[0] = b.mean0
	for i := range b.invVariances {
		newInvVariances[i] = b.invVariances[i] + 1/b.varX
		newMeans[i+1] = (b.means[i]*b.invVariances[i] + x/b.varX) / newInvVariances[i]
	}
	b.invVariances = append([]float64{1 / b.var0}, newInvVariances...)
	b.means = newMeans
}

// logOfPreProb is the log posterior predictive of x under every run length.
func (b *BocdOnlineChecker) logOfPreProb(x float64, variances []float64) []float64 {
	logProbs := make([]float64, len(b.means))
	for i := range b.means {
		normalDist := distuv.Normal{
			Mu:    b.means[i],
			Sigma: math.Sqrt(variances[i]),
		}
		logProbs[i] = normalDist.LogProb(x)
	}
	return logProbs
}

func (b *BocdOnlineChecker) calVariances() []float64 {
	res := make([]float64, len(b.invVariances))
	for i := range b.invVariances {
		res[i] = 1/b.invVariances[i] + b.varX
	}
	return res
}

func (b *BocdOnlineChecker) RunLengthProbs() []float64 {
	return ListExp(b.logRunProbs)
}

func (b *BocdOnlineChecker) GetPredictionMeans() []float64 {
	return b.pMeans
}

func (b *BocdOnlineChecker) GetPredictionVariances() []float64 {
	return b.pVars
}

func (b *BocdOnlineChecker) Datas() []model.IndexValue {
	return b.datas
}

func (b *BocdOnlineChecker) DataSize() int {
	return len(b.datas)
}
