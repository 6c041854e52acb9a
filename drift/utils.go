package drift

import (
	"math"

	"github.com/uyouii/cuffless-bp/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func NormalizeData(data []float64) []float64 {
	logSum := floats.LogSumExp(data)
	res := make([]float64, len(data))
	for i := range data {
		res[i] = data[i] - logSum
	}
	return res
}

func ListExp(data []float64) []float64 {
	res := make([]float64, len(data))
	for i, v := range data {
		res[i] = math.Exp(v)
	}
	return res
}

// RemoveOldChangePoints keeps the changepoints at or after index from.
func RemoveOldChangePoints(changePoints []*model.ChangePoint, from int64) []*model.ChangePoint {
	res := []*model.ChangePoint{}
	for _, changePoint := range changePoints {
		if changePoint.IndexValue.Index < from {
			continue
		}
		res = append(res, changePoint)
	}
	return res
}

func GetChangePointCountSince(from int64, changePoints []*model.ChangePoint) int {
	res := 0
	for _, changePoint := range changePoints {
		if changePoint.IndexValue.Index >= from {
			res += 1
		}
	}
	return res
}

func meanOf(datas []model.IndexValue) float64 {
	if len(datas) == 0 {
		return math.NaN()
	}
	values := make([]float64, len(datas))
	for i, d := range datas {
		values[i] = d.Value
	}
	return stat.Mean(values, nil)
}
