package model

type ChangePointType int

const (
	IncreaseChangePoint ChangePointType = 1
	DecreaseChangePoint ChangePointType = 2
)

type ChangePoint struct {
	ChangePointType ChangePointType `json:"type"`
	IndexValue      IndexValue      `json:"point"`
}

// IndexValue is one observation of a sequence sampled once per window.
type IndexValue struct {
	Index int64   `json:"i"`
	Value float64 `json:"v"`
}
