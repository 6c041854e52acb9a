package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// NullFloat is a float64 that may be absent. Non-finite numbers are never
// valid, so a valid NullFloat always holds a finite value.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

func Float(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

func Null() NullFloat {
	return NullFloat{}
}

func (f NullFloat) Get() (float64, bool) {
	return f.Float64, f.Valid
}

func (f NullFloat) String() string {
	if !f.Valid {
		return "null"
	}
	return fmt.Sprintf("%v", f.Float64)
}

func (f NullFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Float64)
}

func (f *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Reference is a cuff reading that coincides with a window, in mmHg.
type Reference struct {
	SBP float64 `json:"sbp"`
	DBP float64 `json:"dbp"`
}

// Window holds one fixed-duration chunk of synchronized samples.
// Motion has one row per sample and one column per axis.
type Window struct {
	Seq       int64       `json:"seq,omitempty"`
	ECG       []float64   `json:"ecg"`
	PPG       []float64   `json:"ppg"`
	Motion    [][]float64 `json:"motion,omitempty"`
	Reference *Reference  `json:"reference,omitempty"`
}

func (w *Window) DebugString() string {
	res := fmt.Sprintf("seq: %v, ecg: %v, ppg: %v, motion: %v, reference: %v",
		w.Seq, len(w.ECG), len(w.PPG), len(w.Motion), w.Reference != nil)
	return res
}

type WindowResult struct {
	SubjectID string `json:"subject_id,omitempty"`
	Seq       int64  `json:"seq"`

	PTTMedian NullFloat `json:"ptt_median"`
	PTTAll    []float64 `json:"ptt_all"`
	SQI       float64   `json:"sqi"`

	SBPRaw NullFloat `json:"sbp_raw"`
	DBPRaw NullFloat `json:"dbp_raw"`
	SBP    NullFloat `json:"sbp"`
	DBP    NullFloat `json:"dbp"`
	MAP    NullFloat `json:"map"`

	NumRPeaks int `json:"n_r"`
	NumFeet   int `json:"n_foot"`

	RecalibrationSuggested bool         `json:"recalibration_suggested,omitempty"`
	ChangePoint            *ChangePoint `json:"change_point,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns,omitempty"`
}
