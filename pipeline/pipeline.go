package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/uyouii/cuffless-bp/calibration"
	"github.com/uyouii/cuffless-bp/common"
	"github.com/uyouii/cuffless-bp/config"
	"github.com/uyouii/cuffless-bp/drift"
	"github.com/uyouii/cuffless-bp/fiducial"
	"github.com/uyouii/cuffless-bp/kalman"
	"github.com/uyouii/cuffless-bp/model"
	"github.com/uyouii/cuffless-bp/preprocess"
	"github.com/uyouii/cuffless-bp/sqi"
	"github.com/uyouii/cuffless-bp/utils"
	"go.uber.org/zap"
)

const (
	// ECG and PPG durations may differ by this much before a warning
	durationToleranceSec = 0.1

	supervisedWeight = 1.0
)

// Inference turns windows of one subject into blood pressure estimates.
// It owns the subject's calibration and smoothing state and is not safe
// for concurrent use.
type Inference struct {
	cfg *config.Config

	pre      *preprocess.Preprocessor
	detector *fiducial.Detector
	scorer   *sqi.Scorer

	calSBP *calibration.AdaptiveCalibrator
	calDBP *calibration.AdaptiveCalibrator
	kfSBP  *kalman.Filter1D
	kfDBP  *kalman.Filter1D

	// nil when disabled
	monitor *drift.Monitor
}

func New(cfg *config.Config) (*Inference, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pre, err := preprocess.New(cfg.Preprocess, cfg.FsECG, cfg.FsPPG, cfg.FsMotion)
	if err != nil {
		return nil, err
	}
	detector, err := fiducial.NewDetector(cfg.Fiducial)
	if err != nil {
		return nil, err
	}
	scorer, err := sqi.NewScorer(cfg.SQI)
	if err != nil {
		return nil, err
	}

	p := &Inference{
		cfg:      cfg,
		pre:      pre,
		detector: detector,
		scorer:   scorer,
	}
	if p.calSBP, err = calibration.New(cfg.Calibration); err != nil {
		return nil, err
	}
	if p.calDBP, err = calibration.New(cfg.Calibration); err != nil {
		return nil, err
	}

	x0SBP, x0DBP := model.Null(), model.Null()
	if sbp, dbp, ptt, ok := cfg.InitialCalibration(); ok {
		if !p.calSBP.Initialize(sbp, ptt) || !p.calDBP.Initialize(dbp, ptt) {
			return nil, fmt.Errorf("initial calibration sbp=%v dbp=%v ptt=%v: %w",
				sbp, dbp, ptt, common.ErrorInvalidConfig)
		}
		x0SBP, x0DBP = model.Float(sbp), model.Float(dbp)
	}
	if p.kfSBP, err = kalman.New(cfg.Kalman, x0SBP); err != nil {
		return nil, err
	}
	if p.kfDBP, err = kalman.New(cfg.Kalman, x0DBP); err != nil {
		return nil, err
	}

	if cfg.Drift.Enabled {
		if p.monitor, err = drift.NewMonitor(cfg.Drift); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ProcessWindow runs one window through preprocessing, fiducial detection,
// PTT pairing, quality scoring, calibration and smoothing. Missing data
// shows up as absent values in the result, never as an error.
func (p *Inference) ProcessWindow(ctx context.Context, w *model.Window) *model.WindowResult {
	begin := time.Now()
	logger := utils.GetLogger(ctx)
	p.checkDurations(logger, w)

	ecg := p.pre.ECG(w.ECG)
	ppg := preprocess.Normalize01(p.pre.PPG(w.PPG))
	var motion [][]float64
	if len(w.Motion) > 0 {
		motion = p.pre.Motion(w.Motion)
	}

	rpeaks := p.detector.RPeaks(ecg, p.cfg.FsECG)
	feet := p.detector.Feet(ppg, p.cfg.FsPPG)
	ptts := p.detector.PTT(rpeaks, feet, p.cfg.FsECG, p.cfg.FsPPG)

	res := &model.WindowResult{
		Seq:       w.Seq,
		PTTAll:    ptts,
		NumRPeaks: len(rpeaks),
		NumFeet:   len(feet),
	}
	if median, ok := utils.Median(utils.FiniteValues(ptts)); ok {
		res.PTTMedian = model.Float(median)
	}
	res.SQI = p.scorer.Score(ptts, motion)

	refSBP, refDBP := model.Null(), model.Null()
	if w.Reference != nil {
		refSBP, refDBP = model.Float(w.Reference.SBP), model.Float(w.Reference.DBP)
	}

	// calibrate, refit, predict, smooth: each step must see the previous one
	p.calSBP.AddPoint(res.PTTMedian, refSBP, supervisedWeight)
	p.calDBP.AddPoint(res.PTTMedian, refDBP, supervisedWeight)
	if w.Reference != nil {
		p.refit(logger, "sbp", p.calSBP)
		p.refit(logger, "dbp", p.calDBP)
	}

	res.SBPRaw = p.calSBP.Predict(res.PTTMedian)
	res.DBPRaw = p.calDBP.Predict(res.PTTMedian)
	res.SBP = p.kfSBP.Update(res.SBPRaw)
	res.DBP = p.kfDBP.Update(res.DBPRaw)
	if res.SBP.Valid && res.DBP.Valid {
		res.MAP = model.Float(res.SBP.Float64/3 + 2*res.DBP.Float64/3)
	}

	if p.monitor != nil && res.SQI >= p.cfg.Drift.MinSQI {
		if changePoint, found := p.monitor.Append(ctx, res.PTTMedian); found {
			res.ChangePoint = changePoint
			res.RecalibrationSuggested = true
			logger.Info("ptt shift detected, recalibration suggested",
				zap.Int64("seq", w.Seq), zap.Any("changePoint", changePoint))
		}
	}

	res.Elapsed = time.Since(begin)
	logger.Debug("window processed",
		zap.Int64("seq", w.Seq),
		zap.Int("n_r", res.NumRPeaks),
		zap.Int("n_foot", res.NumFeet),
		zap.Stringer("ptt_median", res.PTTMedian),
		zap.Float64("sqi", utils.FormatFloat(res.SQI, 3)),
		zap.Stringer("sbp", res.SBP),
		zap.Stringer("dbp", res.DBP),
		zap.Bool("reference", w.Reference != nil),
		zap.Duration("elapsed", res.Elapsed))
	return res
}

func (p *Inference) refit(logger *zap.Logger, channel string, cal *calibration.AdaptiveCalibrator) {
	if cal.RefitFromHistory() {
		return
	}
	logger.Debug("refit skipped, not enough supervised points",
		zap.String("channel", channel), zap.Int("supervised", cal.SupervisedCount()))
}

func (p *Inference) checkDurations(logger *zap.Logger, w *model.Window) {
	ecgSec := float64(len(w.ECG)) / p.cfg.FsECG
	ppgSec := float64(len(w.PPG)) / p.cfg.FsPPG
	if math.Abs(ecgSec-ppgSec) > durationToleranceSec {
		logger.Warn("ecg and ppg durations differ",
			zap.Int64("seq", w.Seq), zap.Float64("ecg_sec", ecgSec), zap.Float64("ppg_sec", ppgSec))
	}
	if math.Abs(ecgSec-p.cfg.WindowSec) > durationToleranceSec {
		logger.Debug("window duration differs from configured",
			zap.Int64("seq", w.Seq), zap.Float64("ecg_sec", ecgSec), zap.Float64("window_sec", p.cfg.WindowSec))
	}
}

// Calibrators exposes the per-channel calibrators, SBP first.
func (p *Inference) Calibrators() (*calibration.AdaptiveCalibrator, *calibration.AdaptiveCalibrator) {
	return p.calSBP, p.calDBP
}

// Smoothed returns the current smoothed SBP and DBP.
func (p *Inference) Smoothed() (model.NullFloat, model.NullFloat) {
	return p.kfSBP.State(), p.kfDBP.State()
}

func (p *Inference) Monitor() *drift.Monitor {
	return p.monitor
}
