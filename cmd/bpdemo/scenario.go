package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/uyouii/cuffless-bp/config"
	"github.com/uyouii/cuffless-bp/model"
	"github.com/uyouii/cuffless-bp/pipeline"
	"github.com/uyouii/cuffless-bp/synth"
)

const scenarioWindowSec = 20

type segment struct {
	name    string
	hr      float64
	basePTT float64
	seed    int64
	ref     *model.Reference
}

var segments = []segment{
	{name: "baseline", hr: 72, basePTT: 0.27, seed: 1, ref: &model.Reference{SBP: 120, DBP: 78}},
	{name: "mild up", hr: 78, basePTT: 0.24, seed: 2},
	{name: "higher + cuff", hr: 82, basePTT: 0.21, seed: 3, ref: &model.Reference{SBP: 135, DBP: 82}},
}

// runScenario starts from a cuff reading of 120/78 mmHg at PTT 0.25 s
// unless cfg already carries an initial calibration.
func runScenario(ctx context.Context, cfg *config.Config, seed int64, asJSON bool, out io.Writer) ([]*model.WindowResult, error) {
	cfg.WindowSec = scenarioWindowSec
	if _, _, _, ok := cfg.InitialCalibration(); !ok {
		sbp, dbp, ptt := 120.0, 78.0, 0.25
		cfg.InitSBP, cfg.InitDBP, cfg.InitPTT = &sbp, &dbp, &ptt
	}
	inference, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}

	results := make([]*model.WindowResult, 0, len(segments))
	for i, s := range segments {
		params := synth.DefaultParams()
		params.FsECG, params.FsPPG, params.FsMotion = cfg.FsECG, cfg.FsPPG, cfg.FsMotion
		params.WindowSec = scenarioWindowSec
		params.HeartRateBPM = s.hr
		params.BasePTT = s.basePTT
		params.Seed = s.seed + seed

		res := inference.ProcessWindow(ctx, synth.Generate(params).Window(int64(i+1), s.ref))
		results = append(results, res)

		if asJSON {
			data, err := json.Marshal(res)
			if err != nil {
				return nil, err
			}
			fmt.Fprintln(out, string(data))
			continue
		}
		fmt.Fprintf(out, "=== Segment %d (%s) ===\n", i+1, s.name)
		fmt.Fprintf(out, "PTT_med=%ss | SQI=%.2f | SBP=%s (%s) | DBP=%s (%s) | MAP=%s\n",
			format(res.PTTMedian, "%.3f"), res.SQI,
			format(res.SBP, "%.1f"), format(res.SBPRaw, "%.1f"),
			format(res.DBP, "%.1f"), format(res.DBPRaw, "%.1f"),
			format(res.MAP, "%.1f"))
	}
	return results, nil
}

func format(v model.NullFloat, layout string) string {
	f, ok := v.Get()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf(layout, f)
}
