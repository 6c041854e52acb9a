package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/uyouii/cuffless-bp/config"
	"github.com/uyouii/cuffless-bp/model"
	"github.com/uyouii/cuffless-bp/stream"
	"github.com/uyouii/cuffless-bp/synth"
	"github.com/uyouii/cuffless-bp/utils"
	"go.uber.org/zap"
)

type produceOptions struct {
	subject  string
	windows  int
	interval time.Duration
	hr       float64
	basePTT  float64
	// every cuffEvery-th window carries a cuff reading; 0 disables
	cuffEvery int
}

type setupFunc func(cmd *cobra.Command) (*config.Config, context.Context, error)

func newProduceCommand(setup setupFunc) *cobra.Command {
	opts := produceOptions{}
	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Publish synthetic windows for one subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			nc, err := stream.Connect(cfg.NATS.URL, cfg.Log.Service+"-producer")
			if err != nil {
				return err
			}
			defer nc.Drain()
			return produce(ctx, cfg, opts, nc)
		},
	}
	cmd.Flags().StringVar(&opts.subject, "subject", "demo", "subject id")
	cmd.Flags().IntVar(&opts.windows, "windows", 30, "number of windows to send")
	cmd.Flags().DurationVar(&opts.interval, "interval", time.Second, "delay between windows")
	cmd.Flags().Float64Var(&opts.hr, "hr", 72, "heart rate bpm")
	cmd.Flags().Float64Var(&opts.basePTT, "ptt", 0.25, "base PTT in seconds at 120 mmHg")
	cmd.Flags().IntVar(&opts.cuffEvery, "cuff-every", 10, "attach a cuff reading every n windows")
	return cmd
}

func produce(ctx context.Context, cfg *config.Config, opts produceOptions, pub stream.Publisher) error {
	logger := utils.GetLogger(ctx)

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	for i := 0; i < opts.windows; i++ {
		params := synth.DefaultParams()
		params.FsECG, params.FsPPG, params.FsMotion = cfg.FsECG, cfg.FsPPG, cfg.FsMotion
		params.WindowSec = int(cfg.WindowSec)
		params.HeartRateBPM = opts.hr
		params.BasePTT = opts.basePTT
		params.SBPProfile = []float64{120}
		params.Seed = int64(i)

		var ref *model.Reference
		if opts.cuffEvery > 0 && i%opts.cuffEvery == 0 {
			ref = &model.Reference{SBP: 120, DBP: 78}
		}
		msg := stream.WindowMessage{SubjectID: opts.subject, Window: *synth.Generate(params).Window(int64(i), ref)}
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if err := pub.Publish(cfg.NATS.WindowSubject, data); err != nil {
			return fmt.Errorf("publish window %v: %w", i, err)
		}
		logger.Debug("window sent", zap.String("subject_id", opts.subject), zap.Int("seq", i))

		if i == opts.windows-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
