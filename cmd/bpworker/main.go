// bpworker consumes ECG/PPG windows from NATS and publishes blood pressure
// estimates per subject.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/uyouii/cuffless-bp/config"
	"github.com/uyouii/cuffless-bp/utils"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	var configPath, envPath string

	cmd := &cobra.Command{
		Use:   "bpworker",
		Short: "NATS worker for cuffless blood pressure estimation",
		Long: `bpworker subscribes to the configured window subject, keeps one
calibration state per subject and publishes every result as JSON on
<result_prefix>.<subject_id>.`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&envPath, "env-file", "", "dotenv file with BP_* overrides")

	setup := func(cmd *cobra.Command) (*config.Config, context.Context, error) {
		if envPath != "" {
			if err := godotenv.Load(envPath); err != nil {
				return nil, nil, err
			}
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Service)
		if err != nil {
			return nil, nil, err
		}
		zap.ReplaceGlobals(logger)
		return cfg, utils.WithLogger(cmd.Context(), logger), nil
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, ctx, err := setup(cmd)
		if err != nil {
			return err
		}
		defer zap.L().Sync()
		return serve(ctx, cfg)
	}
	cmd.AddCommand(newProduceCommand(setup))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
