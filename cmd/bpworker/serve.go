package main

import (
	"context"

	"github.com/uyouii/cuffless-bp/config"
	"github.com/uyouii/cuffless-bp/stream"
	"github.com/uyouii/cuffless-bp/utils"
	"go.uber.org/zap"
)

func serve(ctx context.Context, cfg *config.Config) error {
	logger := utils.GetLogger(ctx)

	nc, err := stream.Connect(cfg.NATS.URL, cfg.Log.Service)
	if err != nil {
		return err
	}
	defer nc.Drain()

	dispatcher := stream.NewDispatcher(cfg, nc)
	sub, err := dispatcher.Subscribe(ctx, nc)
	if err != nil {
		dispatcher.Close()
		return err
	}
	logger.Info("worker running", zap.String("url", cfg.NATS.URL),
		zap.String("subject", cfg.NATS.WindowSubject))

	<-ctx.Done()
	logger.Info("worker stopping")

	if err := sub.Unsubscribe(); err != nil {
		logger.Warn("unsubscribe failed", zap.Error(err))
	}
	dispatcher.Close()
	logger.Info("worker stopped", zap.Int("subjects", len(dispatcher.Subjects())))
	return nil
}
