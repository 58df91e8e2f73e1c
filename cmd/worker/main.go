package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/wa-router/internal/app"
	"github.com/unclebandit/wa-router/internal/config"
	"github.com/unclebandit/wa-router/internal/logging"
	"github.com/unclebandit/wa-router/internal/queue"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Queue.Backend != "amqp" {
		log.Fatal("worker requires queue.backend=amqp")
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize", zap.Error(err))
	}
	defer a.Close()

	if err := run(ctx, a.Queue, a.Processor, logger); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
	}
}

// run consumes the inbound topic until ctx is cancelled.
func run(ctx context.Context, q queue.Queue, p queue.InboundProcessor, logger *zap.Logger) error {
	if err := queue.StartInboundSubscriber(q, p, logger); err != nil {
		return err
	}
	logger.Info("worker running, waiting for messages", zap.String("topic", queue.InboundTopic))
	<-ctx.Done()
	logger.Info("worker shutting down")
	return nil
}
