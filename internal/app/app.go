// Package app wires the configured components into a running processor.
// Both cmd/server and cmd/worker build their dependencies through it.
package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/unclebandit/wa-router/internal/config"
	"github.com/unclebandit/wa-router/internal/db"
	"github.com/unclebandit/wa-router/internal/dispatcher"
	"github.com/unclebandit/wa-router/internal/integrations/paramstore"
	"github.com/unclebandit/wa-router/internal/media"
	"github.com/unclebandit/wa-router/internal/menu"
	"github.com/unclebandit/wa-router/internal/queue"
	"github.com/unclebandit/wa-router/internal/repository"
	"github.com/unclebandit/wa-router/internal/scheduler"
	"github.com/unclebandit/wa-router/internal/service"
	"github.com/unclebandit/wa-router/internal/whatsapp"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *sqlx.DB
	Store     *repository.Store
	Catalog   *menu.Catalog
	Processor *service.Processor
	Queue     queue.Queue
	Scheduler *scheduler.Scheduler
}

// New resolves secrets, connects to the database and the queue and builds
// the processor. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Catalog: menu.Default()}

	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.AWS.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.AWS.Region))
		}
		c, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return aws.Config{}, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	if cfg.NeedsParameterStore() {
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		ps, err := paramstore.NewFromConfig(c)
		if err != nil {
			return nil, err
		}
		if err := config.ResolveSecrets(ctx, cfg, ps); err != nil {
			return nil, err
		}
	}

	conn, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver == db.DriverPostgres {
		conn.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	a.DB = conn
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(conn, logger); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.Store = repository.NewStore(conn, logger)

	wa := whatsapp.NewClient(whatsapp.Config{
		BaseURL:       cfg.WhatsApp.BaseURL,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		Token:         cfg.WhatsApp.Token,
		Timeout:       cfg.WhatsApp.Timeout,
		RatePerSecond: cfg.WhatsApp.RatePerSecond,
		Burst:         cfg.WhatsApp.Burst,
	}, logger)
	if !wa.Enabled() {
		logger.Warn("whatsapp credentials not configured, replies will not be sent")
	}

	var mediaProc service.MediaProcessor
	if cfg.Media.Enabled {
		c, err := loadAWS()
		if err != nil {
			a.Close()
			return nil, err
		}
		pipeline, err := newPipeline(cfg, s3.NewFromConfig(c), wa, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		mediaProc = pipeline
	} else {
		logger.Warn("media pipeline disabled, attachments will not be copied to storage")
	}

	out := dispatcher.New(wa, dispatcher.NewWebhookClient(cfg.Webhooks.Secret, cfg.Webhooks.Timeout), dispatcher.Routes{
		Ingestion:        cfg.Webhooks.Ingestion,
		IngestionDefault: cfg.Webhooks.IngestionDefault,
		Derivation:       cfg.Webhooks.Derivation,
	}, logger)

	var dedupe *service.Deduper
	if cfg.Routing.DedupeWindow > 0 {
		dedupe = service.NewDeduper(cfg.Routing.DedupeWindow)
	}

	a.Processor = service.NewProcessor(a.Store, mediaProc, out, a.Catalog, service.Options{
		AntiLoopWindow: cfg.Routing.AntiLoopWindow,
		HistoryWindow:  cfg.Routing.HistoryWindow,
		Deduper:        dedupe,
	}, logger)

	if a.Queue, err = newQueue(cfg, logger); err != nil {
		a.Close()
		return nil, err
	}

	if a.Scheduler, err = scheduler.New(logger); err != nil {
		a.Close()
		return nil, err
	}
	if dedupe != nil {
		if err := a.Scheduler.SchedulePrune(dedupe, scheduler.DedupePruneInterval); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.Scheduler.Start()

	return a, nil
}

func newPipeline(cfg *config.Config, api *s3.Client, wa *whatsapp.Client, logger *zap.Logger) (*media.Pipeline, error) {
	storage, err := media.NewS3Storage(api, media.S3Config{
		Region:        cfg.AWS.Region,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		Timeout:       cfg.Storage.Timeout,
	})
	if err != nil {
		return nil, err
	}

	var transcriber media.Transcriber
	if cfg.Media.TranscriptionURL != "" {
		transcriber = media.NewHTTPTranscriber(cfg.Media.TranscriptionURL, cfg.Media.TranscriptionTimeout)
	}

	return media.NewPipeline(wa, storage, transcriber, media.Config{
		AudioBucket:         cfg.Storage.AudioBucket,
		MediaBucket:         cfg.Storage.MediaBucket,
		MaxBytes:            cfg.Media.MaxBytes,
		ThumbnailWidth:      cfg.Media.ThumbnailWidth,
		TranscriptionBudget: cfg.Media.TranscriptionBudget,
	}, logger), nil
}

func newQueue(cfg *config.Config, logger *zap.Logger) (queue.Queue, error) {
	switch cfg.Queue.Backend {
	case "amqp":
		q, err := queue.DialAMQP(cfg.Queue.AMQPURL, logger)
		if err != nil {
			return nil, err
		}
		q.MaxRetries = cfg.Queue.MaxRetries
		return q, nil
	default:
		q := queue.NewInMemoryQueue(logger)
		q.MaxRetries = cfg.Queue.MaxRetries
		return q, nil
	}
}

// Close stops the scheduler, drains the queue and closes the database.
func (a *App) Close() {
	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(); err != nil {
			a.Logger.Warn("scheduler shutdown", zap.Error(err))
		}
	}
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			a.Logger.Warn("queue shutdown", zap.Error(err))
		}
	}
	db.Close(a.DB, a.Logger)
}
