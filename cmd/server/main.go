// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/wa-router/internal/app"
	"github.com/unclebandit/wa-router/internal/config"
	"github.com/unclebandit/wa-router/internal/controller"
	"github.com/unclebandit/wa-router/internal/handler"
	"github.com/unclebandit/wa-router/internal/logging"
	"github.com/unclebandit/wa-router/internal/queue"
	"github.com/unclebandit/wa-router/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
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

	// with a broker the worker process consumes the topic
	if cfg.Queue.Backend == "memory" {
		if err := queue.StartInboundSubscriber(a.Queue, a.Processor, logger); err != nil {
			logger.Fatal("failed to start inbound subscriber", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(a, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server running", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
}

func newRouter(a *app.App, logger *zap.Logger) http.Handler {
	webhook := controller.NewWebhookController(
		controller.QueuePublisher(a.Queue),
		a.Config.WhatsApp.VerifyToken,
		a.Config.WhatsApp.AppSecret,
		logger,
	)
	messages := controller.NewMessageController(a.Processor, logger)
	conversations := handler.NewConversationHandler(
		a.Store,
		service.NewStateInference(a.Store, a.Catalog, a.Config.Routing.HistoryWindow),
		logger,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Gateway contract
	r.Post("/api/messages", messages.Create)

	// WhatsApp Cloud API webhook
	r.Get("/webhook/whatsapp", webhook.Verify)
	r.Post("/webhook/whatsapp", webhook.Receive)

	// Conversation routes
	r.Get("/conversations/{id}", conversations.GetConversation)

	return r
}
