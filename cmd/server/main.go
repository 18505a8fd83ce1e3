package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"paybot/internal/app"
	"paybot/internal/config"
	"paybot/internal/gateway"
	"paybot/internal/handler"
	"paybot/internal/logging"
	"paybot/internal/metrics"
	"paybot/internal/notifier"
	"paybot/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "paybot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration. Missing values abort startup.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if cfg.Log.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	nrApp, err := app.NewNewRelicApp(cfg.NewRelic)
	if err != nil {
		logger.Warn("failed to initialize New Relic", zap.Error(err))
	} else if nrApp != nil {
		logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		defer nrApp.Shutdown(5 * time.Second)
	}

	tg, err := notifier.NewTelegramNotifier(cfg.Telegram, cfg.Payment.NotifyTimeout)
	if err != nil {
		return err
	}
	logger.Info("Telegram bot authorized", zap.String("bot", tg.BotName()), zap.String("channel", cfg.Telegram.TargetChannel))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Wire dependencies.
	server := wireServer(cfg, logger, registry, tg, nrApp)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port), zap.String("square_env", cfg.Square.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(cfg *config.Config, logger *zap.Logger, registry *prometheus.Registry, n service.Notifier, nrApp *newrelic.Application) *http.Server {
	m := metrics.New(registry)

	squareClient := gateway.NewSquareClient(cfg.Square, cfg.Payment.GatewayTimeout)
	notificationService := service.NewNotificationService(n, cfg.Telegram.TargetChannel, m)
	paymentService := service.NewPaymentService(squareClient, notificationService, m, service.PaymentOptions{
		DefaultAmount:  cfg.Payment.DefaultAmount,
		GatewayTimeout: cfg.Payment.GatewayTimeout,
		NotifyTimeout:  cfg.Payment.NotifyTimeout,
	})

	router := app.NewRouter(app.RouterDeps{
		PaymentHandler: handler.NewPaymentHandler(paymentService),
		Logger:         logger,
		Metrics:        m,
		Gatherer:       registry,
		NewRelicApp:    nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
