package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sales_tracker/api"
	"sales_tracker/internal/config"
	"sales_tracker/internal/events"
	"sales_tracker/internal/logging"
	"sales_tracker/internal/sales"
	"sales_tracker/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("error trying to start server: %w", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.Stringer("config", cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	var notifier sales.Notifier
	if cfg.AMQP.URL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, logger)
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		defer publisher.Close()
		notifier = publisher
		logger.Info("publishing sale events", zap.String("exchange", cfg.AMQP.Exchange), zap.String("queue", cfg.AMQP.Queue))
	}

	svc := sales.NewService(storage, logger, notifier)
	if cfg.Store.Seed {
		if err := svc.Seed(ctx, sales.DemoSales()); err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      api.NewRouter(svc, logger, loc),
		ReadTimeout:  cfg.Server.Timeout.Read,
		WriteTimeout: cfg.Server.Timeout.Write,
		IdleTimeout:  cfg.Server.Timeout.Idle,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr), zap.String("store", cfg.Store.Driver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func openStorage(cfg *config.Config, logger *zap.Logger) (sales.Storage, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		store, err := sqlite.New(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("using sqlite store", zap.String("path", cfg.Store.Path))
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close sqlite store", zap.Error(err))
			}
		}, nil
	default:
		logger.Info("using in-memory store")
		return sales.NewLocalStorage(), func() {}, nil
	}
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.Timeout.Shutdown > 0 {
		return cfg.Server.Timeout.Shutdown
	}
	return 5 * time.Second
}
