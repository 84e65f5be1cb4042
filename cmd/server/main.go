// Command server runs the procurement HTTP service.
//
// Configuration is environment driven:
//
//	PROCURECORE_HTTP_ADDR       listen address (default :8080)
//	PROCURECORE_ENV             development|production (default development)
//	PROCURECORE_STORAGE_DRIVER  memory|sqlite|postgres (default memory)
//	PROCURECORE_BLOB_DRIVER     fs|s3|memory (default fs)
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
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"procurecore/internal/blob"
	"procurecore/internal/core"
	"procurecore/internal/httpapi"
	"procurecore/internal/monitor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	env := os.Getenv("PROCURECORE_ENV")
	if env == "" {
		env = "development"
	}

	var logger *zap.Logger
	var err error
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	recorder, err := monitor.NewPrometheusRecorder(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	engine := core.NewDefaultRulesEngine()
	store, err := core.OpenPersistentStore(engine)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if err := monitor.RegisterEntityGauges(registry, store); err != nil {
		return fmt.Errorf("register gauges: %w", err)
	}

	service := core.NewService(store,
		core.WithLogger(zapKV{logger.Sugar()}),
		core.WithMetricsRecorder(recorder),
	)

	mon := monitor.NewService(store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var archive *core.ArchiveService
	if snapshotter, ok := store.(core.Snapshotter); ok {
		blobs, err := blob.Open(ctx)
		if err != nil {
			return fmt.Errorf("open blob store: %w", err)
		}
		archive = core.NewArchiveService(snapshotter, blobs)
		logger.Info("snapshot archive enabled", zap.String("driver", string(blobs.Driver())))
	}

	router := httpapi.NewRouter(httpapi.Config{
		Service:  service,
		Monitor:  mon,
		Archive:  archive,
		Logger:   logger,
		Gatherer: registry,
	})

	addr := os.Getenv("PROCURECORE_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// zapKV adapts a sugared zap logger to the service logging interface.
type zapKV struct {
	s *zap.SugaredLogger
}

func (l zapKV) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l zapKV) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l zapKV) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l zapKV) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }
