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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kmlfilter/internal/config"
	"github.com/kailas-cloud/kmlfilter/internal/db"
	"github.com/kailas-cloud/kmlfilter/internal/db/memory"
	dbRedis "github.com/kailas-cloud/kmlfilter/internal/db/redis"
	domplacemark "github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
	logpkg "github.com/kailas-cloud/kmlfilter/internal/logger"
	"github.com/kailas-cloud/kmlfilter/internal/metrics"
	"github.com/kailas-cloud/kmlfilter/internal/repository/exportstore"
	"github.com/kailas-cloud/kmlfilter/internal/source"
	chiTransport "github.com/kailas-cloud/kmlfilter/internal/transport/chi"
	exportuc "github.com/kailas-cloud/kmlfilter/internal/usecase/export"
	healthuc "github.com/kailas-cloud/kmlfilter/internal/usecase/health"
	placemarkuc "github.com/kailas-cloud/kmlfilter/internal/usecase/placemark"
	"github.com/kailas-cloud/kmlfilter/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kmlfilter API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("source", cfg.Source.Path),
		zap.String("export_driver", cfg.Export.Driver),
	)

	// Register domain metrics explicitly (no init())
	metrics.RegisterDomainMetrics()

	ctx := context.Background()

	holder, err := source.NewHolder(ctx, source.FileLoader{Path: cfg.Source.Path}, logger)
	if err != nil {
		logger.Fatal("Failed to load source document", zap.String("path", cfg.Source.Path), zap.Error(err))
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create export store", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Export store ready", zap.String("driver", cfg.Export.Driver))

	extractor, err := domplacemark.NewExtractor(cfg.Attributes)
	if err != nil {
		logger.Fatal("Invalid attribute keys", zap.Error(err))
	}

	// Create use case services
	placemarkSvc := placemarkuc.New(holder, extractor).WithExportName(cfg.Source.ExportName)
	exportSvc := exportuc.New(placemarkSvc, exportstore.New(store, cfg.Export.TTL()))
	healthSvc := healthuc.New(holder, store)

	server := chiTransport.NewServer(placemarkSvc, exportSvc, healthSvc, logger).
		WithMaxBodyBytes(int64(cfg.Export.MaxBodyKiB) << 10)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	chiTransport.HandlerFromMux(server, r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown; SIGHUP reloads the source document
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	go func() {
		for range hup {
			logger.Info("Received reload signal")
			// Failures keep the previous document; Reload logs them.
			_ = holder.Reload(ctx)
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	signal.Stop(hup)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newStore creates the export store backend selected by export.driver.
func newStore(ctx context.Context, cfg config.Config) (db.Store, error) {
	var store db.Store
	switch cfg.Export.Driver {
	case config.DriverMemory:
		return memory.NewStore(cfg.Export.MaxStored), nil
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:       cfg.Database.Addrs,
			Username:    cfg.Database.Username,
			Password:    cfg.Database.Password,
			DB:          cfg.Database.DB,
			Standalone:  cfg.Database.Standalone,
			DialTimeout: time.Duration(cfg.Database.DialTimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown export driver %q", cfg.Export.Driver)
	}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	return store, nil
}
