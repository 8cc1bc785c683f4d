package main

import (
	"context"
	"log"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shambhavip19/CyberHope/internal/config"
	httpapi "github.com/shambhavip19/CyberHope/internal/http"
	"github.com/shambhavip19/CyberHope/internal/infra/pin"
	"github.com/shambhavip19/CyberHope/internal/infra/policy"
	"github.com/shambhavip19/CyberHope/internal/infra/ratelimit"
	"github.com/shambhavip19/CyberHope/internal/ledger"
	"github.com/shambhavip19/CyberHope/internal/ledger/gormstore"
	"github.com/shambhavip19/CyberHope/internal/usecase"
)

func main() {
	cfg := config.FromEnv()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		log.Fatalf("failed to open ledger store: %v", err)
	}

	pinner, err := openPinner(cfg, logger)
	if err != nil {
		log.Fatalf("failed to open pin store: %v", err)
	}

	engine, err := policy.NewEngine(context.Background())
	if err != nil {
		log.Fatalf("failed to prepare policy engine: %v", err)
	}

	uploads := usecase.NewUploadService(store, pinner, logger)
	uploads.MaxBytes = cfg.UploadMaxBytes
	uploads.Retries = cfg.UploadRetries
	uploads.PinTimeout = cfg.PinTimeout

	access := usecase.NewAccessService(store, engine, logger)

	srv := httpapi.NewServer(cfg, httpapi.ServerDeps{
		Uploads: uploads,
		Access:  access,
		Pins:    pinner,
		Limiter: openLimiter(cfg, logger),
		Log:     logger,
	})
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func openStore(cfg config.Config, logger *logrus.Logger) (ledger.Store, error) {
	if cfg.PostgresDSN != "" {
		logger.Info("using postgres ledger")
		return gormstore.OpenPostgres(cfg.PostgresDSN)
	}
	logger.WithField("path", cfg.SQLitePath).Info("using sqlite ledger")
	return gormstore.OpenSQLite(cfg.SQLitePath)
}

func openPinner(cfg config.Config, logger *logrus.Logger) (pin.Pinner, error) {
	if cfg.PinataAPIKey != "" && cfg.PinataSecretKey != "" {
		logger.Info("using remote pinning service")
		return pin.NewPinataClient(cfg.PinataBaseURL, cfg.PinataAPIKey, cfg.PinataSecretKey, cfg.PinTimeout), nil
	}
	logger.WithField("path", cfg.BlobPath).Info("using local content store")
	return pin.OpenLocalStore(cfg.BlobPath, logger)
}

func openLimiter(cfg config.Config, logger *logrus.Logger) ratelimit.Limiter {
	if cfg.UploadRateLimit <= 0 {
		return ratelimit.NoopLimiter{}
	}
	if cfg.RedisAddr != "" {
		limiter, err := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, time.Now)
		if err == nil {
			logger.Info("using redis rate limiter")
			return limiter
		}
		logger.WithField("error", err.Error()).Warn("redis limiter unavailable, falling back to in-process limiter")
	}
	return ratelimit.NewWindowLimiter(time.Now)
}
