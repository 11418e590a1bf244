package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/internal/config"
	"github.com/resumeqa/resumeqa/internal/db"
	dbFile "github.com/resumeqa/resumeqa/internal/db/file"
	dbMinio "github.com/resumeqa/resumeqa/internal/db/minio"
	dbRedis "github.com/resumeqa/resumeqa/internal/db/redis"
	"github.com/resumeqa/resumeqa/internal/domain/resume"
	logpkg "github.com/resumeqa/resumeqa/internal/logger"
	"github.com/resumeqa/resumeqa/internal/metrics"
	indexrepo "github.com/resumeqa/resumeqa/internal/repository/index"
	chiTransport "github.com/resumeqa/resumeqa/internal/transport/chi"
	"github.com/resumeqa/resumeqa/internal/transport/providers"
	answeruc "github.com/resumeqa/resumeqa/internal/usecase/answer"
	healthuc "github.com/resumeqa/resumeqa/internal/usecase/health"
	"github.com/resumeqa/resumeqa/internal/usecase/prompt"
	"github.com/resumeqa/resumeqa/internal/usecase/retrieval"
	"github.com/resumeqa/resumeqa/internal/version"
)

func main() {
	envFlag := pflag.String("env", "", "config environment: local, dev, prod (default $ENV or local)")
	dotenv := pflag.String("dotenv", ".env", "path to a .env file loaded before the config")
	port := pflag.Int("port", 0, "override http.port")
	showVersion := pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// .env is optional; real environment variables win.
	if err := godotenv.Load(*dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("failed to load " + *dotenv + ": " + err.Error())
	}

	env := *envFlag
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if *port > 0 {
		cfg.HTTP.Port = *port
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting resumeqa server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_storage", cfg.Storage.Driver),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	ctx := context.Background()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open index store", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Index store ready", zap.String("driver", cfg.Storage.Driver))

	// Domain collectors; HTTP collectors register themselves.
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()
	metrics.RegisterPipelineMetrics()

	resolver := providers.New(cfg.Embedding, cfg.LLM, logger)
	answers := answeruc.New(
		resume.FileSource{ResumePath: cfg.Data.ResumePath, FAQPath: cfg.Data.FAQPath},
		resolver,
		retrieval.NewBuilder(indexrepo.New(store), cfg.Storage.Name, logger),
		prompt.New(cfg.Data.Owner),
		cfg.Pipeline.TopK,
		logger,
	)

	if cfg.Pipeline.Warmup {
		// Failure is not fatal: the first question retries initialization.
		go func() {
			if err := answers.Warmup(ctx); err != nil {
				logger.Warn("Pipeline warmup failed", zap.Error(err))
			}
		}()
	}

	healthSvc := healthuc.New(store, resolver, answers)

	server := chiTransport.NewServer(answers, healthSvc, chiTransport.Files{
		AbbrevPath: cfg.Data.AbbrevPath,
		StaticDir:  cfg.Data.StaticDir,
		ImagesDir:  cfg.Data.ImagesDir,
	}, time.Duration(cfg.HTTP.AskTimeoutSec)*time.Second, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openStore creates the index snapshot store for the configured driver.
func openStore(ctx context.Context, cfg config.StorageConfig) (db.BlobStore, error) {
	switch cfg.Driver {
	case config.StorageFile:
		s, err := dbFile.NewStore(cfg.File.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		if err := s.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case config.StorageMinio:
		s, err := dbMinio.NewStore(dbMinio.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Region:    cfg.Minio.Region,
			Prefix:    cfg.Minio.Prefix,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
