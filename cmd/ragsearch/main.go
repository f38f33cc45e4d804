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

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/config"
	logpkg "github.com/kailas-cloud/ragsearch/internal/logger"
	"github.com/kailas-cloud/ragsearch/internal/metrics"
	chiTransport "github.com/kailas-cloud/ragsearch/internal/transport/chi"
	"github.com/kailas-cloud/ragsearch/internal/usecase/retrieval"
	searchuc "github.com/kailas-cloud/ragsearch/internal/usecase/search"
	"github.com/kailas-cloud/ragsearch/internal/usecase/synthesis"
	usageuc "github.com/kailas-cloud/ragsearch/internal/usecase/usage"
	"github.com/kailas-cloud/ragsearch/internal/version"
)

func main() {
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

	logger.Info("Starting ragsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("scorer", cfg.Search.Scorer),
		zap.String("llm_model", cfg.LLM.Model),
	)

	metrics.Register()

	ctx := context.Background()
	st, err := openStorage(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer st.close()

	model, budget, modelHealth := buildModel(ctx, &cfg, st.kv, logger)

	scorer, embedderHealth, err := buildScorer(&cfg, st.kv, logger)
	if err != nil {
		logger.Fatal("Failed to build scorer", zap.Error(err))
	}

	engine := searchuc.New(
		st.docs,
		retrieval.New(scorer),
		synthesis.New(model, synthesis.Config{
			MaxDocumentChars: cfg.Search.MaxDocumentChars,
			MaxContextChars:  cfg.Search.MaxContextChars,
		}),
		searchuc.Config{
			TopK:           cfg.Search.TopK,
			MinScore:       cfg.Search.MinScore,
			MaxQueryLength: cfg.Search.MaxQueryLength,
		},
	)

	healthSvc := buildHealth(st.pinger, modelHealth, embedderHealth)

	server := chiTransport.NewServer(engine, st.docs, usageuc.New(budget), healthSvc, logger)
	handler := server.Router(chiTransport.RouterConfig{
		APIKeys:      cfg.Auth.APIKeys,
		MaxBodyBytes: int64(cfg.HTTP.MaxBodyBytes),
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
