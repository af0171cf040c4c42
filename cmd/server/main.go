package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"challenge_grader/internal/api"
	"challenge_grader/internal/app"
	"challenge_grader/internal/platform/config"
	"challenge_grader/internal/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Logger
	zlog, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	// 3. Initialize Stores & Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grader, err := app.New(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("init grader", zap.Error(err))
	}
	defer func() {
		if err := grader.Close(); err != nil {
			zlog.Error("close stores", zap.Error(err))
		}
	}()

	// 4. Initialize Router & HTTP Server
	opts := api.RouterOptions{Logger: zlog.Named("http")}
	if grader.Registry != nil {
		opts.Metrics = prometheus.Gatherer(grader.Registry)
	}
	router := api.NewRouter(grader.Problems, grader.Grading, opts)

	server := &http.Server{
		Addr:        ":" + cfg.APIPort,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// a submission holds the connection while every test case runs
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// 5. Graceful Shutdown
	go func() {
		zlog.Info("server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("could not listen", zap.String("port", cfg.APIPort), zap.Error(err))
		}
	}()

	<-ctx.Done() // Wait for interrupt signal

	zlog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
		return
	}
	zlog.Info("server stopped gracefully")
}
