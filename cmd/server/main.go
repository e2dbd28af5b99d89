package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"readingcompass/internal/app"
	"readingcompass/internal/config"
	"readingcompass/internal/logging"
	"readingcompass/internal/transport/rest"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.Options{}).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	router := rest.NewRouter(&rest.Container{
		AuthService:   a.Auth,
		Assessments:   a.Assessments,
		Profiles:      a.Assessments,
		Compatibility: a.Compatibility,
		Gatherer:      prometheus.DefaultGatherer,
		CORSOrigins:   cfg.CORSOrigins,
		Log:           log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
