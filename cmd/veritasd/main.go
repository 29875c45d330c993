package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"veritas/internal/app"
	"veritas/internal/config"
	httpinfra "veritas/internal/infra/http"
	"veritas/internal/infra/logging"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.FromEnv()
	log := logging.New(cfg.LogLevel, os.Stdout)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := app.Build(ctx, cfg, log, reg)
	if err != nil {
		log.WithError(err).Fatal("failed to build services")
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.WithError(err).Warn("close store")
		}
	}()

	deps := httpinfra.ServerDeps{
		Issue:      svc.Issue,
		Verify:     svc.Verify,
		VerifyByID: svc.VerifyByID,
		Security:   svc.Security,
		Status:     svc.Status,
		Metrics:    svc.Metrics,
		Gatherer:   reg,
		Log:        log,
	}
	if svc.Store.Enabled() {
		deps.Health = svc.Store
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpinfra.NewServerWithDeps(cfg, deps).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
		}
	}()

	log.WithField("addr", cfg.HTTPAddr).Info("veritas listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server exited")
	}
}
