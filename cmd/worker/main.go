package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"veritas/internal/app"
	"veritas/internal/config"
	"veritas/internal/infra/logging"
	"veritas/internal/orchestrator/activities"
	"veritas/internal/orchestrator/workflows"

	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	cfg := config.FromEnv()
	log := logging.New(cfg.LogLevel, os.Stdout)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthSrv := startHealthServer(cfg.HealthAddr, log)
	defer func() {
		_ = healthSrv.Shutdown(context.Background())
	}()

	svc, err := app.Build(ctx, cfg, log, nil)
	if err != nil {
		log.WithError(err).Fatal("failed to build services")
	}
	defer svc.Close()
	if !svc.Store.Enabled() {
		log.Warn("POSTGRES_DSN is not set; batch certificates will not be verifiable after the worker exits")
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create temporal client")
	}
	defer temporalClient.Close()

	acts := activities.New(svc.Issue, cfg.BatchOutputDir)
	w := worker.New(temporalClient, cfg.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.IssueBatchWorkflow)
	w.RegisterActivityWithOptions(acts.IssueCertificate, activity.RegisterOptions{Name: activities.IssueCertificateActivityName})

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	log.WithFields(logrus.Fields{
		"task_queue": cfg.TaskQueue,
		"output_dir": cfg.BatchOutputDir,
	}).Info("batch worker listening")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.WithError(err).Fatal("worker exited")
	}
}

func startHealthServer(addr string, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("health server error")
		}
	}()
	return srv
}
