package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kwameasante/lingomate/internal/config"
	"github.com/kwameasante/lingomate/internal/notifications"
	"github.com/kwameasante/lingomate/internal/observability"
	"github.com/kwameasante/lingomate/internal/queue/redisclient"
	"github.com/kwameasante/lingomate/internal/queue/worker"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	queue := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer queue.Close()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	w := worker.New(worker.Config{
		DequeueTimeout: 5 * time.Second,
	}, queue, notifications.NewLogNotifier(), log, prom)

	// health endpoints on a side port so orchestrators can probe the worker
	healthSrv := &http.Server{
		Addr:              ":9090",
		Handler:           w.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("worker has started")

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
