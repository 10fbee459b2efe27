package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kwameasante/lingomate/internal/auth"
	"github.com/kwameasante/lingomate/internal/config"
	"github.com/kwameasante/lingomate/internal/db"
	httpx "github.com/kwameasante/lingomate/internal/http"
	"github.com/kwameasante/lingomate/internal/oauth"
	"github.com/kwameasante/lingomate/internal/observability"
	"github.com/kwameasante/lingomate/internal/queue/redisclient"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	// tracing is optional; without an endpoint spans stay local no-ops
	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "lingomate-api", cfg.OTELEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	// database

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	if err := db.ApplyMigrations(cfg.DBURL); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	seedCtx, seedCancel := config.WithTimeout(10 * time.Second)

	if err := db.EnsureLanguages(seedCtx, pool); err != nil {
		seedCancel()
		log.Error("language seed failed", "err", err)
		os.Exit(1)
	}
	seedCancel()

	// background job queue

	queue := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer queue.Close()

	// metrics

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	deps := httpx.Deps{
		Cfg:       cfg,
		Log:       log,
		Pool:      pool,
		Prom:      prom,
		JWT:       auth.NewManager(cfg.JWTSecret, cfg.AccessTTL),
		Queue:     queue,
		RedisPing: queue.Ping,
	}

	// google sign-in is only mounted when credentials are configured
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		deps.Google = oauth.NewGoogleClient(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
	}

	router := httpx.NewRouter(deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
