package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/kwameasante/lingomate/internal/auth"
	"github.com/kwameasante/lingomate/internal/cache"
	"github.com/kwameasante/lingomate/internal/config"
	"github.com/kwameasante/lingomate/internal/http/handlers"
	"github.com/kwameasante/lingomate/internal/http/middlewares"
	"github.com/kwameasante/lingomate/internal/observability"
	"github.com/kwameasante/lingomate/internal/repo/postgres"
	"github.com/kwameasante/lingomate/internal/service"
)

// Deps carries everything the router wires together. Nil-able members
// (Prom, Google, RedisPing) degrade gracefully for tests.
type Deps struct {
	Cfg       config.Config
	Log       *slog.Logger
	Pool      *pgxpool.Pool
	Prom      *observability.Prom
	JWT       *auth.Manager
	Google    handlers.GoogleProvider
	Queue     service.JobQueue
	RedisPing func(ctx context.Context) error
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.AllowedOrigins))
	r.Use(otelgin.Middleware("lingomate-api"))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// health

	pingDB := func() error {
		if d.Pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return d.Pool.Ping(ctx)
	}

	var pingRedis handlers.PingFunc

	if d.RedisPing != nil {
		pingRedis = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()

			return d.RedisPing(ctx)
		}
	}

	h := handlers.NewHealthHandler(pingDB, pingRedis)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// wire up repositories

	usersRepo := postgres.NewUsersRepo(d.Pool, d.Prom)
	languagesRepo := postgres.NewLanguagesRepo(d.Pool, d.Prom)

	// services

	identity := service.NewIdentityService(usersRepo, languagesRepo, d.JWT, d.Queue, d.Log, d.Cfg.DefaultLanguageCode)
	profiles := service.NewProfileService(usersRepo)
	directory := service.NewDirectoryService(usersRepo)

	// handlers

	authHandler := handlers.NewAuthHandler(usersRepo, identity, d.Google, d.Cfg)
	usersHandler := handlers.NewUsersHandler(profiles, directory)
	languagesHandler := handlers.NewLanguagesHandler(languagesRepo, cache.New(5*time.Minute))

	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)
	r.GET("/auth/verify-email", authHandler.VerifyEmail)

	if d.Google != nil {
		r.GET("/auth/google", authHandler.GoogleRedirect)
		r.GET("/auth/google/callback", authHandler.GoogleCallback)
	}

	r.GET("/languages", languagesHandler.List)

	authMw := middlewares.NewAuthMiddleware(d.JWT)

	users := r.Group("/users", authMw.RequireAuth())
	users.GET("", usersHandler.Browse)
	users.GET("/me", usersHandler.Me)
	users.PATCH("/me", usersHandler.UpdateMe)

	return r
}
