// Package main runs the mojifeed API server: an emoji-only status feed
// backed by Postgres and an external identity provider.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	redis "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	"github.com/mojifeed/mojifeed/internal/app"
	"github.com/mojifeed/mojifeed/internal/app/httpapi"
	"github.com/mojifeed/mojifeed/internal/app/storage"
	"github.com/mojifeed/mojifeed/internal/app/storage/postgres"
	"github.com/mojifeed/mojifeed/internal/app/system"
	"github.com/mojifeed/mojifeed/internal/config"
	"github.com/mojifeed/mojifeed/internal/identity"
	"github.com/mojifeed/mojifeed/internal/metrics"
	"github.com/mojifeed/mojifeed/internal/middleware"
	"github.com/mojifeed/mojifeed/internal/platform/migrations"
	"github.com/mojifeed/mojifeed/internal/ratelimit"
	"github.com/mojifeed/mojifeed/pkg/logger"
)

func main() {
	envFile := flag.String("env-file", "", "Path to an env file loaded before the environment")
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stdout,
	}).Named("server")

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	policy := ratelimit.Policy{Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window}

	// Backing resources are registered as lifecycle services below, so they
	// are released in reverse order through application.Stop.
	var services []system.Service

	// Post store: Postgres when configured, in-memory otherwise.
	var store storage.PostStore
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database.URL,
			cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnLifetime)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if cfg.Database.Migrate {
			if err := migrations.Apply(db.DB); err != nil {
				db.Close()
				return fmt.Errorf("apply migrations: %w", err)
			}
			log.Info("database migrations applied")
		}
		store = postgres.New(db)
		services = append(services, system.NewService("postgres-pool", nil,
			func(context.Context) error { return db.Close() }))
	} else {
		log.Warn("DATABASE_URL not set, using in-memory post store")
	}

	// Rate limiter: Redis sliding window when configured.
	var limiter ratelimit.Limiter
	var memLimiter *ratelimit.MemoryLimiter
	if cfg.Redis.Addr != "" {
		rl, err := ratelimit.NewRedisLimiter(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, policy)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		limiter = rl
		services = append(services, system.NewService("redis-limiter", nil,
			func(context.Context) error { return rl.Close() }))
	} else {
		log.Warn("REDIS_ADDR not set, using in-memory rate limiter")
		memLimiter = ratelimit.NewMemoryLimiter(policy)
		limiter = memLimiter
	}

	// Identity provider: remote client when an API key is configured.
	var provider identity.Provider
	if cfg.Identity.APIKey != "" {
		client, err := identity.NewClient(identity.Config{
			BaseURL: cfg.Identity.BaseURL,
			APIKey:  cfg.Identity.APIKey,
			Timeout: cfg.Identity.Timeout,
		})
		if err != nil {
			return fmt.Errorf("identity client: %w", err)
		}
		provider = client
	} else {
		log.Warn("IDENTITY_API_KEY not set, using static identity provider")
		provider = identity.NewStaticProvider()
	}

	application, err := app.New(app.Deps{
		Posts:    store,
		Identity: provider,
		Limiter:  limiter,
		Policy:   policy,
	}, log.Named("app"))
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	m := metrics.New("mojifeed")
	throttle := middleware.NewThrottle(cfg.Server.ThrottleRPS, cfg.Server.ThrottleBurst, log.Named("throttle"))

	middlewares := []mux.MiddlewareFunc{
		middleware.LoggingMiddleware(log.Named("http")),
		middleware.MetricsMiddleware(m),
		middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins).Handler,
	}

	// Token verification runs in optional mode: feed reads are public, and
	// the post creation handler rejects requests without a verified subject.
	// Auth precedes the throttle so authenticated callers are throttled by
	// user id rather than remote address.
	if cfg.Identity.JWTPublicKey != "" {
		auth, err := middleware.NewAuthMiddleware([]byte(cfg.Identity.JWTPublicKey), log.Named("auth"), true)
		if err != nil {
			return fmt.Errorf("auth middleware: %w", err)
		}
		middlewares = append(middlewares, auth.Handler)
	} else {
		log.Warn("IDENTITY_JWT_PUBLIC_KEY not set, requests are anonymous")
	}
	middlewares = append(middlewares, throttle.Handler)

	handler := httpapi.NewHandler(application, log.Named("httpapi"), httpapi.Options{
		Middlewares:    middlewares,
		MetricsHandler: m.Handler(),
	})

	// Periodic cleanup of per-key limiter state, managed as a lifecycle
	// service so shutdown waits for a running prune to finish.
	jobs := cron.New()
	if _, err := jobs.AddFunc("@every 5m", func() {
		throttle.Prune()
		if memLimiter != nil {
			memLimiter.Prune()
		}
	}); err != nil {
		return fmt.Errorf("schedule prune job: %w", err)
	}
	services = append(services, system.NewService("prune-jobs",
		func(context.Context) error {
			jobs.Start()
			return nil
		},
		func(ctx context.Context) error {
			select {
			case <-jobs.Stop().Done():
			case <-ctx.Done():
			}
			return nil
		}))

	for _, svc := range services {
		application.Manager().Register(svc)
	}
	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start application: %w", err)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{"addr": server.Addr}).Info("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case serveErr = <-errCh:
		log.WithError(serveErr).Error("server failed")
	case sig := <-sigCh:
		log.WithFields(map[string]interface{}{"signal": sig.String()}).Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application stop")
	}
	if serveErr != nil {
		return fmt.Errorf("serve: %w", serveErr)
	}
	return nil
}
