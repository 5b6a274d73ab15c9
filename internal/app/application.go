// Package app wires the domain services to their dependencies.
package app

import (
	"context"

	"github.com/mojifeed/mojifeed/internal/app/services/enrich"
	feedsvc "github.com/mojifeed/mojifeed/internal/app/services/feed"
	postsvc "github.com/mojifeed/mojifeed/internal/app/services/posts"
	"github.com/mojifeed/mojifeed/internal/app/storage"
	"github.com/mojifeed/mojifeed/internal/app/storage/memory"
	"github.com/mojifeed/mojifeed/internal/app/system"
	"github.com/mojifeed/mojifeed/internal/identity"
	"github.com/mojifeed/mojifeed/internal/ratelimit"
	"github.com/mojifeed/mojifeed/pkg/logger"
)

// Deps encapsulates external dependencies. Nil entries default to in-memory
// implementations, which keeps local development and tests free of external
// services.
type Deps struct {
	Posts    storage.PostStore
	Identity identity.Provider
	Limiter  ratelimit.Limiter
	Policy   ratelimit.Policy
}

// Application ties the domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Feed  *feedsvc.Service
	Posts *postsvc.Service
}

// New builds a fully initialised application with the provided dependencies.
func New(deps Deps, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	if deps.Posts == nil {
		deps.Posts = memory.New()
	}
	if deps.Identity == nil {
		deps.Identity = identity.NewStaticProvider()
	}
	if deps.Policy.Limit == 0 {
		deps.Policy = ratelimit.DefaultPolicy()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewMemoryLimiter(deps.Policy)
	}

	enricher := enrich.New(deps.Identity, log.Named("enrich"))

	return &Application{
		manager: system.NewManager(),
		log:     log,
		Feed:    feedsvc.New(deps.Posts, enricher, log.Named("feed")),
		Posts:   postsvc.New(deps.Posts, deps.Limiter, deps.Policy, log.Named("posts")),
	}, nil
}

// Manager exposes the lifecycle manager so the entry point can register
// infrastructure services alongside the application.
func (a *Application) Manager() *system.Manager {
	return a.manager
}

// Start starts all registered lifecycle services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all registered lifecycle services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
