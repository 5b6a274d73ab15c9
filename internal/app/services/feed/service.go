// Package feed exposes the public read endpoints over the post store.
package feed

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/mojifeed/mojifeed/internal/app/domain/post"
	"github.com/mojifeed/mojifeed/internal/app/services/enrich"
	"github.com/mojifeed/mojifeed/internal/app/storage"
	"github.com/mojifeed/mojifeed/internal/errors"
	"github.com/mojifeed/mojifeed/pkg/logger"
)

// FeedLimit is the hard ceiling on feed length. It is not a page size; there
// is no pagination.
const FeedLimit = 100

// Service serves the global feed, per-author feeds and single-post lookups.
// All operations are public, side-effect-free reads.
type Service struct {
	store    storage.PostStore
	enricher *enrich.Service
	log      *logger.Logger
}

// New constructs a feed service.
func New(store storage.PostStore, enricher *enrich.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("feed")
	}
	return &Service{store: store, enricher: enricher, log: log}
}

// GetAll returns up to FeedLimit most-recent posts across all authors,
// newest first, with authors resolved.
func (s *Service) GetAll(ctx context.Context) ([]post.EnrichedPost, error) {
	posts, err := s.store.ListRecent(ctx, FeedLimit)
	if err != nil {
		return nil, errors.Internal("Failed to load feed", err)
	}
	return s.enricher.Enrich(ctx, posts)
}

// GetByID returns exactly one enriched post, or a not-found error.
func (s *Service) GetByID(ctx context.Context, id string) (post.EnrichedPost, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return post.EnrichedPost{}, errors.NotFound("post", id)
		}
		return post.EnrichedPost{}, errors.Internal("Failed to load post", err)
	}

	enriched, err := s.enricher.Enrich(ctx, []post.Post{p})
	if err != nil {
		return post.EnrichedPost{}, err
	}
	return enriched[0], nil
}

// GetByUser returns up to FeedLimit of one author's most-recent posts,
// newest first. A user with no posts yields an empty feed, not an error.
func (s *Service) GetByUser(ctx context.Context, userID string) ([]post.EnrichedPost, error) {
	posts, err := s.store.ListByAuthor(ctx, userID, FeedLimit)
	if err != nil {
		return nil, errors.Internal("Failed to load user feed", err)
	}
	return s.enricher.Enrich(ctx, posts)
}
