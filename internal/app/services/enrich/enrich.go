// Package enrich joins raw post records with their authors' public profiles.
package enrich

import (
	"context"

	"github.com/mojifeed/mojifeed/internal/app/domain/post"
	"github.com/mojifeed/mojifeed/internal/errors"
	"github.com/mojifeed/mojifeed/internal/identity"
	"github.com/mojifeed/mojifeed/pkg/logger"
)

// Service resolves authors for batches of posts. Resolution is strict: a
// post whose author is missing or has no username fails the whole batch.
type Service struct {
	provider identity.Provider
	log      *logger.Logger
}

// New constructs an enrichment service.
func New(provider identity.Provider, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("enrich")
	}
	return &Service{provider: provider, log: log}
}

// Enrich returns one EnrichedPost per input post, in input order. The author
// profiles come from a single batched identity lookup per call.
func (s *Service) Enrich(ctx context.Context, posts []post.Post) ([]post.EnrichedPost, error) {
	if len(posts) == 0 {
		return []post.EnrichedPost{}, nil
	}

	ids := distinctAuthorIDs(posts)
	profiles, err := s.provider.GetProfiles(ctx, ids)
	if err != nil {
		return nil, errors.Internal("Failed to resolve post authors", err)
	}

	byID := make(map[string]identity.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	enriched := make([]post.EnrichedPost, 0, len(posts))
	for _, p := range posts {
		author, ok := byID[p.AuthorID]
		if !ok || author.Username == "" {
			s.log.WithContext(ctx).WithFields(map[string]interface{}{
				"post_id":   p.ID,
				"author_id": p.AuthorID,
			}).Error("author for post not found")
			return nil, errors.Internal("Author for post not found", nil).
				WithDetails("post_id", p.ID)
		}
		enriched = append(enriched, post.EnrichedPost{
			Post: p,
			Author: post.AuthorProfile{
				ID:              author.ID,
				Username:        author.Username,
				ProfileImageURL: author.ProfileImageURL,
			},
		})
	}
	return enriched, nil
}

func distinctAuthorIDs(posts []post.Post) []string {
	seen := make(map[string]struct{}, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		ids = append(ids, p.AuthorID)
	}
	return ids
}
