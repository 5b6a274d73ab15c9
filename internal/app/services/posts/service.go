// Package posts implements authenticated post creation.
package posts

import (
	"context"
	"unicode/utf8"

	"github.com/mojifeed/mojifeed/internal/app/domain/post"
	"github.com/mojifeed/mojifeed/internal/app/storage"
	"github.com/mojifeed/mojifeed/internal/errors"
	"github.com/mojifeed/mojifeed/internal/ratelimit"
	"github.com/mojifeed/mojifeed/pkg/logger"
)

// MaxContentLength is the inclusive upper bound on content length, in runes.
const MaxContentLength = 255

// Service validates and persists new posts for authenticated callers.
type Service struct {
	store   storage.PostStore
	limiter ratelimit.Limiter
	policy  ratelimit.Policy
	log     *logger.Logger
}

// New constructs a post creation service.
func New(store storage.PostStore, limiter ratelimit.Limiter, policy ratelimit.Policy, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("posts")
	}
	return &Service{store: store, limiter: limiter, policy: policy, log: log}
}

// Create persists a new post. authorID must come from the caller's verified
// identity, never from request input. Authorization, validation and the
// rate limit are checked in that order before the single insert; a failed
// check leaves no state behind.
func (s *Service) Create(ctx context.Context, authorID, content string) (post.Post, error) {
	if authorID == "" {
		return post.Post{}, errors.Unauthorized("")
	}

	if err := ValidateContent(content); err != nil {
		return post.Post{}, err
	}

	allowed, err := s.limiter.Allow(ctx, authorID)
	if err != nil {
		return post.Post{}, errors.Internal("Rate limit check failed", err)
	}
	if !allowed {
		s.log.WithContext(ctx).WithFields(map[string]interface{}{
			"author_id": authorID,
		}).Warn("post creation rate limited")
		return post.Post{}, errors.RateLimitExceeded(s.policy.Limit, s.policy.Window.String())
	}

	created, err := s.store.Insert(ctx, authorID, content)
	if err != nil {
		return post.Post{}, errors.Internal("Failed to create post", err)
	}

	s.log.WithContext(ctx).Debugf("post %s created by %s", created.ID, authorID)
	return created, nil
}

// ValidateContent enforces the emoji-only rule and the 1–255 rune length
// bound. The returned error carries the field name so clients can show a
// targeted message.
func ValidateContent(content string) error {
	if content == "" {
		return errors.Validation("content", "Content must not be empty.")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return errors.Validation("content", "Content must be at most 255 characters.")
	}
	if !isEmojiOnly(content) {
		return errors.Validation("content", "Only emojis are allowed.")
	}
	return nil
}
