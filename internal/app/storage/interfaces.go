package storage

import (
	"context"

	"github.com/mojifeed/mojifeed/internal/app/domain/post"
)

// PostStore persists post records. Absent rows surface as sql.ErrNoRows so
// callers can map them to a not-found condition.
type PostStore interface {
	// ListRecent returns at most limit posts across all authors, newest first.
	ListRecent(ctx context.Context, limit int) ([]post.Post, error)

	// ListByAuthor returns at most limit posts by one author, newest first.
	// An author with no posts yields an empty slice, not an error.
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]post.Post, error)

	// Get returns the post with the given id.
	Get(ctx context.Context, id string) (post.Post, error)

	// Insert persists a new post, assigning its id and creation timestamp.
	Insert(ctx context.Context, authorID, content string) (post.Post, error)
}
