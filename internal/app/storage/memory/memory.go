package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mojifeed/mojifeed/internal/app/domain/post"
	"github.com/mojifeed/mojifeed/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu    sync.RWMutex
	posts map[string]post.Post
}

var _ storage.PostStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{posts: make(map[string]post.Post)}
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]post.Post, 0, len(s.posts))
	for _, p := range s.posts {
		all = append(all, p)
	}
	sortNewestFirst(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) ListByAuthor(ctx context.Context, authorID string, limit int) ([]post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]post.Post, 0)
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			matched = append(matched, p)
		}
	}
	sortNewestFirst(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Store) Get(ctx context.Context, id string) (post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return post.Post{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *Store) Insert(ctx context.Context, authorID, content string) (post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := post.Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.posts[p.ID] = p
	return p, nil
}

// sortNewestFirst orders posts by CreatedAt descending, breaking ties by id
// so results are deterministic.
func sortNewestFirst(posts []post.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
