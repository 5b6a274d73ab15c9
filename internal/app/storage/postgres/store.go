// Package postgres implements the post store on PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/mojifeed/mojifeed/internal/app/domain/post"
	"github.com/mojifeed/mojifeed/internal/app/storage"
)

// Store implements storage.PostStore backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.PostStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, url string, maxOpen, maxIdle int, connLifetime time.Duration) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]post.Post, error) {
	posts := []post.Post{}
	err := s.db.SelectContext(ctx, &posts, `
		SELECT id, author_id, content, created_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Store) ListByAuthor(ctx context.Context, authorID string, limit int) ([]post.Post, error) {
	posts := []post.Post{}
	err := s.db.SelectContext(ctx, &posts, `
		SELECT id, author_id, content, created_at
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, authorID, limit)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Store) Get(ctx context.Context, id string) (post.Post, error) {
	var p post.Post
	err := s.db.GetContext(ctx, &p, `
		SELECT id, author_id, content, created_at
		FROM posts
		WHERE id = $1
	`, id)
	if err != nil {
		return post.Post{}, err
	}
	return p, nil
}

func (s *Store) Insert(ctx context.Context, authorID, content string) (post.Post, error) {
	p := post.Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.AuthorID, p.Content, p.CreatedAt)
	if err != nil {
		return post.Post{}, err
	}
	return p, nil
}
