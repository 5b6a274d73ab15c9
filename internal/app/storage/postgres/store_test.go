package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func postRows(t *testing.T, count int) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows([]string{"id", "author_id", "content", "created_at"})
	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		rows.AddRow("id-"+string(rune('a'+i)), "user_1", "😀", now.Add(-time.Duration(i)*time.Second))
	}
	return rows
}

func TestListRecentQueriesWithLimit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs(100).
		WillReturnRows(postRows(t, 2))

	posts, err := store.ListRecent(context.Background(), 100)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("len = %d, want 2", len(posts))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByAuthorFilters(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE author_id = $1")).
		WithArgs("user_1", 100).
		WillReturnRows(postRows(t, 1))

	posts, err := store.ListByAuthor(context.Background(), "user_1", 100)
	if err != nil {
		t.Fatalf("list by author: %v", err)
	}
	if len(posts) != 1 || posts[0].AuthorID != "user_1" {
		t.Fatalf("posts = %+v", posts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByAuthorEmptyIsNotAnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE author_id = $1")).
		WithArgs("nobody", 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id", "content", "created_at"}))

	posts, err := store.ListByAuthor(context.Background(), "nobody", 100)
	if err != nil {
		t.Fatalf("list by author: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("expected empty slice, got %d", len(posts))
	}
}

func TestGetMissingReturnsNoRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestInsertAssignsIDAndTimestamp(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO posts")).
		WithArgs(sqlmock.AnyArg(), "user_1", "😀", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := store.Insert(context.Background(), "user_1", "😀")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if p.ID == "" || p.CreatedAt.IsZero() {
		t.Fatalf("post not fully assigned: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
