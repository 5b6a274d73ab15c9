package enrich

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mojifeed/mojifeed/internal/app/domain/post"
	"github.com/mojifeed/mojifeed/internal/errors"
	"github.com/mojifeed/mojifeed/internal/identity"
)

type stubProvider struct {
	profiles []identity.Profile
	err      error
	gotIDs   []string
	calls    int
}

func (s *stubProvider) GetProfiles(ctx context.Context, ids []string) ([]identity.Profile, error) {
	s.calls++
	s.gotIDs = ids
	if s.err != nil {
		return nil, s.err
	}
	return s.profiles, nil
}

func somePosts(authorIDs ...string) []post.Post {
	posts := make([]post.Post, len(authorIDs))
	for i, id := range authorIDs {
		posts[i] = post.Post{
			ID:        fmt.Sprintf("post-%d", i),
			AuthorID:  id,
			Content:   "😀",
			CreatedAt: time.Now().UTC(),
		}
	}
	return posts
}

func TestEnrichJoinsAuthorsInOrder(t *testing.T) {
	provider := &stubProvider{profiles: []identity.Profile{
		{ID: "user_a", Username: "alice", ProfileImageURL: "https://img/a.png"},
		{ID: "user_b", Username: "bob", ProfileImageURL: "https://img/b.png"},
	}}
	svc := New(provider, nil)

	posts := somePosts("user_a", "user_b", "user_a")
	enriched, err := svc.Enrich(context.Background(), posts)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(enriched) != len(posts) {
		t.Fatalf("len = %d, want %d", len(enriched), len(posts))
	}
	for i := range posts {
		if enriched[i].Post.ID != posts[i].ID {
			t.Fatalf("order broken at %d: %s != %s", i, enriched[i].Post.ID, posts[i].ID)
		}
	}
	if enriched[0].Author.Username != "alice" || enriched[1].Author.Username != "bob" {
		t.Fatalf("authors = %+v", enriched)
	}
}

func TestEnrichBatchesDistinctIDsOnce(t *testing.T) {
	provider := &stubProvider{profiles: []identity.Profile{
		{ID: "user_a", Username: "alice"},
	}}
	svc := New(provider, nil)

	if _, err := svc.Enrich(context.Background(), somePosts("user_a", "user_a", "user_a")); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("identity calls = %d, want 1", provider.calls)
	}
	if len(provider.gotIDs) != 1 || provider.gotIDs[0] != "user_a" {
		t.Fatalf("requested ids = %v", provider.gotIDs)
	}
}

func TestEnrichMissingAuthorFailsWholeBatch(t *testing.T) {
	provider := &stubProvider{profiles: []identity.Profile{
		{ID: "user_a", Username: "alice"},
	}}
	svc := New(provider, nil)

	enriched, err := svc.Enrich(context.Background(), somePosts("user_a", "user_ghost"))
	if err == nil {
		t.Fatal("expected integrity error")
	}
	if enriched != nil {
		t.Fatal("no partial result on failure")
	}
	se := errors.GetServiceError(err)
	if se == nil || se.Code != errors.CodeInternal {
		t.Fatalf("err = %v, want internal ServiceError", err)
	}
}

func TestEnrichEmptyUsernameFailsWholeBatch(t *testing.T) {
	provider := &stubProvider{profiles: []identity.Profile{
		{ID: "user_a", Username: ""},
	}}
	svc := New(provider, nil)

	if _, err := svc.Enrich(context.Background(), somePosts("user_a")); err == nil {
		t.Fatal("a profile without a username must not enrich")
	}
}

func TestEnrichEmptyInputSkipsLookup(t *testing.T) {
	provider := &stubProvider{}
	svc := New(provider, nil)

	enriched, err := svc.Enrich(context.Background(), nil)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(enriched) != 0 {
		t.Fatalf("enriched = %+v", enriched)
	}
	if provider.calls != 0 {
		t.Fatal("no identity call expected for empty input")
	}
}

func TestEnrichProviderFailurePropagatesAsInternal(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("connection refused")}
	svc := New(provider, nil)

	_, err := svc.Enrich(context.Background(), somePosts("user_a"))
	if !errors.IsCode(err, errors.CodeInternal) {
		t.Fatalf("err = %v, want internal", err)
	}
}
