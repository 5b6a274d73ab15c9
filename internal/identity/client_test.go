package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestGetProfilesBatchesIDs(t *testing.T) {
	var gotPath, gotAuth string
	var gotIDs []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotIDs = r.URL.Query()["user_id"]
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"user_a","username":"alice","profile_image_url":"https://img/a.png"},
			{"id":"user_b","username":"bob","profile_image_url":"https://img/b.png"}
		]`))
	})

	profiles, err := c.GetProfiles(context.Background(), []string{"user_a", "user_b"})
	if err != nil {
		t.Fatalf("get profiles: %v", err)
	}
	if gotPath != "/v1/users" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header = %s", gotAuth)
	}
	if len(gotIDs) != 2 {
		t.Fatalf("request ids = %v", gotIDs)
	}
	if len(profiles) != 2 || profiles[0].Username != "alice" {
		t.Fatalf("profiles = %+v", profiles)
	}
}

func TestGetProfilesEmptyInputSkipsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	profiles, err := c.GetProfiles(context.Background(), nil)
	if err != nil {
		t.Fatalf("get profiles: %v", err)
	}
	if called {
		t.Fatal("no request should be made for an empty id set")
	}
	if len(profiles) != 0 {
		t.Fatalf("profiles = %+v", profiles)
	}
}

func TestGetProfilesRejectsOversizedBatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = "user"
	}
	if _, err := c.GetProfiles(context.Background(), ids); err == nil {
		t.Fatal("expected batch size error")
	}
}

func TestGetProfilesSurfacesProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors":[{"message":"user_id is invalid"}]}`))
	})

	_, err := c.GetProfiles(context.Background(), []string{"bad"})
	if err == nil {
		t.Fatal("expected provider error")
	}
	if !strings.Contains(err.Error(), "user_id is invalid") {
		t.Fatalf("err = %v, want provider message", err)
	}
	if !strings.Contains(err.Error(), "422") {
		t.Fatalf("err = %v, want status code", err)
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	if _, err := NewClient(Config{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
	if _, err := NewClient(Config{BaseURL: "https://api.example.com"}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
