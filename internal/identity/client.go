// Package identity wraps the hosted identity provider's management API.
// Only the minimal public profile fields are fetched; identities are never
// stored or cached here.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mojifeed/mojifeed/internal/httputil"
)

// Profile is the public identity of a user. Username may be empty when the
// provider has no handle on record; callers decide how strict to be.
type Profile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
}

// Provider fetches public profiles for a batch of user ids.
type Provider interface {
	GetProfiles(ctx context.Context, ids []string) ([]Profile, error)
}

// Config holds identity provider connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the identity provider over HTTPS.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*Client)(nil)

const (
	// batchLimit bounds a single profile lookup; callers never need more
	// because feeds are capped at 100 posts.
	batchLimit = 100

	maxResponseBytes  = 8 << 20  // 8 MiB
	maxErrorBodyBytes = 32 << 10 // 32 KiB
)

// NewClient creates an identity provider client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("identity base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("identity API key is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// GetProfiles fetches profiles for the given user ids in a single batched
// request. Ids the provider does not know are simply absent from the result;
// the caller owns that policy.
func (c *Client) GetProfiles(ctx context.Context, ids []string) ([]Profile, error) {
	if len(ids) == 0 {
		return []Profile{}, nil
	}
	if len(ids) > batchLimit {
		return nil, fmt.Errorf("profile batch too large: %d ids, limit %d", len(ids), batchLimit)
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(batchLimit))
	for _, id := range ids {
		q.Add("user_id", id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/users?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, truncated, readErr := httputil.ReadAllWithLimit(resp.Body, maxErrorBodyBytes)
		if readErr != nil {
			return nil, fmt.Errorf("read error response: %w", readErr)
		}
		msg := errorMessage(body)
		if truncated {
			msg += "...(truncated)"
		}
		return nil, fmt.Errorf("identity provider error %d: %s", resp.StatusCode, msg)
	}

	body, err := httputil.ReadAllStrict(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var profiles []Profile
	if err := json.Unmarshal(body, &profiles); err != nil {
		return nil, fmt.Errorf("unmarshal profiles: %w", err)
	}
	return profiles, nil
}

// errorMessage digs a human-readable message out of a provider error body.
// The shape varies by endpoint, so probe the known locations.
func errorMessage(body []byte) string {
	for _, path := range []string{"errors.0.message", "message", "error"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return strings.TrimSpace(string(body))
}
