// Package csrfclient fetches, caches and refreshes CSRF tokens for form
// submissions against the hub's auth API. It is the client-side companion
// of the issuance endpoint: one instance per signed-in surface, with all
// waits cancellable through the caller's context.
package csrfclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultEndpoint is the issuance endpoint path.
const DefaultEndpoint = "/api/auth/csrf"

// issuanceResponse mirrors the issuance endpoint's success envelope.
// ExpiresIn is reported in milliseconds.
type issuanceResponse struct {
	Success   bool   `json:"success"`
	CSRFToken string `json:"csrfToken"`
	ExpiresIn int64  `json:"expiresIn"`
	Message   string `json:"message"`
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient substitutes the transport; the default carries no cookie
// jar, so callers that rely on cookie auth should pass their own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMinInterval overrides the minimum spacing between network calls.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.minInterval = d }
}

// WithRefreshSkew overrides how long before expiry a token is considered
// stale.
func WithRefreshSkew(d time.Duration) Option {
	return func(c *Client) { c.refreshSkew = d }
}

// Client caches one CSRF token and refreshes it ahead of expiry. Fetch
// failures are retried with capped exponential backoff; concurrent callers
// share a single in-flight fetch.
type Client struct {
	httpClient  *http.Client
	url         string
	minInterval time.Duration
	refreshSkew time.Duration
	now         func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	lastFetch time.Time
}

// New builds a Client fetching from baseURL + DefaultEndpoint.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		url:         baseURL + DefaultEndpoint,
		minInterval: time.Second,
		refreshSkew: 30 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns a live CSRF token, fetching or refreshing as needed. It
// blocks until a token is obtained, the retry schedule is exhausted, or
// ctx is cancelled.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Add(c.refreshSkew).Before(c.expiresAt) {
		return c.token, nil
	}
	return c.fetchLocked(ctx)
}

// Invalidate drops the cached token, forcing the next Token call to fetch.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// fetchLocked runs the retry loop. Callers hold c.mu, which doubles as the
// single-flight guard.
func (c *Client) fetchLocked(ctx context.Context) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 30 * time.Second

	var token string
	var expiresIn time.Duration
	operation := func() error {
		if err := c.waitSpacing(ctx); err != nil {
			return backoff.Permanent(err)
		}
		c.lastFetch = c.now()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			// Retrying cannot help an unauthenticated caller.
			return backoff.Permanent(fmt.Errorf("csrfclient: issuance rejected with status %d", resp.StatusCode))
		default:
			return fmt.Errorf("csrfclient: unexpected status %d", resp.StatusCode)
		}

		var payload issuanceResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return err
		}
		if !payload.Success || payload.CSRFToken == "" {
			return fmt.Errorf("csrfclient: issuance unsuccessful: %s", payload.Message)
		}
		token = payload.CSRFToken
		expiresIn = time.Duration(payload.ExpiresIn) * time.Millisecond
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return "", err
	}

	c.token = token
	c.expiresAt = c.now().Add(expiresIn)
	return c.token, nil
}

// waitSpacing enforces the minimum interval between network calls without
// holding the caller hostage on cancellation.
func (c *Client) waitSpacing(ctx context.Context) error {
	if c.lastFetch.IsZero() {
		return nil
	}
	wait := c.minInterval - c.now().Sub(c.lastFetch)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
