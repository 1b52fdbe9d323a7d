package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// TokenSource caches an OAuth2 client-credentials access token and refreshes
// it when it comes within the safety margin of its expiry. Refreshes are
// serialized so concurrent callers trigger at most one exchange.
type TokenSource struct {
	authURL      string
	clientID     string
	clientSecret string
	scope        string
	margin       time.Duration
	client       *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time

	now func() time.Time // test hook
}

// NewTokenSource creates a token source for the given auth endpoint and
// client credentials. margin is subtracted from the reported lifetime so a
// token is never handed out moments before it expires.
func NewTokenSource(authURL, clientID, clientSecret, scope string, margin time.Duration) *TokenSource {
	return &TokenSource{
		authURL:      authURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		margin:       margin,
		client:       &http.Client{Timeout: 10 * time.Second},
		now:          time.Now,
	}
}

// Token returns a valid access token, refreshing it first if the cached one
// is missing or inside the expiry margin.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiry.Add(-ts.margin)) {
		return ts.token, nil
	}
	if err := ts.refresh(ctx); err != nil {
		return "", err
	}
	return ts.token, nil
}

// refresh performs the client-credentials exchange. Caller holds ts.mu.
func (ts *TokenSource) refresh(ctx context.Context) error {
	form := url.Values{}
	form.Set("scope", ts.scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(ts.clientID, ts.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return fmt.Errorf("token endpoint returned an empty access_token")
	}

	ts.token = payload.AccessToken
	ts.expiry = ts.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return nil
}
