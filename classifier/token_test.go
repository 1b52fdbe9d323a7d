package classifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, exchanges *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(exchanges, 1)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "token request must carry basic auth")
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "posts.classify", r.PostForm.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","expires_in":1800}`))
	}))
}

func TestTokenCachedUntilMargin(t *testing.T) {
	var exchanges int64
	srv := newTokenServer(t, &exchanges)
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "client-id", "client-secret", "posts.classify", 60*time.Second)

	base := time.Now()
	clock := base
	ts.now = func() time.Time { return clock }

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.EqualValues(t, 1, exchanges)

	// Well inside the lifetime: no new exchange.
	clock = base.Add(10 * time.Minute)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, exchanges)

	// Inside the safety margin (1800s - 60s = 1740s): refresh even though the
	// token is not strictly expired yet.
	clock = base.Add(1750 * time.Second)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, exchanges)
}

func TestTokenSingleFlight(t *testing.T) {
	var exchanges int64
	srv := newTokenServer(t, &exchanges)
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "client-id", "client-secret", "posts.classify", 60*time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := ts.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok-1", tok)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, exchanges, "concurrent callers must share one exchange")
}

func TestTokenErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "id", "secret", "scope", time.Minute)
	_, err := ts.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
