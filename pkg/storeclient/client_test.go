package storeclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kidotrendz/storefront/internal/apierr"
)

// countingStore wraps MemCredentialStore to observe how often the session
// is torn down.
type countingStore struct {
	MemCredentialStore
	clears int32
}

func (s *countingStore) Clear() error {
	atomic.AddInt32(&s.clears, 1)
	return s.MemCredentialStore.Clear()
}

func bearerOf(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// gatewayFixture is a fake API: /auth/refresh counts calls and hands out
// nextToken (or rejects), and /auth/profile accepts only validToken.
type gatewayFixture struct {
	refreshCalls  int32
	refreshDelay  time.Duration
	refreshFails  bool
	nextToken     string
	validToken    string
	profileCalls  int32
	profileDelay  time.Duration
	profileStatus int // 0 means enforce validToken
	user          UserSnapshot
}

func (f *gatewayFixture) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.refreshCalls, 1)
		if f.refreshDelay > 0 {
			time.Sleep(f.refreshDelay)
		}
		if f.refreshFails {
			writeError(w, http.StatusUnauthorized, "refresh token expired")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": f.nextToken})
	})
	mux.HandleFunc("GET /api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.profileCalls, 1)
		if f.profileDelay > 0 {
			time.Sleep(f.profileDelay)
		}
		if f.profileStatus != 0 {
			writeError(w, f.profileStatus, "profile unavailable")
			return
		}
		if bearerOf(r) != f.validToken {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		writeJSON(w, http.StatusOK, f.user)
	})
	return mux
}

func newGatewayClient(t *testing.T, f *gatewayFixture, store CredentialStore) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithCredentialStore(store))
	require.NoError(t, err)
	return c
}

func TestClient_ConcurrentExpiriesShareOneRefresh(t *testing.T) {
	fixture := &gatewayFixture{
		refreshDelay: 150 * time.Millisecond,
		nextToken:    "fresh",
		validToken:   "fresh",
		user:         UserSnapshot{ID: "u1", Name: "Maya", Role: "customer"},
	}
	c := newGatewayClient(t, fixture, &MemCredentialStore{})
	c.session.set(&fixture.user, "stale")

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = c.Profile(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&fixture.refreshCalls),
		"all 401s must share one refresh")
	assert.Equal(t, "fresh", c.Session().Token())
	assert.True(t, c.Session().Authenticated())
}

func TestClient_FailedRefreshClearsSessionOnce(t *testing.T) {
	fixture := &gatewayFixture{
		refreshDelay: 150 * time.Millisecond,
		refreshFails: true,
		validToken:   "never-valid",
	}
	store := &countingStore{}
	c := newGatewayClient(t, fixture, store)
	c.session.set(&UserSnapshot{ID: "u1"}, "stale")

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = c.Profile(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		require.Error(t, err, "caller %d", i)
		kind := apierr.KindOf(err)
		assert.Contains(t, []apierr.Kind{apierr.KindUnauthorized, apierr.KindUnauthenticated}, kind,
			"caller %d got %v", i, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&fixture.refreshCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.clears),
		"session must be cleared exactly once")
	assert.False(t, c.Session().Authenticated())
	assert.Equal(t, SessionUnauthenticated, c.Session().State())
}

func TestClient_ClearDuringRefreshDiscardsResult(t *testing.T) {
	// A logout's clear landing while the refresh is in flight wins: the
	// refreshed token must not come back, in memory or in the store.
	fixture := &gatewayFixture{
		refreshDelay: 300 * time.Millisecond,
		nextToken:    "fresh",
		validToken:   "fresh",
		user:         UserSnapshot{ID: "u1"},
	}
	store := &MemCredentialStore{}
	c := newGatewayClient(t, fixture, store)
	c.session.set(&UserSnapshot{ID: "u1"}, "stale")

	done := make(chan error, 1)
	go func() {
		_, err := c.Profile(context.Background())
		done <- err
	}()

	// Let the 401 land and the refresh start, then tear the session down.
	time.Sleep(100 * time.Millisecond)
	c.session.clear()

	err := <-done
	require.Error(t, err)
	assert.Equal(t, apierr.KindUnauthorized, apierr.KindOf(err))

	assert.Empty(t, c.Session().Token())
	assert.False(t, c.Session().Authenticated())
	assert.Equal(t, SessionUnauthenticated, c.Session().State())

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, creds.Token, "cleared credentials must not be re-persisted")
	assert.Equal(t, int32(1), atomic.LoadInt32(&fixture.refreshCalls))
}

func TestClient_CallerCancellationDoesNotFailSharedRefresh(t *testing.T) {
	fixture := &gatewayFixture{
		refreshDelay: 200 * time.Millisecond,
		nextToken:    "fresh",
		validToken:   "fresh",
		user:         UserSnapshot{ID: "u1", Name: "Maya", Role: "customer"},
	}
	c := newGatewayClient(t, fixture, &MemCredentialStore{})
	c.session.set(&fixture.user, "stale")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 2)
	go func() {
		_, err := c.Profile(ctx)
		done <- err
	}()
	go func() {
		_, err := c.Profile(context.Background())
		done <- err
	}()

	// Cancel the first caller while the shared refresh is in flight.
	time.Sleep(80 * time.Millisecond)
	cancel()

	var failures []error
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			failures = append(failures, err)
		}
	}

	// Only the cancelled caller fails, and only with its own cancellation;
	// the other waiter gets the refreshed token and the session survives.
	require.Len(t, failures, 1)
	assert.Equal(t, apierr.KindTransient, apierr.KindOf(failures[0]))
	assert.True(t, c.Session().Authenticated())
	assert.Equal(t, "fresh", c.Session().Token())
	assert.Equal(t, int32(1), atomic.LoadInt32(&fixture.refreshCalls))
}

func TestClient_SecondRejectionIsTerminal(t *testing.T) {
	// Refresh succeeds but the protected endpoint still rejects the new
	// token: the client retries once, then gives up and clears the session.
	fixture := &gatewayFixture{
		nextToken:  "fresh",
		validToken: "some-other-token",
	}
	c := newGatewayClient(t, fixture, &MemCredentialStore{})
	c.session.set(&UserSnapshot{ID: "u1"}, "stale")

	_, err := c.Profile(context.Background())
	require.Error(t, err)
	assert.Equal(t, apierr.KindUnauthorized, apierr.KindOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fixture.refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&fixture.profileCalls))
	assert.False(t, c.Session().Authenticated())
}

func TestClient_MissingTokenIsUnauthenticatedWithoutRefresh(t *testing.T) {
	fixture := &gatewayFixture{validToken: "whatever"}
	c := newGatewayClient(t, fixture, &MemCredentialStore{})

	_, err := c.Profile(context.Background())
	require.Error(t, err)
	assert.Equal(t, apierr.KindUnauthenticated, apierr.KindOf(err))
	assert.Zero(t, atomic.LoadInt32(&fixture.refreshCalls),
		"a request without a token must not trigger refresh")
}

func TestClient_ErrorTranslation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "product not found")
	})
	mux.HandleFunc("POST /api/contact", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadRequest, "all fields are required")
	})
	mux.HandleFunc("GET /api/products/featured", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.ProductByID(ctx, "missing")
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))

	err = c.SubmitContact(ctx, "", "", "", "")
	assert.Equal(t, apierr.KindInvalidArgument, apierr.KindOf(err))

	_, err = c.FeaturedProducts(ctx)
	assert.Equal(t, apierr.KindTransient, apierr.KindOf(err))
}

func TestClient_RestoreWithoutStoredToken(t *testing.T) {
	fixture := &gatewayFixture{}
	c := newGatewayClient(t, fixture, &MemCredentialStore{})

	state, err := c.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SessionUnauthenticated, state)
	assert.Equal(t, SessionUnauthenticated, c.Session().State())
	assert.Zero(t, atomic.LoadInt32(&fixture.profileCalls),
		"no stored token means no network")
}

func TestClient_RestoreValidToken(t *testing.T) {
	fixture := &gatewayFixture{
		validToken: "stored",
		user:       UserSnapshot{ID: "u1", Name: "Maya", Email: "maya@example.com", Role: "customer"},
	}
	store := &MemCredentialStore{}
	require.NoError(t, store.Save(Credentials{Token: "stored"}))
	c := newGatewayClient(t, fixture, store)

	state, err := c.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SessionAuthenticated, state)
	assert.True(t, c.Session().Authenticated())

	user := c.Session().User()
	require.NotNil(t, user)
	assert.Equal(t, "maya@example.com", user.Email)
}

func TestClient_RestoreWhileValidatingIsIgnored(t *testing.T) {
	fixture := &gatewayFixture{
		profileDelay: 150 * time.Millisecond,
		validToken:   "stored",
		user:         UserSnapshot{ID: "u1", Name: "Maya", Role: "customer"},
	}
	store := &MemCredentialStore{}
	require.NoError(t, store.Save(Credentials{Token: "stored"}))
	c := newGatewayClient(t, fixture, store)

	first := make(chan SessionState, 1)
	go func() {
		state, err := c.Restore(context.Background())
		assert.NoError(t, err)
		first <- state
	}()

	// Second resolution arrives mid-validation: it must return right away
	// without a second profile round trip.
	time.Sleep(50 * time.Millisecond)
	state, err := c.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SessionValidating, state)

	assert.Equal(t, SessionAuthenticated, <-first)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fixture.profileCalls),
		"re-entrant restore must not run a second profile check")
	assert.True(t, c.Session().Authenticated())
}

func TestClient_RestoreExpiredTokenRefreshesTransparently(t *testing.T) {
	fixture := &gatewayFixture{
		nextToken:  "fresh",
		validToken: "fresh",
		user:       UserSnapshot{ID: "u1", Name: "Maya", Role: "customer"},
	}
	store := &MemCredentialStore{}
	require.NoError(t, store.Save(Credentials{Token: "stale"}))
	c := newGatewayClient(t, fixture, store)

	state, err := c.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SessionAuthenticated, state)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fixture.refreshCalls))
	assert.Equal(t, "fresh", c.Session().Token())
}

func TestClient_RestoreRejectedTokenClearsCredentials(t *testing.T) {
	fixture := &gatewayFixture{
		refreshFails: true,
		validToken:   "never-valid",
	}
	store := &countingStore{}
	require.NoError(t, store.Save(Credentials{Token: "stale"}))
	c := newGatewayClient(t, fixture, store)

	state, err := c.Restore(context.Background())
	require.NoError(t, err, "a rejected token is a clean unauthenticated result")
	assert.Equal(t, SessionUnauthenticated, state)
	assert.False(t, c.Session().Authenticated())

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, creds.Token, "rejected credentials must not survive")
}

func TestClient_RestoreTransientFailureKeepsStoredToken(t *testing.T) {
	fixture := &gatewayFixture{profileStatus: http.StatusServiceUnavailable}
	store := &MemCredentialStore{}
	require.NoError(t, store.Save(Credentials{Token: "stored"}))
	c := newGatewayClient(t, fixture, store)

	state, err := c.Restore(context.Background())
	require.Error(t, err)
	assert.Equal(t, SessionUnauthenticated, state)
	assert.False(t, c.Session().Authenticated())

	// The token stays persisted so the next start can try again.
	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "stored", creds.Token)
}

func TestClient_LoginAttachesBearerToLaterRequests(t *testing.T) {
	var sawBearer atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"user":  UserSnapshot{ID: "u1", Name: "Maya", Role: "customer"},
			"token": "issued",
		})
	})
	mux.HandleFunc("GET /api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		sawBearer.Store(bearerOf(r))
		writeJSON(w, http.StatusOK, UserSnapshot{ID: "u1", Name: "Maya", Role: "customer"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	user, err := c.Login(ctx, "maya@example.com", "opensesame")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, c.Session().Authenticated())

	_, err = c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "issued", sawBearer.Load())
}

func TestClient_LogoutClearsLocalStateDespiteServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "refresh token expired")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	c.session.set(&UserSnapshot{ID: "u1"}, "stale")
	require.NoError(t, c.Cart().Add(Product{ID: "p1", Name: "Beanie", Price: 12.50}, ""))

	require.NoError(t, c.Logout(context.Background()))
	assert.False(t, c.Session().Authenticated())
	assert.Zero(t, c.Cart().Len())
}
