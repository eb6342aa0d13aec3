package entitlement

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
	"github.com/hugo-lorenzo-mato/engage/internal/logging"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) AccessToken() (string, error) { return s.token, s.err }

func TestCheckNoTokenSkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	gate := NewGate(srv.URL, staticTokens{}, logging.NewNop())
	_, err := gate.Check(context.Background())

	if !core.IsCode(err, core.CodeUnauthorized) {
		t.Errorf("expected UNAUTHORIZED, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("missing token must not trigger a network call")
	}
}

func TestCheckActiveSubscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/me" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email":"a@b.com","is_active":true}`))
	}))
	defer srv.Close()

	gate := NewGate(srv.URL, staticTokens{token: "tok-123"}, logging.NewNop())
	user, err := gate.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if user.Email != "a@b.com" {
		t.Errorf("user = %+v", user)
	}
}

func TestCheckInactiveSubscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"email":"a@b.com","is_active":false}`))
	}))
	defer srv.Close()

	gate := NewGate(srv.URL, staticTokens{token: "tok-123"}, logging.NewNop())
	_, err := gate.Check(context.Background())
	if !core.IsCode(err, core.CodeNoSubscription) {
		t.Errorf("expected NO_SUBSCRIPTION, got %v", err)
	}
}

func TestCheckExpiredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	gate := NewGate(srv.URL, staticTokens{token: "stale"}, logging.NewNop())
	_, err := gate.Check(context.Background())
	if !core.IsCode(err, core.CodeUnauthorized) {
		t.Errorf("expected UNAUTHORIZED on 401, got %v", err)
	}
}

func TestCheckServerErrorIsRetryLater(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gate := NewGate(srv.URL, staticTokens{token: "tok"}, logging.NewNop())
	_, err := gate.Check(context.Background())
	if !core.IsCode(err, core.CodeServiceUnavailable) {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
	if !core.IsRetryable(err) {
		t.Error("service failures should be retryable")
	}
}

func TestCheckUnreachableHost(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	gate := NewGate(url, staticTokens{token: "tok"}, logging.NewNop())
	_, err := gate.Check(context.Background())
	if !core.IsCode(err, core.CodeServiceUnavailable) {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
}

func TestCheckMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	gate := NewGate(srv.URL, staticTokens{token: "tok"}, logging.NewNop())
	_, err := gate.Check(context.Background())
	if !core.IsCode(err, core.CodeServiceUnavailable) {
		t.Errorf("expected SERVICE_UNAVAILABLE for malformed body, got %v", err)
	}
}

func TestFileTokenStoreRoundTrip(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())

	// First read: no file, no error.
	token, err := store.AccessToken()
	if err != nil || token != "" {
		t.Fatalf("expected empty token on first run, got %q, %v", token, err)
	}

	if err := store.Save("tok-456"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	token, err = store.AccessToken()
	if err != nil || token != "tok-456" {
		t.Fatalf("AccessToken = %q, %v", token, err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	token, _ = store.AccessToken()
	if token != "" {
		t.Errorf("expected empty after clear, got %q", token)
	}
	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}
