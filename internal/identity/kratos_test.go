package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cattlecloud.net/go/scope"
	"github.com/shoenig/test/must"
)

const whoamiBody = `{
  "id": "sess_kratos_1",
  "active": true,
  "expires_at": "2026-10-18T12:00:00Z",
  "identity": {
    "id": "5f1f7b1e-0000-4000-8000-000000000001",
    "schema_id": "default",
    "schema_url": "http://kratos/schemas/default",
    "traits": {"email": "ada@example.com"}
  }
}`

const inactiveBody = `{
  "id": "sess_kratos_2",
  "active": false,
  "identity": {
    "id": "5f1f7b1e-0000-4000-8000-000000000002",
    "schema_id": "default",
    "schema_url": "http://kratos/schemas/default",
    "traits": {}
  }
}`

func newKratosServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/whoami" {
			http.NotFound(w, r)
			return
		}

		cookie := r.Header.Get("Cookie")
		token := r.Header.Get("X-Session-Token")
		if cookie == "" && token == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func kratosRequest(t *testing.T) *http.Request {
	t.Helper()

	r := newRequest(t)
	r.AddCookie(&http.Cookie{Name: "ory_kratos_session", Value: "MTY5..."})
	return r
}

func TestKratosProvider_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("active session", func(t *testing.T) {
		server := newKratosServer(t, http.StatusOK, whoamiBody)
		p, err := NewKratosProvider(server.URL, "ory_kratos_session")
		must.NoError(t, err)

		s, err := p.Resolve(scope.New(), kratosRequest(t))
		must.NoError(t, err)
		must.Eq(t, "5f1f7b1e-0000-4000-8000-000000000001", s.UserID)
		must.Eq(t, "sess_kratos_1", s.ID)
		must.Eq(t, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC), s.ExpiresAt.UTC())
	})

	t.Run("session token header", func(t *testing.T) {
		server := newKratosServer(t, http.StatusOK, whoamiBody)
		p, err := NewKratosProvider(server.URL, "ory_kratos_session")
		must.NoError(t, err)

		r := newRequest(t)
		r.Header.Set("Authorization", "Bearer ory_st_abc")
		s, err := p.Resolve(scope.New(), r)
		must.NoError(t, err)
		must.True(t, s.Active())
	})

	t.Run("no cookie", func(t *testing.T) {
		p, err := NewKratosProvider("http://192.0.2.1:4433", "ory_kratos_session")
		must.NoError(t, err)

		_, err = p.Resolve(scope.New(), newRequest(t))
		must.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("unauthorized", func(t *testing.T) {
		server := newKratosServer(t, http.StatusUnauthorized, `{"error":{"code":401}}`)
		p, err := NewKratosProvider(server.URL, "ory_kratos_session")
		must.NoError(t, err)

		_, err = p.Resolve(scope.New(), kratosRequest(t))
		must.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("inactive", func(t *testing.T) {
		server := newKratosServer(t, http.StatusOK, inactiveBody)
		p, err := NewKratosProvider(server.URL, "ory_kratos_session")
		must.NoError(t, err)

		_, err = p.Resolve(scope.New(), kratosRequest(t))
		must.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("server error", func(t *testing.T) {
		server := newKratosServer(t, http.StatusInternalServerError, `{"error":{"code":500}}`)
		p, err := NewKratosProvider(server.URL, "ory_kratos_session")
		must.NoError(t, err)

		_, err = p.Resolve(scope.New(), kratosRequest(t))
		must.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		t.Cleanup(server.Close)

		p, err := NewKratosProvider(server.URL, "ory_kratos_session")
		must.NoError(t, err)

		ctx, cancel := context.WithTimeout(scope.New(), 50*time.Millisecond)
		defer cancel()

		_, err = p.Resolve(ctx, kratosRequest(t))
		must.ErrorIs(t, err, ErrProviderUnavailable)
	})
}
