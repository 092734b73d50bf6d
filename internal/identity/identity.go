// Package identity resolves the signed-in user of a request by asking an external identity
// provider. The provider owns the session; this package only reads it.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shoenig/go-conceal"
)

var (
	// ErrNoSession indicates the request carries no session credential at all.
	ErrNoSession = errors.New("identity: no session")

	// ErrInvalidSession indicates a credential was presented but the provider rejected it.
	ErrInvalidSession = errors.New("identity: invalid session")

	// ErrProviderUnavailable indicates the provider could not be asked.
	ErrProviderUnavailable = errors.New("identity: provider unavailable")

	// ErrNotConfigured indicates the provider settings are incomplete.
	ErrNotConfigured = errors.New("identity: provider not configured")
)

// Session is the provider's view of the current user. The zero value means no user.
type Session struct {
	UserID    string
	ID        string
	ExpiresAt time.Time // zero when the provider does not say
}

// Active reports whether the session belongs to a signed-in user.
func (s Session) Active() bool {
	return s.UserID != ""
}

// Provider resolves the session attached to a request.
type Provider interface {
	Resolve(ctx context.Context, r *http.Request) (Session, error)
}

type sessionContextKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// FromContext returns the session stored in ctx, or the zero Session.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionContextKey{}).(Session)
	return s
}

// Credential is the raw session token presented by the client.
type Credential struct {
	Token  *conceal.Text
	Bearer bool
}

// ReadCredential looks for the session token in the named cookie, then in an
// Authorization: Bearer header.
func ReadCredential(r *http.Request, cookieName string) (Credential, bool) {
	if cookie, err := r.Cookie(cookieName); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return Credential{Token: conceal.New(value)}, true
		}
	}

	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return Credential{}, false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return Credential{}, false
	}

	return Credential{Token: conceal.New(token), Bearer: true}, true
}

// ClearCookie expires the provider's session cookie on this origin.
func ClearCookie(w http.ResponseWriter, cookieName string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
