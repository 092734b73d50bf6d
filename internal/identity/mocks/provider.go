package mocks

import (
	"context"
	"net/http"

	"github.com/mabego/shortlink-web/internal/identity"
)

const (
	CookieName   = "__session"
	ValidToken   = "valid-token"
	ExpiredToken = "expired-token"
	OutageToken  = "outage"
)

// Provider resolves sessions from a fixed set of cookie values.
type Provider struct{}

// newMockSession creates an instance of the Session struct with mock data.
func newMockSession() identity.Session {
	return identity.Session{
		UserID: "user_2abc",
		ID:     "sess_1",
	}
}

func (m *Provider) Resolve(_ context.Context, r *http.Request) (identity.Session, error) {
	credential, ok := identity.ReadCredential(r, CookieName)
	if !ok {
		return identity.Session{}, identity.ErrNoSession
	}

	switch credential.Token.Unveil() {
	case ValidToken:
		return newMockSession(), nil
	case OutageToken:
		return identity.Session{}, identity.ErrProviderUnavailable
	default:
		return identity.Session{}, identity.ErrInvalidSession
	}
}
