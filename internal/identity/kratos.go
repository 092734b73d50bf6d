package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	kratos "github.com/ory/kratos-client-go"
)

// KratosProvider asks an Ory Kratos public API who the current user is.
type KratosProvider struct {
	client     *kratos.APIClient
	cookieName string
}

func NewKratosProvider(baseURL, cookieName string) (*KratosProvider, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: kratos url is empty", ErrNotConfigured)
	}

	if cookieName == "" {
		return nil, fmt.Errorf("%w: session cookie name is empty", ErrNotConfigured)
	}

	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: baseURL},
	}
	configuration.HTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &KratosProvider{
		client:     kratos.NewAPIClient(configuration),
		cookieName: cookieName,
	}, nil
}

// Resolve calls the whoami endpoint with the caller's cookie or session token.
// The deadline comes from ctx.
func (p *KratosProvider) Resolve(ctx context.Context, r *http.Request) (Session, error) {
	credential, ok := ReadCredential(r, p.cookieName)
	if !ok {
		return Session{}, ErrNoSession
	}

	request := p.client.FrontendAPI.ToSession(ctx)
	if credential.Bearer {
		request = request.XSessionToken(credential.Token.Unveil())
	} else {
		request = request.Cookie(p.cookieName + "=" + credential.Token.Unveil())
	}

	session, resp, err := request.Execute()
	if err != nil {
		if resp != nil {
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return Session{}, fmt.Errorf("%w: kratos returned status %d", ErrInvalidSession, resp.StatusCode)
			}
			return Session{}, fmt.Errorf("%w: kratos returned status %d", ErrProviderUnavailable, resp.StatusCode)
		}
		return Session{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	if session.Active != nil && !*session.Active {
		return Session{}, fmt.Errorf("%w: session is not active", ErrInvalidSession)
	}

	if session.Identity == nil || session.Identity.Id == "" {
		return Session{}, fmt.Errorf("%w: session has no identity", ErrInvalidSession)
	}

	s := Session{UserID: session.Identity.Id, ID: session.Id}
	if session.ExpiresAt != nil {
		s.ExpiresAt = *session.ExpiresAt
	}

	return s, nil
}
