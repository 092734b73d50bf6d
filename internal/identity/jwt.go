package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-set/v3"
	"github.com/shoenig/go-conceal"
)

// DefaultLeeway absorbs clock skew between this host and the provider.
const DefaultLeeway = 5 * time.Second

// JWTConfig describes how session tokens issued by the provider are verified.
// Exactly one of PublicKeyPEM or Secret is needed; the public key wins when both are set.
type JWTConfig struct {
	CookieName        string
	PublicKeyPEM      string
	Secret            *conceal.Text
	Issuer            string
	AuthorizedParties []string
	Leeway            time.Duration
	Clock             func() time.Time
}

// sessionClaims are the claims carried by a provider session token.
type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID       string `json:"sid"`
	AuthorizedParty string `json:"azp"`
}

// JWTProvider verifies session tokens locally, without a network call.
type JWTProvider struct {
	cookieName string
	key        any
	method     string
	issuer     string
	parties    *set.Set[string]
	leeway     time.Duration
	clock      func() time.Time
}

func NewJWTProvider(cfg JWTConfig) (*JWTProvider, error) {
	p := &JWTProvider{
		cookieName: cfg.CookieName,
		issuer:     strings.TrimSpace(cfg.Issuer),
		parties:    set.New[string](len(cfg.AuthorizedParties)),
		leeway:     cfg.Leeway,
		clock:      cfg.Clock,
	}

	if p.cookieName == "" {
		return nil, fmt.Errorf("%w: session cookie name is empty", ErrNotConfigured)
	}

	switch {
	case strings.TrimSpace(cfg.PublicKeyPEM) != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("%w: parse public key: %w", ErrNotConfigured, err)
		}
		p.key = key
		p.method = jwt.SigningMethodRS256.Alg()
	case cfg.Secret != nil && cfg.Secret.Unveil() != "":
		p.key = []byte(cfg.Secret.Unveil())
		p.method = jwt.SigningMethodHS256.Alg()
	default:
		return nil, fmt.Errorf("%w: jwt provider needs a public key or a secret", ErrNotConfigured)
	}

	for _, party := range cfg.AuthorizedParties {
		if party = strings.TrimSpace(party); party != "" {
			p.parties.Insert(party)
		}
	}

	if p.leeway == 0 {
		p.leeway = DefaultLeeway
	}

	if p.clock == nil {
		p.clock = time.Now
	}

	return p, nil
}

func (p *JWTProvider) Resolve(_ context.Context, r *http.Request) (Session, error) {
	credential, ok := ReadCredential(r, p.cookieName)
	if !ok {
		return Session{}, ErrNoSession
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{p.method}),
		jwt.WithTimeFunc(p.clock),
		jwt.WithLeeway(p.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if p.issuer != "" {
		options = append(options, jwt.WithIssuer(p.issuer))
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(credential.Token.Unveil(), &claims, func(*jwt.Token) (any, error) {
		return p.key, nil
	}, options...)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return Session{}, fmt.Errorf("%w: token has no subject", ErrInvalidSession)
	}

	// An empty party list accepts any azp, including none.
	if p.parties.Size() > 0 && !p.parties.Contains(claims.AuthorizedParty) {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidSession, errUnauthorizedParty)
	}

	return Session{
		UserID:    claims.Subject,
		ID:        claims.SessionID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

var errUnauthorizedParty = errors.New("authorized party not allowed")
