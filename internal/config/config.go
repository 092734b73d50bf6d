// Package config loads the web server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mabego/shortlink-web/internal/identity"
	"github.com/mabego/shortlink-web/internal/validator"
	"github.com/shoenig/go-conceal"
)

var ErrInvalid = errors.New("invalid configuration")

// environment holds raw env values before validation.
type environment struct {
	Addr            string        `env:"ADDR" envDefault:":4001"`
	AppURL          string        `env:"APP_URL" envDefault:"http://localhost:4001"`
	DSN             string        `env:"DSN"`
	Debug           bool          `env:"DEBUG" envDefault:"false"`
	SecureCookies   bool          `env:"SECURE_COOKIES" envDefault:"true"`
	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"12h"`

	IdentityProvider  string        `env:"IDENTITY_PROVIDER" envDefault:"jwt"`
	SessionCookie     string        `env:"IDENTITY_SESSION_COOKIE" envDefault:"__session"`
	JWTPublicKey      string        `env:"IDENTITY_JWT_PUBLIC_KEY"`
	JWTSecret         string        `env:"IDENTITY_JWT_SECRET"`
	JWTIssuer         string        `env:"IDENTITY_JWT_ISSUER"`
	AuthorizedParties []string      `env:"IDENTITY_AUTHORIZED_PARTIES" envSeparator:","`
	KratosURL         string        `env:"IDENTITY_KRATOS_URL"`
	IdentityTimeout   time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"3s"`
	IdentityCacheTTL  time.Duration `env:"IDENTITY_CACHE_TTL" envDefault:"0s"`
	AccountsURL       string        `env:"IDENTITY_ACCOUNTS_URL" envDefault:"http://localhost:4433"`
	SignInPath        string        `env:"IDENTITY_SIGN_IN_PATH" envDefault:"/sign-in"`
	SignUpPath        string        `env:"IDENTITY_SIGN_UP_PATH" envDefault:"/sign-up"`
	AccountPath       string        `env:"IDENTITY_ACCOUNT_PATH" envDefault:"/user"`
	RedirectParam     string        `env:"IDENTITY_REDIRECT_PARAM" envDefault:"redirect_url"`
	SignOutURL        string        `env:"IDENTITY_SIGN_OUT_URL"`

	OTelEndpoint    string `env:"OTEL_ENDPOINT"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"shortlink-web"`
}

// Config is the validated server configuration.
type Config struct {
	Addr            string
	AppURL          string
	DSN             string
	Debug           bool
	SecureCookies   bool
	SessionLifetime time.Duration
	Identity        Identity
	Telemetry       Telemetry
}

// Identity configures the external identity provider and its hosted pages.
type Identity struct {
	Provider          string
	SessionCookie     string
	JWTPublicKey      string
	JWTSecret         *conceal.Text
	JWTIssuer         string
	AuthorizedParties []string
	KratosURL         string
	Timeout           time.Duration
	CacheTTL          time.Duration
	AccountsURL       string
	SignInPath        string
	SignUpPath        string
	AccountPath       string
	RedirectParam     string
	SignOutURL        string
}

type Telemetry struct {
	Endpoint    string
	ServiceName string
}

// ProviderConfig returns the settings identity.NewProvider needs.
func (i Identity) ProviderConfig() identity.Config {
	return identity.Config{
		Kind:       i.Provider,
		CookieName: i.SessionCookie,
		JWT: identity.JWTConfig{
			PublicKeyPEM:      i.JWTPublicKey,
			Secret:            i.JWTSecret,
			Issuer:            i.JWTIssuer,
			AuthorizedParties: i.AuthorizedParties,
		},
		KratosURL: i.KratosURL,
	}
}

// Load reads and validates the configuration from environ, or from the process environment when
// environ is nil.
func Load(environ map[string]string) (Config, error) {
	cfg, err := Parse(environ)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Parse reads the configuration without validating it, so callers can apply overrides first.
func Parse(environ map[string]string) (Config, error) {
	var raw environment

	var err error
	if environ == nil {
		err = env.Parse(&raw)
	} else {
		err = env.ParseWithOptions(&raw, env.Options{Environment: environ})
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		Addr:            strings.TrimSpace(raw.Addr),
		AppURL:          strings.TrimRight(strings.TrimSpace(raw.AppURL), "/"),
		DSN:             strings.TrimSpace(raw.DSN),
		Debug:           raw.Debug,
		SecureCookies:   raw.SecureCookies,
		SessionLifetime: raw.SessionLifetime,
		Identity: Identity{
			Provider:          strings.ToLower(strings.TrimSpace(raw.IdentityProvider)),
			SessionCookie:     strings.TrimSpace(raw.SessionCookie),
			JWTPublicKey:      raw.JWTPublicKey,
			JWTSecret:         conceal.New(raw.JWTSecret),
			JWTIssuer:         strings.TrimSpace(raw.JWTIssuer),
			AuthorizedParties: raw.AuthorizedParties,
			KratosURL:         strings.TrimSpace(raw.KratosURL),
			Timeout:           raw.IdentityTimeout,
			CacheTTL:          raw.IdentityCacheTTL,
			AccountsURL:       strings.TrimRight(strings.TrimSpace(raw.AccountsURL), "/"),
			SignInPath:        raw.SignInPath,
			SignUpPath:        raw.SignUpPath,
			AccountPath:       raw.AccountPath,
			RedirectParam:     strings.TrimSpace(raw.RedirectParam),
			SignOutURL:        strings.TrimSpace(raw.SignOutURL),
		},
		Telemetry: Telemetry{
			Endpoint:    strings.TrimSpace(raw.OTelEndpoint),
			ServiceName: strings.TrimSpace(raw.OTelServiceName),
		},
	}

	return cfg, nil
}

// Validate checks the settings that cannot be corrected at runtime.
func (c *Config) Validate() error {
	if !validator.NotBlank(c.Addr) {
		return fmt.Errorf("%w: ADDR is required", ErrInvalid)
	}

	if !validator.AbsoluteURL(c.AppURL) {
		return fmt.Errorf("%w: APP_URL must be an absolute URL", ErrInvalid)
	}

	if !validator.AbsoluteURL(c.Identity.AccountsURL) {
		return fmt.Errorf("%w: IDENTITY_ACCOUNTS_URL must be an absolute URL", ErrInvalid)
	}

	if !validator.PermittedValue(c.Identity.Provider, identity.KindJWT, identity.KindKratos) {
		return fmt.Errorf("%w: IDENTITY_PROVIDER must be %q or %q", ErrInvalid, identity.KindJWT, identity.KindKratos)
	}

	if !validator.NotBlank(c.Identity.SessionCookie) {
		return fmt.Errorf("%w: IDENTITY_SESSION_COOKIE is required", ErrInvalid)
	}

	if !validator.NotBlank(c.Identity.RedirectParam) {
		return fmt.Errorf("%w: IDENTITY_REDIRECT_PARAM is required", ErrInvalid)
	}

	if c.Identity.Timeout <= 0 {
		return fmt.Errorf("%w: IDENTITY_TIMEOUT must be positive", ErrInvalid)
	}

	if c.Identity.CacheTTL < 0 {
		return fmt.Errorf("%w: IDENTITY_CACHE_TTL cannot be negative", ErrInvalid)
	}

	if c.SessionLifetime <= 0 {
		return fmt.Errorf("%w: SESSION_LIFETIME must be positive", ErrInvalid)
	}

	if c.Identity.SignOutURL != "" {
		if _, err := url.Parse(c.Identity.SignOutURL); err != nil {
			return fmt.Errorf("%w: IDENTITY_SIGN_OUT_URL: %w", ErrInvalid, err)
		}
	}

	return nil
}
