package config

import (
	"testing"
	"time"

	"github.com/shoenig/test/must"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(map[string]string{})
	must.NoError(t, err)

	must.Eq(t, ":4001", cfg.Addr)
	must.Eq(t, "http://localhost:4001", cfg.AppURL)
	must.Eq(t, "", cfg.DSN)
	must.False(t, cfg.Debug)
	must.True(t, cfg.SecureCookies)
	must.Eq(t, 12*time.Hour, cfg.SessionLifetime)
	must.Eq(t, "jwt", cfg.Identity.Provider)
	must.Eq(t, "__session", cfg.Identity.SessionCookie)
	must.Eq(t, 3*time.Second, cfg.Identity.Timeout)
	must.Eq(t, time.Duration(0), cfg.Identity.CacheTTL)
	must.Eq(t, "/sign-in", cfg.Identity.SignInPath)
	must.Eq(t, "/sign-up", cfg.Identity.SignUpPath)
	must.Eq(t, "/user", cfg.Identity.AccountPath)
	must.Eq(t, "redirect_url", cfg.Identity.RedirectParam)
	must.Eq(t, "shortlink-web", cfg.Telemetry.ServiceName)
	must.Eq(t, "", cfg.Telemetry.Endpoint)
}

func TestLoad_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := Load(map[string]string{
		"ADDR":                        ":8080",
		"APP_URL":                     "https://short.example.com/",
		"IDENTITY_PROVIDER":           "Kratos",
		"IDENTITY_SESSION_COOKIE":     "ory_kratos_session",
		"IDENTITY_KRATOS_URL":         "http://kratos:4433",
		"IDENTITY_JWT_SECRET":         "s3cr3t",
		"IDENTITY_AUTHORIZED_PARTIES": "https://a.example.com,https://b.example.com",
		"IDENTITY_CACHE_TTL":          "30s",
		"SECURE_COOKIES":              "false",
	})
	must.NoError(t, err)

	must.Eq(t, ":8080", cfg.Addr)
	must.Eq(t, "https://short.example.com", cfg.AppURL)
	must.Eq(t, "kratos", cfg.Identity.Provider)
	must.Eq(t, 30*time.Second, cfg.Identity.CacheTTL)
	must.False(t, cfg.SecureCookies)
	must.Eq(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Identity.AuthorizedParties)
	must.Eq(t, "s3cr3t", cfg.Identity.JWTSecret.Unveil())

	pc := cfg.Identity.ProviderConfig()
	must.Eq(t, "kratos", pc.Kind)
	must.Eq(t, "ory_kratos_session", pc.CookieName)
	must.Eq(t, "http://kratos:4433", pc.KratosURL)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		environ map[string]string
	}{
		{name: "relative app url", environ: map[string]string{"APP_URL": "/app"}},
		{name: "unknown provider", environ: map[string]string{"IDENTITY_PROVIDER": "saml"}},
		{name: "blank cookie", environ: map[string]string{"IDENTITY_SESSION_COOKIE": " "}},
		{name: "zero timeout", environ: map[string]string{"IDENTITY_TIMEOUT": "0s"}},
		{name: "negative cache ttl", environ: map[string]string{"IDENTITY_CACHE_TTL": "-1s"}},
		{name: "relative accounts url", environ: map[string]string{"IDENTITY_ACCOUNTS_URL": "accounts"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.environ)
			must.ErrorIs(t, err, ErrInvalid)
		})
	}

	t.Run("bad duration", func(t *testing.T) {
		_, err := Load(map[string]string{"IDENTITY_TIMEOUT": "soon"})
		must.Error(t, err)
	})
}

func TestParse_DefersValidation(t *testing.T) {
	t.Parallel()

	environ := map[string]string{"ADDR": " "}

	_, err := Load(environ)
	must.ErrorIs(t, err, ErrInvalid)

	cfg, err := Parse(environ)
	must.NoError(t, err)
	must.Eq(t, "", cfg.Addr)
	must.ErrorIs(t, cfg.Validate(), ErrInvalid)

	cfg.Addr = ":5000"
	must.NoError(t, cfg.Validate())
}
