package identity

import "fmt"

const (
	KindJWT    = "jwt"
	KindKratos = "kratos"
)

// Config selects and configures a Provider.
type Config struct {
	Kind       string
	CookieName string
	JWT        JWTConfig
	KratosURL  string
}

// NewProvider builds the provider named by cfg.Kind.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Kind {
	case KindJWT:
		jwtConfig := cfg.JWT
		jwtConfig.CookieName = cfg.CookieName
		return NewJWTProvider(jwtConfig)
	case KindKratos:
		return NewKratosProvider(cfg.KratosURL, cfg.CookieName)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.Kind)
	}
}
