package identity

import (
	"context"
	"strings"
)

const (
	KindCognito = "cognito"
	KindOAuth2  = "oauth2"
)

// Config selects and configures the identity provider.
type Config struct {
	Provider string              `yaml:"provider"`
	Cognito  CognitoConfig       `yaml:"cognito,omitempty"`
	OAuth2   PasswordGrantConfig `yaml:"oauth2,omitempty"`
}

// New builds the provider named by cfg.Provider. Cognito is the default.
func New(ctx context.Context, cfg Config, opts ...Option) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", KindCognito:
		return NewCognitoProvider(cfg.Cognito, opts...)
	case KindOAuth2:
		return NewPasswordGrantProvider(ctx, cfg.OAuth2, opts...)
	default:
		return nil, ErrInvalidConfig.Msg("unknown identity provider: " + cfg.Provider)
	}
}
