package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// PasswordGrantConfig configures an OAuth2 resource owner password grant
// against an OpenID Connect provider.
type PasswordGrantConfig struct {
	TokenURL     string   `yaml:"token_url,omitempty"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret,omitempty"`
	IssuerURL    string   `yaml:"issuer,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty"`
}

// PasswordGrantProvider exchanges credentials at the token endpoint. When
// an issuer is configured the returned ID token is verified against the
// issuer's published keys.
type PasswordGrantProvider struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
	opts     options
}

var _ Provider = (*PasswordGrantProvider)(nil)

func NewPasswordGrantProvider(ctx context.Context, cfg PasswordGrantConfig, opts ...Option) (*PasswordGrantProvider, error) {
	if cfg.ClientID == "" {
		return nil, ErrInvalidConfig.Msg("oauth2 client_id is required")
	}
	o := applyOptions(opts)
	ctx = oidc.ClientContext(ctx, o.httpClient)

	p := &PasswordGrantProvider{opts: o}
	endpoint := oauth2.Endpoint{TokenURL: cfg.TokenURL}

	if cfg.IssuerURL != "" {
		provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
		if err != nil {
			return nil, ErrInvalidConfig.MsgErr("unable to discover issuer "+cfg.IssuerURL, err)
		}
		if endpoint.TokenURL == "" {
			endpoint.TokenURL = provider.Endpoint().TokenURL
		}
		p.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	}
	if endpoint.TokenURL == "" {
		return nil, ErrInvalidConfig.Msg("oauth2 token_url or issuer is required")
	}
	if cfg.ClientSecret == "" {
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	} else {
		endpoint.AuthStyle = oauth2.AuthStyleInHeader
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email"}
	}
	p.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
	return p, nil
}

func (p *PasswordGrantProvider) Authenticate(ctx context.Context, creds Credentials) (*Tokens, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.opts.httpClient)

	tok, err := p.oauth.PasswordCredentialsToken(ctx, strings.TrimSpace(creds.Email), creds.Password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			pe := &ProviderError{Code: re.ErrorCode, Message: re.ErrorDescription}
			if re.Response != nil {
				pe.StatusCode = re.Response.StatusCode
			}
			return nil, pe
		}
		return nil, ErrUnreachable.Err(err)
	}

	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, ErrInvalidResponse.Msg("token response has no id_token")
	}
	if tok.Expiry.IsZero() {
		return nil, ErrInvalidResponse.Msg("token response has no expiry")
	}

	identity := ""
	if p.verifier != nil {
		idt, err := p.verifier.Verify(oidc.ClientContext(ctx, p.opts.httpClient), rawIDToken)
		if err != nil {
			return nil, ErrInvalidResponse.MsgErr("id_token verification failed", err)
		}
		var claims struct {
			Email string `json:"email"`
		}
		if err := idt.Claims(&claims); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("unable to read id_token claims")
		}
		identity = claims.Email
		if identity == "" {
			identity = idt.Subject
		}
	}
	if identity == "" {
		identity = confirmedIdentity(rawIDToken, creds)
	}

	return &Tokens{
		IDToken:     rawIDToken,
		AccessToken: tok.AccessToken,
		ExpiresIn:   time.Until(tok.Expiry),
		Identity:    identity,
	}, nil
}
