package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	cognitoTarget      = "AWSCognitoIdentityProviderService.InitiateAuth"
	cognitoContentType = "application/x-amz-json-1.1"
	userPasswordAuth   = "USER_PASSWORD_AUTH"
)

// CognitoConfig identifies a user pool app client.
type CognitoConfig struct {
	Region     string `yaml:"region"`
	UserPoolID string `yaml:"user_pool_id"`
	ClientID   string `yaml:"client_id"`
	// Endpoint overrides the regional service endpoint.
	Endpoint string `yaml:"endpoint,omitempty"`
}

func (c CognitoConfig) endpoint() string {
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/") + "/"
	}
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/", c.Region)
}

// CognitoProvider signs in with the InitiateAuth USER_PASSWORD_AUTH flow.
type CognitoProvider struct {
	cfg        CognitoConfig
	httpClient *http.Client
}

var _ Provider = (*CognitoProvider)(nil)

func NewCognitoProvider(cfg CognitoConfig, opts ...Option) (*CognitoProvider, error) {
	if cfg.ClientID == "" {
		return nil, ErrInvalidConfig.Msg("cognito client_id is required")
	}
	if cfg.Region == "" && cfg.Endpoint == "" {
		return nil, ErrInvalidConfig.Msg("cognito region or endpoint is required")
	}
	o := applyOptions(opts)
	return &CognitoProvider{cfg: cfg, httpClient: o.httpClient}, nil
}

type initiateAuthRequest struct {
	AuthFlow       string            `json:"AuthFlow"`
	ClientId       string            `json:"ClientId"`
	AuthParameters map[string]string `json:"AuthParameters"`
}

type initiateAuthResponse struct {
	AuthenticationResult *struct {
		IdToken     string `json:"IdToken"`
		AccessToken string `json:"AccessToken"`
		ExpiresIn   int64  `json:"ExpiresIn"`
	} `json:"AuthenticationResult"`
	ChallengeName string `json:"ChallengeName"`
}

func (p *CognitoProvider) Authenticate(ctx context.Context, creds Credentials) (*Tokens, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(creds.Email)
	body, err := json.Marshal(initiateAuthRequest{
		AuthFlow: userPasswordAuth,
		ClientId: p.cfg.ClientID,
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": creds.Password,
		},
	})
	if err != nil {
		return nil, ErrIdentity.MsgErr("failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, ErrInvalidConfig.Err(err)
	}
	req.Header.Set("X-Amz-Target", cognitoTarget)
	req.Header.Set("Content-Type", cognitoContentType)

	log.Ctx(ctx).Debug().Str("endpoint", p.cfg.endpoint()).Msg("initiating cognito auth")
	rsp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, ErrUnreachable.Err(err)
	}
	defer rsp.Body.Close()

	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, ErrUnreachable.Err(err)
	}

	if rsp.StatusCode != http.StatusOK {
		return nil, cognitoError(rsp.StatusCode, data)
	}

	var out initiateAuthResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, ErrInvalidResponse.Err(err)
	}
	if out.AuthenticationResult == nil {
		if out.ChallengeName != "" {
			return nil, ErrChallengeRequired.Msg("identity provider requires challenge " + out.ChallengeName)
		}
		return nil, ErrInvalidResponse.Msg("identity provider returned no tokens")
	}
	res := out.AuthenticationResult
	if res.IdToken == "" || res.AccessToken == "" || res.ExpiresIn <= 0 {
		return nil, ErrInvalidResponse.Msg("identity provider returned an incomplete token set")
	}

	return &Tokens{
		IDToken:     res.IdToken,
		AccessToken: res.AccessToken,
		ExpiresIn:   time.Duration(res.ExpiresIn) * time.Second,
		Identity:    confirmedIdentity(res.IdToken, creds),
	}, nil
}

// cognitoError decodes the awsJson1_1 error envelope.
func cognitoError(status int, body []byte) error {
	pe := &ProviderError{StatusCode: status}
	if gjson.ValidBytes(body) {
		code := gjson.GetBytes(body, "__type").String()
		if i := strings.LastIndex(code, "#"); i >= 0 {
			code = code[i+1:]
		}
		pe.Code = code
		pe.Message = gjson.GetBytes(body, "message").String()
		if pe.Message == "" {
			pe.Message = gjson.GetBytes(body, "Message").String()
		}
	}
	if pe.Message == "" && pe.Code == "" {
		pe.Message = "Authentication failed"
	}
	return pe
}
