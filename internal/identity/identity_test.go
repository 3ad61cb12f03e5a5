package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestIdentityFromIDToken(t *testing.T) {
	assert.Equal(t, "admin@example.com", IdentityFromIDToken(signedIDToken(t, jwt.MapClaims{"email": "admin@example.com", "sub": "123"})))
	assert.Equal(t, "admin", IdentityFromIDToken(signedIDToken(t, jwt.MapClaims{"cognito:username": "admin"})))
	assert.Equal(t, "", IdentityFromIDToken("not-a-jwt"))
}

func TestCredentialsValidate(t *testing.T) {
	assert.ErrorIs(t, Credentials{Password: "x"}.Validate(), ErrEmailRequired)
	assert.ErrorIs(t, Credentials{Email: "a@b.co"}.Validate(), ErrPasswordRequired)
	assert.NoError(t, Credentials{Email: "a@b.co", Password: "x"}.Validate())
}

func newCognitoServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, cognitoTarget, r.Header.Get("X-Amz-Target"))
		assert.Equal(t, cognitoContentType, r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		handler(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCognitoAuthenticate(t *testing.T) {
	idToken := signedIDToken(t, jwt.MapClaims{"email": "admin@example.com"})
	srv := newCognitoServer(t, func(w http.ResponseWriter, body map[string]any) {
		assert.Equal(t, userPasswordAuth, body["AuthFlow"])
		assert.Equal(t, "client-1", body["ClientId"])
		params := body["AuthParameters"].(map[string]any)
		assert.Equal(t, "admin@example.com", params["USERNAME"])
		assert.Equal(t, "secret-pass", params["PASSWORD"])

		w.Header().Set("Content-Type", cognitoContentType)
		json.NewEncoder(w).Encode(map[string]any{
			"AuthenticationResult": map[string]any{
				"IdToken":     idToken,
				"AccessToken": "access-1",
				"ExpiresIn":   3600,
				"TokenType":   "Bearer",
			},
		})
	})

	p, err := NewCognitoProvider(CognitoConfig{ClientID: "client-1", Endpoint: srv.URL})
	require.NoError(t, err)

	tokens, err := p.Authenticate(context.Background(), Credentials{Email: " admin@example.com ", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, idToken, tokens.IDToken)
	assert.Equal(t, "access-1", tokens.AccessToken)
	assert.Equal(t, time.Hour, tokens.ExpiresIn)
	assert.Equal(t, "admin@example.com", tokens.Identity)
}

func TestCognitoRejection(t *testing.T) {
	srv := newCognitoServer(t, func(w http.ResponseWriter, body map[string]any) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"__type":"NotAuthorizedException","message":"Incorrect username or password."}`))
	})
	p, err := NewCognitoProvider(CognitoConfig{ClientID: "client-1", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = p.Authenticate(context.Background(), Credentials{Email: "admin@example.com", Password: "wrong"})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "NotAuthorizedException", pe.Code)
	assert.Equal(t, "Incorrect username or password.", pe.Error())
	assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
}

func TestCognitoChallenge(t *testing.T) {
	srv := newCognitoServer(t, func(w http.ResponseWriter, body map[string]any) {
		w.Write([]byte(`{"ChallengeName":"NEW_PASSWORD_REQUIRED","Session":"abc"}`))
	})
	p, err := NewCognitoProvider(CognitoConfig{ClientID: "client-1", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = p.Authenticate(context.Background(), Credentials{Email: "admin@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrChallengeRequired)
	assert.Contains(t, err.Error(), "NEW_PASSWORD_REQUIRED")
}

func TestCognitoMissingCredentialsSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	p, err := NewCognitoProvider(CognitoConfig{ClientID: "client-1", Endpoint: srv.URL})
	require.NoError(t, err)
	_, err = p.Authenticate(context.Background(), Credentials{Email: "admin@example.com"})
	assert.ErrorIs(t, err, ErrPasswordRequired)
	assert.Equal(t, 0, calls)
}

func TestNewCognitoProviderConfig(t *testing.T) {
	_, err := NewCognitoProvider(CognitoConfig{Region: "us-east-2"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewCognitoProvider(CognitoConfig{ClientID: "c"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	p, err := NewCognitoProvider(CognitoConfig{ClientID: "c", Region: "us-east-2"})
	require.NoError(t, err)
	assert.Equal(t, "https://cognito-idp.us-east-2.amazonaws.com/", p.cfg.endpoint())
}

func TestPasswordGrantAuthenticate(t *testing.T) {
	idToken := signedIDToken(t, jwt.MapClaims{"email": "ops@example.com"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(raw))
		require.NoError(t, err)
		assert.Equal(t, "password", form.Get("grant_type"))
		assert.Equal(t, "ops@example.com", form.Get("username"))
		assert.Equal(t, "client-2", form.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		if form.Get("password") != "right" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Incorrect username or password."}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-2",
			"token_type":   "Bearer",
			"expires_in":   1800,
			"id_token":     idToken,
		})
	}))
	defer srv.Close()

	p, err := New(context.Background(), Config{
		Provider: KindOAuth2,
		OAuth2:   PasswordGrantConfig{TokenURL: srv.URL, ClientID: "client-2"},
	})
	require.NoError(t, err)

	tokens, err := p.Authenticate(context.Background(), Credentials{Email: "ops@example.com", Password: "right"})
	require.NoError(t, err)
	assert.Equal(t, idToken, tokens.IDToken)
	assert.Equal(t, "access-2", tokens.AccessToken)
	assert.Equal(t, "ops@example.com", tokens.Identity)
	assert.InDelta(t, (30 * time.Minute).Seconds(), tokens.ExpiresIn.Seconds(), 5)

	_, err = p.Authenticate(context.Background(), Credentials{Email: "ops@example.com", Password: "wrong"})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "invalid_grant", pe.Code)
	assert.Equal(t, "Incorrect username or password.", pe.Error())
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "ldap"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
