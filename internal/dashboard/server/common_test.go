package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/identity"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	testEmail    = "ana@example.org"
	testPassword = "right-pass"
	testIDToken  = "id-token-1"

	// passwords that make fakeIdentity fail the way a broken provider would
	passUnreachable = "idp-down"
	passBadResponse = "idp-garbled"
)

type fakeIdentity struct{}

func (fakeIdentity) Authenticate(ctx context.Context, creds identity.Credentials) (*identity.Tokens, error) {
	switch creds.Password {
	case passUnreachable:
		return nil, identity.ErrUnreachable.Err(errors.New("dial tcp 10.0.0.1:443: connect: connection refused"))
	case passBadResponse:
		return nil, identity.ErrInvalidResponse.Msg("identity provider returned no tokens")
	}
	if creds.Password != testPassword {
		return nil, &identity.ProviderError{StatusCode: http.StatusBadRequest, Code: "NotAuthorizedException", Message: "Incorrect username or password."}
	}
	return &identity.Tokens{
		IDToken:     testIDToken,
		AccessToken: "access-token-1",
		ExpiresIn:   time.Hour,
		Identity:    creds.Email,
	}, nil
}

// testEnv is a dashboard wired to a fake admin backend. Backend routes are
// keyed by "METHOD path".
type testEnv struct {
	t       *testing.T
	backend *httptest.Server
	store   *session.MemoryStore
	server  *DashboardServer

	mu          sync.Mutex
	routes      map[string]http.HandlerFunc
	hits        int
	bearer      string
	lastBody    []byte
	contentType string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{t: t, routes: map[string]http.HandlerFunc{}}
	e.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		e.mu.Lock()
		e.hits++
		e.bearer = r.Header.Get("Authorization")
		e.lastBody = body
		e.contentType = r.Header.Get("Content-Type")
		h, ok := e.routes[r.Method+" "+r.URL.Path]
		e.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"no such route"}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(e.backend.Close)

	e.store = session.NewMemoryStore()
	s, err := CreateNewServer(context.Background(), Deps{
		Store:      e.store,
		Identity:   fakeIdentity{},
		APIBaseURL: e.backend.URL,
		Clock:      func() time.Time { return testNow },
	})
	require.NoError(t, err, "create new server")
	s.MountHandlers()
	e.server = s
	return e
}

func (e *testEnv) route(key string, h http.HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.routes[key] = h
}

func (e *testEnv) backendHits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hits
}

func jsonRoute(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func executeTestRequest(t *testing.T, e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.server.Router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(jsonBody(e.t, body))
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return executeTestRequest(e.t, e, req)
}

func (e *testEnv) signIn() {
	e.t.Helper()
	rr := e.do(http.MethodPost, "/login", map[string]string{"email": testEmail, "password": testPassword})
	require.Equal(e.t, http.StatusOK, rr.Code, rr.Body.String())
}

func jsonBody(t *testing.T, data any) []byte {
	if s, ok := data.(string); ok {
		return []byte(s)
	}
	b, err := json.Marshal(data)
	require.NoError(t, err, "Failed to marshal data into JSON")
	return b
}

func checkHeader(t *testing.T, h http.Header) {
	expected := "application/json"
	got := h.Get("Content-Type")
	assert.Equal(t, expected, got, "Content-Type expected %s, got %s", expected, got)
	assert.NotEmpty(t, h.Get("X-Seatbelt-Request-ID"), "No Request Id")
}

func compareJson(t *testing.T, expected any, actual string) {
	j, err := json.Marshal(expected)
	assert.NoError(t, err, "json marshal")
	assert.JSONEq(t, string(j), actual, "Expected: %v\n Got: %v\n", expected, actual)
}
