package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func validSession() session.Session {
	return session.Session{
		IDToken:     "id-token-abc",
		AccessToken: "access-token-xyz",
		ExpiresAt:   testNow.Add(time.Hour),
		Identity:    "ana@example.com",
	}
}

func newTestClient(t *testing.T, h http.Handler, opts ...Option) (*Client, *session.MemoryStore, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	require.NoError(t, store.Save(validSession()))
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewClient(srv.URL, store, opts...), store, &hits
}

func TestRequestWithoutSessionMakesNoCall(t *testing.T) {
	c, store, hits := newTestClient(t, http.NotFoundHandler())
	require.NoError(t, store.Clear())

	_, err := c.Request(context.Background(), Descriptor{Path: "/admin/stats"})
	require.Error(t, err)
	assert.Equal(t, KindUnauthenticated, KindOf(err))
	assert.True(t, errors.Is(err, ErrUnauthenticated))
	assert.Equal(t, "Authentication required", err.Error())
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestRequestWithExpiredSessionMakesNoCall(t *testing.T) {
	c, store, hits := newTestClient(t, http.NotFoundHandler())
	s := validSession()
	s.ExpiresAt = testNow
	require.NoError(t, store.Save(s))

	_, err := c.Request(context.Background(), Descriptor{Path: "/admin/stats"})
	assert.True(t, errors.Is(err, ErrUnauthenticated))
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestRequestSendsBearerAndJSON(t *testing.T) {
	var got *http.Request
	var body []byte
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))

	res, err := c.Request(context.Background(), Descriptor{
		Method: http.MethodPost,
		Path:   "admin/users/create",
		Body:   map[string]string{"email": "ben@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer id-token-abc", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "/admin/users/create", got.URL.Path)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.JSONEq(t, `{"email":"ben@example.com"}`, string(body))
	assert.Equal(t, map[string]any{"ok": true}, res.Value)
}

func TestRequestErrorKinds(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		kind    Kind
		message string
	}{
		{http.StatusBadRequest, `{"message":"Invalid year"}`, KindBadRequest, "Invalid year"},
		{http.StatusUnauthorized, `{"message":"Token expired"}`, KindUnauthenticated, "Token expired"},
		{http.StatusForbidden, `{"message":"Forbidden"}`, KindForbidden, "Forbidden"},
		{http.StatusNotFound, `{"message":"site not found"}`, KindNotFound, "site not found"},
		{http.StatusNotFound, ``, KindNotFound, "API request failed with status 404"},
		{http.StatusInternalServerError, `internal`, KindServerError, "API request failed with status 500"},
		{http.StatusTeapot, `{"message":42}`, KindUnknown, "API request failed with status 418"},
		{http.StatusBadGateway, `{"error":"upstream"}`, KindUnknown, "API request failed with status 502"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			c, store, hits := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			_, err := c.Request(context.Background(), Descriptor{Path: "/admin/stats"})
			require.Error(t, err)

			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.status, e.StatusCode)
			assert.Equal(t, tt.message, e.Message)
			assert.Equal(t, tt.status, StatusOf(err))
			assert.Equal(t, int32(1), atomic.LoadInt32(hits), "requests are never retried")

			// the client never logs the user out, whatever the status
			s, ok := store.Load()
			require.True(t, ok)
			assert.Equal(t, "id-token-abc", s.IDToken)
		})
	}
}

func TestRequestNormalisesSuccessBodies(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        any
		text        bool
	}{
		{"json", "application/json; charset=utf-8", `[1,"a"]`, []any{float64(1), "a"}, false},
		{"json without content type", "text/plain", `{"a":1}`, map[string]any{"a": float64(1)}, false},
		{"plain text", "text/plain", "Deleted", "Deleted", true},
		{"empty json", "application/json", "", map[string]any{}, false},
		{"empty text", "text/plain", "  ", map[string]any{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Write([]byte(tt.body))
			}))
			res, err := c.Request(context.Background(), Descriptor{Path: "/x"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Value)
			assert.Equal(t, tt.text, res.IsText())
			if tt.text {
				assert.Equal(t, tt.body, res.Text())
				assert.Error(t, res.Decode(&map[string]any{}))
			}
		})
	}
}

func TestRequestRejectsMalformedJSON(t *testing.T) {
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"broken":`))
	}))
	_, err := c.Request(context.Background(), Descriptor{Path: "/x"})
	require.Error(t, err)
	assert.Equal(t, KindUnknown, KindOf(err))
}

func TestRequestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	store := session.NewMemoryStore()
	require.NoError(t, store.Save(validSession()))
	c := NewClient(base, store, WithClock(func() time.Time { return testNow }))

	_, err := c.Request(context.Background(), Descriptor{Path: "/admin/stats"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.Equal(t, 0, err.(*Error).StatusCode)
	assert.Equal(t, "Unable to reach the server", err.Error())
}

func TestRequestPayloadHeaders(t *testing.T) {
	var contentType string
	var body string
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}))

	_, err := c.Request(context.Background(), Descriptor{
		Method:  http.MethodPost,
		Path:    "/upload",
		Payload: strings.NewReader("raw-bytes"),
		Headers: map[string]string{"content-type": "multipart/form-data", "X-Extra": "1"},
	})
	require.NoError(t, err)
	assert.Empty(t, contentType, "a bare multipart type has no boundary and is dropped")
	assert.Equal(t, "raw-bytes", body)

	_, err = c.Request(context.Background(), Descriptor{
		Method:  http.MethodPost,
		Path:    "/upload",
		Payload: strings.NewReader("raw-bytes"),
		Headers: map[string]string{"Content-Type": "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
}

func TestRequestQueryAndOverrides(t *testing.T) {
	var got *http.Request
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
	}))
	_, err := c.Request(context.Background(), Descriptor{
		Path:    "/admin/images/read",
		Query:   map[string][]string{"county": {"Wake"}, "siteName": {"W 1"}},
		Headers: map[string]string{"Accept": "text/csv"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Wake", got.URL.Query().Get("county"))
	assert.Equal(t, "W 1", got.URL.Query().Get("siteName"))
	assert.Equal(t, "text/csv", got.Header.Get("Accept"))
	assert.Equal(t, http.MethodGet, got.Method)
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveRequest(name, method string, kind Kind, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, name+" "+method+" "+kind.String())
}

func TestObserverSeesEveryRequest(t *testing.T) {
	obs := &recordingObserver{}
	c, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}), WithObserver(obs))

	_, _ = c.Request(context.Background(), Descriptor{Name: "stats", Path: "/admin/stats"})
	require.NoError(t, store.Clear())
	_, _ = c.Request(context.Background(), Descriptor{Method: "delete", Path: "/admin/sites/delete/x"})

	assert.Equal(t, []string{
		"stats GET forbidden",
		"/admin/sites/delete/x DELETE unauthenticated",
	}, obs.calls)
}

func TestMissingBaseURL(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(validSession()))
	c := NewClient("", store, WithClock(func() time.Time { return testNow }))
	_, err := c.Request(context.Background(), Descriptor{Path: "/admin/stats"})
	assert.True(t, errors.Is(err, ErrMissingEndpoint))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("other")))
	wrapped := errors.Join(errors.New("context"), newError(KindForbidden, 403, "no", nil))
	assert.Equal(t, KindForbidden, KindOf(wrapped))
	assert.False(t, errors.Is(newError(KindForbidden, 403, "no", nil), ErrNotFound))
	assert.Equal(t, http.StatusBadGateway, StatusOf(newError(KindNetwork, 0, "down", nil)))
}

func TestDescriptorBodyPassThrough(t *testing.T) {
	var body []byte
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
	}))
	_, err := c.Request(context.Background(), Descriptor{Method: http.MethodPut, Path: "/x", Body: json.RawMessage(`{"a":1}`)})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(body))
}
