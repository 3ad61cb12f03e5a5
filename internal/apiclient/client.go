package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/session"
	"github.com/tidwall/gjson"
)

// Descriptor describes one backend request. Body is encoded as JSON. Payload
// is sent as is and suppresses the default JSON content type; set
// Headers["Content-Type"] to describe it.
type Descriptor struct {
	// Name labels the operation for observers, e.g. "users.list".
	Name    string
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Payload io.Reader
	Headers map[string]string
}

// Observer is told about every request the client finishes.
type Observer interface {
	ObserveRequest(name, method string, kind Kind, elapsed time.Duration)
}

// Client calls the admin backend on behalf of the signed in user. It reads
// the session store but never writes to it.
type Client struct {
	baseURL    string
	store      session.Store
	httpClient *http.Client
	observer   Observer
	now        func() time.Time

	uploadAttempts uint
	uploadDelay    time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithClock replaces the clock used to check session expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithUploadRetry sets how often a presigned upload is attempted and the
// initial backoff between attempts.
func WithUploadRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts == 0 {
			attempts = 1
		}
		c.uploadAttempts = attempts
		c.uploadDelay = delay
	}
}

// NewClient returns a client for the backend rooted at baseURL.
func NewClient(baseURL string, store session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		now:        time.Now,

		uploadAttempts: 3,
		uploadDelay:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request sends d with the current session's ID token. It fails with
// KindUnauthenticated, without touching the network, when there is no valid
// session.
func (c *Client) Request(ctx context.Context, d Descriptor) (*Result, error) {
	start := time.Now()
	res, err := c.do(ctx, d)
	if c.observer != nil {
		name := d.Name
		if name == "" {
			name = d.Path
		}
		c.observer.ObserveRequest(name, methodOf(d), KindOf(err), time.Since(start))
	}
	return res, err
}

func methodOf(d Descriptor) string {
	if d.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(d.Method)
}

func (c *Client) do(ctx context.Context, d Descriptor) (*Result, error) {
	s, ok := c.store.Load()
	if !ok || !session.IsValid(s, c.now()) {
		return nil, newError(KindUnauthenticated, 0, "Authentication required", nil)
	}

	u, err := c.resolve(d.Path, d.Query)
	if err != nil {
		return nil, err
	}

	body, err := requestBody(d)
	if err != nil {
		return nil, err
	}

	method := methodOf(d)
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, ErrInvalidRequest.MsgErr("failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.IDToken)
	if d.Payload == nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range d.Headers {
		if d.Payload != nil && http.CanonicalHeaderKey(k) == "Content-Type" && isBareMultipart(v) {
			// the boundary is unknown here; leave the header to the payload's owner
			continue
		}
		req.Header.Set(k, v)
	}

	logger := log.Ctx(ctx).With().Str("method", method).Str("path", d.Path).Logger()

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug().Err(err).Msg("api request failed")
		return nil, newError(KindNetwork, 0, networkMessage(err), err)
	}
	defer rsp.Body.Close()

	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		logger.Debug().Err(err).Int("status", rsp.StatusCode).Msg("unable to read api response")
		return nil, newError(KindNetwork, rsp.StatusCode, networkMessage(err), err)
	}
	logger.Debug().Int("status", rsp.StatusCode).Int("bytes", len(data)).Msg("api request")

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		return nil, errorFromResponse(rsp.StatusCode, data)
	}
	return newResult(rsp.StatusCode, rsp.Header.Get("Content-Type"), data)
}

func (c *Client) resolve(p string, query url.Values) (string, error) {
	if c.baseURL == "" {
		return "", ErrMissingEndpoint
	}
	u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(p, "/"))
	if err != nil {
		return "", ErrInvalidRequest.MsgErr("invalid request url", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func requestBody(d Descriptor) (io.Reader, error) {
	if d.Payload != nil {
		return d.Payload, nil
	}
	switch b := d.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	}
	data, err := json.Marshal(d.Body)
	if err != nil {
		return nil, ErrInvalidRequest.MsgErr("unable to encode request body", err)
	}
	return bytes.NewReader(data), nil
}

func isBareMultipart(v string) bool {
	mt, params, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.EqualFold(strings.TrimSpace(v), "multipart/form-data")
	}
	return mt == "multipart/form-data" && params["boundary"] == ""
}

// errorFromResponse builds the error for a non-2xx response, preferring the
// backend's "message" field.
func errorFromResponse(status int, body []byte) *Error {
	msg := ""
	if gjson.ValidBytes(body) {
		if m := gjson.GetBytes(body, "message"); m.Type == gjson.String {
			msg = m.String()
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("API request failed with status %d", status)
	}
	return newError(kindForStatus(status), status, msg, nil)
}

func networkMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "Request was cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	}
	return "Unable to reach the server"
}
