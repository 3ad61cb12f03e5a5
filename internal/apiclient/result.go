package apiclient

import (
	"bytes"
	"encoding/json"
	"mime"
	"strings"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/apperrors"
)

var (
	ErrResponse        apperrors.Error = apperrors.New("unexpected response")
	ErrTextResponse    apperrors.Error = ErrResponse.New("response is not JSON")
	ErrResponseShape   apperrors.Error = ErrResponse.New("response does not have the expected shape")
	ErrInvalidRequest  apperrors.Error = apperrors.New("invalid request")
	ErrMissingEndpoint apperrors.Error = ErrInvalidRequest.New("api url is not configured")
)

// Result is a successful response. Value is the decoded JSON document, or a
// string when the body was not JSON. An empty body decodes to an empty
// object.
type Result struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Value       any

	json []byte
}

// IsText reports whether the body could not be read as JSON.
func (r *Result) IsText() bool {
	_, ok := r.Value.(string)
	return ok
}

// Text returns the raw body for text results and the body bytes otherwise.
func (r *Result) Text() string {
	if s, ok := r.Value.(string); ok {
		return s
	}
	return string(r.Body)
}

// JSON returns the JSON document behind Value, or nil for text results.
func (r *Result) JSON() []byte {
	return r.json
}

// Decode unmarshals the JSON document into v.
func (r *Result) Decode(v any) error {
	if r.json == nil {
		return ErrTextResponse.Msg("expected a JSON response, got text")
	}
	if err := json.Unmarshal(r.json, v); err != nil {
		return ErrResponseShape.MsgErr("unable to decode response", err)
	}
	return nil
}

var emptyObject = []byte("{}")

func isJSONContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.Contains(ct, "application/json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// newResult normalises a 2xx body. A declared JSON body must parse; anything
// else is tried as JSON and kept as text when it is not.
func newResult(status int, contentType string, body []byte) (*Result, error) {
	r := &Result{StatusCode: status, ContentType: contentType, Body: body}
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) == 0 {
		r.json = emptyObject
		r.Value = map[string]any{}
		return r, nil
	}

	var v any
	err := json.Unmarshal(trimmed, &v)
	if isJSONContentType(contentType) {
		if err != nil {
			return nil, newError(KindUnknown, status, "Unable to parse response from server", err)
		}
	} else if err != nil {
		r.Value = string(body)
		return r, nil
	}
	r.json = trimmed
	r.Value = v
	return r, nil
}
