package server

import (
	"errors"
	"net/http"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/apiclient"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/auth"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/httpx"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/identity"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
)

func init() {
	httpx.RegisterErrorMapper(mapError)
}

// mapError relays backend and sign in failures with the status and message
// the operator should see.
func mapError(err error) *httpx.Error {
	var fe survey.FieldErrors
	if errors.As(err, &fe) {
		return &httpx.Error{StatusCode: http.StatusBadRequest, Description: fe.Error()}
	}

	var le *auth.LoginError
	if errors.As(err, &le) {
		switch {
		case errors.Is(le.Err, identity.ErrEmailRequired), errors.Is(le.Err, identity.ErrPasswordRequired):
			return httpx.ErrInvalidRequest(le.Message)
		case errors.Is(le.Err, auth.ErrAuth):
			return httpx.ErrApplicationError(le.Message)
		case errors.Is(le.Err, identity.ErrUnreachable), errors.Is(le.Err, identity.ErrInvalidResponse):
			return httpx.ErrBadGateway(le.Message)
		}
		return httpx.ErrUnAuthorized(le.Message)
	}

	var ae *apiclient.Error
	if errors.As(err, &ae) {
		return &httpx.Error{StatusCode: apiclient.StatusOf(err), Description: ae.Error()}
	}
	return nil
}
