package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/apperrors"
)

func GetRequestData(r *http.Request, data any) error {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return ErrReqMethodNotSupported()
	}
	if r.Body == nil {
		log.Ctx(r.Context()).Error().Msg("Empty request body")
		return ErrUnableToParseReqData()
	}
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		return ErrUnableToParseReqData()
	}
	return nil
}

type Response struct {
	StatusCode  int
	Location    string
	Response    any
	ContentType string
	// Body is sent verbatim when ContentType is not JSON.
	Body     []byte
	Filename string
}

type RequestHandler func(r *http.Request) (*Response, error)

// ErrorMapper converts an application error to an *Error, or returns nil to
// leave it to the next mapper.
type ErrorMapper func(err error) *Error

var errorMappers []ErrorMapper

// RegisterErrorMapper adds a conversion used by WrapHttpRsp. Mappers are
// consulted before the apperrors fallback.
func RegisterErrorMapper(m ErrorMapper) {
	errorMappers = append(errorMappers, m)
}

func ToHttpxError(err error) *Error {
	if err == nil {
		return nil
	}
	if httperror, ok := err.(*Error); ok {
		return httperror
	}
	for _, m := range errorMappers {
		if e := m(err); e != nil {
			return e
		}
	}
	if appErr, ok := err.(apperrors.Error); ok {
		statusCode := appErr.StatusCode()
		if statusCode == 0 {
			statusCode = http.StatusInternalServerError
		}
		return &Error{
			StatusCode:  statusCode,
			Description: appErr.Error(),
		}
	}
	return ErrApplicationError(err.Error())
}

func WrapHttpRsp(handler RequestHandler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			ev := log.Ctx(r.Context()).Debug().Err(err)
			// wrapped causes go to the log only, never to the client
			if appErr, ok := err.(apperrors.Error); ok {
				ev = ev.Str("cause", appErr.ErrorAll())
			}
			ev.Msg("request failed")
			ToHttpxError(err).Send(w)
			return
		}
		if rsp == nil {
			ErrApplicationError().Send(w)
			return
		}
		if rsp.ContentType == "" {
			rsp.ContentType = "application/json"
		}
		var location []string
		if rsp.Location != "" {
			location = append(location, rsp.Location)
		}
		if rsp.ContentType == "application/json" {
			SendJsonRsp(r.Context(), w, rsp.StatusCode, rsp.Response, location...)
			return
		}
		w.Header().Set("Content-Type", rsp.ContentType)
		if rsp.Filename != "" {
			w.Header().Set("Content-Disposition", `attachment; filename="`+rsp.Filename+`"`)
		}
		w.WriteHeader(rsp.StatusCode)
		w.Write(rsp.Body)
	})
}

// SendJsonRsp writes v as the JSON body of the response.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, v any, location ...string) {
	if w == nil {
		return
	}
	if v == nil {
		v = map[string]any{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to marshal response")
		ErrApplicationError("unable to marshal response").Send(w)
		return
	}
	if len(location) > 0 {
		w.Header().Set("Location", location[0])
	}
	w.Header().Set("Content-Type", "application/json")
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)
	w.Write(b)
}
