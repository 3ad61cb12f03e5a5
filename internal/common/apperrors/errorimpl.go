package apperrors

import "strings"

// appError implements the apperrors.Error interface
type appError struct {
	msg           string
	base          Error
	wrappedErrors []error
	statuscode    int
}

func (e *appError) Error() string {
	return e.msg
}

// ErrorAll returns the message followed by the messages of all wrapped errors.
func (e *appError) ErrorAll() string {
	if len(e.wrappedErrors) == 0 {
		return e.msg
	}
	msgs := make([]string, 0, len(e.wrappedErrors))
	for _, err := range e.wrappedErrors {
		msgs = append(msgs, err.Error())
	}
	return e.msg + ": " + strings.Join(msgs, "; ")
}

func (e *appError) Unwrap() []error {
	return e.wrappedErrors
}

// New derives a child error. The child matches e with errors.Is.
func (e *appError) New(msg string) Error {
	return &appError{
		msg:        msg,
		statuscode: e.statuscode,
		base:       e,
	}
}

// Msg returns a copy of e carrying msg. Sentinels are never mutated.
func (e *appError) Msg(msg string) Error {
	c := e.clone()
	c.msg = msg
	return c
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	c := e.clone()
	c.msg = msg
	c.wrappedErrors = append(c.wrappedErrors, err...)
	return c
}

func (e *appError) Err(err ...error) Error {
	c := e.clone()
	c.wrappedErrors = append(c.wrappedErrors, err...)
	return c
}

func (e *appError) Is(target error) bool {
	if e == target || e.base == target {
		return true
	}
	if e.base != nil && e.base.Is(target) {
		return true
	}
	return false
}

func (e *appError) SetStatusCode(code int) Error {
	c := e.clone()
	c.statuscode = code
	return c
}

func (e *appError) StatusCode() int {
	return e.statuscode
}

// clone returns a child of e with the same message so the result still
// matches e and its ancestors.
func (e *appError) clone() *appError {
	wrapped := make([]error, len(e.wrappedErrors))
	copy(wrapped, e.wrappedErrors)
	return &appError{
		msg:           e.msg,
		base:          e,
		wrappedErrors: wrapped,
		statuscode:    e.statuscode,
	}
}

func New(msg string) Error {
	return &appError{msg: msg}
}
