package domain

import (
	"errors"
	"net/http"
)

// Error codes carried by AppError.
const (
	CodeNotFound      = 1
	CodeAlreadyExists = 2
	CodeValidation    = 3
	CodeInternal      = 4
	// CodeUnavailable is a transport failure talking to the backend:
	// connection refused, timeout or an undecodable body.
	CodeUnavailable = 5
	// CodeUpstream is a request the backend answered but rejected. Its
	// message is the backend's own.
	CodeUpstream = 6
)

// codeClass describes how a code surfaces over HTTP. public codes carry a
// message that may be shown to operators as is.
type codeClass struct {
	status int
	public bool
}

var codeClasses = map[int]codeClass{
	CodeNotFound:      {http.StatusNotFound, true},
	CodeAlreadyExists: {http.StatusConflict, true},
	CodeValidation:    {http.StatusBadRequest, true},
	CodeInternal:      {http.StatusInternalServerError, false},
	CodeUnavailable:   {http.StatusBadGateway, false},
	CodeUpstream:      {http.StatusBadGateway, true},
}

// AppError is the error type shared by the backend client, the activity
// store and the handlers.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// Status is the backend HTTP status of a CodeUpstream error.
	Status int   `json:"-"`
	Err    error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// Sentinel values for the common codes. Classify errors with the Is helpers,
// which compare codes and so also match fresh and wrapped instances.
var (
	ErrNotFound      = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists = &AppError{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation    = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrInternal      = &AppError{Code: CodeInternal, Message: "internal error"}
	ErrUnavailable   = &AppError{Code: CodeUnavailable, Message: "backend unavailable"}
)

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewUpstreamError records a backend rejection. An empty message falls back
// to the status text.
func NewUpstreamError(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &AppError{Code: CodeUpstream, Message: message, Status: status}
}

func asAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// HasCode reports whether err is or wraps an AppError with code.
func HasCode(err error, code int) bool {
	appErr, ok := asAppError(err)
	return ok && appErr.Code == code
}

// IsNotFound also matches a backend 404 relayed as CodeUpstream.
func IsNotFound(err error) bool {
	appErr, ok := asAppError(err)
	if !ok {
		return false
	}
	return appErr.Code == CodeNotFound || (appErr.Code == CodeUpstream && appErr.Status == http.StatusNotFound)
}

func IsAlreadyExists(err error) bool { return HasCode(err, CodeAlreadyExists) }
func IsValidation(err error) bool    { return HasCode(err, CodeValidation) }
func IsInternal(err error) bool      { return HasCode(err, CodeInternal) }
func IsUnavailable(err error) bool   { return HasCode(err, CodeUnavailable) }
func IsUpstream(err error) bool      { return HasCode(err, CodeUpstream) }

// HTTPStatusCode maps err to a response status. Backend 4xx rejections keep
// their status so a 409 or 422 reaches the client unchanged. Anything that is
// not an AppError is a 500.
func HTTPStatusCode(err error) int {
	appErr, ok := asAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if appErr.Code == CodeUpstream && appErr.Status >= 400 && appErr.Status < 500 {
		return appErr.Status
	}
	if class, known := codeClasses[appErr.Code]; known {
		return class.status
	}
	return http.StatusInternalServerError
}

// DisplayMessage returns err's message when its code is safe to show, and
// fallback otherwise, so transport and storage details stay in the logs.
func DisplayMessage(err error, fallback string) string {
	appErr, ok := asAppError(err)
	if !ok || appErr.Message == "" || !codeClasses[appErr.Code].public {
		return fallback
	}
	return appErr.Message
}
