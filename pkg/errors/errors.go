package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels identify the failure class independently of the message.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrUpstream       = errors.New("upstream call failed")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrInternal       = errors.New("internal error")
)

// kind binds a sentinel to its wire code, HTTP status and the message shown
// when only the sentinel (not an AppError) reaches the HTTP layer.
type kind struct {
	sentinel error
	code     string
	status   int
	public   string
}

// kinds is ordered; the first sentinel matched by errors.Is wins.
var kinds = []kind{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "resource not found"},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, ""},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, "authentication required"},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden, "access denied"},
	{ErrConflict, "CONFLICT", http.StatusConflict, "the cart changed, reload and retry"},
	{ErrUpstream, "UPSTREAM_ERROR", http.StatusBadGateway, "the shop service rejected the request"},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "the shop service is temporarily unavailable"},
}

var internalKind = kind{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError, "an internal error occurred"}

// AppError is an error that knows how it is rendered to the browser.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(k kind, message string) *AppError {
	return &AppError{Code: k.code, Message: message, Status: k.status, Err: k.sentinel}
}

func lookup(sentinel error) kind {
	for _, k := range kinds {
		if k.sentinel == sentinel {
			return k
		}
	}
	return internalKind
}

// NotFound reports a missing resource, e.g. NotFound("cart line", id).
func NotFound(resource, id string) *AppError {
	return newError(lookup(ErrNotFound), fmt.Sprintf("%s with id %s not found", resource, id))
}

func InvalidInput(message string) *AppError {
	return newError(lookup(ErrInvalidInput), message)
}

func Unauthorized(message string) *AppError {
	return newError(lookup(ErrUnauthorized), message)
}

func Forbidden(message string) *AppError {
	return newError(lookup(ErrForbidden), message)
}

func Conflict(message string) *AppError {
	return newError(lookup(ErrConflict), message)
}

// Upstream reports a remote call that completed but was rejected, or whose
// payload could not be trusted. The message is qualified with service.
func Upstream(service, message string) *AppError {
	return newError(lookup(ErrUpstream), service+": "+message)
}

// Unavailable reports a remote dependency that could not be reached at all,
// typically because the circuit breaker is open.
func Unavailable(message string) *AppError {
	return newError(lookup(ErrServiceUnavail), message)
}

// Internal hides err behind a generic message.
func Internal(err error) *AppError {
	e := newError(internalKind, internalKind.public)
	e.Err = err
	return e
}

// Classify resolves err to the code, status and message written to clients.
// AppErrors keep their own message. Bare sentinels get a fixed public
// message, except invalid input which echoes err. Anything else is internal.
func Classify(err error) (code string, status int, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Status, appErr.Message
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			if k.public == "" {
				return k.code, k.status, err.Error()
			}
			return k.code, k.status, k.public
		}
	}
	return internalKind.code, internalKind.status, internalKind.public
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	_, status, _ := Classify(err)
	return status
}
