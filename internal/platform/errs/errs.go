// Package errs defines the error taxonomy shared by the portal's services
// and handlers. Services return typed errors; handlers map them to HTTP
// status codes without inspecting error strings.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports bad input shape or values. Surfaced to the end
// user as a form-level message.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// AuthorizationError reports that the caller lacks rights to the resource.
// The message never confirms whether the resource exists.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

func Authorizationf(format string, args ...interface{}) error {
	return &AuthorizationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a referenced entity is absent.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// ConflictError reports that a concurrent transition lost a race. The
// caller should retry.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func Conflictf(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports a lifecycle transition outside the allowed
// edge set.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func InvalidTransition(from, to string) error {
	return &InvalidTransitionError{From: from, To: to}
}

// BackendUnavailableError reports that an external collaborator (identity
// store, session store, blob store) was transiently unreachable.
type BackendUnavailableError struct {
	Op  string
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable during %s: %v", e.Op, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

func BackendUnavailable(op string, err error) error {
	return &BackendUnavailableError{Op: op, Err: err}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsBackendUnavailable reports whether err is a BackendUnavailableError.
func IsBackendUnavailable(err error) bool {
	var bu *BackendUnavailableError
	return errors.As(err, &bu)
}

// HTTPStatus maps an error to the HTTP status code handlers should return.
// Unknown errors map to 500.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		ae *AuthorizationError
		nf *NotFoundError
		ce *ConflictError
		it *InvalidTransitionError
		bu *BackendUnavailableError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &it):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ae):
		return http.StatusForbidden
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.As(err, &bu):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
