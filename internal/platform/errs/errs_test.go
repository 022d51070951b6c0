package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validationf("bad input"), http.StatusBadRequest},
		{Authorizationf("not permitted"), http.StatusForbidden},
		{NotFound("appointment"), http.StatusNotFound},
		{Conflictf("lost race"), http.StatusConflict},
		{InvalidTransition("pending", "completed"), http.StatusUnprocessableEntity},
		{BackendUnavailable("session lookup", errors.New("timeout")), http.StatusServiceUnavailable},
		{errors.New("something else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestHTTPStatus_Wrapped(t *testing.T) {
	err := fmt.Errorf("loading dashboard: %w", NotFound("prescription"))
	if got := HTTPStatus(err); got != http.StatusNotFound {
		t.Errorf("wrapped NotFoundError mapped to %d, want 404", got)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NotFound("account")) {
		t.Error("expected IsNotFound to be true")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("expected IsNotFound to be false for plain error")
	}
}

func TestBackendUnavailableUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := BackendUnavailable("profile fetch", inner)
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to expose the inner error")
	}
	if !IsBackendUnavailable(err) {
		t.Error("expected IsBackendUnavailable to be true")
	}
}
