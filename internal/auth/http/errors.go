package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/starkpulse/auth/internal/auth/service"
	"github.com/starkpulse/auth/pkg/httpx"
	"github.com/starkpulse/auth/pkg/slogx"
)

// apiError is the wire shape of every error response: a machine-readable
// error string, an optional human-readable description, and per-field
// problems for validation failures.
type apiError struct {
	Code        int               `json:"-"`
	Err         string            `json:"error"`
	Description string            `json:"error_description,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

func (e apiError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.Code, e)
}

var (
	errInvalidRequest = apiError{Code: http.StatusBadRequest, Err: "invalid_request", Description: "malformed request body"}
	errServerError    = apiError{Code: http.StatusInternalServerError, Err: "server_error"}
)

func validationError(fields map[string]string) apiError {
	return apiError{
		Code:   http.StatusUnprocessableEntity,
		Err:    "validation_failed",
		Fields: fields,
	}
}

// writeServiceError maps service sentinels onto status codes. Anything
// unmapped is an internal error: logged in full, reported without detail.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrConflict):
		apiError{Code: http.StatusConflict, Err: "conflict", Description: "username or email already in use"}.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		apiError{Code: http.StatusUnauthorized, Err: "invalid_credentials"}.WriteError(w)
	case errors.Is(err, service.ErrAccountLocked):
		apiError{Code: http.StatusLocked, Err: "account_locked", Description: "too many failed attempts, try again later"}.WriteError(w)
	case errors.Is(err, service.ErrTokenInvalid):
		apiError{Code: http.StatusUnauthorized, Err: "invalid_token"}.WriteError(w)
	case errors.Is(err, service.ErrUnauthorized):
		apiError{Code: http.StatusUnauthorized, Err: "unauthorized"}.WriteError(w)
	case errors.Is(err, service.ErrMFARequired):
		apiError{Code: http.StatusUnauthorized, Err: "mfa_required", Description: "otp_code is required for this account"}.WriteError(w)
	case errors.Is(err, service.ErrInvalidTOTPCode):
		apiError{Code: http.StatusUnauthorized, Err: "invalid_totp_code"}.WriteError(w)
	case errors.Is(err, service.ErrMFAAlreadyEnabled):
		apiError{Code: http.StatusConflict, Err: "mfa_already_enabled"}.WriteError(w)
	case errors.Is(err, service.ErrMFANotEnabled):
		apiError{Code: http.StatusBadRequest, Err: "mfa_not_enabled"}.WriteError(w)
	default:
		slogx.FromContext(ctx).Error("unhandled service error", "err", err)
		errServerError.WriteError(w)
	}
}
