package service

import "errors"

// Service-level sentinels. The HTTP layer maps these onto status codes and
// machine-readable error strings; nothing above this package inspects store
// or crypto errors directly.
var (
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountLocked      = errors.New("account_locked")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenInvalid       = errors.New("invalid_token")
	ErrMFARequired        = errors.New("mfa_required")
	ErrInvalidTOTPCode    = errors.New("invalid_totp_code")
	ErrMFAAlreadyEnabled  = errors.New("mfa_already_enabled")
	ErrMFANotEnabled      = errors.New("mfa_not_enabled")
)
