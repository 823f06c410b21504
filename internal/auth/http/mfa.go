package http

import (
	"encoding/json"
	"net/http"

	"github.com/starkpulse/auth/internal/auth/service"
	"github.com/starkpulse/auth/pkg/httpx"
)

// MFAHandler serves TOTP enrollment, activation and removal. Every endpoint
// requires a valid access token.
type MFAHandler struct {
	MFAService *service.MFAService
}

func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		apiError{Code: http.StatusUnauthorized, Err: "invalid_token"}.WriteError(w)
		return
	}

	enrollment, err := h.MFAService.Enroll(r.Context(), userID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, enrollment)
}

type otpRequest struct {
	OTPCode string `json:"otp_code"`
}

func (h *MFAHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		apiError{Code: http.StatusUnauthorized, Err: "invalid_token"}.WriteError(w)
		return
	}

	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}
	if problems := validate(field{"otp_code", req.OTPCode, []check{required}}); problems != nil {
		validationError(problems).WriteError(w)
		return
	}

	if err := h.MFAService.Activate(r.Context(), userID, req.OTPCode); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "mfa enabled"})
}

func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		apiError{Code: http.StatusUnauthorized, Err: "invalid_token"}.WriteError(w)
		return
	}

	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}
	if problems := validate(field{"otp_code", req.OTPCode, []check{required}}); problems != nil {
		validationError(problems).WriteError(w)
		return
	}

	if err := h.MFAService.Disable(r.Context(), userID, req.OTPCode); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
