package http

import (
	"encoding/json"
	"net/http"

	"github.com/starkpulse/auth/internal/auth/service"
	"github.com/starkpulse/auth/pkg/httpx"
)

// PasswordHandler serves email verification and the password-reset flow.
type PasswordHandler struct {
	AuthService *service.AuthService
}

// HandleVerifyEmail redeems the token from the verification link. The token
// arrives as a query parameter because the link lands here as a plain GET.
func (h *PasswordHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		apiError{Code: http.StatusBadRequest, Err: "invalid_request", Description: "token query parameter is required"}.WriteError(w)
		return
	}

	if err := h.AuthService.VerifyEmail(r.Context(), token); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword always answers 200 with the same body. Whether the
// address exists must not be observable from this endpoint.
func (h *PasswordHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	if problems := validate(field{"email", req.Email, []check{required, email}}); problems != nil {
		validationError(problems).WriteError(w)
		return
	}

	if err := h.AuthService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "if the address exists, a reset email has been sent",
	})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *PasswordHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	problems := validate(
		field{"token", req.Token, []check{required}},
		field{"new_password", req.NewPassword, []check{required, password}},
	)
	if problems != nil {
		validationError(problems).WriteError(w)
		return
	}

	if err := h.AuthService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
