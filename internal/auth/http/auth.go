package http

import (
	"encoding/json"
	"net/http"

	"github.com/starkpulse/auth/internal/auth/service"
	"github.com/starkpulse/auth/pkg/httpx"
)

// AuthHandler serves the credential and session endpoints.
type AuthHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	problems := validate(
		field{"username", req.Username, []check{required, username}},
		field{"email", req.Email, []check{required, email}},
		field{"password", req.Password, []check{required, password}},
		field{"first_name", req.FirstName, []check{maxLen(64)}},
		field{"last_name", req.LastName, []check{maxLen(64)}},
	)
	if problems != nil {
		validationError(problems).WriteError(w)
		return
	}

	res, err := h.AuthService.Register(r.Context(), service.RegisterParams{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, res)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTPCode  string `json:"otp_code"`
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	problems := validate(
		field{"email", req.Email, []check{required, email}},
		field{"password", req.Password, []check{required}},
	)
	if problems != nil {
		validationError(problems).WriteError(w)
		return
	}

	res, err := h.AuthService.Login(r.Context(), service.LoginParams{
		Email:    req.Email,
		Password: req.Password,
		OTPCode:  req.OTPCode,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, res)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	if problems := validate(field{"refresh_token", req.RefreshToken, []check{required}}); problems != nil {
		validationError(problems).WriteError(w)
		return
	}

	res, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		apiError{Code: http.StatusUnauthorized, Err: "invalid_token"}.WriteError(w)
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	if problems := validate(field{"refresh_token", req.RefreshToken, []check{required}}); problems != nil {
		validationError(problems).WriteError(w)
		return
	}

	if err := h.AuthService.Logout(r.Context(), userID, req.RefreshToken); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleLogoutAll revokes every session of the authenticated user. The
// subject comes from the access token, not the request body.
func (h *AuthHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		apiError{Code: http.StatusUnauthorized, Err: "invalid_token"}.WriteError(w)
		return
	}

	if err := h.AuthService.LogoutAll(r.Context(), userID); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
