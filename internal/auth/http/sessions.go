package http

import (
	"net/http"

	"github.com/starkpulse/auth/internal/auth/domain"
	"github.com/starkpulse/auth/internal/auth/service"
	"github.com/starkpulse/auth/pkg/httpx"
)

// SessionsHandler lists the authenticated user's active sessions.
type SessionsHandler struct {
	UserService *service.UserService
}

type sessionsResponse struct {
	Sessions []domain.SessionSummary `json:"sessions"`
}

func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		apiError{Code: http.StatusUnauthorized, Err: "invalid_token"}.WriteError(w)
		return
	}

	sessions, err := h.UserService.ListSessions(ctx, userID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	if sessions == nil {
		sessions = []domain.SessionSummary{}
	}
	httpx.WriteJSON(w, http.StatusOK, sessionsResponse{Sessions: sessions})
}
