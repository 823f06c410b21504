package http

import (
	"net/http"

	"github.com/starkpulse/auth/internal/auth/service"
	"github.com/starkpulse/auth/pkg/httpx"
	"github.com/starkpulse/auth/pkg/slogx"
)

// MeHandler returns the authenticated user's own profile.
type MeHandler struct {
	UserService *service.UserService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		apiError{Code: http.StatusUnauthorized, Err: "invalid_token"}.WriteError(w)
		return
	}

	user, err := h.UserService.GetUser(ctx, userID)
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to load user", "user_id", userID, "err", err)
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user)
}
