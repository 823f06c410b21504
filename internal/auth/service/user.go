package service

import (
	"context"
	"errors"

	"github.com/starkpulse/auth/internal/auth/domain"
	"github.com/starkpulse/auth/internal/auth/store"
)

// UserService serves the authenticated self-service reads.
type UserService struct {
	Store store.Store
}

// GetUser returns the public view of a user. The caller has already proven
// the id via an access token, so a miss means the account was deleted out
// from under a still-valid token.
func (s *UserService) GetUser(ctx context.Context, userID string) (domain.PublicUser, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.PublicUser{}, ErrUnauthorized
		}
		return domain.PublicUser{}, err
	}
	return user.Public(), nil
}

// ListSessions returns the user's active sessions, newest first. Token ids
// stay out of the summaries; knowing another session's id must not help
// anyone redeem it.
func (s *UserService) ListSessions(ctx context.Context, userID string) ([]domain.SessionSummary, error) {
	sessions, err := s.Store.Sessions().ListActiveSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, sess.Summary())
	}
	return summaries, nil
}
