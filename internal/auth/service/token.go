package service

import (
	"time"

	"github.com/starkpulse/auth/internal/auth/domain"
	"github.com/starkpulse/auth/pkg/jwtx"
)

// TokenService wraps the signer with the configured lifetimes and builds the
// pairs handed out by login, registration and refresh.
type TokenService struct {
	Signer     *jwtx.Signer
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssuePair mints an access/refresh pair. The refresh token's jti is the
// given session token id, which the store must already know about (or be
// about to learn inside the same transaction).
func (s *TokenService) IssuePair(user domain.User, tokenID string, now time.Time) (domain.TokenPair, error) {
	access, err := s.Signer.SignAccess(user.ID, user.Role, s.AccessTTL, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.Signer.SignRefresh(user.ID, tokenID, s.RefreshTTL, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// VerifyRefresh validates a refresh token's signature and expiry and returns
// its claims. Session-store checks are the caller's job; a verified token by
// itself proves nothing about whether the session is still live.
func (s *TokenService) VerifyRefresh(token string) (jwtx.RefreshClaims, error) {
	claims, err := s.Signer.VerifyRefresh(token)
	if err != nil {
		return jwtx.RefreshClaims{}, ErrTokenInvalid
	}
	return claims, nil
}
