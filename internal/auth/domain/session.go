package domain

import "time"

// Session is the durable record backing one issued refresh token. The
// session store, not the token signature, is the source of truth for
// refresh validity: that is what makes logout instantaneous even though
// the tokens themselves are stateless JWTs.
type Session struct {
	ID        string
	TokenID   string // unique id embedded in the refresh token's jti claim
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
	UpdatedAt time.Time
}

// Live reports whether the session can still redeem a refresh token.
func (s Session) Live(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// SessionSummary is the user-facing view of an active session.
type SessionSummary struct {
	ID        string    `json:"id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Summary converts a Session for display; the token id stays internal.
func (s Session) Summary() SessionSummary {
	return SessionSummary{
		ID:        s.ID,
		IssuedAt:  s.IssuedAt,
		ExpiresAt: s.ExpiresAt,
	}
}
