package store

import (
	"context"
	"errors"
	"time"

	"github.com/starkpulse/auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// postgres later) implement it. Sub-repositories keep concerns tidy and let
// transactional code reuse the same method set.
type Store interface {
	Users() Users
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction: rolled back if fn errors,
	// committed otherwise. Preferred for multi-step mutations such as
	// refresh rotation.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped store with explicit Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id minted by the app as a ULID).
	// Returns ErrAlreadyExists when the email or username is taken.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by the lowercased email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// RecordFailedLogin atomically increments login_attempts and, when the
	// new count reaches maxAttempts, sets locked_until = now + lockFor.
	// The increment-and-check runs as one conditional UPDATE so concurrent
	// failures cannot undercount across server instances. It returns the
	// post-increment attempt count.
	RecordFailedLogin(ctx context.Context, userID string, maxAttempts int, lockFor time.Duration) (int, error)

	// ResetLoginAttempts zeroes the counter and clears any lock.
	ResetLoginAttempts(ctx context.Context, userID string) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// SetEmailVerificationToken stores the fingerprint of a fresh
	// verification token and its expiry.
	SetEmailVerificationToken(ctx context.Context, userID, tokenHash string, expires time.Time) error

	// GetUserByVerificationHash returns the user holding a still-valid
	// (unexpired) email verification token fingerprint.
	GetUserByVerificationHash(ctx context.Context, hash string) (domain.User, error)

	// MarkEmailVerified flips verified and clears the verification fields.
	MarkEmailVerified(ctx context.Context, userID string) error

	// SetPasswordResetToken stores the fingerprint of a fresh reset token
	// and its expiry, replacing any previous one.
	SetPasswordResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error

	// GetUserByResetHash returns the user holding a still-valid (unexpired)
	// password reset token fingerprint.
	GetUserByResetHash(ctx context.Context, hash string) (domain.User, error)

	// ClearPasswordResetToken removes the reset fields.
	ClearPasswordResetToken(ctx context.Context, userID string) error

	// UpdateMFASecret stores a TOTP secret (enrollment, not yet enabled).
	UpdateMFASecret(ctx context.Context, userID, secret string) error

	// EnableMFA stamps mfa_enabled once the first code verified.
	EnableMFA(ctx context.Context, userID string) error

	// DisableMFA clears the secret and the enabled stamp.
	DisableMFA(ctx context.Context, userID string) error

	// ClearExpiredActionTokens wipes verification/reset fields whose expiry
	// has passed (housekeeping).
	ClearExpiredActionTokens(ctx context.Context) error
}

type Sessions interface {
	// CreateSession stores a new refresh-token session.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByTokenID returns the session for a refresh token's jti.
	GetSessionByTokenID(ctx context.Context, tokenID string) (domain.Session, error)

	// RevokeSession flips revoked only if it is currently unset. It reports
	// whether this call won the flip: under concurrent rotation of the same
	// refresh token, exactly one caller sees true.
	RevokeSession(ctx context.Context, tokenID string) (bool, error)

	// RevokeAllUserSessions bulk-revokes every live session for a user
	// (logout-all, password reset, reuse detection).
	RevokeAllUserSessions(ctx context.Context, userID string) error

	// ListActiveSessions returns non-revoked, non-expired sessions for a
	// user, newest first.
	ListActiveSessions(ctx context.Context, userID string) ([]domain.Session, error)

	// DeleteExpiredSessions removes rows past their expiry (housekeeping).
	DeleteExpiredSessions(ctx context.Context) error
}
