package domain

import "time"

// User is the durable credential record. Plaintext passwords and opaque
// verification/reset tokens never appear here; only argon2 hashes and
// SHA-256 fingerprints are stored.
type User struct {
	ID           string
	Username     string
	Email        string // stored lowercased; unique
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	Verified     bool

	// Soft lockout state. LoginAttempts counts consecutive failures and is
	// reset on success; LockedUntil is set when the threshold is crossed.
	LoginAttempts int
	LockedUntil   *time.Time

	// Email verification, set at registration and cleared once verified.
	EmailVerificationHash    *string
	EmailVerificationExpires *time.Time

	// Password reset, set only during an active reset flow.
	PasswordResetHash    *string
	PasswordResetExpires *time.Time

	// TOTP second factor. MFASecret is set at enrollment; MFAEnabled is the
	// time the first code was verified (nil means MFA is off).
	MFASecret  *string
	MFAEnabled *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locked reports whether the account is soft-locked at the given time.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// MFAActive reports whether the TOTP second factor is enabled.
func (u User) MFAActive() bool {
	return u.MFAEnabled != nil && u.MFASecret != nil && *u.MFASecret != ""
}

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Verified  bool   `json:"verified"`
}

// Public strips everything that must not leave the service.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Verified:  u.Verified,
	}
}
