package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/starkpulse/auth/internal/auth/domain"
	"github.com/starkpulse/auth/internal/auth/mail"
	"github.com/starkpulse/auth/internal/auth/store"
	"github.com/starkpulse/auth/pkg/cryptox"
	"github.com/starkpulse/auth/pkg/idx"
	"github.com/starkpulse/auth/pkg/slogx"
)

// AuthService implements the credential and session flows: registration,
// login with lockout and optional TOTP, refresh rotation, logout, email
// verification and password reset.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService
	Mailer mail.Mailer

	// Lockout policy: after MaxLoginAttempts consecutive failures the
	// account is soft-locked for LockWindow.
	MaxLoginAttempts int
	LockWindow       time.Duration

	// Lifetimes of the opaque email-verification and password-reset tokens.
	VerificationTTL time.Duration
	ResetTTL        time.Duration

	// RevokeOnReuse revokes every session of a user when a refresh token is
	// presented after it was already rotated or revoked. A replayed refresh
	// token means either a leak or a very confused client; erring on the
	// side of a forced re-login is the safer default.
	RevokeOnReuse bool
}

type RegisterParams struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type LoginParams struct {
	Email    string
	Password string

	// OTPCode is required when the account has TOTP enabled.
	OTPCode string
}

// Register creates a new account, emails a verification link and signs the
// user straight in. Email uniqueness is enforced by the store, not by a
// read-then-write check, so concurrent registrations cannot race past it.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (domain.AuthResult, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.AuthResult{}, err
	}

	verifyToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.AuthResult{}, err
	}
	verifyHash := cryptox.FingerprintToken(verifyToken)
	verifyExpires := now.Add(s.VerificationTTL)

	user := domain.User{
		ID:           idx.New().String(),
		Username:     strings.TrimSpace(p.Username),
		Email:        strings.ToLower(strings.TrimSpace(p.Email)),
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		PasswordHash: hash,
		Role:         "user",

		EmailVerificationHash:    &verifyHash,
		EmailVerificationExpires: &verifyExpires,

		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.AuthResult{}, ErrConflict
		}
		return domain.AuthResult{}, err
	}

	// The account is already committed; a failed email must not undo it.
	// The user can request a fresh link, and housekeeping clears the stale
	// token fingerprint once it expires.
	if err := s.Mailer.SendVerification(ctx, user.Email, verifyToken); err != nil {
		l.Error("verification email failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	tokens, err := s.startSession(ctx, s.Store, user, now)
	if err != nil {
		return domain.AuthResult{}, err
	}

	l.Info("user registered", slog.String("user_id", user.ID))

	return domain.AuthResult{User: user.Public(), Tokens: tokens}, nil
}

// Login verifies credentials, enforces the lockout policy and the TOTP
// second factor, and issues a fresh session.
func (s *AuthService) Login(ctx context.Context, p LoginParams) (domain.AuthResult, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(p.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthResult{}, ErrInvalidCredentials
		}
		return domain.AuthResult{}, err
	}

	// The lock check runs before password verification so a locked account
	// gives attackers no oracle, not even with the correct password.
	if user.Locked(now) {
		return domain.AuthResult{}, ErrAccountLocked
	}

	ok, err := cryptox.VerifyPassword(p.Password, user.PasswordHash)
	if err != nil {
		return domain.AuthResult{}, err
	}
	if !ok {
		return domain.AuthResult{}, s.recordFailure(ctx, user.ID, ErrInvalidCredentials)
	}

	if user.MFAActive() {
		if p.OTPCode == "" {
			return domain.AuthResult{}, ErrMFARequired
		}
		if !totp.Validate(p.OTPCode, *user.MFASecret) {
			// A wrong code burns a login attempt too; otherwise a stolen
			// password turns the second factor into an unmetered oracle. It
			// surfaces as plain invalid_credentials so the response does not
			// confirm the password on its own.
			return domain.AuthResult{}, s.recordFailure(ctx, user.ID, ErrInvalidCredentials)
		}
	}

	if user.LoginAttempts > 0 {
		if err := s.Store.Users().ResetLoginAttempts(ctx, user.ID); err != nil {
			return domain.AuthResult{}, err
		}
	}

	tokens, err := s.startSession(ctx, s.Store, user, now)
	if err != nil {
		return domain.AuthResult{}, err
	}

	l.Info("user logged in", slog.String("user_id", user.ID))

	return domain.AuthResult{User: user.Public(), Tokens: tokens}, nil
}

// recordFailure bumps the failure counter and returns the cause unchanged.
// The attempt that crosses the threshold still reads as bad credentials; the
// lock only shows itself on the next try. An attacker cannot tell from the
// failing attempt that they tripped the alarm.
func (s *AuthService) recordFailure(ctx context.Context, userID string, cause error) error {
	attempts, err := s.Store.Users().RecordFailedLogin(ctx, userID, s.MaxLoginAttempts, s.LockWindow)
	if err != nil {
		return err
	}
	if attempts >= s.MaxLoginAttempts {
		slogx.FromContext(ctx).Warn("account locked after repeated failures",
			slog.String("user_id", userID),
			slog.Int("attempts", attempts),
		)
	}
	return cause
}

// Refresh rotates a refresh token: the presented session is revoked and a
// new one issued atomically. Exactly one concurrent caller can win the
// rotation; everyone else gets ErrTokenInvalid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.AuthResult, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return domain.AuthResult{}, err
	}

	var result domain.AuthResult
	var reusedBy string

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		sess, err := tx.Sessions().GetSessionByTokenID(ctx, claims.TokenID())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}

		if sess.Revoked {
			// Replay of an already-rotated token. The sentinel rolls the
			// transaction back, so the family revocation happens on the root
			// store after WithTx returns, where it actually commits.
			l.Warn("refresh token reuse detected",
				slog.String("user_id", sess.UserID),
				slog.String("session_id", sess.ID),
			)
			reusedBy = sess.UserID
			return ErrTokenInvalid
		}

		if now.After(sess.ExpiresAt) {
			return ErrTokenInvalid
		}

		won, err := tx.Sessions().RevokeSession(ctx, sess.TokenID)
		if err != nil {
			return err
		}
		if !won {
			// Lost a concurrent rotation of the same token.
			return ErrTokenInvalid
		}

		user, err := tx.Users().GetUserByID(ctx, sess.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}

		tokens, err := s.startSession(ctx, tx, user, now)
		if err != nil {
			return err
		}

		result = domain.AuthResult{User: user.Public(), Tokens: tokens}
		return nil
	})
	if reusedBy != "" && s.RevokeOnReuse {
		if rerr := s.Store.Sessions().RevokeAllUserSessions(ctx, reusedBy); rerr != nil {
			l.Error("failed to revoke session family after token reuse",
				slog.String("user_id", reusedBy),
				slog.Any("error", rerr),
			)
		}
	}
	if err != nil {
		return domain.AuthResult{}, err
	}

	return result, nil
}

// Logout revokes the session behind the presented refresh token, provided it
// belongs to the authenticated user. Revoking an already-revoked session is
// not an error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return err
	}

	// One user must not be able to log another one out.
	if claims.Subject != userID {
		return ErrUnauthorized
	}

	_, err = s.Store.Sessions().RevokeSession(ctx, claims.TokenID())
	return err
}

// LogoutAll revokes every live session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.Store.Sessions().RevokeAllUserSessions(ctx, userID); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("all sessions revoked", slog.String("user_id", userID))
	return nil
}

// VerifyEmail redeems an email-verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.Store.Users().GetUserByVerificationHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTokenInvalid
		}
		return err
	}

	if err := s.Store.Users().MarkEmailVerified(ctx, user.ID); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("email verified", slog.String("user_id", user.ID))
	return nil
}

// ForgotPassword starts the reset flow. It always reports success to the
// caller; whether the address exists, whether a token was stored, and
// whether the email went out are all invisible from the outside, so the
// endpoint cannot be used to enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	expires := time.Now().UTC().Add(s.ResetTTL)
	if err := s.Store.Users().SetPasswordResetToken(ctx, user.ID, cryptox.FingerprintToken(token), expires); err != nil {
		return err
	}

	if err := s.Mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		l.Error("password reset email failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	return nil
}

// ResetPassword redeems a reset token, installs the new password and revokes
// every session. Anyone holding old refresh tokens, including whoever made
// the reset necessary, is signed out.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.Store.Users().GetUserByResetHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTokenInvalid
		}
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return err
		}
		if err := tx.Users().ClearPasswordResetToken(ctx, user.ID); err != nil {
			return err
		}
		if err := tx.Users().ResetLoginAttempts(ctx, user.ID); err != nil {
			return err
		}
		return tx.Sessions().RevokeAllUserSessions(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password reset", slog.String("user_id", user.ID))
	return nil
}

// startSession persists a session row and mints the matching token pair. The
// st argument is either the root store or a transaction, so refresh rotation
// can run it atomically with the revoke of the old session.
func (s *AuthService) startSession(ctx context.Context, st store.Store, user domain.User, now time.Time) (domain.TokenPair, error) {
	sess := domain.Session{
		ID:        idx.New().String(),
		TokenID:   idx.New().String(),
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.Tokens.RefreshTTL),
		UpdatedAt: now,
	}

	if err := st.Sessions().CreateSession(ctx, sess); err != nil {
		return domain.TokenPair{}, err
	}

	return s.Tokens.IssuePair(user, sess.TokenID, now)
}
