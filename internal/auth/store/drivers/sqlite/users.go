package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/starkpulse/auth/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, email, first_name, last_name, password_hash, role, verified,
	login_attempts, locked_until,
	email_verification_hash, email_verification_expires,
	password_reset_hash, password_reset_expires,
	mfa_secret, mfa_enabled,
	created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u             domain.User
		lockedUntil   sql.NullTime
		verifyHash    sql.NullString
		verifyExpires sql.NullTime
		resetHash     sql.NullString
		resetExpires  sql.NullTime
		mfaSecret     sql.NullString
		mfaEnabled    sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Role, &u.Verified,
		&u.LoginAttempts, &lockedUntil,
		&verifyHash, &verifyExpires,
		&resetHash, &resetExpires,
		&mfaSecret, &mfaEnabled,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.LockedUntil = mapNullTimePtr(lockedUntil)
	u.EmailVerificationHash = mapNullStringPtr(verifyHash)
	u.EmailVerificationExpires = mapNullTimePtr(verifyExpires)
	u.PasswordResetHash = mapNullStringPtr(resetHash)
	u.PasswordResetExpires = mapNullTimePtr(resetExpires)
	u.MFASecret = mapNullStringPtr(mfaSecret)
	u.MFAEnabled = mapNullTimePtr(mfaEnabled)

	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, username, email, first_name, last_name, password_hash, role, verified,
			login_attempts, locked_until,
			email_verification_hash, email_verification_expires,
			password_reset_hash, password_reset_expires,
			mfa_secret, mfa_enabled,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Role, u.Verified,
		u.LoginAttempts, mapOptionalTime(u.LockedUntil),
		mapOptionalString(u.EmailVerificationHash), mapOptionalTime(u.EmailVerificationExpires),
		mapOptionalString(u.PasswordResetHash), mapOptionalTime(u.PasswordResetExpires),
		mapOptionalString(u.MFASecret), mapOptionalTime(u.MFAEnabled),
		u.CreatedAt, u.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (r *usersRepo) RecordFailedLogin(ctx context.Context, userID string, maxAttempts int, lockFor time.Duration) (int, error) {
	now := time.Now().UTC()
	until := now.Add(lockFor)

	// Single conditional UPDATE so concurrent failures against different
	// server instances never undercount or double-lock.
	var attempts int
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET login_attempts = login_attempts + 1,
		    locked_until = CASE WHEN login_attempts + 1 >= ? THEN ? ELSE locked_until END,
		    updated_at = ?
		WHERE id = ?
		RETURNING login_attempts`,
		maxAttempts, until, now, userID,
	).Scan(&attempts)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return attempts, nil
}

func (r *usersRepo) ResetLoginAttempts(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET login_attempts = 0, locked_until = NULL, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) SetEmailVerificationToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email_verification_hash = ?, email_verification_expires = ?, updated_at = ?
		WHERE id = ?`,
		tokenHash, expires.UTC(), time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) GetUserByVerificationHash(ctx context.Context, hash string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE email_verification_hash = ? AND email_verification_expires > ?`,
		hash, time.Now().UTC()))
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET verified = 1, email_verification_hash = NULL, email_verification_expires = NULL, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) SetPasswordResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_reset_hash = ?, password_reset_expires = ?, updated_at = ?
		WHERE id = ?`,
		tokenHash, expires.UTC(), time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) GetUserByResetHash(ctx context.Context, hash string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE password_reset_hash = ? AND password_reset_expires > ?`,
		hash, time.Now().UTC()))
}

func (r *usersRepo) ClearPasswordResetToken(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_reset_hash = NULL, password_reset_expires = NULL, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) UpdateMFASecret(ctx context.Context, userID, secret string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET mfa_secret = ?, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) EnableMFA(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET mfa_enabled = ?, updated_at = ? WHERE id = ?`,
		now, now, userID,
	)
	return err
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET mfa_secret = NULL, mfa_enabled = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	return err
}

func (r *usersRepo) ClearExpiredActionTokens(ctx context.Context) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email_verification_hash = CASE WHEN email_verification_expires <= ?1 THEN NULL ELSE email_verification_hash END,
		    email_verification_expires = CASE WHEN email_verification_expires <= ?1 THEN NULL ELSE email_verification_expires END,
		    password_reset_hash = CASE WHEN password_reset_expires <= ?1 THEN NULL ELSE password_reset_hash END,
		    password_reset_expires = CASE WHEN password_reset_expires <= ?1 THEN NULL ELSE password_reset_expires END
		WHERE (email_verification_expires IS NOT NULL AND email_verification_expires <= ?1)
		   OR (password_reset_expires IS NOT NULL AND password_reset_expires <= ?1)`,
		now,
	)
	return err
}
