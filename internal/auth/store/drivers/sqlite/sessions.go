package sqlite

import (
	"context"
	"time"

	"github.com/starkpulse/auth/internal/auth/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token_id, user_id, issued_at, expires_at, revoked, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.TokenID, s.UserID, s.IssuedAt.UTC(), s.ExpiresAt.UTC(), s.Revoked, s.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByTokenID(ctx context.Context, tokenID string) (domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRowContext(ctx, `
		SELECT id, token_id, user_id, issued_at, expires_at, revoked, updated_at
		FROM sessions
		WHERE token_id = ?`,
		tokenID,
	).Scan(&s.ID, &s.TokenID, &s.UserID, &s.IssuedAt, &s.ExpiresAt, &s.Revoked, &s.UpdatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, tokenID string) (bool, error) {
	// Compare-and-revoke: the WHERE clause guarantees at most one caller
	// flips the flag, which is what makes concurrent rotation safe.
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET revoked = 1, updated_at = ?
		WHERE token_id = ? AND revoked = 0`,
		time.Now().UTC(), tokenID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *sessionsRepo) RevokeAllUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET revoked = 1, updated_at = ?
		WHERE user_id = ? AND revoked = 0`,
		time.Now().UTC(), userID,
	)
	return err
}

func (r *sessionsRepo) ListActiveSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, token_id, user_id, issued_at, expires_at, revoked, updated_at
		FROM sessions
		WHERE user_id = ? AND revoked = 0 AND expires_at > ?
		ORDER BY issued_at DESC`,
		userID, time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.TokenID, &s.UserID, &s.IssuedAt, &s.ExpiresAt, &s.Revoked, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at <= ?`,
		time.Now().UTC(),
	)
	return err
}
