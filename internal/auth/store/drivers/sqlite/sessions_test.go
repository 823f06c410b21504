package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starkpulse/auth/internal/auth/domain"
	"github.com/starkpulse/auth/internal/auth/store"
	"github.com/starkpulse/auth/pkg/idx"
)

func newTestSession(t *testing.T, s *Store, userID string, expiresIn time.Duration) domain.Session {
	t.Helper()

	now := time.Now().UTC()
	sess := domain.Session{
		ID:        idx.New().String(),
		TokenID:   idx.New().String(),
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(expiresIn),
		UpdatedAt: now,
	}
	require.NoError(t, s.Sessions().CreateSession(context.Background(), sess))
	return sess
}

func TestSessionsRepo_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "alice")
	sess := newTestSession(t, s, u.ID, time.Hour)

	got, err := s.Sessions().GetSessionByTokenID(ctx, sess.TokenID)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
	require.Equal(t, u.ID, got.UserID)
	require.False(t, got.Revoked)
	require.True(t, got.Live(time.Now().UTC()))

	t.Run("not found", func(t *testing.T) {
		_, err := s.Sessions().GetSessionByTokenID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate token id", func(t *testing.T) {
		dup := sess
		dup.ID = idx.New().String()
		require.ErrorIs(t, s.Sessions().CreateSession(ctx, dup), store.ErrAlreadyExists)
	})
}

func TestSessionsRepo_RevokeSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "bob")
	sess := newTestSession(t, s, u.ID, time.Hour)

	won, err := s.Sessions().RevokeSession(ctx, sess.TokenID)
	require.NoError(t, err)
	require.True(t, won, "first revoke wins")

	won, err = s.Sessions().RevokeSession(ctx, sess.TokenID)
	require.NoError(t, err)
	require.False(t, won, "second revoke must lose")

	got, err := s.Sessions().GetSessionByTokenID(ctx, sess.TokenID)
	require.NoError(t, err)
	require.True(t, got.Revoked)
	require.False(t, got.Live(time.Now().UTC()))

	t.Run("unknown token id loses", func(t *testing.T) {
		won, err := s.Sessions().RevokeSession(ctx, idx.New().String())
		require.NoError(t, err)
		require.False(t, won)
	})
}

func TestSessionsRepo_RevokeAllUserSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "carol")
	other := newTestUser(t, s, "dave")

	first := newTestSession(t, s, u.ID, time.Hour)
	second := newTestSession(t, s, u.ID, time.Hour)
	bystander := newTestSession(t, s, other.ID, time.Hour)

	require.NoError(t, s.Sessions().RevokeAllUserSessions(ctx, u.ID))

	for _, tokenID := range []string{first.TokenID, second.TokenID} {
		got, err := s.Sessions().GetSessionByTokenID(ctx, tokenID)
		require.NoError(t, err)
		require.True(t, got.Revoked)
	}

	got, err := s.Sessions().GetSessionByTokenID(ctx, bystander.TokenID)
	require.NoError(t, err)
	require.False(t, got.Revoked, "other users' sessions must be untouched")
}

func TestSessionsRepo_ListActiveSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "erin")

	live := newTestSession(t, s, u.ID, time.Hour)
	expired := newTestSession(t, s, u.ID, -time.Minute)
	revoked := newTestSession(t, s, u.ID, time.Hour)

	won, err := s.Sessions().RevokeSession(ctx, revoked.TokenID)
	require.NoError(t, err)
	require.True(t, won)

	sessions, err := s.Sessions().ListActiveSessions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, live.ID, sessions[0].ID)
	require.NotEqual(t, expired.ID, sessions[0].ID)
}

func TestSessionsRepo_DeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "frank")

	live := newTestSession(t, s, u.ID, time.Hour)
	expired := newTestSession(t, s, u.ID, -time.Minute)

	require.NoError(t, s.Sessions().DeleteExpiredSessions(ctx))

	_, err := s.Sessions().GetSessionByTokenID(ctx, expired.TokenID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Sessions().GetSessionByTokenID(ctx, live.TokenID)
	require.NoError(t, err)
}

func TestStore_WithTx(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "gina")
	sess := newTestSession(t, s, u.ID, time.Hour)

	t.Run("rollback on error", func(t *testing.T) {
		boom := context.DeadlineExceeded
		err := s.WithTx(ctx, func(tx store.Tx) error {
			if _, err := tx.Sessions().RevokeSession(ctx, sess.TokenID); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := s.Sessions().GetSessionByTokenID(ctx, sess.TokenID)
		require.NoError(t, err)
		require.False(t, got.Revoked, "rolled-back revoke must not stick")
	})

	t.Run("commit on success", func(t *testing.T) {
		replacement := domain.Session{
			ID:        idx.New().String(),
			TokenID:   idx.New().String(),
			UserID:    u.ID,
			IssuedAt:  time.Now().UTC(),
			ExpiresAt: time.Now().UTC().Add(time.Hour),
			UpdatedAt: time.Now().UTC(),
		}

		err := s.WithTx(ctx, func(tx store.Tx) error {
			won, err := tx.Sessions().RevokeSession(ctx, sess.TokenID)
			if err != nil {
				return err
			}
			require.True(t, won)
			return tx.Sessions().CreateSession(ctx, replacement)
		})
		require.NoError(t, err)

		old, err := s.Sessions().GetSessionByTokenID(ctx, sess.TokenID)
		require.NoError(t, err)
		require.True(t, old.Revoked)

		fresh, err := s.Sessions().GetSessionByTokenID(ctx, replacement.TokenID)
		require.NoError(t, err)
		require.False(t, fresh.Revoked)
	})
}
