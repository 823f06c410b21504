package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner("test-issuer",
		[]byte(strings.Repeat("a", 32)),
		[]byte(strings.Repeat("b", 32)),
	)
	require.NoError(t, err)
	return s
}

func TestNewSigner_RejectsBadSecrets(t *testing.T) {
	long := []byte(strings.Repeat("x", 32))

	_, err := NewSigner("iss", []byte("short"), long)
	require.Error(t, err)

	_, err = NewSigner("iss", long, []byte("short"))
	require.Error(t, err)

	_, err = NewSigner("iss", long, long)
	require.Error(t, err, "identical secrets must be rejected")
}

func TestAccessTokenRoundTrip(t *testing.T) {
	s := testSigner(t)
	now := time.Now()

	token, err := s.SignAccess("user-1", "admin", time.Minute, now)
	require.NoError(t, err)

	claims, err := s.VerifyAccess(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "test-issuer", claims.Issuer)
	require.NotEmpty(t, claims.ID)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	s := testSigner(t)

	token, err := s.SignRefresh("user-1", "session-token-id", time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := s.VerifyRefresh(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "session-token-id", claims.TokenID())
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	s := testSigner(t)
	now := time.Now()

	access, err := s.SignAccess("user-1", "user", time.Minute, now)
	require.NoError(t, err)
	refresh, err := s.SignRefresh("user-1", "tid", time.Hour, now)
	require.NoError(t, err)

	_, err = s.VerifyRefresh(access)
	require.ErrorIs(t, err, ErrInvalid, "access token must not verify as refresh")

	_, err = s.VerifyAccess(refresh)
	require.ErrorIs(t, err, ErrInvalid, "refresh token must not verify as access")
}

func TestExpiredToken(t *testing.T) {
	s := testSigner(t)
	past := time.Now().Add(-2 * time.Hour)

	token, err := s.SignAccess("user-1", "user", time.Minute, past)
	require.NoError(t, err)

	_, err = s.VerifyAccess(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestTamperedToken(t *testing.T) {
	s := testSigner(t)

	token, err := s.SignAccess("user-1", "user", time.Minute, time.Now())
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	_, err = s.VerifyAccess(tampered)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = s.VerifyAccess("not-even-a-jwt")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestWrongIssuer(t *testing.T) {
	a := testSigner(t)
	b, err := NewSigner("other-issuer",
		[]byte(strings.Repeat("a", 32)),
		[]byte(strings.Repeat("b", 32)),
	)
	require.NoError(t, err)

	token, err := a.SignAccess("user-1", "user", time.Minute, time.Now())
	require.NoError(t, err)

	_, err = b.VerifyAccess(token)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestRefreshRequiresTokenID(t *testing.T) {
	s := testSigner(t)

	token, err := s.SignRefresh("user-1", "", time.Hour, time.Now())
	require.NoError(t, err)

	_, err = s.VerifyRefresh(token)
	require.ErrorIs(t, err, ErrInvalid)
}
