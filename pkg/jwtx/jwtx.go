// Package jwtx signs and verifies the service's two token kinds: short-lived
// access tokens and longer-lived refresh tokens. Both are HS256 JWTs, but
// they are signed with distinct secrets so compromise of one cannot forge
// the other. Refresh tokens additionally carry the session token id in the
// jti claim; session-state checks belong to the caller, not this package.
package jwtx

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes. Short access tokens bound the damage of a leaked
// bearer token; refresh lifetime trades security against re-login friction.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// MinSecretLength is the minimum accepted HMAC secret length in bytes.
const MinSecretLength = 32

var (
	ErrExpired = errors.New("jwtx: token expired")
	ErrInvalid = errors.New("jwtx: invalid token")

	errWeakSecret  = errors.New("jwtx: signing secret shorter than 32 bytes")
	errEqualSecret = errors.New("jwtx: access and refresh secrets must differ")
)

// AccessClaims is the stateless access-token claim set. Verification is pure
// signature + expiry; no store lookup is involved.
type AccessClaims struct {
	jwt.RegisteredClaims

	// Role is the subject's role claim ("user", "admin").
	Role string `json:"role,omitempty"`
}

// RefreshClaims is the refresh-token claim set. The jti claim holds the
// session token id that must resolve to a live session record.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// TokenID returns the session token identifier embedded in the jti claim.
func (c RefreshClaims) TokenID() string { return c.ID }

// Verifier validates an access token and returns its claims.
type Verifier interface {
	VerifyAccess(token string) (AccessClaims, error)
}

// Signer issues and verifies both token kinds.
type Signer struct {
	issuer        string
	accessSecret  []byte
	refreshSecret []byte
}

// NewSigner builds a Signer, rejecting weak or shared secrets up front so a
// misconfigured deployment fails at startup rather than at verify time.
func NewSigner(issuer string, accessSecret, refreshSecret []byte) (*Signer, error) {
	if len(accessSecret) < MinSecretLength || len(refreshSecret) < MinSecretLength {
		return nil, errWeakSecret
	}
	if bytes.Equal(accessSecret, refreshSecret) {
		return nil, errEqualSecret
	}

	return &Signer{
		issuer:        issuer,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
	}, nil
}

// SignAccess mints an access token for the subject with the given role.
func (s *Signer) SignAccess(userID, role string, ttl time.Duration, now time.Time) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        newJTI(),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("jwtx: signing access token: %w", err)
	}
	return signed, nil
}

// SignRefresh mints a refresh token bound to the given session token id.
func (s *Signer) SignRefresh(userID, tokenID string, ttl time.Duration, now time.Time) (string, error) {
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        tokenID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("jwtx: signing refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccess checks signature, issuer and expiry of an access token.
func (s *Signer) VerifyAccess(token string) (AccessClaims, error) {
	var claims AccessClaims
	if err := s.verify(token, &claims, s.accessSecret); err != nil {
		return AccessClaims{}, err
	}
	return claims, nil
}

// VerifyRefresh checks signature, issuer and expiry of a refresh token. It
// deliberately does not consult the session store; a valid signature alone
// never grants a usable session.
func (s *Signer) VerifyRefresh(token string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := s.verify(token, &claims, s.refreshSecret); err != nil {
		return RefreshClaims{}, err
	}
	if claims.ID == "" {
		return RefreshClaims{}, ErrInvalid
	}
	return claims, nil
}

func (s *Signer) verify(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("%w: unexpected alg %v", ErrInvalid, t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid {
		return ErrInvalid
	}
	return nil
}

func newJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
