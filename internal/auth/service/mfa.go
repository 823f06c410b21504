package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pquerna/otp/totp"

	"github.com/starkpulse/auth/internal/auth/domain"
	"github.com/starkpulse/auth/internal/auth/store"
	"github.com/starkpulse/auth/pkg/slogx"
)

// MFAService manages the TOTP second factor. Enrollment is two-step: a
// secret is generated and stored, but MFA only turns on once the user proves
// they captured it by submitting a valid code.
type MFAService struct {
	Store store.Store

	// Issuer is the label shown in authenticator apps.
	Issuer string
}

// Enroll generates a fresh TOTP secret for the user. Re-enrolling before
// activation replaces the pending secret; enrolling while MFA is active is
// rejected (disable first).
func (s *MFAService) Enroll(ctx context.Context, userID string) (domain.MFAEnrollment, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.MFAEnrollment{}, ErrUnauthorized
		}
		return domain.MFAEnrollment{}, err
	}

	if user.MFAActive() {
		return domain.MFAEnrollment{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
	})
	if err != nil {
		return domain.MFAEnrollment{}, err
	}

	if err := s.Store.Users().UpdateMFASecret(ctx, userID, key.Secret()); err != nil {
		return domain.MFAEnrollment{}, err
	}

	return domain.MFAEnrollment{
		Secret: key.Secret(),
		URL:    key.URL(),
	}, nil
}

// Activate turns MFA on once the user submits a code generated from the
// pending secret.
func (s *MFAService) Activate(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}

	if user.MFAActive() {
		return ErrMFAAlreadyEnabled
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return ErrMFANotEnabled
	}

	if !totp.Validate(code, *user.MFASecret) {
		return ErrInvalidTOTPCode
	}

	if err := s.Store.Users().EnableMFA(ctx, userID); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("mfa enabled", slog.String("user_id", userID))
	return nil
}

// Disable turns MFA off. A valid current code is required so a hijacked
// access token alone cannot strip the second factor.
func (s *MFAService) Disable(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}

	if !user.MFAActive() {
		return ErrMFANotEnabled
	}

	if !totp.Validate(code, *user.MFASecret) {
		return ErrInvalidTOTPCode
	}

	if err := s.Store.Users().DisableMFA(ctx, userID); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("mfa disabled", slog.String("user_id", userID))
	return nil
}
