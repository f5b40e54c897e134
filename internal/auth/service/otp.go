package service

import (
	"context"
	"errors"

	"github.com/legionkimitri/authd/internal/auth/domain"
	"github.com/legionkimitri/authd/internal/auth/store"
	"github.com/legionkimitri/authd/pkg/apperr"
	"github.com/legionkimitri/authd/pkg/cryptox"
	"github.com/legionkimitri/authd/pkg/idx"
	"github.com/legionkimitri/authd/pkg/totpx"
)

// DefaultOTPIssuer is the service label baked into enrollment URLs.
const DefaultOTPIssuer = "LegionKimitri"

var (
	ErrOTPNotFound       = apperr.New(apperr.KindNotFound, "no otp found")
	ErrOTPNotEnabled     = apperr.New(apperr.KindForbidden, "otp is not enabled")
	ErrOTPAlreadyEnabled = apperr.New(apperr.KindConflict, "otp is already enabled")
	ErrOTPPending        = apperr.New(apperr.KindConflict, "otp enrollment already pending")
	ErrInvalidOTP        = apperr.New(apperr.KindUnauthorized, "invalid otp code")

	// ErrOTPEncryption means a stored secret would not decrypt: data
	// corruption or a key misconfiguration, never a user error.
	ErrOTPEncryption = apperr.New(apperr.KindInternal, "invalid otp encryption")
)

// OTPService drives second-factor enrollment. Enrollment is a two-step
// state machine per user: disabled, pending (secret stored, flag still
// false), enabled.
type OTPService struct {
	Store    store.Store
	Envelope *cryptox.Envelope
	Issuer   string // defaults to DefaultOTPIssuer
}

func (s *OTPService) issuer() string {
	if s.Issuer == "" {
		return DefaultOTPIssuer
	}
	return s.Issuer
}

// Setup generates and persists a pending secret for the user and returns
// the otpauth:// enrollment URL. A no-op when not requested. The URL is
// the only place the plaintext secret ever leaves this service; it must
// not be logged.
func (s *OTPService) Setup(ctx context.Context, user domain.User, requested bool) (string, error) {
	if !requested {
		return "", nil
	}

	secret, enrollmentURL, err := totpx.GenerateSecret(user.Username, s.issuer(), totpx.AlgorithmSHA256)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInvalidArgument, "generate otp secret", err)
	}

	sealed, err := s.Envelope.Seal(secret)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "seal otp secret", err)
	}

	err = s.Store.OtpSecrets().CreateOtpSecret(ctx, domain.OtpSecret{
		ID:      idx.New().String(),
		UserID:  user.ID,
		OtpHash: sealed,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return "", ErrOTPPending
		}
		return "", apperr.Wrap(apperr.KindInternal, "persist otp secret", err)
	}

	return enrollmentURL, nil
}

// GenerateEnrollmentURL starts (or restarts) enrollment for an existing
// user: any pending secret is discarded and a fresh one is issued.
func (s *OTPService) GenerateEnrollmentURL(ctx context.Context, userID string) (string, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", apperr.Wrap(apperr.KindInternal, "load user", err)
	}
	if user.TOTPEnabled {
		return "", ErrOTPAlreadyEnabled
	}

	if err := s.Store.OtpSecrets().DeleteOtpSecretsByUser(ctx, userID); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "reset otp enrollment", err)
	}

	return s.Setup(ctx, user, true)
}

// Enable verifies a submitted code against the user's pending secret and
// flips the second-factor flag on success.
func (s *OTPService) Enable(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return apperr.Wrap(apperr.KindInternal, "load user", err)
	}

	secret, err := s.Store.OtpSecrets().GetOtpSecretByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrOTPNotFound
		}
		return apperr.Wrap(apperr.KindInternal, "load otp secret", err)
	}

	if user.TOTPEnabled {
		return ErrOTPAlreadyEnabled
	}

	plain, err := s.Envelope.Open(secret.OtpHash)
	if err != nil {
		return apperr.Wrap(ErrOTPEncryption.Kind, ErrOTPEncryption.Message, err)
	}

	ok, err := totpx.Verify(plain, code, totpx.AlgorithmSHA256)
	if err != nil {
		if errors.Is(err, totpx.ErrInvalidSecret) {
			return apperr.Wrap(ErrOTPEncryption.Kind, ErrOTPEncryption.Message, err)
		}
		return apperr.Wrap(ErrInvalidOTP.Kind, ErrInvalidOTP.Message, err)
	}
	if !ok {
		return ErrInvalidOTP
	}

	if err := s.Store.Users().SetTOTPEnabled(ctx, userID, true); err != nil {
		return apperr.Wrap(apperr.KindInternal, "enable otp", err)
	}
	return nil
}
