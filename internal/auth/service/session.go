package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/legionkimitri/authd/internal/auth/domain"
	"github.com/legionkimitri/authd/internal/auth/store"
	"github.com/legionkimitri/authd/pkg/apperr"
	"github.com/legionkimitri/authd/pkg/cryptox"
	"github.com/legionkimitri/authd/pkg/idx"
	"github.com/legionkimitri/authd/pkg/slogx"
	"github.com/legionkimitri/authd/pkg/totpx"
)

var (
	ErrUserNotFound = apperr.New(apperr.KindNotFound, "user not found")
	ErrUserDeleted  = apperr.New(apperr.KindNotFound, "user has been deleted")
	ErrUserInactive = apperr.New(apperr.KindNotFound, "user is inactive")
	ErrNoPassword   = apperr.New(apperr.KindUnprocessable, "unable to complete authentication")

	// ErrAccessDenied covers credential failures: wrong password,
	// signature mismatch, refresh-token value mismatch.
	ErrAccessDenied = apperr.New(apperr.KindUnauthorized, "access denied")

	// ErrActionDenied covers claim-level violations: issuer/subject
	// mismatch or a missing active refresh record.
	ErrActionDenied = apperr.New(apperr.KindForbidden, "action denied")

	// ErrInvalidToken reports an expiry-ordering violation during
	// rotation: the refresh token must still be live and the access token
	// must already be expired.
	ErrInvalidToken = apperr.New(apperr.KindUnauthorized, "invalid token")
)

// SessionService implements primary authentication (password or OTP)
// and single-use refresh-token rotation. The durable store is the only
// session state; nothing is cached in-process.
type SessionService struct {
	Store    store.Store
	Tokens   *TokenService
	Envelope *cryptox.Envelope

	// BcryptCost is the cost new password hashes are minted at; stored
	// hashes below it are re-hashed on the next successful login.
	BcryptCost int
}

// PasswordLogin authenticates by email-or-username and password and, on
// success, issues a token pair and persists the refresh side.
func (s *SessionService) PasswordLogin(ctx context.Context, ident domain.Identifier, password, userAgent string) (domain.TokenPair, domain.Profile, error) {
	user, err := s.lookupUser(ctx, ident)
	if err != nil {
		return domain.TokenPair{}, domain.Profile{}, err
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return domain.TokenPair{}, domain.Profile{}, ErrNoPassword
	}

	if err := cryptox.VerifyPassword(password, *user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.TokenPair{}, domain.Profile{}, ErrAccessDenied
		}
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(apperr.KindInternal, "verify password", err)
	}

	// Opportunistic upgrade: keeps stored hashes at the current cost
	// factor. A failure here must not fail the login.
	if cryptox.PasswordNeedsRehash(*user.PasswordHash, s.BcryptCost) {
		if newHash, err := cryptox.HashPassword(password, s.BcryptCost); err == nil {
			_ = s.Store.Users().UpdatePasswordHash(ctx, user.ID, newHash)
		}
	}

	return s.finishLogin(ctx, user, userAgent)
}

// OTPLogin authenticates by email-or-username and a 6-digit TOTP code.
// The second factor must already be enabled for the user.
func (s *SessionService) OTPLogin(ctx context.Context, ident domain.Identifier, code, userAgent string) (domain.TokenPair, domain.Profile, error) {
	user, err := s.lookupUser(ctx, ident)
	if err != nil {
		return domain.TokenPair{}, domain.Profile{}, err
	}
	if !user.TOTPEnabled {
		return domain.TokenPair{}, domain.Profile{}, ErrOTPNotEnabled
	}

	secret, err := s.Store.OtpSecrets().GetOtpSecretByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, domain.Profile{}, ErrOTPNotFound
		}
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(apperr.KindInternal, "load otp secret", err)
	}

	if err := s.verifyOTPCode(secret.OtpHash, code); err != nil {
		return domain.TokenPair{}, domain.Profile{}, err
	}

	return s.finishLogin(ctx, user, userAgent)
}

// Refresh rotates a session: it validates the (expired) access token and
// the live refresh token as a pair, proves the refresh token is the one
// currently on record, then atomically revokes that record and issues a
// replacement. A replay of a consumed refresh token fails at the
// comparison step because the active record no longer matches it.
func (s *SessionService) Refresh(ctx context.Context, accessToken, refreshToken, userAgent string) (domain.TokenPair, domain.Profile, error) {
	// Signatures first, each against its own secret. Expiry is checked
	// separately below because the access token is expected to be expired.
	accessClaims, err := s.Tokens.Access.VerifySignature(accessToken)
	if err != nil {
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(ErrAccessDenied.Kind, ErrAccessDenied.Message, err)
	}
	refreshClaims, err := s.Tokens.Refresh.VerifySignature(refreshToken)
	if err != nil {
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(ErrAccessDenied.Kind, ErrAccessDenied.Message, err)
	}

	// Both tokens must be ours and carry the same subject.
	if accessClaims.Issuer != s.Tokens.Issuer || refreshClaims.Issuer != s.Tokens.Issuer ||
		accessClaims.Issuer == "" || refreshClaims.Issuer == "" ||
		accessClaims.Subject == "" || refreshClaims.Subject == "" {
		return domain.TokenPair{}, domain.Profile{}, ErrActionDenied
	}
	if accessClaims.Subject != refreshClaims.Subject {
		return domain.TokenPair{}, domain.Profile{}, ErrActionDenied
	}

	// The refresh token must still be live AND the access token must have
	// actually expired; a refresh with a live access token is illegitimate.
	now := time.Now()
	if refreshClaims.ExpiresAt == nil || !refreshClaims.ExpiresAt.Time.After(now) ||
		accessClaims.ExpiresAt == nil || !accessClaims.ExpiresAt.Time.Before(now) {
		return domain.TokenPair{}, domain.Profile{}, ErrInvalidToken
	}

	record, err := s.Store.RefreshTokens().GetActiveRefreshToken(ctx, refreshClaims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Never issued, already rotated, or expired.
			return domain.TokenPair{}, domain.Profile{}, ErrActionDenied
		}
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(apperr.KindInternal, "load refresh record", err)
	}

	// Reuse/tamper detector: the supplied token must equal the decrypted
	// stored value byte for byte.
	stored, err := s.Envelope.Open(record.Token)
	if err != nil {
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(ErrAccessDenied.Kind, ErrAccessDenied.Message, err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		slogx.FromContext(ctx).Warn("refresh token reuse detected", "user_id", refreshClaims.Subject)
		return domain.TokenPair{}, domain.Profile{}, ErrAccessDenied
	}

	user, err := s.Store.Users().GetUserByID(ctx, refreshClaims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, domain.Profile{}, ErrUserNotFound
		}
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(apperr.KindInternal, "load user", err)
	}
	if user.Gone() {
		return domain.TokenPair{}, domain.Profile{}, ErrUserDeleted
	}
	if !user.IsActive {
		return domain.TokenPair{}, domain.Profile{}, ErrUserInactive
	}

	pair, err := s.Tokens.IssuePair(user.ID, user.Name, user.Username)
	if err != nil {
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(apperr.KindInternal, "issue token pair", err)
	}
	sealed, err := s.Envelope.Seal(pair.RefreshToken)
	if err != nil {
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(apperr.KindInternal, "seal refresh token", err)
	}

	// Revoke old + insert new as one unit so concurrent rotations of the
	// same token cannot both win. Revoked rows are kept, never deleted.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, record.ID); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshTokenRecord{
			ID:        idx.New().String(),
			UserID:    user.ID,
			Token:     sealed,
			UserAgent: userAgent,
			ExpiresAt: pair.RefreshExpiresAt,
		})
	})
	if err != nil {
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(apperr.KindInternal, "rotate refresh record", err)
	}

	return pair, user.Profile(), nil
}

// lookupUser resolves the identifier and applies the status gates shared
// by both primary authentication paths.
func (s *SessionService) lookupUser(ctx context.Context, ident domain.Identifier) (domain.User, error) {
	user, err := s.Store.Users().GetUserByIdentifier(ctx, ident)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, apperr.Wrap(apperr.KindInternal, "load user", err)
	}
	if user.Gone() {
		return domain.User{}, ErrUserDeleted
	}
	if !user.IsActive {
		return domain.User{}, ErrUserInactive
	}
	return user, nil
}

// verifyOTPCode decrypts a stored secret and checks the submitted code.
// A decryption failure is data corruption, not a user error.
func (s *SessionService) verifyOTPCode(sealedSecret, code string) error {
	plain, err := s.Envelope.Open(sealedSecret)
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
	return nil
}

// finishLogin issues a pair, seals and persists the refresh side, and
// returns the pair with the sanitized profile.
func (s *SessionService) finishLogin(ctx context.Context, user domain.User, userAgent string) (domain.TokenPair, domain.Profile, error) {
	pair, err := s.Tokens.IssuePair(user.ID, user.Name, user.Username)
	if err != nil {
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(apperr.KindInternal, "issue token pair", err)
	}

	sealed, err := s.Envelope.Seal(pair.RefreshToken)
	if err != nil {
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(apperr.KindInternal, "seal refresh token", err)
	}

	err = s.Store.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshTokenRecord{
		ID:        idx.New().String(),
		UserID:    user.ID,
		Token:     sealed,
		UserAgent: userAgent,
		ExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		return domain.TokenPair{}, domain.Profile{}, apperr.Wrap(apperr.KindInternal, "persist refresh record", err)
	}

	return pair, user.Profile(), nil
}
