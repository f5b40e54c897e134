package service_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/legionkimitri/authd/internal/auth/domain"
	"github.com/legionkimitri/authd/internal/auth/service"
	"github.com/legionkimitri/authd/internal/auth/store"
	"github.com/legionkimitri/authd/pkg/idx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// codeFor computes the current 6-digit code for a secret using an
// independent TOTP implementation.
func codeFor(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA256,
	})
	require.NoError(t, err)
	return code
}

func secretFromURL(t *testing.T, enrollmentURL string) string {
	t.Helper()
	u, err := url.Parse(enrollmentURL)
	require.NoError(t, err)
	secret := u.Query().Get("secret")
	require.NotEmpty(t, secret)
	return secret
}

func TestGenerateEnrollmentURL(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.seedUser(t, "", nil)

	enrollmentURL, err := env.otp.GenerateEnrollmentURL(ctx, u.ID)
	require.NoError(t, err)

	parsed, err := url.Parse(enrollmentURL)
	require.NoError(t, err)
	require.Equal(t, "otpauth", parsed.Scheme)
	require.Equal(t, "totp", parsed.Host)
	require.Equal(t, "/alice", parsed.Path)

	q := parsed.Query()
	require.Equal(t, "LegionKimitri", q.Get("issuer"))
	require.Equal(t, "SHA256", q.Get("algorithm"))
	require.Equal(t, "6", q.Get("digits"))
	require.Equal(t, "30", q.Get("period"))
	require.NotEmpty(t, q.Get("secret"))

	// The stored row holds the sealed secret, never the plaintext.
	rec, err := env.store.OtpSecrets().GetOtpSecretByUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotEqual(t, q.Get("secret"), rec.OtpHash)

	plain, err := env.envelope.Open(rec.OtpHash)
	require.NoError(t, err)
	require.Equal(t, q.Get("secret"), plain)
}

func TestGenerateEnrollmentURLReplacesPendingSecret(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.seedUser(t, "", nil)

	first, err := env.otp.GenerateEnrollmentURL(ctx, u.ID)
	require.NoError(t, err)
	second, err := env.otp.GenerateEnrollmentURL(ctx, u.ID)
	require.NoError(t, err)
	require.NotEqual(t, secretFromURL(t, first), secretFromURL(t, second))

	// Only the newest secret verifies.
	require.ErrorIs(t, env.otp.Enable(ctx, u.ID, codeFor(t, secretFromURL(t, first))), service.ErrInvalidOTP)
	require.NoError(t, env.otp.Enable(ctx, u.ID, codeFor(t, secretFromURL(t, second))))
}

func TestGenerateEnrollmentURLGates(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.otp.GenerateEnrollmentURL(ctx, "missing")
		require.ErrorIs(t, err, service.ErrUserNotFound)
	})

	t.Run("already enabled", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.seedUser(t, "", func(u *domain.User) { u.TOTPEnabled = true })
		_, err := env.otp.GenerateEnrollmentURL(ctx, u.ID)
		require.ErrorIs(t, err, service.ErrOTPAlreadyEnabled)
	})
}

func TestSetupNotRequested(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "", nil)

	enrollmentURL, err := env.otp.Setup(context.Background(), u, false)
	require.NoError(t, err)
	require.Empty(t, enrollmentURL)

	_, err = env.store.OtpSecrets().GetOtpSecretByUser(context.Background(), u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEnable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.seedUser(t, "", nil)

	enrollmentURL, err := env.otp.GenerateEnrollmentURL(ctx, u.ID)
	require.NoError(t, err)
	secret := secretFromURL(t, enrollmentURL)

	require.NoError(t, env.otp.Enable(ctx, u.ID, codeFor(t, secret)))

	got, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.TOTPEnabled)

	// Re-enabling an active factor is a conflict.
	require.ErrorIs(t, env.otp.Enable(ctx, u.ID, codeFor(t, secret)), service.ErrOTPAlreadyEnabled)
	_, err = env.otp.GenerateEnrollmentURL(ctx, u.ID)
	require.ErrorIs(t, err, service.ErrOTPAlreadyEnabled)
}

func TestEnableWrongCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.seedUser(t, "", nil)

	_, err := env.otp.GenerateEnrollmentURL(ctx, u.ID)
	require.NoError(t, err)

	require.ErrorIs(t, env.otp.Enable(ctx, u.ID, "000000"), service.ErrInvalidOTP)

	got, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.TOTPEnabled)
}

func TestEnableWithoutPendingSecret(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "", nil)

	require.ErrorIs(t, env.otp.Enable(context.Background(), u.ID, "123456"), service.ErrOTPNotFound)
}

func TestEnableCorruptSecret(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.seedUser(t, "", nil)

	// A row whose ciphertext does not decrypt signals corruption, not a
	// user error.
	require.NoError(t, env.store.OtpSecrets().CreateOtpSecret(ctx, domain.OtpSecret{
		ID:      idx.New().String(),
		UserID:  u.ID,
		OtpHash: "bm90LWEtbm9uY2U=:bm90LWEtY2lwaGVydGV4dA==",
	}))

	require.ErrorIs(t, env.otp.Enable(ctx, u.ID, "123456"), service.ErrOTPEncryption)
}

func TestOTPLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.seedUser(t, "", nil)

	enrollmentURL, err := env.otp.GenerateEnrollmentURL(ctx, u.ID)
	require.NoError(t, err)
	secret := secretFromURL(t, enrollmentURL)
	require.NoError(t, env.otp.Enable(ctx, u.ID, codeFor(t, secret)))

	pair, profile, err := env.session.OTPLogin(ctx, domain.UserByUsername("alice"), codeFor(t, secret), "otp-agent")
	require.NoError(t, err)
	require.Equal(t, u.ID, profile.ID)
	require.NotEmpty(t, pair.RefreshToken)

	rec, err := env.store.RefreshTokens().GetActiveRefreshToken(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "otp-agent", rec.UserAgent)

	_, _, err = env.session.OTPLogin(ctx, domain.UserByUsername("alice"), "000000", "otp-agent")
	require.ErrorIs(t, err, service.ErrInvalidOTP)
}

func TestOTPLoginRequiresEnabledFactor(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "", nil)

	_, _, err := env.session.OTPLogin(context.Background(), domain.UserByUsername("alice"), "123456", "")
	require.ErrorIs(t, err, service.ErrOTPNotEnabled)
}

func TestOTPLoginWithoutSecret(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "", func(u *domain.User) { u.TOTPEnabled = true })

	_, _, err := env.session.OTPLogin(context.Background(), domain.UserByUsername("alice"), "123456", "")
	require.ErrorIs(t, err, service.ErrOTPNotFound)
}
