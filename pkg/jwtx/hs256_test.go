package jwtx_test

import (
	"testing"
	"time"

	"github.com/legionkimitri/authd/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	signer := jwtx.NewHS256([]byte("access-secret"))
	now := time.Now()

	claims := jwtx.NewAccessClaims("user-1", "Alice", "alice", "authd", time.Hour, now)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "Alice", got.Name)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, "authd", got.Issuer)
	require.Equal(t, now.Add(time.Hour).Unix(), got.ExpiresAt.Unix())
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	signer := jwtx.NewHS256([]byte("access-secret"))
	other := jwtx.NewHS256([]byte("refresh-secret"))

	token, err := signer.Sign(jwtx.NewRefreshClaims("user-1", "authd", time.Hour, time.Now()))
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSignature)
	_, err = other.VerifySignature(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSignature)
}

func TestVerifySignatureIgnoresExpiry(t *testing.T) {
	t.Parallel()

	signer := jwtx.NewHS256([]byte("access-secret"))
	expired := jwtx.NewAccessClaims("user-1", "Alice", "alice", "authd", time.Hour, time.Now().Add(-2*time.Hour))

	token, err := signer.Sign(expired)
	require.NoError(t, err)

	_, err = signer.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)

	got, err := signer.VerifySignature(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.True(t, got.ExpiresAt.Before(time.Now()))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	signer := jwtx.NewHS256([]byte("access-secret"))
	for _, token := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		_, err := signer.VerifySignature(token)
		require.ErrorIs(t, err, jwtx.ErrMalformed, "token %q", token)
	}
}
