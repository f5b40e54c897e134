package cryptox_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/legionkimitri/authd/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T, size int) string {
	t.Helper()
	key, err := cryptox.GenerateEncodedKey(size)
	require.NoError(t, err)
	return key
}

func TestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, size := range []int{16, 24, 32} {
		env, err := cryptox.NewEnvelope(testKey(t, size))
		require.NoError(t, err)

		sealed, err := env.Seal("JBSWY3DPEHPK3PXP")
		require.NoError(t, err)
		require.Contains(t, sealed, ":")

		plain, err := env.Open(sealed)
		require.NoError(t, err)
		require.Equal(t, "JBSWY3DPEHPK3PXP", plain)
	}
}

func TestSealProducesFreshNonces(t *testing.T) {
	t.Parallel()

	env, err := cryptox.NewEnvelope(testKey(t, 32))
	require.NoError(t, err)

	a, err := env.Seal("same plaintext")
	require.NoError(t, err)
	b, err := env.Seal("same plaintext")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestNewEnvelopeRejectsBadKeys(t *testing.T) {
	t.Parallel()

	_, err := cryptox.NewEnvelope(testKey(t, 20))
	require.ErrorIs(t, err, cryptox.ErrInvalidKeyLength)

	_, err = cryptox.NewEnvelope("not-base64!!!")
	require.Error(t, err)
}

func TestOpenRejectsMalformedEnvelopes(t *testing.T) {
	t.Parallel()

	env, err := cryptox.NewEnvelope(testKey(t, 32))
	require.NoError(t, err)

	for _, in := range []string{"", "nocolon", ":tail", "head:", "bad base64:also bad"} {
		_, err := env.Open(in)
		require.ErrorIs(t, err, cryptox.ErrMalformedEnvelope, "input %q", in)
	}
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	t.Parallel()

	env, err := cryptox.NewEnvelope(testKey(t, 32))
	require.NoError(t, err)

	sealed, err := env.Seal("secret value")
	require.NoError(t, err)

	nonce, encCT, _ := strings.Cut(sealed, ":")
	ct, err := base64.StdEncoding.DecodeString(encCT)
	require.NoError(t, err)
	ct[0] ^= 0x01

	_, err = env.Open(nonce + ":" + base64.StdEncoding.EncodeToString(ct))
	require.ErrorIs(t, err, cryptox.ErrDecryptionFailed)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	t.Parallel()

	env, err := cryptox.NewEnvelope(testKey(t, 32))
	require.NoError(t, err)
	other, err := cryptox.NewEnvelope(testKey(t, 32))
	require.NoError(t, err)

	sealed, err := env.Seal("secret value")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	require.ErrorIs(t, err, cryptox.ErrDecryptionFailed)
}
