package cryptox_test

import (
	"testing"

	"github.com/legionkimitri/authd/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashVerify(t *testing.T) {
	t.Parallel()

	hash, err := cryptox.HashPassword("secureP@ssw0rd!", 0)
	require.NoError(t, err)
	require.NotEqual(t, "secureP@ssw0rd!", hash)

	require.NoError(t, cryptox.VerifyPassword("secureP@ssw0rd!", hash))
	require.ErrorIs(t, cryptox.VerifyPassword("wrong", hash), cryptox.ErrPasswordMismatch)
}

func TestPasswordNeedsRehash(t *testing.T) {
	t.Parallel()

	low, err := cryptox.HashPassword("pw", 4)
	require.NoError(t, err)
	require.True(t, cryptox.PasswordNeedsRehash(low, cryptox.DefaultPasswordCost))

	current, err := cryptox.HashPassword("pw", cryptox.DefaultPasswordCost)
	require.NoError(t, err)
	require.False(t, cryptox.PasswordNeedsRehash(current, cryptox.DefaultPasswordCost))

	// A non-bcrypt value should always trigger a rehash attempt.
	require.True(t, cryptox.PasswordNeedsRehash("garbage", cryptox.DefaultPasswordCost))
}
