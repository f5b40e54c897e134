package domain

import "time"

// OtpSecret holds one user's enrolled TOTP secret. OtpHash is the
// envelope ciphertext of the Base32 secret, never the plaintext. At most
// one row exists per user; re-enrollment deletes and recreates it.
type OtpSecret struct {
	ID        string
	UserID    string
	OtpHash   string
	CreatedAt time.Time
}
