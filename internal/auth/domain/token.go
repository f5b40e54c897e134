package domain

import "time"

// TokenPair is what the session layer returns to a freshly authenticated
// caller. It is never persisted as-is; only the sealed refresh token
// reaches storage.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// RefreshTokenRecord is the stored refresh token row. Token is the
// envelope ciphertext of the signed refresh JWT; rotation flips Revoked
// on the consumed row and inserts a new one, it never rewrites rows.
type RefreshTokenRecord struct {
	ID        string
	UserID    string
	Token     string
	UserAgent string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}
