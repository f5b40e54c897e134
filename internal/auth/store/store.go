package store

import (
	"context"
	"errors"

	"github.com/legionkimitri/authd/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface consumed by the auth services.
// It splits into sub-repositories so each service only touches the rows
// it owns.
type Store interface {
	Users() Users
	OtpSecrets() OtpSecrets
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit or Rollback the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise. Refresh rotation depends on this to keep
	// "revoke old + insert new" a single logical unit.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is the user-store contract. The core reads credential and status
// fields and writes exactly two things: the rehashed password and the
// second-factor flag.
type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByIdentifier resolves the id-or-email-or-username union.
	GetUserByIdentifier(ctx context.Context, ident domain.Identifier) (domain.User, error)

	// CreateUser inserts a new user. User provisioning itself lives
	// outside the core; this exists for bootstrap and tests.
	CreateUser(ctx context.Context, u domain.User) error

	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	SetTOTPEnabled(ctx context.Context, userID string, enabled bool) error
}

type OtpSecrets interface {
	// CreateOtpSecret inserts a secret row; a second unconsumed row for
	// the same user is ErrAlreadyExists.
	CreateOtpSecret(ctx context.Context, s domain.OtpSecret) error

	GetOtpSecretByUser(ctx context.Context, userID string) (domain.OtpSecret, error)

	// DeleteOtpSecretsByUser clears any pending enrollment; deleting when
	// none exist is not an error.
	DeleteOtpSecretsByUser(ctx context.Context, userID string) error
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshTokenRecord) error

	// GetActiveRefreshToken returns the newest record for the user that is
	// neither revoked nor expired.
	GetActiveRefreshToken(ctx context.Context, userID string) (domain.RefreshTokenRecord, error)

	// RevokeRefreshToken flips revoked on a single record. Revoked rows
	// stay around for audit and replay detection.
	RevokeRefreshToken(ctx context.Context, id string) error

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}
