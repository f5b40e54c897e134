package sqlite

import (
	"context"

	"github.com/legionkimitri/authd/internal/auth/domain"
)

type refreshTokensRepo struct {
	q dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshTokenRecord) error {
	created := t.CreatedAt
	if created.IsZero() {
		created = now()
	}
	// Timestamps are stored as text; normalizing to UTC keeps the
	// expires_at comparison in the active lookup well ordered.
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token, user_agent, expires_at, revoked, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Token, t.UserAgent, t.ExpiresAt.UTC(), t.Revoked, created.UTC())
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetActiveRefreshToken(ctx context.Context, userID string) (domain.RefreshTokenRecord, error) {
	var t domain.RefreshTokenRecord
	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, token, user_agent, expires_at, revoked, created_at
		 FROM refresh_tokens
		 WHERE user_id = ? AND revoked = 0 AND expires_at > ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		userID, now(),
	).Scan(&t.ID, &t.UserID, &t.Token, &t.UserAgent, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	if err != nil {
		return domain.RefreshTokenRecord{}, mapNotFound(err)
	}
	return t, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= ?`, now())
	return err
}
