package sqlite

import (
	"context"

	"github.com/legionkimitri/authd/internal/auth/domain"
)

type otpSecretsRepo struct {
	q dbtx
}

func (r *otpSecretsRepo) CreateOtpSecret(ctx context.Context, s domain.OtpSecret) error {
	created := s.CreatedAt
	if created.IsZero() {
		created = now()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO otp_secrets (id, user_id, otp_hash, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.UserID, s.OtpHash, created.UTC())
	return mapConstraint(err)
}

func (r *otpSecretsRepo) GetOtpSecretByUser(ctx context.Context, userID string) (domain.OtpSecret, error) {
	var s domain.OtpSecret
	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, otp_hash, created_at FROM otp_secrets WHERE user_id = ?`,
		userID,
	).Scan(&s.ID, &s.UserID, &s.OtpHash, &s.CreatedAt)
	if err != nil {
		return domain.OtpSecret{}, mapNotFound(err)
	}
	return s, nil
}

func (r *otpSecretsRepo) DeleteOtpSecretsByUser(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM otp_secrets WHERE user_id = ?`, userID)
	return err
}
