package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/legionkimitri/authd/internal/auth/domain"
	"github.com/legionkimitri/authd/internal/auth/store"
)

type usersRepo struct {
	q dbtx
}

const userColumns = `id, name, username, email, password_hash, is_active, status, totp_enabled, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByIdentifier(ctx context.Context, ident domain.Identifier) (domain.User, error) {
	var column string
	switch ident.Kind() {
	case domain.ByID:
		column = "id"
	case domain.ByEmail:
		column = "email"
	case domain.ByUsername:
		column = "username"
	default:
		return domain.User{}, fmt.Errorf("sqlite: unsupported identifier kind %d", ident.Kind())
	}

	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, ident.Value())
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	ts := now()
	status := u.Status
	if status == "" {
		status = domain.StatusActive
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, name, username, email, password_hash, is_active, status, totp_enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Username,
		mapOptionalString(u.Email), mapOptionalString(u.PasswordHash),
		u.IsActive, string(status), u.TOTPEnabled, ts, ts,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, now(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetTOTPEnabled(ctx context.Context, userID string, enabled bool) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET totp_enabled = ?, updated_at = ? WHERE id = ?`,
		enabled, now(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u      domain.User
		email  sql.NullString
		hash   sql.NullString
		status string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Username, &email, &hash,
		&u.IsActive, &status, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Email = mapNullString(email)
	u.PasswordHash = mapNullString(hash)
	u.Status = domain.UserStatus(status)
	return u, nil
}
