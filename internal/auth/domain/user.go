package domain

import "time"

// UserStatus is the soft-delete state of a user record. A record that was
// deleted and later restored behaves like an active one; the restore
// operation itself belongs to an external collaborator, this core only
// reads the result.
type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusDeleted  UserStatus = "deleted"
	StatusRestored UserStatus = "restored"
)

type User struct {
	ID           string
	Name         string
	Username     string
	Email        *string // nullable
	PasswordHash *string // bcrypt encoded, nullable (e.g. OTP-only accounts)
	IsActive     bool
	Status       UserStatus
	TOTPEnabled  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Gone reports whether the user counts as deleted: deleted and never
// restored.
func (u User) Gone() bool {
	return u.Status == StatusDeleted
}

// Profile is the sanitized view handed back after authentication. No
// credential material or internal flags.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

func (u User) Profile() Profile {
	p := Profile{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	return p
}
