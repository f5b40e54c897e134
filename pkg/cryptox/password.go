package cryptox

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt cost new hashes are minted at. Stored
// hashes at a lower cost are transparently re-hashed on the next
// successful login.
const DefaultPasswordCost = 10

var ErrPasswordMismatch = errors.New("cryptox: password does not match")

// HashPassword hashes password with bcrypt at the given cost; cost <= 0
// selects DefaultPasswordCost.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultPasswordCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares password against a stored bcrypt hash in
// constant time. A mismatch is ErrPasswordMismatch; anything else means
// the stored hash is unusable.
func VerifyPassword(password, encodedHash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// PasswordNeedsRehash reports whether a stored hash was minted at a cost
// below the wanted one.
func PasswordNeedsRehash(encodedHash string, cost int) bool {
	if cost <= 0 {
		cost = DefaultPasswordCost
	}
	stored, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return true
	}
	return stored < cost
}
