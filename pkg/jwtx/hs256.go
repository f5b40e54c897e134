package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed        = errors.New("jwtx: malformed token")
	ErrInvalidSignature = errors.New("jwtx: invalid signature")
	ErrExpired          = errors.New("jwtx: token expired")
	ErrInvalidClaims    = errors.New("jwtx: invalid claims")
)

// HS256 signs and verifies one token class with a symmetric secret.
type HS256 struct {
	secret []byte
}

func NewHS256(secret []byte) HS256 {
	return HS256{secret: secret}
}

// Sign produces a compact HS256 JWT for the given claims.
func (s HS256) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the signature and the registered claims (exp included)
// and returns the parsed claims.
func (s HS256) Verify(token string) (Claims, error) {
	return s.parse(token, true)
}

// VerifySignature checks only that the token is well-formed and carries a
// valid HMAC; expiry and the other registered claims are left to the
// caller. Session rotation needs this: the access token is expected to be
// expired while its signature must still hold.
func (s HS256) VerifySignature(token string) (Claims, error) {
	return s.parse(token, false)
}

func (s HS256) parse(token string, validateClaims bool) (Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, mapParseError(err)
	}
	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return errors.Join(ErrInvalidClaims, err)
	}
}
