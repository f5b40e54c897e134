// Package totpx implements RFC6238 time-based one-time passwords on top
// of the RFC4226 HOTP construction: 6 digits, 30 second period, one step
// of clock-skew tolerance either side, HMAC algorithm selectable.
package totpx

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"regexp"
	"time"

	"github.com/legionkimitri/authd/pkg/base32x"
	"github.com/legionkimitri/authd/pkg/cryptox"
)

const (
	Digits = 6
	Period = 30

	// secretBytes is the raw entropy behind a generated secret (RFC4226
	// recommends 160 bits).
	secretBytes = 20

	// skew is the number of periods accepted either side of now.
	skew = 1
)

type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "SHA1"
	AlgorithmSHA256 Algorithm = "SHA256"
	AlgorithmSHA512 Algorithm = "SHA512"
)

var (
	ErrInvalidUser      = errors.New("totpx: invalid user")
	ErrInvalidService   = errors.New("totpx: invalid service")
	ErrInvalidSecret    = errors.New("totpx: invalid base32 secret")
	ErrInvalidCode      = errors.New("totpx: code must be 6 digits")
	ErrUnknownAlgorithm = errors.New("totpx: unknown algorithm")
)

var (
	labelPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	secretPattern = regexp.MustCompile(`^[A-Z2-7]+=*$`)
	codePattern   = regexp.MustCompile(`^\d{6}$`)
)

func (a Algorithm) hasher() (func() hash.Hash, error) {
	switch a {
	case AlgorithmSHA1:
		return sha1.New, nil
	case AlgorithmSHA256:
		return sha256.New, nil
	case AlgorithmSHA512:
		return sha512.New, nil
	default:
		return nil, ErrUnknownAlgorithm
	}
}

// GenerateSecret draws a fresh secret and returns it Base32-encoded along
// with the otpauth:// enrollment URL. The user and service names end up in
// the URL verbatim, so both are restricted to URL-safe characters.
func GenerateSecret(user, service string, alg Algorithm) (secret, otpauthURL string, err error) {
	if !labelPattern.MatchString(user) {
		return "", "", ErrInvalidUser
	}
	if !labelPattern.MatchString(service) {
		return "", "", ErrInvalidService
	}
	if _, err := alg.hasher(); err != nil {
		return "", "", err
	}

	raw, err := cryptox.RandomBytes(secretBytes)
	if err != nil {
		return "", "", fmt.Errorf("totpx: generate secret: %w", err)
	}
	secret = base32x.Encode(raw)

	otpauthURL = fmt.Sprintf(
		"otpauth://totp/%s?secret=%s&issuer=%s&algorithm=%s&digits=%d&period=%d",
		user, secret, service, alg, Digits, Period,
	)
	return secret, otpauthURL, nil
}

// Verify reports whether code is valid for secret at the current time.
// A well-formed code that simply does not match returns (false, nil) so
// callers can surface a uniform "invalid token" response.
func Verify(secret, code string, alg Algorithm) (bool, error) {
	return VerifyAt(secret, code, time.Now(), alg)
}

// VerifyAt is Verify against an explicit time.
func VerifyAt(secret, code string, t time.Time, alg Algorithm) (bool, error) {
	if !secretPattern.MatchString(secret) {
		return false, ErrInvalidSecret
	}
	if !codePattern.MatchString(code) {
		return false, ErrInvalidCode
	}
	h, err := alg.hasher()
	if err != nil {
		return false, err
	}
	key, err := base32x.Decode(secret)
	if err != nil {
		return false, ErrInvalidSecret
	}

	counter := t.Unix() / Period
	for step := counter - skew; step <= counter+skew; step++ {
		candidate := hotp(key, uint64(step), h)
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(code)) == 1 {
			return true, nil
		}
	}
	return false, nil
}

// hotp computes the RFC4226 value for a single counter: HMAC over the
// 8-byte big-endian counter, dynamic truncation, mod 10^6, zero-padded.
func hotp(key []byte, counter uint64, h func() hash.Hash) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], counter)

	mac := hmac.New(h, key)
	mac.Write(buf[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := (uint32(sum[offset]&0x7f) << 24) |
		(uint32(sum[offset+1]) << 16) |
		(uint32(sum[offset+2]) << 8) |
		uint32(sum[offset+3])

	return fmt.Sprintf("%06d", value%1_000_000)
}
