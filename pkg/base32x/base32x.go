// Package base32x is the Base32 codec used for TOTP secrets: RFC4648
// alphabet (A-Z2-7), no padding on output, case-insensitive on input.
package base32x

import (
	"encoding/base32"
	"errors"
	"strings"
)

var ErrInvalid = errors.New("base32x: invalid base32 input")

var codec = base32.StdEncoding.WithPadding(base32.NoPadding)

// Encode encodes b using the standard alphabet, 5 bits per character,
// zero-padding the final group instead of emitting '=' characters.
func Encode(b []byte) string {
	return codec.EncodeToString(b)
}

// Decode is the inverse of Encode. It uppercases first and tolerates
// trailing '=' padding; any character outside the alphabet fails.
func Decode(s string) ([]byte, error) {
	s = strings.TrimRight(strings.ToUpper(s), "=")
	b, err := codec.DecodeString(s)
	if err != nil {
		return nil, ErrInvalid
	}
	return b, nil
}
