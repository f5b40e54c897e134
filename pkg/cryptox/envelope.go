package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrInvalidKeyLength reports a master key outside AES-128/192/256.
	ErrInvalidKeyLength = errors.New("cryptox: key must be 16, 24, or 32 bytes")

	// ErrMalformedEnvelope reports a ciphertext string that is not of the
	// form base64(nonce):base64(ciphertext).
	ErrMalformedEnvelope = errors.New("cryptox: malformed envelope")

	// ErrDecryptionFailed reports any authentication or key failure. It
	// deliberately carries no detail about which part was wrong.
	ErrDecryptionFailed = errors.New("cryptox: decryption failed")
)

// Envelope is AES-GCM keyed by a single master secret. It protects short
// values at rest (TOTP secrets, refresh tokens); it is never part of an
// access-control decision itself.
type Envelope struct {
	key []byte
}

// NewEnvelope decodes the base64 master key and validates its length
// before any plaintext is accepted.
func NewEnvelope(encodedKey string) (*Envelope, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("cryptox: master key is not valid base64: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, ErrInvalidKeyLength
	}
	return &Envelope{key: key}, nil
}

// Seal encrypts plaintext under a fresh 96-bit nonce and returns
// base64(nonce) + ":" + base64(ciphertext||tag).
func (e *Envelope) Seal(plaintext string) (string, error) {
	gcm, err := e.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("cryptox: generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(nonce) + ":" +
		base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open reverses Seal. The envelope must split on the first ':' into two
// non-empty parts; any tag or key mismatch is ErrDecryptionFailed.
func (e *Envelope) Open(envelope string) (string, error) {
	encNonce, encCiphertext, ok := strings.Cut(envelope, ":")
	if !ok || encNonce == "" || encCiphertext == "" {
		return "", ErrMalformedEnvelope
	}

	nonce, err := base64.StdEncoding.DecodeString(encNonce)
	if err != nil {
		return "", ErrMalformedEnvelope
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encCiphertext)
	if err != nil {
		return "", ErrMalformedEnvelope
	}

	gcm, err := e.aead()
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func (e *Envelope) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}
	return gcm, nil
}
