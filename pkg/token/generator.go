package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// DefaultLength is the default secret length in bytes.
const DefaultLength = 32

// ErrInvalidLength is returned for non-positive lengths.
var ErrInvalidLength = errors.New("token: length must be positive")

// Generate returns a DefaultLength secret.
func Generate() (string, error) {
	return GenerateWithPrefix("", DefaultLength)
}

// GenerateWithPrefix returns prefix followed by length random bytes,
// Base64 RawURL encoded.
func GenerateWithPrefix(prefix string, length int) (string, error) {
	b, err := GenerateBytes(length)
	if err != nil {
		return "", err
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateBytes returns length bytes from crypto/rand.
func GenerateBytes(length int) ([]byte, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
