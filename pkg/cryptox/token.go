package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	// TokenSize256 provides 256 bits of entropy (64 hex chars).
	TokenSize256 = 32

	// CodeLength is the number of digits in a verification code.
	CodeLength = 6

	codeEntropyBytes = 4
	codeModulus      = 1_000_000
)

// GenerateToken creates a cryptographically secure random session token.
// The token is 32 bytes of CSPRNG output, hex-encoded (64 characters).
// Returns an error if the random number generator fails.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenSize256)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateCode creates a 6-digit numeric verification code from 4 bytes of
// CSPRNG output composed into an unsigned 32-bit integer and reduced modulo
// 10^6. A short read from the entropy source is an error, never a default.
func GenerateCode() (string, error) {
	buf := make([]byte, codeEntropyBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate random code: %w", err)
	}
	n := binary.BigEndian.Uint32(buf) % codeModulus
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}

// HashToken returns a deterministic SHA-256 digest of a token or code,
// hex-encoded. Only digests are ever stored or compared; the raw value is
// surfaced to the caller exactly once at generation time.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ConstantTimeEquals compares two strings without short-circuiting on the
// first mismatching byte. A length mismatch returns false immediately; the
// lengths of hex digests are not secret.
func ConstantTimeEquals(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
