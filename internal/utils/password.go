package utils // package utils provides helper functions for password hashing and session tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. The iteration count is deliberately high so that
// brute-forcing a leaked hash stays expensive; the derived key length is
// 128 bits.
const (
	hashIterations = 65536
	hashKeyLength  = 16
	saltLength     = 16
)

// NewSalt returns saltLength bytes of cryptographically secure random data.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// HashPassword derives the stored password digest from the plain password
// and the account's salt using PBKDF2-HMAC-SHA256.
func HashPassword(plain string, salt []byte) []byte {
	return pbkdf2.Key([]byte(plain), salt, hashIterations, hashKeyLength, sha256.New)
}

// VerifyPassword recomputes the digest with the stored salt and compares it
// against the stored hash.
func VerifyPassword(hash, salt []byte, plain string) bool {
	return subtle.ConstantTimeCompare(hash, HashPassword(plain, salt)) == 1
}
