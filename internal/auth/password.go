// internal/auth/password.go
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 32
	// At least 100,000 iterations of SHA-256 are recommended for PBKDF2.
	pbkdf2Iterations = 100000
	keyLength        = 32
)

// HashPassword derives a PBKDF2-SHA256 hash of the password with a fresh
// random salt. It returns the salt and the derived key.
func HashPassword(password string) (salt, hash []byte, err error) {
	salt = make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	hash = pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLength, sha256.New)
	return salt, hash, nil
}

// CheckPassword reports whether the password matches the stored salt and
// hash. The comparison is constant time.
func CheckPassword(salt, hash []byte, password string) bool {
	candidate := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLength, sha256.New)
	return subtle.ConstantTimeCompare(hash, candidate) == 1
}
