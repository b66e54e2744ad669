package core

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const (
	BootstrapAdminUsername = "admin"
	BootstrapAdminPassword = "admin123"
)

// HashPassword returns the hex SHA-256 digest of password.
//
// The digest is unsalted: identical passwords share a digest across users.
// Existing documents depend on this exact format, so it is kept as is.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// PasswordMatches reports whether password hashes to digest.
func PasswordMatches(digest, password string) bool {
	return subtle.ConstantTimeCompare([]byte(digest), []byte(HashPassword(password))) == 1
}
