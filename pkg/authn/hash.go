package authn

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	SchemeSHA256   = "sha256"
	SchemeArgon2id = "argon2id"

	argon2Prefix = "argon2id$"
	saltBytes    = 16
)

// Hasher derives the stored digest of a password.
type Hasher interface {
	Hash(password, salt string) string
}

type sha256Hasher struct{}

// Hash returns hex(sha256(password + salt)).
func (sha256Hasher) Hash(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

type argon2idHasher struct{}

func (argon2idHasher) Hash(password, salt string) string {
	key := argon2.IDKey([]byte(password), []byte(salt), 1, 64*1024, 4, 32)
	return argon2Prefix + hex.EncodeToString(key)
}

// NewHasher returns the hasher for a configured scheme.
func NewHasher(scheme string) (Hasher, error) {
	switch scheme {
	case "", SchemeSHA256:
		return sha256Hasher{}, nil
	case SchemeArgon2id:
		return argon2idHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password hash scheme %q", scheme)
	}
}

// VerifyPassword compares a candidate password against a stored digest in
// constant time, whichever scheme produced it.
func VerifyPassword(password, salt, stored string) bool {
	var candidate string
	if strings.HasPrefix(stored, argon2Prefix) {
		candidate = argon2idHasher{}.Hash(password, salt)
	} else {
		candidate = sha256Hasher{}.Hash(password, salt)
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1
}

// GenerateSalt returns 16 random bytes, hex encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}
