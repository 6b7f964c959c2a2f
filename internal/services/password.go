package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when a signup carries no password.
var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword turns a plaintext password into a salted bcrypt hash.
// The empty string is rejected before any hashing happens; plaintext is
// never persisted.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether plain, hashed with the salt embedded in
// hash, matches hash.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// dummyHash keeps bcrypt comparison on the authentication path even when
// the username does not exist, so lookup failures and password failures
// take similar time.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
