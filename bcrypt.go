package memberauth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor applied when minting member credential
// hashes. Stored hashes embed the cost they were created with, so raising it
// only affects new credentials.
var BcryptCost = 12

// HashPassword derives the storable hash for a member credential. An empty
// password is rejected outright; it must never round-trip into a hash that
// verifies.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}

	return string(h), nil
}

// ComparePasswordAndHash checks a login attempt against the stored credential
// hash. A plain mismatch comes back as ErrMismatchedHashAndPassword; anything
// else points at a corrupt stored hash.
func ComparePasswordAndHash(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatchedHashAndPassword
	}

	return err
}

// RandomPasswordHash mints an unguessable placeholder credential for profiles
// created without a password. No login attempt verifies against it, so the
// member has to go through the reset flow first.
func RandomPasswordHash() string {
	h, err := HashPassword(uuid.NewString())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
