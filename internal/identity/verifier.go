package identity

import (
	"golang.org/x/crypto/bcrypt"
)

// Verifier hashes secrets one-way and checks candidates against stored hashes.
// Hash is randomized (salted); Verify never errors, a mismatch is just false.
type Verifier interface {
	Hash(secret string) (string, error)
	Verify(secret, hashed string) bool
}

// BcryptVerifier implements Verifier with bcrypt. Comparison inside bcrypt is
// constant time, so a partial prefix match is not observable through timing.
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier builds a verifier with the given work factor. Out of range
// costs fall back to bcrypt.DefaultCost.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

// Hash returns the bcrypt hash of secret.
func (v *BcryptVerifier) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), v.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether secret matches hashed.
func (v *BcryptVerifier) Verify(secret, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret)) == nil
}
