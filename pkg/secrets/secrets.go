// Package secrets provides one-way hashing and opaque token generation for
// credentials: passwords, security answers, and session tokens.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"

	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
)

// GenerateToken creates a cryptographically secure random token.
// Returns a base64-encoded string suitable for use as an opaque session token.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash creates a bcrypt hash of the provided secret with the given cost.
// A cost of zero or less falls back to bcrypt.DefaultCost.
func Hash(secret string, cost int) (string, error) {
	if secret == "" {
		return "", dErrors.New(dErrors.CodeValidation, "secret cannot be empty")
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "secret is too long")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash secret")
	}
	return string(hashed), nil
}

// Verify checks if a plaintext secret matches a bcrypt hash.
func Verify(secret, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid secret")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not verify secret")
	}
	return nil
}

// DummyVerifier burns bcrypt comparisons against a throwaway hash. Call
// Verify on lookup misses so a request for an unknown account costs the same
// CPU as a real verification and the lookup outcome cannot be inferred from
// latency. The hash must be generated at the same cost real credentials are
// hashed with, or the miss path stays measurably faster.
type DummyVerifier struct {
	hash []byte
}

// NewDummyVerifier precomputes the throwaway hash at the given cost. A cost
// of zero or less falls back to bcrypt.DefaultCost, matching Hash.
func NewDummyVerifier(cost int) (*DummyVerifier, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("dummy-timing-equalizer"), cost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not precompute dummy hash")
	}
	return &DummyVerifier{hash: hash}, nil
}

// Verify runs one comparison. It never succeeds and is safe on a nil receiver.
func (d *DummyVerifier) Verify(secret string) {
	if d == nil {
		return
	}
	_ = bcrypt.CompareHashAndPassword(d.hash, []byte(secret))
}

// Cost reports the bcrypt cost baked into the throwaway hash.
func (d *DummyVerifier) Cost() int {
	cost, err := bcrypt.Cost(d.hash)
	if err != nil {
		return 0
	}
	return cost
}
