// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package credentials

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"

	"github.com/canonical/workspace-service/internal/validation"
)

const (
	DefaultCost = 12

	// MaxPasswordBytes is the longest input bcrypt hashes.
	MaxPasswordBytes = 72

	temporaryPasswordLength  = 12
	temporaryPasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%"
)

var _ HasherInterface = (*Hasher)(nil)

// Hasher hashes passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

// Hash rejects passwords longer than MaxPasswordBytes with a validation error.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", validation.Newf("Password must be at most %d bytes", MaxPasswordBytes)
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// NewHasher clamps cost into the range bcrypt accepts.
func NewHasher(cost int) *Hasher {
	h := new(Hasher)

	switch {
	case cost == 0:
		h.cost = DefaultCost
	case cost < bcrypt.MinCost:
		h.cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		h.cost = bcrypt.MaxCost
	default:
		h.cost = cost
	}

	return h
}

// HashPassword hashes plaintext with the default cost.
func HashPassword(plaintext string) (string, error) {
	return NewHasher(DefaultCost).Hash(plaintext)
}

// VerifyPassword reports whether plaintext matches hash.
func VerifyPassword(plaintext, hash string) bool {
	return NewHasher(DefaultCost).Verify(plaintext, hash)
}

// GenerateTemporaryPassword draws a one-time password uniformly from letters,
// digits and a small symbol set.
func GenerateTemporaryPassword() (string, error) {
	password := make([]byte, temporaryPasswordLength)
	max := big.NewInt(int64(len(temporaryPasswordCharset)))

	for i := range password {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate temporary password: %w", err)
		}
		password[i] = temporaryPasswordCharset[n.Int64()]
	}

	return string(password), nil
}
