// Package auth — password hashing utilities.
//
// WHY BCRYPT?
// bcrypt is a password hashing function specifically designed to be slow.
// That slowness is a security feature: it makes brute-force attacks expensive.
//
// bcrypt automatically:
//   - Generates a random salt (so two users with the same password get different digests)
//   - Embeds the salt in the output (no separate salt column needed)
//   - Controls the work factor via "cost" (higher = slower = harder to crack)
//
// NEVER store passwords in plain text or with fast hashes (MD5, SHA-256).
// Those can be cracked with GPU-accelerated rainbow tables in minutes.
//
// Digest format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 = 4096 iterations)
//	 version
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// minProductionCost is the lowest cost NewPasswordService accepts.
// Below 10 rounds, offline brute force becomes practical on commodity GPUs.
const minProductionCost = 10

// DefaultCost is the bcrypt work factor used when the configuration doesn't
// specify one. Cost 12 takes roughly ~250ms on a modern server — negligible
// for a login, brutal for an attacker hashing billions of guesses.
const DefaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected: the
// production constructor enforces a floor, while tests use a lower cost to
// run in milliseconds instead of ~250ms per hash.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given cost.
// Pass 0 to use DefaultCost. Costs below 10 are rejected — use
// NewPasswordServiceForTest in tests instead.
func NewPasswordService(cost int) (*PasswordService, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < minProductionCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d is below the minimum of %d", cost, minProductionCost)
	}
	if cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d exceeds the maximum of %d", cost, bcrypt.MaxCost)
	}
	return &PasswordService{cost: cost}, nil
}

// NewPasswordServiceForTest creates a PasswordService with an arbitrary cost,
// typically bcrypt.MinCost (4). Do NOT use in production — cost 4 is far too
// weak; it exists so test suites don't spend their time inside bcrypt.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is a self-contained string like:
//
//	$2a$12$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy
//
// Store this string directly on the user record. It includes the salt and
// cost — bcrypt.CompareHashAndPassword knows how to decode it.
//
// Returns an error if the plaintext is too long (>72 bytes — a bcrypt limit;
// bcrypt would silently truncate, so we reject explicitly).
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(digest), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt digest.
//
// Returns nil if they match, a non-nil error if they don't.
//
// TIMING SAFETY:
// bcrypt.CompareHashAndPassword uses a constant-time comparison internally,
// so this function is safe against timing attacks — an attacker can't tell
// from response time whether they got the first byte right.
func (p *PasswordService) Verify(digest, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password digest: %w", err)
	}
	return nil
}
