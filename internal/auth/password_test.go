package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// newTestPasswordService returns a PasswordService with bcrypt cost 4 (the
// minimum the library allows). Tests run in milliseconds instead of ~250ms
// per hash; the logic under test is identical.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewPasswordService_RejectsWeakCost(t *testing.T) {
	// Cost 8 resists nothing on modern GPUs; the production constructor
	// must refuse it.
	if _, err := NewPasswordService(8); err == nil {
		t.Fatal("NewPasswordService(8) should reject costs below 10")
	}
}

func TestNewPasswordService_ZeroMeansDefault(t *testing.T) {
	ps, err := NewPasswordService(0)
	if err != nil {
		t.Fatalf("NewPasswordService(0) error = %v", err)
	}
	if ps.cost != DefaultCost {
		t.Errorf("cost = %d, want DefaultCost (%d)", ps.cost, DefaultCost)
	}
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_DigestNeverEqualsPlaintext(t *testing.T) {
	ps := newTestPasswordService()

	digest, err := ps.Hash("my-secret-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if digest == "" {
		t.Fatal("Hash() returned empty digest")
	}
	if digest == "my-secret-password" {
		t.Error("Hash() returned the plaintext — digest must be one-way")
	}
	// bcrypt digests always start with $2a$ or $2b$
	if !strings.HasPrefix(digest, "$2") {
		t.Errorf("Hash() output does not look like a bcrypt digest: %q", digest)
	}
}

func TestHash_SamePasswordProducesDifferentDigests(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt salts each digest, so identical passwords must produce
	// different stored values — otherwise rainbow tables would work.
	d1, _ := ps.Hash("same-password")
	d2, _ := ps.Hash("same-password")

	if d1 == d2 {
		t.Error("Hash() produced identical digests for the same password (salt must be random)")
	}
}

func TestHash_RejectsPasswordOver72Bytes(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt silently truncates at 72 bytes — we reject instead.
	if _, err := ps.Hash(strings.Repeat("a", 73)); err == nil {
		t.Fatal("Hash() should return an error for passwords longer than 72 bytes")
	}
	if _, err := ps.Hash(strings.Repeat("a", 72)); err != nil {
		t.Fatalf("Hash() should accept a 72-byte password, got: %v", err)
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify_CorrectPassword(t *testing.T) {
	ps := newTestPasswordService()

	digest, err := ps.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(digest, "correct-horse-battery-staple"); err != nil {
		t.Errorf("Verify() should return nil for the correct password, got: %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	digest, _ := ps.Hash("the-real-password")

	if err := ps.Verify(digest, "the-wrong-password"); err == nil {
		t.Fatal("Verify() should return an error for a wrong password")
	}
}

func TestVerify_GarbageDigest(t *testing.T) {
	ps := newTestPasswordService()

	if err := ps.Verify("not-a-bcrypt-digest", "password"); err == nil {
		t.Fatal("Verify() should return an error for a garbage digest")
	}
}

// =========================================================================
// ROUND-TRIP TEST
// =========================================================================

func TestHashVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	cases := []struct {
		name     string
		password string
	}{
		{"simple alphanumeric", "hello123"},
		{"special characters", "p@$$w0rd!#%"},
		{"unicode", "пароль-密码"},
		{"whitespace inside", "two words here"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			digest, err := ps.Hash(tc.password)
			if err != nil {
				t.Fatalf("Hash(%q) error = %v", tc.password, err)
			}
			if err := ps.Verify(digest, tc.password); err != nil {
				t.Errorf("Verify() failed for %q: %v", tc.password, err)
			}
		})
	}
}
