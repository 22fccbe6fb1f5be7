package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	return h
}

func TestHasher_RoundTrip(t *testing.T) {
	h := newTestHasher(t)

	digest, err := h.Hash("pw123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(digest, "$2a$") {
		t.Fatalf("unexpected digest format %q", digest)
	}
	if !h.Verify("pw123", digest) {
		t.Fatal("expected matching password to verify")
	}
	if h.Verify("pw124", digest) {
		t.Fatal("expected wrong password to fail")
	}
}

// Two hashes of the same password differ because each carries its own salt.
func TestHasher_SaltedPerCall(t *testing.T) {
	h := newTestHasher(t)
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatal("expected distinct digests")
	}
}

// Digests without a bcrypt tag, or truncated ones, are a plain mismatch.
func TestHasher_MalformedDigest(t *testing.T) {
	h := newTestHasher(t)
	digest, _ := h.Hash("pw123")

	for _, bad := range []string{
		"",
		"pw123",
		"$1$abcdefgh$0123456789",
		"$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		digest[:20],
	} {
		if h.Verify("pw123", bad) {
			t.Errorf("malformed digest %q verified", bad)
		}
	}
}

func TestHasher_RejectsEmptyAndOverlong(t *testing.T) {
	h := newTestHasher(t)

	if _, err := h.Hash(""); !errors.Is(err, identity.ErrInvalidInput) {
		t.Fatalf("empty: expected ErrInvalidInput, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("a", 73)); !errors.Is(err, identity.ErrInvalidInput) {
		t.Fatalf("73 bytes: expected ErrInvalidInput, got %v", err)
	}
}
