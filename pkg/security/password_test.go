package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopvista/storefront/pkg/config"
)

// Zero config means every parameter is clamped to its minimum, which keeps
// hashing fast under test.
var testConfig = config.PasswordConfig{}

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("secret1", testConfig)
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := VerifyPassword("secret1", hash)
	if err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
	if !ok {
		t.Fatal("correct password must verify")
	}

	ok, err = VerifyPassword("wrong", hash)
	if err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
	if ok {
		t.Fatal("wrong password must not verify")
	}
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("secret1", testConfig)
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	second, err := HashPassword("secret1", testConfig)
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestHashEmptyPassword(t *testing.T) {
	if _, err := HashPassword("", testConfig); err == nil {
		t.Fatal("empty password must not hash")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	_, err := VerifyPassword("secret1", "not-a-hash")
	if !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}
