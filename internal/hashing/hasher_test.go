package hashing

import (
	"testing"

	"pixgate/internal/config"
)

func testHasher() *Hasher {
	cfg := &config.Config{}
	cfg.Hashing.Argon2MemoryCost = 8 * 1024
	cfg.Hashing.Argon2TimeCost = 1
	cfg.Hashing.Argon2Parallelism = 1
	cfg.Hashing.Pepper = "test-pepper"
	return NewHasher(cfg)
}

func TestHashAndVerifyPassword(t *testing.T) {
	h := testHasher()

	encoded, err := h.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := h.VerifyPassword("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected password to verify")
	}

	ok, err = h.VerifyPassword("wrong password", encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password to fail")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	h := testHasher()

	for _, encoded := range []string{"", "bcrypt$whatever", "argon2id$a$b$c$d$e"} {
		if _, err := h.VerifyPassword("x", encoded); err != ErrInvalidHash {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", encoded, err)
		}
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := testHasher()

	a, _ := h.HashPassword("same")
	b, _ := h.HashPassword("same")
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}
