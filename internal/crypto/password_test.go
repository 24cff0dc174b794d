package crypto

import "testing"

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("Testing123!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if string(hash) == "Testing123!" {
		t.Fatalf("hash must not equal plaintext")
	}
	if err := ComparePassword(hash, "Testing123!"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := ComparePassword(hash, "wrong-password"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	second, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if string(first) == string(second) {
		t.Fatalf("expected distinct salted hashes")
	}
}
