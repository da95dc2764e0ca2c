package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	// Minimum cost keeps the test fast.
	hash, err := HashPassword("s3cret-password", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-password" {
		t.Fatalf("hash must not equal the plain password")
	}
	if !CheckPassword(hash, "s3cret-password") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Fatalf("expected mismatched password to fail")
	}
}

func TestCheckPasswordBadHash(t *testing.T) {
	if CheckPassword("not-a-bcrypt-hash", "anything") {
		t.Fatalf("expected failure for malformed hash")
	}
}
