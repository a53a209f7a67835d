package utils

import "testing"

func TestHashPassword_Deterministic(t *testing.T) {
	if HashPassword("pw123") != HashPassword("pw123") {
		t.Fatalf("same input must produce the same digest")
	}
	if HashPassword("pw123") == HashPassword("pw124") {
		t.Fatalf("different inputs must produce different digests")
	}
}

func TestHashPassword_KnownDigest(t *testing.T) {
	// SHA-256 of the empty string, base64 encoded.
	const want = "47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU="
	if got := HashPassword(""); got != want {
		t.Fatalf("HashPassword(\"\") = %q, want %q", got, want)
	}
}

func TestVerifyPassword(t *testing.T) {
	for _, pw := range []string{"pw123", "", "päss wörd", "correct horse battery staple"} {
		if !VerifyPassword(pw, HashPassword(pw)) {
			t.Fatalf("verify(%q, hash(%q)) = false", pw, pw)
		}
	}
	if VerifyPassword("wrong", HashPassword("pw123")) {
		t.Fatalf("verify must fail for a wrong password")
	}
	if VerifyPassword("pw123", "not-a-digest") {
		t.Fatalf("verify must fail for a malformed digest")
	}
}
