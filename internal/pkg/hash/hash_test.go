package hash

import "testing"

func TestHMACSHA256(t *testing.T) {
	// Arrange
	h := NewHMACSHA256("secret")

	// Act
	a, _ := h.Hash("token")
	b, _ := h.Hash("token")
	other, _ := NewHMACSHA256("other").Hash("token")

	// Assert
	if string(a) != string(b) {
		t.Fatal("hmac must be deterministic")
	}
	if string(a) == string(other) {
		t.Fatal("hmac must depend on the secret")
	}
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64 hex chars", len(a))
	}
	if !h.Verify(string(a), "token") || h.Verify(string(a), "tokem") {
		t.Fatal("verify mismatch")
	}
}

func TestBcrypt(t *testing.T) {
	// Arrange
	h := NewBcrypt(4, "pepper")

	// Act
	hashed, err := h.Hash("123456")

	// Assert
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !h.Verify(string(hashed), "123456") {
		t.Fatal("expected match")
	}
	if h.Verify(string(hashed), "654321") {
		t.Fatal("expected mismatch")
	}
	if NewBcrypt(4, "salt").Verify(string(hashed), "123456") {
		t.Fatal("pepper must participate in the hash")
	}
}
