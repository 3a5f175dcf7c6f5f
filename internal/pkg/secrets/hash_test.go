package secrets

import "testing"

func TestHasherDeterministic(t *testing.T) {
	h := NewHasher("server-secret")

	a := h.Hash(NamespacePhone, "+5215512345678")
	b := h.Hash(NamespacePhone, "+5215512345678")
	if a != b {
		t.Fatalf("same input hashed differently: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256 digest, got %d chars", len(a))
	}
}

func TestHasherNamespacesDiffer(t *testing.T) {
	h := NewHasher("server-secret")
	if h.Hash(NamespacePhone, "x") == h.Hash(NamespaceOTP, "x") {
		t.Fatalf("namespaces must produce distinct digests")
	}
}

func TestHasherSecretsDiffer(t *testing.T) {
	if NewHasher("one").Hash(NamespaceOTP, "x") == NewHasher("two").Hash(NamespaceOTP, "x") {
		t.Fatalf("different secrets must produce distinct digests")
	}
}

func TestHashOTPBoundToFlow(t *testing.T) {
	h := NewHasher("server-secret")
	if h.HashOTP("token-a", "123456") == h.HashOTP("token-b", "123456") {
		t.Fatalf("same code under different flows must hash differently")
	}
}

func TestEqual(t *testing.T) {
	if !Equal("abc", "abc") {
		t.Fatalf("identical strings must compare equal")
	}
	if Equal("abc", "abd") || Equal("abc", "abcd") {
		t.Fatalf("different strings must not compare equal")
	}
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	if len(a) != tokenBytes*2 {
		t.Fatalf("expected %d hex chars, got %d", tokenBytes*2, len(a))
	}
	b, _ := NewToken()
	if a == b {
		t.Fatalf("two tokens collided")
	}
}

func TestNewOTP(t *testing.T) {
	for i := 0; i < 32; i++ {
		code, err := NewOTP()
		if err != nil {
			t.Fatalf("NewOTP: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in OTP %q", code)
			}
		}
	}
}
