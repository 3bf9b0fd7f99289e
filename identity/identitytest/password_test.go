package identitytest

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := hashPassword("correct-password")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}
	if !verifyPassword("correct-password", hash) {
		t.Fatal("correct password rejected")
	}
	if verifyPassword("wrong-password", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	a, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	b, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyPasswordMalformedEncodings(t *testing.T) {
	cases := []string{
		"",
		"plain-text",
		"$argon2i$v=19$m=16384,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=16384,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=16384,t=1,p=1$c2FsdA$!!!",
	}

	for _, encoded := range cases {
		if verifyPassword("anything", encoded) {
			t.Fatalf("malformed encoding accepted: %q", encoded)
		}
	}
}
