package password

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	phc, err := Hash(Default, "password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %q", phc)
	}
	if !Verify("password123", phc) {
		t.Fatalf("correct password rejected")
	}
	if Verify("password124", phc) {
		t.Fatalf("wrong password accepted")
	}
}

func TestHashSalted(t *testing.T) {
	a, err := Hash(Default, "password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := Hash(Default, "password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password should differ (random salt)")
	}
}

func TestVerifyGarbage(t *testing.T) {
	for _, phc := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=zzz,t=3,p=1$c2FsdA$ZGs",
		"$bcrypt$whatever",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$ZGs",
	} {
		if Verify("password123", phc) {
			t.Fatalf("garbage hash %q verified", phc)
		}
	}
}

func TestEmptyPassword(t *testing.T) {
	if _, err := Hash(Default, ""); err == nil {
		t.Fatalf("empty password should not hash")
	}
}
