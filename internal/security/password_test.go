package security

import (
	"errors"
	"strings"
	"testing"
)

var testParams = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(testParams)

	encoded, err := h.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$t=1,m=8192,p=1$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	if strings.Contains(encoded, "correct horse battery") {
		t.Fatal("encoded hash contains the plaintext")
	}

	ok, err := h.Verify("correct horse battery", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify(correct) = %v, %v", ok, err)
	}
	ok, err = h.Verify("wrong horse battery", encoded)
	if err != nil || ok {
		t.Fatalf("Verify(wrong) = %v, %v", ok, err)
	}
}

func TestHasherSaltsEachHash(t *testing.T) {
	h := NewHasher(testParams)
	a, _ := h.Hash("same-password")
	b, _ := h.Hash("same-password")
	if a == b {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestVerifyUsesStoredParams(t *testing.T) {
	old := NewHasher(Argon2Params{Time: 2, Memory: 8 * 1024, Threads: 1, KeyLen: 16, SaltLen: 8})
	encoded, err := old.Hash("legacy-password")
	if err != nil {
		t.Fatal(err)
	}

	ok, err := NewHasher(testParams).Verify("legacy-password", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify with different hasher params = %v, %v", ok, err)
	}
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	h := NewHasher(testParams)
	tests := []string{
		"",
		"plaintext",
		"$argon2i$v=19$t=1,m=8192,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$t=1,m=8192,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$t=x,m=8192,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$t=1,m=8192,p=1$!!!$aGFzaA",
		"$argon2id$v=19$t=1,m=8192,p=1$c2FsdA$",
	}
	for _, encoded := range tests {
		ok, err := h.Verify("anything", encoded)
		if ok || !errors.Is(err, ErrMalformedHash) {
			t.Errorf("Verify(%q) = %v, %v; want ErrMalformedHash", encoded, ok, err)
		}
	}
}
