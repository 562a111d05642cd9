package security

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	h := NewTestHasher()

	digest, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$v=19$") {
		t.Fatalf("unexpected digest format: %q", digest)
	}

	ok, err := h.Verify("correct horse battery staple", digest)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Error("correct password rejected")
	}

	ok, err = h.Verify("wrong password", digest)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestHashSaltsPerCall(t *testing.T) {
	h := NewTestHasher()

	d1, err := h.Hash("same secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	d2, err := h.Hash("same secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if d1 == d2 {
		t.Error("two digests of the same secret are identical")
	}
	for _, d := range []string{d1, d2} {
		if ok, err := h.Verify("same secret", d); err != nil || !ok {
			t.Errorf("digest %q did not verify: ok=%v err=%v", d, ok, err)
		}
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := NewTestHasher()

	cases := []struct {
		name   string
		digest string
	}{
		{"empty", ""},
		{"plaintext", "hunter2"},
		{"wrong algorithm", "$bcrypt$v=19$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5"},
		{"wrong version", "$argon2id$v=18$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5"},
		{"bad params", "$argon2id$v=19$m=zero$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5"},
		{"bad base64 salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5"},
		{"truncated", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.Verify("anything", tc.digest); !errors.Is(err, ErrInvalidDigest) {
				t.Errorf("err = %v, want ErrInvalidDigest", err)
			}
		})
	}
}

func TestVerifyRefusesRunawayCost(t *testing.T) {
	expensive := &Hasher{MemoryKiB: 8192, Iterations: 8, Parallelism: 1}
	digest, err := expensive.Hash("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	cheap := NewTestHasher()
	if _, err := cheap.Verify("secret", digest); !errors.Is(err, ErrInvalidDigest) {
		t.Errorf("err = %v, want ErrInvalidDigest", err)
	}
}
