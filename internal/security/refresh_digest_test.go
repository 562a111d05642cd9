package security

import "testing"

func TestDigestRefreshSecretIsDeterministic(t *testing.T) {
	d1 := DigestRefreshSecret("opaque-refresh-secret")
	d2 := DigestRefreshSecret("opaque-refresh-secret")
	if d1 != d2 {
		t.Fatal("digest of the same secret differs between calls")
	}
	if d1 == "opaque-refresh-secret" {
		t.Fatal("digest equals the clear secret")
	}
	if len(d1) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(d1))
	}
}

func TestRefreshSecretDigestEqual(t *testing.T) {
	d := DigestRefreshSecret("secret-a")
	if !RefreshSecretDigestEqual("secret-a", d) {
		t.Error("matching secret rejected")
	}
	if RefreshSecretDigestEqual("secret-b", d) {
		t.Error("non-matching secret accepted")
	}
	if RefreshSecretDigestEqual("secret-a", "") {
		t.Error("empty digest accepted")
	}
}
