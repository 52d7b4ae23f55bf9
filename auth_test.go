package mysqlnative

import (
	"bytes"
	"testing"
)

func challengeFixture() []byte {
	return []byte("01234567890123456789")
}

func TestScrambleNativePasswordEmptyPassword(t *testing.T) {
	if got := scrambleNativePassword(challengeFixture(), ""); got != nil {
		t.Fatalf("expected a nil token for an empty password, got %v", got)
	}
}

func TestScrambleNativePasswordDeterministic(t *testing.T) {
	a := scrambleNativePassword(challengeFixture(), "s3cr3t")
	b := scrambleNativePassword(challengeFixture(), "s3cr3t")
	if !bytes.Equal(a, b) {
		t.Fatal("scrambling the same password against the same challenge must be deterministic")
	}
	if len(a) != 20 {
		t.Fatalf("expected a 20-byte SHA1-sized token, got %d bytes", len(a))
	}
}

func TestScrambleNativePasswordDiffersByPassword(t *testing.T) {
	a := scrambleNativePassword(challengeFixture(), "password-one")
	b := scrambleNativePassword(challengeFixture(), "password-two")
	if bytes.Equal(a, b) {
		t.Fatal("different passwords must not scramble to the same token")
	}
}

func TestScrambleNativePasswordDiffersByChallenge(t *testing.T) {
	a := scrambleNativePassword([]byte("aaaaaaaaaaaaaaaaaaaa"), "s3cr3t")
	b := scrambleNativePassword([]byte("bbbbbbbbbbbbbbbbbbbb"), "s3cr3t")
	if bytes.Equal(a, b) {
		t.Fatal("different challenges must not scramble to the same token")
	}
}
