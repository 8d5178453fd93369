package auth

import (
	"testing"
	"time"
)

func TestNewTokenMinter_RejectsShortSecrets(t *testing.T) {
	if _, err := NewTokenMinter("short"); err == nil {
		t.Error("NewTokenMinter() accepted a 5-character secret")
	}
	if _, err := NewTokenMinter("sixteen-chars-ok"); err != nil {
		t.Errorf("NewTokenMinter() rejected a 16-character secret: %v", err)
	}
}

func TestMint_SameUserSameInstantDistinctTokens(t *testing.T) {
	minter, err := NewTokenMinter("test-secret-test-secret")
	if err != nil {
		t.Fatalf("NewTokenMinter() error = %v", err)
	}

	// Back-to-back mints land in the same second; the jti claim must still
	// make the tokens differ.
	first, err := minter.Mint("user1", time.Hour)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	second, err := minter.Mint("user1", time.Hour)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	if first == second {
		t.Error("two tokens for the same user are identical")
	}
	if first == "" || second == "" {
		t.Error("Mint() returned an empty token")
	}
}
