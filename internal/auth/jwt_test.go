package auth

import (
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.OwnerID != 42 {
		t.Errorf("expected owner 42, got %d", claims.OwnerID)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	InitJWT("test-secret")

	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Error("expected rejection of a malformed token")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	InitJWT("first-secret")
	token, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	InitJWT("second-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Error("expected rejection of a token signed with another secret")
	}
}
