package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	tok, err := GenerateToken("42", "jfk@example.org", SessionToken, "secret", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateToken(tok, "secret")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Username != "jfk@example.org" || claims.UserID != "42" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("expected a token id")
	}
	if _, err := ValidateTokenOfType(tok, "secret", SessionToken); err != nil {
		t.Fatalf("expected session token to be valid: %v", err)
	}
}

func TestValidateRejectsWrongSecretAndExpired(t *testing.T) {
	tok, _ := GenerateToken("1", "a", SessionToken, "secret", time.Hour)
	if _, err := ValidateToken(tok, "other"); err == nil {
		t.Fatal("expected signature error")
	}
	expired, _ := GenerateToken("1", "a", SessionToken, "secret", -time.Minute)
	if _, err := ValidateTokenOfType(expired, "secret", SessionToken); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
	if _, err := ValidateTokenOfType(tok, "secret", TokenType("refresh")); !errors.Is(err, ErrWrongTokenType) {
		t.Fatal("expected type mismatch to be rejected")
	}
}
