package auth

import (
	"testing"
	"time"
)

func TestGenerateAndVerifyAccessToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.GenerateAccessToken("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	claims, err := m.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken error: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Fatalf("expected sub user-1, got %q", claims.UserID)
	}
	if claims.Email != "ada@example.com" {
		t.Fatalf("expected email claim, got %q", claims.Email)
	}
	if claims.JTI == "" {
		t.Fatalf("expected a jti")
	}
}

func TestTokensForSameUserDiffer(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	a, err := m.GenerateAccessToken("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("first token error: %v", err)
	}

	b, err := m.GenerateAccessToken("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("second token error: %v", err)
	}

	if a == b {
		t.Fatalf("expected distinct tokens for the same user")
	}

	// both still verify back to the same identity
	for _, raw := range []string{a, b} {
		claims, err := m.VerifyAccessToken(raw)
		if err != nil {
			t.Fatalf("VerifyAccessToken error: %v", err)
		}
		if claims.UserID != "user-1" {
			t.Fatalf("expected user-1, got %q", claims.UserID)
		}
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).GenerateAccessToken("user-1", "a@b.c")
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	if _, err := NewManager("secret-b", time.Hour).VerifyAccessToken(token); err == nil {
		t.Fatalf("expected verification failure with a different secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	token, err := m.GenerateAccessToken("user-1", "a@b.c")
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	if _, err := m.VerifyAccessToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	if _, err := m.VerifyAccessToken("not-a-jwt"); err == nil {
		t.Fatalf("expected parse failure")
	}
}
