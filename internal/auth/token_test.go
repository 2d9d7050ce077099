package auth

import (
	"testing"
	"time"

	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, expiresAt, err := tm.GenerateToken("u1", domain.RoleConseilSyndical)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("expiry must be in the future")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("expected subject u1, got %s", claims.UserID)
	}
	if claims.Role != domain.RoleConseilSyndical {
		t.Fatalf("expected role conseil_syndical, got %s", claims.Role)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken("u1", domain.RoleProprietaire)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("secret-b", 60).ParseToken(token); err == nil {
		t.Fatal("token signed with another secret must not validate")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 0)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := ComparePassword(hash, "correct horse"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("wrong password must not compare")
	}
}
