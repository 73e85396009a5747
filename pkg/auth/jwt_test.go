package auth_test

import (
	"testing"

	"github.com/shashiranjanraj/giftbid/pkg/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := auth.GenerateToken("sub-alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "sub-alice" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	if _, err := auth.ValidateToken("not.a.jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestValidateRejectsTampering(t *testing.T) {
	token, err := auth.GenerateToken("sub-alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	tampered := token[:len(token)-4] + "AAAA"
	if _, err := auth.ValidateToken(tampered); err == nil {
		t.Error("expected signature validation to fail")
	}
}
