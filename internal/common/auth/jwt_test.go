package auth

import (
	"testing"
	"time"

	"github.com/cargolink/cargolink/internal/common/config"
)

func TestGenerateAndParseToken(t *testing.T) {
	cfg := config.AuthConfig{
		JWTSecret: "test-secret",
		Issuer:    "cargolink",
		Audience:  "cargolink",
	}
	actor := Actor{
		ID:          "u-1",
		Name:        "Kim Manager",
		Email:       "kim@example.com",
		AccessLevel: "broker_admin",
		CompanyID:   "c-1",
	}

	token, exp, err := GenerateToken(cfg, actor, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if exp.Before(time.Now()) {
		t.Fatalf("expected exp in future")
	}

	got, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if got != actor {
		t.Fatalf("actor mismatch: %#v", got)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "test-secret", Issuer: "cargolink"}
	token, _, err := GenerateToken(cfg, Actor{ID: "u-1"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	cfg.JWTSecret = "other-secret"
	if _, err := ParseToken(cfg, token); err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
}

func TestGenerateTokenRequiresActor(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "test-secret"}
	if _, _, err := GenerateToken(cfg, Actor{}, time.Hour); err == nil {
		t.Fatalf("expected error for empty actor id")
	}
}
