package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/config"
	"github.com/leafline/dispensary-backend/pkg/enums"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "leafline",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	userID := uuid.New()
	storeID := uuid.New()

	payload := AccessTokenPayload{
		UserID:        userID,
		ActiveStoreID: &storeID,
		Role:          enums.MemberRoleManager,
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("user id mismatch: %s", claims.UserID)
	}
	if claims.ActiveStoreID == nil || *claims.ActiveStoreID != storeID {
		t.Fatalf("store id mismatch: %v", claims.ActiveStoreID)
	}
	if claims.Role != enums.MemberRoleManager {
		t.Fatalf("role mismatch: %s", claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
}

func TestMintAccessToken_Validation(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "leafline", ExpirationMinutes: 30}
	now := time.Now().UTC()

	if _, err := MintAccessToken(config.JWTConfig{Issuer: "x", ExpirationMinutes: 1}, now, AccessTokenPayload{Role: enums.MemberRoleOwner}); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{Role: "ghost"}); err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestParseAccessToken_RejectsWrongIssuer(t *testing.T) {
	mintCfg := config.JWTConfig{Secret: "secret", Issuer: "someone-else", ExpirationMinutes: 30}
	token, err := MintAccessToken(mintCfg, time.Now().UTC(), AccessTokenPayload{UserID: uuid.New(), Role: enums.MemberRoleOwner})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	parseCfg := config.JWTConfig{Secret: "secret", Issuer: "leafline", ExpirationMinutes: 30}
	if _, err := ParseAccessToken(parseCfg, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}
