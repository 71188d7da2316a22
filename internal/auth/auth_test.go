package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"social-go/internal/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecretKey: "test-secret",
		JWTExpiry:    time.Hour,
		JWTIssuer:    "social-go-test",
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	cfg := testAuthConfig()
	token, err := GenerateToken(42, "ada@example.com", cfg)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(context.Background(), token, cfg.JWTSecretKey, nil)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "ada@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("expected a jti")
	}
	if claims.Issuer != cfg.JWTIssuer {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestValidateTokenWrongKey(t *testing.T) {
	cfg := testAuthConfig()
	token, _ := GenerateToken(1, "a@b.c", cfg)
	if _, err := ValidateToken(context.Background(), token, "other-secret", nil); err == nil {
		t.Fatal("expected signature failure")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTExpiry = -time.Minute
	token, _ := GenerateToken(1, "a@b.c", cfg)
	if _, err := ValidateToken(context.Background(), token, cfg.JWTSecretKey, nil); err == nil {
		t.Fatal("expected expiry failure")
	}
}

func TestValidateTokenRevoked(t *testing.T) {
	cfg := testAuthConfig()
	token, _ := GenerateToken(1, "a@b.c", cfg)
	bl := NewMemoryBlacklist()
	ctx := context.Background()

	claims, err := ValidateToken(ctx, token, cfg.JWTSecretKey, bl)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if err := bl.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := ValidateToken(ctx, token, cfg.JWTSecretKey, bl); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("err = %v, want ErrTokenRevoked", err)
	}
}

func TestMemoryBlacklistExpires(t *testing.T) {
	bl := NewMemoryBlacklist()
	now := time.Now()
	bl.now = func() time.Time { return now }
	ctx := context.Background()

	_ = bl.Add(ctx, "gone", now.Add(-time.Second))
	if ok, _ := bl.IsBlacklisted(ctx, "gone"); ok {
		t.Error("already-expired token should not be stored")
	}

	_ = bl.Add(ctx, "jti", now.Add(time.Minute))
	if ok, _ := bl.IsBlacklisted(ctx, "jti"); !ok {
		t.Error("expected jti to be blacklisted")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := bl.IsBlacklisted(ctx, "jti"); ok {
		t.Error("entry should lapse with the token")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPasswordHash("s3cret", hash) {
		t.Error("matching password rejected")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("wrong password accepted")
	}
}

func TestNewRawToken(t *testing.T) {
	a, b := NewRawToken(12), NewRawToken(12)
	if !strings.HasPrefix(a, "12") {
		t.Errorf("token %q should start with the user id", a)
	}
	if a == b {
		t.Error("tokens should be random")
	}
}
