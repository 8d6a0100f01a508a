package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateJWTToken_Success(t *testing.T) {
	issuer := "test-issuer"
	userID := int64(123)
	key := "secret-key"

	token, err := GenerateJWTToken(issuer, userID, time.Hour, key)

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if token.SignedString == "" {
		t.Error("expected non-empty SignedString")
	}
	if token.UserID != userID {
		t.Errorf("expected UserID %d, got %d", userID, token.UserID)
	}

	// Verify claims
	claims, ok := token.Token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		t.Fatal("could not cast claims to RegisteredClaims")
	}
	if claims.Issuer != issuer {
		t.Errorf("expected issuer %s, got %s", issuer, claims.Issuer)
	}
	if claims.Subject != "123" {
		t.Errorf("expected subject '123', got %s", claims.Subject)
	}
}

func TestGenerateJWTToken_InvalidParams(t *testing.T) {
	tests := []struct {
		name     string
		issuer   string
		duration time.Duration
		key      string
	}{
		{"empty issuer", "", time.Hour, "key"},
		{"zero duration", "iss", 0, "key"},
		{"empty key", "iss", time.Hour, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateJWTToken(tt.issuer, 1, tt.duration, tt.key)
			if err == nil {
				t.Error("expected error for invalid parameters, got nil")
			}
		})
	}
}

func TestValidateAndParseJWTToken(t *testing.T) {
	token, err := GenerateJWTToken("iss", 42, time.Hour, "key")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	parsed, err := ValidateAndParseJWTToken(token.SignedString, "key", "iss")
	if err != nil {
		t.Fatalf("expected valid token, got: %v", err)
	}
	if parsed.UserID != 42 {
		t.Errorf("expected UserID 42, got %d", parsed.UserID)
	}

	if _, err = ValidateAndParseJWTToken(token.SignedString, "other-key", "iss"); err == nil {
		t.Error("expected signature error")
	}
	if _, err = ValidateAndParseJWTToken(token.SignedString, "key", "other-iss"); err == nil {
		t.Error("expected issuer error")
	}

	expired, _ := GenerateJWTToken("iss", 42, -time.Minute, "key")
	if _, err = ValidateAndParseJWTToken(expired.SignedString, "key", "iss"); err == nil {
		t.Error("expected expiry error")
	}
}

func TestParseBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer abc", "abc", false},
		{"  Bearer   abc  ", "abc", false},
		{"Basic abc", "", true},
		{"Bearer", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseBearerToken(tt.header)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: unexpected error state: %v", tt.header, err)
		}
		if got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.header, tt.want, got)
		}
	}
}

func TestParseUnverified(t *testing.T) {
	token, _ := GenerateJWTToken("iss", 7, 2*time.Hour, "server-only-key")

	parsed, err := ParseUnverified(token.SignedString)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.UserID != 7 {
		t.Errorf("expected UserID 7, got %d", parsed.UserID)
	}
	if until := time.Until(parsed.ExpiresAt()); until < time.Hour || until > 2*time.Hour {
		t.Errorf("unexpected expiry in %s", until)
	}

	if _, err = ParseUnverified("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}
