package auth

import (
	"errors"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager("secret", 15*time.Minute)

	token, expires, err := manager.GenerateAccessToken(101, RoleModerator)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatalf("token already expired")
	}

	claims, err := manager.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 101 || claims.Role != RoleModerator {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	issuer := NewJWTManager("secret-a", 15*time.Minute)
	verifier := NewJWTManager("secret-b", 15*time.Minute)

	token, _, err := issuer.GenerateAccessToken(101, RoleOwner)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := verifier.ParseAccessToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	manager := NewJWTManager("secret", 15*time.Minute)

	for _, raw := range []string{"", "  ", "not.a.token"} {
		if _, err := manager.ParseAccessToken(raw); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for %q, got %v", raw, err)
		}
	}
}

func TestCanWrite(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{role: RoleOwner, want: true},
		{role: RoleModerator, want: true},
		{role: RoleViewer, want: false},
		{role: "", want: false},
		{role: "SUPPORT", want: false},
	}

	for _, tt := range tests {
		identity := Identity{UserID: 1, Role: tt.role}
		if got := identity.CanWrite(); got != tt.want {
			t.Fatalf("CanWrite for role %q: got %v want %v", tt.role, got, tt.want)
		}
	}
}
