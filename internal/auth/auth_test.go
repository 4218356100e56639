package auth

import (
	"errors"
	"testing"
	"time"

	"site-projects/internal/models"
	"site-projects/internal/testutil"

	"gorm.io/gorm"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("Secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "Secret123") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "secret123") {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	tokens := NewTokens("k", time.Hour, testutil.FixedClock(now))
	user := models.User{Model: gorm.Model{ID: 7}, Role: models.RoleDriver}

	token, expires, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", expires)
	}

	claims, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 || claims.Role != models.RoleDriver {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	user := models.User{Model: gorm.Model{ID: 7}, Role: models.RoleAdmin}
	token, _, err := NewTokens("k", time.Hour, testutil.FixedClock(now)).Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name   string
		tokens *Tokens
		token  string
	}{
		{"expired", NewTokens("k", time.Hour, testutil.FixedClock(now.Add(2*time.Hour))), token},
		{"wrong key", NewTokens("other", time.Hour, testutil.FixedClock(now)), token},
		{"garbage", NewTokens("k", time.Hour, testutil.FixedClock(now)), "not-a-token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.tokens.Parse(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected invalid token, got %v", err)
			}
		})
	}
}
