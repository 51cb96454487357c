package utils

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken("uid-1", "a@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "uid-1" || claims.Email != "a@example.com" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	SetSecret("test-secret")
	expired, _ := GenerateToken("uid-1", "", -time.Minute)

	SetSecret("other-secret")
	foreign, _ := GenerateToken("uid-1", "", time.Hour)
	SetSecret("test-secret")

	tests := []struct {
		name  string
		token string
	}{
		{name: "Garbage", token: "not-a-token"},
		{name: "Expired", token: expired},
		{name: "Wrong Secret", token: foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(tt.token); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := GenerateToken("", "", time.Hour); err == nil {
		t.Error("expected error for empty subject")
	}
}
