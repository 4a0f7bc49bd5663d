package auth

import (
	"testing"
	"time"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		Sub:  "admin",
		Name: "Administrator",
		JTI:  "jti-1",
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	claims, err := ParseToken(secret, issued)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Sub != "admin" || claims.Name != "Administrator" || claims.JTI != "jti-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		Sub:  "admin",
		Name: "Administrator",
		JTI:  "jti-1",
		Exp:  time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err = ParseToken(secret, issued); err != ErrExpiredToken {
		t.Fatalf("ParseToken() error = %v, want ErrExpiredToken", err)
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		Sub:  "admin",
		Name: "Administrator",
		JTI:  "jti-1",
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", issued},
		{"missing signature", "payload-only"},
		{"corrupted signature", issued + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := secret
			if tt.name == "wrong secret" {
				key = []byte("other")
			}
			if _, err := ParseToken(key, tt.token); err != ErrInvalidToken {
				t.Errorf("ParseToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestVerifyAdminPassword(t *testing.T) {
	hash, err := HashAdminPassword("s3cret")
	if err != nil {
		t.Fatalf("HashAdminPassword() error = %v", err)
	}
	if err := VerifyAdminPassword(hash, "s3cret"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := VerifyAdminPassword(hash, "wrong"); err != ErrWrongPassword {
		t.Errorf("wrong password error = %v, want ErrWrongPassword", err)
	}
}
