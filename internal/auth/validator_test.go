package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, secret, subject string, method jwt.SigningMethod) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestValidator_Validate(t *testing.T) {
	v, err := NewValidator("test-secret")
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	subject, err := v.Validate("Bearer " + signedToken(t, "test-secret", "admin-1", jwt.SigningMethodHS256))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if subject != "admin-1" {
		t.Fatalf("expected subject admin-1, got %s", subject)
	}
}

func TestValidator_RejectsBadTokens(t *testing.T) {
	v, _ := NewValidator("test-secret")

	if _, err := v.Validate(""); err == nil {
		t.Fatal("empty token should fail")
	}
	if _, err := v.Validate("Bearer not-a-jwt"); err == nil {
		t.Fatal("malformed token should fail")
	}
	if _, err := v.Validate(signedToken(t, "wrong-secret", "admin-1", jwt.SigningMethodHS256)); err == nil {
		t.Fatal("wrong secret should fail")
	}
}

func TestNewValidator_RequiresSecret(t *testing.T) {
	if _, err := NewValidator(""); err == nil {
		t.Fatal("empty secret should fail")
	}
}
