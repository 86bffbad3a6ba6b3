package auth

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"assetlib/internal/domain"
)

const testSecret = "test-secret"

func newTestVerifier(t *testing.T) *HMACVerifier {
	t.Helper()
	v, err := NewHMACVerifier(testSecret, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewHMACVerifier failed: %v", err)
	}
	return v
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestVerifyToken(t *testing.T) {
	v := newTestVerifier(t)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	ownerID, err := v.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if ownerID != 42 {
		t.Errorf("ownerID = %d, want 42", ownerID)
	}
}

func TestVerifyTokenRejections(t *testing.T) {
	v := newTestVerifier(t)
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", signToken(t, "other-secret", jwt.MapClaims{"sub": "42", "exp": future})},
		{"expired", signToken(t, testSecret, jwt.MapClaims{"sub": "42", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"missing subject", signToken(t, testSecret, jwt.MapClaims{"exp": future})},
		{"non-numeric subject", signToken(t, testSecret, jwt.MapClaims{"sub": "alice", "exp": future})},
		{"zero subject", signToken(t, testSecret, jwt.MapClaims{"sub": "0", "exp": future})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.VerifyToken(tt.token); !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("error = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestEmptySecretRejected(t *testing.T) {
	if _, err := NewHMACVerifier("", slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("expected an error for an empty secret")
	}
}
