package auth

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"assetlib/internal/domain"
)

// HMACVerifier validates HS256 owner tokens signed with a shared secret. The
// subject claim carries the numeric owner ID.
type HMACVerifier struct {
	secret []byte
	logger *slog.Logger
}

// NewHMACVerifier creates a verifier over the shared signing secret.
func NewHMACVerifier(secret string, logger *slog.Logger) (*HMACVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth secret cannot be empty")
	}
	return &HMACVerifier{secret: []byte(secret), logger: logger}, nil
}

// VerifyToken parses and validates the token, returning the owner ID from the
// subject claim.
func (v *HMACVerifier) VerifyToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (interface{}, error) {
			return v.secret, nil
		},
		// Pinning the method prevents algorithm confusion.
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err)
		return 0, domain.ErrUnauthorized
	}
	if !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		v.logger.Debug("token missing subject claim")
		return 0, domain.ErrUnauthorized
	}

	ownerID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || ownerID <= 0 {
		v.logger.Debug("token subject is not a valid owner id", "subject", subject)
		return 0, domain.ErrUnauthorized
	}
	return ownerID, nil
}
