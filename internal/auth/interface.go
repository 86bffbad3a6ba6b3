// Package auth verifies the bearer credentials presented to the API: owner
// JWTs for the management surface and folder-scoped tokens for the
// programmatic upload surface.
package auth

// OwnerVerifier validates an owner bearer token and returns the owner ID.
type OwnerVerifier interface {
	// VerifyToken returns the owner ID carried by a valid token, or an error
	// wrapping domain.ErrUnauthorized.
	VerifyToken(tokenString string) (int64, error)
}
