// Package auth provides JWT token handling for the identity
// collaborator. The service itself never authenticates users; it only
// verifies tokens minted elsewhere and extracts the user identity the
// rest of the application consumes.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the auth package
var (
	// ErrInvalidToken is returned when a token fails signature or
	// structural validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a token is past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// Claims carries the application-level identity extracted from a
// validated token.
type Claims struct {
	// UserID is the unique identifier of the user the token was issued for.
	UserID uuid.UUID

	// ExpiresAt is when the token stops being valid.
	ExpiresAt time.Time
}

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for the user.
	// Returns the token string or an error if signing fails.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken validates the token string and extracts the claims.
	// Returns ErrExpiredToken for expired tokens and ErrInvalidToken for
	// any other validation failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}
