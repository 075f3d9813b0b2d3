// Package auth mints and verifies the HS256 access tokens the API accepts.
// Tokens are issued by the identity service; Mint exists for tooling and
// tests.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/pkg/enums"
)

// AccessTokenPayload is the caller data encoded into a new token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	Name   string
	// JTI defaults to a random uuid.
	JTI string
}

// AccessTokenClaims is the typed body of an access token.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	Name   string         `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims pass; the jwt parser calls it.
func (c AccessTokenClaims) Validate() error {
	if c.UserID == uuid.Nil {
		return errors.New("token missing user id")
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("token carries invalid role %q", c.Role)
	}
	return nil
}
