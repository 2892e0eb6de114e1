// Package auth mints and verifies the HS256 access tokens handed to sales reps.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// AccessTokenPayload is the rep identity written into a token. An empty JTI
// gets a random one.
type AccessTokenPayload struct {
	SalesRepID uuid.UUID
	Email      string
	Name       string
	Role       enums.SalesRepRole
	JTI        string
}

// AccessTokenClaims is the decoded token. ID (jti) keys the access session in
// Redis; Subject repeats SalesRepID.
type AccessTokenClaims struct {
	SalesRepID uuid.UUID          `json:"sales_rep_id"`
	Email      string             `json:"email"`
	Name       string             `json:"name"`
	Role       enums.SalesRepRole `json:"role"`
	jwt.RegisteredClaims
}
