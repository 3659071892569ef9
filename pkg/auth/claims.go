package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/creditpool/creditpool-backend/pkg/enums"
)

// AccessTokenPayload is the identity a token is minted for.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.Role
	JTI    string
}

// AccessTokenClaims is the verified bearer identity. Role is a coarse gate
// only; admin rights are confirmed against user_roles.
type AccessTokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}
