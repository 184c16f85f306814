package port

import "github.com/google/uuid"

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

type TokenPayload struct {
	UserID uuid.UUID
	Role   string
}

// TokenService verifies caller identity issued by the identity
// collaborator. This service never issues buyer/seller tokens itself.
//
//go:generate mockgen -source=auth.go -destination=mock/auth.go -package=mock
type TokenService interface {
	VerifyToken(token string) (*TokenPayload, error)
}
