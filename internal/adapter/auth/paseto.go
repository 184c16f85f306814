package auth

import (
	"aidanwoods.dev/go-paseto"

	"github.com/quickcart/orders/internal/adapter/config"
	"github.com/quickcart/orders/internal/core/domain"
	"github.com/quickcart/orders/internal/core/port"
)

// PasetoToken verifies v4.local tokens issued by the identity service.
// The symmetric key is shared through configuration; this service never
// issues tokens.
type PasetoToken struct {
	parser *paseto.Parser
	key    *paseto.V4SymmetricKey
}

func New(cfg *config.Auth) (port.TokenService, error) {
	key, err := paseto.V4SymmetricKeyFromHex(cfg.TokenKey)
	if err != nil {
		return nil, err
	}

	parser := paseto.NewParser()

	return &PasetoToken{
		parser: &parser,
		key:    &key,
	}, nil
}

func (p *PasetoToken) VerifyToken(token string) (*port.TokenPayload, error) {
	parsedToken, err := p.parser.ParseV4Local(*p.key, token, nil)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	payload := port.TokenPayload{}
	err = parsedToken.Get("payload", &payload)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	if payload.Role != port.RoleBuyer && payload.Role != port.RoleSeller && payload.Role != port.RoleAdmin {
		return nil, domain.ErrInvalidToken
	}
	return &payload, nil
}
