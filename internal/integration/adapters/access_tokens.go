// Package adapters implements adapter interfaces from the application layer.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

const (
	tokenIssuer = "realtyhub"
	accessScope = "access"
	clockLeeway = 30 * time.Second
)

// accessClaims is the JWT body. Subject carries the user ID.
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

type jwtAccessTokens struct {
	secret []byte
	parser *jwt.Parser
}

// NewAccessTokens signs HS256 tokens with secret.
func NewAccessTokens(secret string) adapter.AccessTokens {
	return &jwtAccessTokens{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithLeeway(clockLeeway),
			jwt.WithExpirationRequired(),
		),
	}
}

func (t *jwtAccessTokens) Issue(claims adapter.AccessClaims, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	body := accessClaims{
		Email: claims.Email,
		Role:  string(claims.Role),
		Scope: accessScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   claims.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, body).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (t *jwtAccessTokens) Verify(ctx context.Context, token string) (*adapter.AccessClaims, error) {
	var body accessClaims
	_, err := t.parser.ParseWithClaims(token, &body, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", domainerror.ErrExpiredToken, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", domainerror.ErrInvalidToken, err)
	case body.Scope != accessScope:
		return nil, fmt.Errorf("%w: scope %q", domainerror.ErrInvalidToken, body.Scope)
	}

	userID, err := uuid.Parse(body.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", domainerror.ErrInvalidToken)
	}

	return &adapter.AccessClaims{
		UserID:    userID,
		Email:     body.Email,
		Role:      entity.UserRole(body.Role),
		ExpiresAt: body.ExpiresAt.Time,
	}, nil
}
