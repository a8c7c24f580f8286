// Package token issues and validates the signed actor tokens carried on API
// requests. Tokens carry the actor id as the subject and the acting role as
// a custom claim; full identity management lives outside this service.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bloodline/pkg/domain"
	dErrors "bloodline/pkg/domain-errors"
)

// Claims are the JWT claims for actor tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey string, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Generate signs an actor token. Mainly used by tests and dev tooling; in
// production tokens come from the identity provider sharing the key.
func (s *Service) Generate(actorID domain.ActorID, role domain.Role, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

// Validate parses the token and extracts the actor and role.
func (s *Service) Validate(tokenString string) (domain.ActorID, domain.Role, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ActorID{}, "", dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.ActorID{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.ActorID{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	actorID, err := domain.ParseActorID(claims.Subject)
	if err != nil {
		return domain.ActorID{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid actor in token")
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.ActorID{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid role in token")
	}
	return actorID, role, nil
}
