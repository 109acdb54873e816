package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-event-roster/core/config"
	"go-event-roster/core/constants"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims identifies a web operator. The identity provider that issues
// these tokens lives outside this service; only verification happens here.
type TokenClaims struct {
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
	Scope string   `json:"scope"`
	jwt.RegisteredClaims
}

// OperatorID is the token subject.
func (c *TokenClaims) OperatorID() string {
	return c.Subject
}

// HasRole reports whether the operator carries role.
func (c *TokenClaims) HasRole(role string) bool {
	if role == "" {
		return false
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func jwtSecret() ([]byte, error) {
	cfg, ok := config.GetSafe()
	if !ok || cfg.Auth.JWTSecret == "" {
		return nil, errors.New("jwt secret not configured")
	}
	return []byte(cfg.Auth.JWTSecret), nil
}

// GenerateToken signs an access token for the token command and tests.
func GenerateToken(operatorID string, name string, roles []string, ttl time.Duration) (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := TokenClaims{
		Name:  name,
		Roles: roles,
		Scope: constants.ScopeTokenAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ValidateAndParseToken(tokenString string) (*TokenClaims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, err
	}
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if claims.Scope != constants.ScopeTokenAccess {
		return nil, errors.New("token scope is not access")
	}
	return claims, nil
}

func GetTokenFromHeader(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}
