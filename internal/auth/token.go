package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

const issuerName = "samudra"

// Claims are the JWT claims embedded in access tokens. The subject is the
// username; role fields are informational only and are never trusted for
// authorization decisions (the user is re-resolved on every request).
type Claims struct {
	UserID   int64  `json:"user_id"`
	RoleID   int64  `json:"role_id"`
	RoleName string `json:"role_name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs a TokenIssuer. The default token lifetime is
// 1440 minutes when ttl is not positive.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 1440 * time.Minute
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given user.
func (t *TokenIssuer) Issue(user User) (string, error) {
	if strings.TrimSpace(user.Username) == "" {
		return "", fmt.Errorf("auth: username required")
	}
	now := time.Now().UTC()
	claims := Claims{
		UserID:   user.ID,
		RoleID:   user.RoleID,
		RoleName: user.RoleName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry. Every verification failure, expiry,
// tampering or malformed payload included, surfaces as ErrUnauthorized so
// callers cannot distinguish them from an absent token.
func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.ErrUnauthorized
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, shared.ErrUnauthorized
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, shared.ErrUnauthorized
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, shared.ErrUnauthorized
	}
	if claims.Issuer != issuerName || strings.TrimSpace(claims.Subject) == "" {
		return nil, shared.ErrUnauthorized
	}
	return claims, nil
}
