package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	signed, err := issuer.Issue(User{
		ID:       7,
		Username: "budi",
		RoleID:   2,
		RoleName: "finance",
	})
	require.NoError(t, err)

	claims, err := issuer.Parse(signed)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)
	require.Equal(t, "budi", claims.Subject)
	require.Equal(t, int64(2), claims.RoleID)
	require.Equal(t, "finance", claims.RoleName)
}

func TestTokenIssueRequiresUsername(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	_, err := issuer.Issue(User{ID: 7})
	require.Error(t, err)
}

func TestTokenParseRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	now := time.Now().UTC()
	claims := Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   "budi",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Parse(signed)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenParseRejectsTampered(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	signed, err := issuer.Issue(User{ID: 7, Username: "budi"})
	require.NoError(t, err)

	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	_, err = issuer.Parse(tampered)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenParseRejectsWrongSecret(t *testing.T) {
	signed, err := NewTokenIssuer("secret-a", time.Hour).Issue(User{ID: 7, Username: "budi"})
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Hour).Parse(signed)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenParseRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	for _, token := range []string{"", "   ", "not-a-token", "a.b.c"} {
		_, err := issuer.Parse(token)
		require.ErrorIs(t, err, shared.ErrUnauthorized)
	}
}

func TestTokenParseRejectsForeignIssuer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	now := time.Now().UTC()
	claims := Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "budi",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Parse(signed)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
