package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

type userContextKey struct{}

// ContextWithUser stores the resolved user in context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the resolved user from context.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok && user != nil
}

// Middleware wires bearer-token authentication and authorization guards.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireUser verifies the bearer token, re-resolves the user and stores
// it in the request context. Every verification failure is treated like an
// absent token.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		user, err := m.Service.ResolveToken(r.Context(), token)
		if err != nil {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		ctx := ContextWithUser(r.Context(), user)
		ctx = shared.ContextWithActor(ctx, shared.Actor{
			UserID:   user.ID,
			Username: user.Username,
			RoleID:   user.RoleID,
			RoleName: user.RoleName,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only users holding the given role (admin always passes).
func (m Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return m.guard(role, nil)
}

// RequirePermission allows only users whose role grants every permission.
func (m Middleware) RequirePermission(perms ...string) func(http.Handler) http.Handler {
	return m.guard("", perms)
}

func (m Middleware) guard(role string, perms []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			if err := CheckPermission(user, role, perms); err != nil {
				if m.Logger != nil && !errors.Is(err, shared.ErrForbidden) {
					m.Logger.Error("authorization check", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	const prefix = "bearer "
	if !strings.HasPrefix(strings.ToLower(header), prefix) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
