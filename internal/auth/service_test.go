package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

type fakeRepo struct {
	users      map[string]*User
	findErr    error
	lastLogins []int64
}

func (f *fakeRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	user, ok := f.users[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeRepo) UpdateLastLogin(ctx context.Context, userID int64) error {
	f.lastLogins = append(f.lastLogins, userID)
	return nil
}

func newTestService(t *testing.T, users ...*User) (*Service, *fakeRepo) {
	t.Helper()
	repo := &fakeRepo{users: map[string]*User{}}
	for _, u := range users {
		repo.users[u.Username] = u
	}
	hasher := NewHasher(4)
	return NewService(repo, NewTokenIssuer("test-secret", time.Hour), hasher), repo
}

func activeUser(t *testing.T, username, password, role string) *User {
	t.Helper()
	hash, err := NewHasher(4).Hash(password)
	require.NoError(t, err)
	return &User{
		ID:           1,
		Username:     username,
		PasswordHash: hash,
		RoleID:       2,
		RoleName:     role,
		IsActive:     true,
	}
}

func TestLoginIssuesParsableToken(t *testing.T) {
	svc, repo := newTestService(t, activeUser(t, "budi", "rahasia", "finance"))

	user, token, err := svc.Login(context.Background(), "budi", "rahasia")
	require.NoError(t, err)
	require.Equal(t, "budi", user.Username)
	require.Equal(t, []int64{1}, repo.lastLogins)

	resolved, err := svc.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo := newTestService(t, activeUser(t, "budi", "rahasia", "finance"))

	_, _, err := svc.Login(context.Background(), "budi", "salah")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	require.Empty(t, repo.lastLogins)
}

func TestLoginRepositoryFailureIsNotACredentialError(t *testing.T) {
	svc, repo := newTestService(t, activeUser(t, "budi", "rahasia", "finance"))
	repo.findErr = errors.New("dial tcp 127.0.0.1:5432: connection refused")

	_, _, err := svc.Login(context.Background(), "budi", "rahasia")
	require.Error(t, err)
	require.NotErrorIs(t, err, shared.ErrInvalidCredentials)
	require.ErrorIs(t, err, repo.findErr)
	require.Empty(t, repo.lastLogins)
}

func TestLoginUnknownUserSameError(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "siapa", "rahasia")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	user := activeUser(t, "budi", "rahasia", "finance")
	user.IsActive = false
	svc, repo := newTestService(t, user)

	_, _, err := svc.Login(context.Background(), "budi", "rahasia")
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.Empty(t, repo.lastLogins)
}

func TestResolveTokenReflectsRoleChange(t *testing.T) {
	user := activeUser(t, "budi", "rahasia", "finance")
	svc, repo := newTestService(t, user)

	_, token, err := svc.Login(context.Background(), "budi", "rahasia")
	require.NoError(t, err)

	// Role changes after issuance must win over the claim baked into the token.
	repo.users["budi"].RoleName = "staff"

	resolved, err := svc.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "staff", resolved.RoleName)
}

func TestResolveTokenDeletedUser(t *testing.T) {
	svc, repo := newTestService(t, activeUser(t, "budi", "rahasia", "finance"))

	_, token, err := svc.Login(context.Background(), "budi", "rahasia")
	require.NoError(t, err)

	delete(repo.users, "budi")

	_, err = svc.ResolveToken(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCheckPermission(t *testing.T) {
	admin := &User{RoleName: "admin", IsActive: true}
	staff := &User{RoleName: "staff", IsActive: true, Permissions: map[string]bool{"contracts:edit": true}}
	inactive := &User{RoleName: "admin", IsActive: false}

	require.NoError(t, CheckPermission(admin, "", []string{"finance:approve"}))
	require.NoError(t, CheckPermission(staff, "", []string{"contracts:edit"}))
	require.ErrorIs(t, CheckPermission(staff, "", []string{"finance:approve"}), shared.ErrForbidden)
	require.ErrorIs(t, CheckPermission(staff, "finance", nil), shared.ErrForbidden)
	require.ErrorIs(t, CheckPermission(inactive, "", nil), shared.ErrForbidden)
	require.ErrorIs(t, CheckPermission(nil, "", nil), shared.ErrUnauthorized)

	err := CheckPermission(staff, "", []string{"finance:approve", "finance:edit"})
	var missing *shared.MissingPermissionsError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, []string{"finance:approve", "finance:edit"}, missing.Missing)
}
