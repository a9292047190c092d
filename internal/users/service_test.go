package users

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/auth"
	"github.com/samudra-erp/samudra-erp/internal/roles"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

type fakeRepo struct {
	nextID int64
	users  map[int64]User
	roles  map[int64]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		nextID: 1,
		users:  map[int64]User{},
		roles: map[int64]string{
			1: roles.AdminRoleName,
			2: "operations",
		},
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (f *fakeRepo) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	out := make([]User, 0, len(f.users))
	for _, u := range f.users {
		if !filters.IncludeInactive && !u.IsActive() {
			continue
		}
		if filters.Search != "" && !strings.Contains(u.Username, filters.Search) {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Statistics(ctx context.Context) (Statistics, error) {
	stats := Statistics{RoleDistribution: map[string]int{}}
	for _, u := range f.users {
		stats.TotalUsers++
		if u.IsActive() {
			stats.ActiveUsers++
		}
		stats.RoleDistribution[u.RoleName]++
	}
	stats.InactiveUsers = stats.TotalUsers - stats.ActiveUsers
	return stats, nil
}

func (f *fakeRepo) RoleName(ctx context.Context, roleID int64) (string, error) {
	name, ok := f.roles[roleID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return name, nil
}

func (f *fakeRepo) CountOtherActiveAdmins(ctx context.Context, excludeUserID int64) (int, error) {
	count := 0
	for _, u := range f.users {
		if u.ID != excludeUserID && u.IsAdmin() && u.IsActive() {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) Create(ctx context.Context, user User) (int64, error) {
	for _, existing := range f.users {
		if existing.Username == user.Username || strings.EqualFold(existing.Email, user.Email) {
			return 0, shared.ErrConflict
		}
	}
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return user.ID, nil
}

func (f *fakeRepo) Update(ctx context.Context, user User) error {
	if _, ok := f.users[user.ID]; !ok {
		return shared.ErrNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeRepo) seed(username string, roleID int64, status Status) User {
	u := User{
		ID:       f.nextID,
		Username: username,
		Email:    username + "@samudra.test",
		RoleID:   roleID,
		RoleName: f.roles[roleID],
		Status:   status,
	}
	f.nextID++
	f.users[u.ID] = u
	return u
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, auth.NewHasher(4))
}

func TestCreateHashesPasswordAndResolvesRole(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Username: "budi",
		Email:    "budi@samudra.test",
		Password: "rahasia-besar",
		RoleID:   2,
	})
	require.NoError(t, err)
	require.Equal(t, "operations", user.RoleName)
	require.Equal(t, StatusActive, user.Status)
	require.NotEqual(t, "rahasia-besar", user.PasswordHash)
	require.True(t, auth.NewHasher(4).Verify(user.PasswordHash, "rahasia-besar"))
}

func TestCreateRejectsDuplicateUsername(t *testing.T) {
	repo := newFakeRepo()
	repo.seed("budi", 2, StatusActive)
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateUserInput{
		Username: "budi",
		Email:    "other@samudra.test",
		Password: "rahasia-besar",
		RoleID:   2,
	})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateUserInput{
		Username: "budi",
		Email:    "budi@samudra.test",
		Password: "rahasia-besar",
		RoleID:   99,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeactivateLastAdminRejected(t *testing.T) {
	repo := newFakeRepo()
	admin := repo.seed("admin", 1, StatusActive)
	repo.seed("budi", 2, StatusActive)
	svc := newTestService(repo)

	_, err := svc.Deactivate(context.Background(), admin.ID)
	require.ErrorIs(t, err, shared.ErrLastAdmin)

	stored, err := repo.Get(context.Background(), admin.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, stored.Status)
}

func TestDeactivateAdminWithPeerSucceeds(t *testing.T) {
	repo := newFakeRepo()
	admin := repo.seed("admin", 1, StatusActive)
	repo.seed("admin2", 1, StatusActive)
	svc := newTestService(repo)

	updated, err := svc.Deactivate(context.Background(), admin.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDeactivated, updated.Status)
}

func TestChangeRoleDemotingLastAdminRejected(t *testing.T) {
	repo := newFakeRepo()
	admin := repo.seed("admin", 1, StatusActive)
	svc := newTestService(repo)

	_, err := svc.ChangeRole(context.Background(), admin.ID, 2)
	require.ErrorIs(t, err, shared.ErrLastAdmin)
}

func TestChangeRoleNonAdminSucceeds(t *testing.T) {
	repo := newFakeRepo()
	repo.seed("admin", 1, StatusActive)
	user := repo.seed("budi", 2, StatusActive)
	svc := newTestService(repo)

	updated, err := svc.ChangeRole(context.Background(), user.ID, 1)
	require.NoError(t, err)
	require.Equal(t, roles.AdminRoleName, updated.RoleName)
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	repo := newFakeRepo()
	user := repo.seed("budi", 2, StatusActive)
	svc := newTestService(repo)

	email := "new@samudra.test"
	updated, err := svc.Update(context.Background(), user.ID, UpdateUserInput{Email: &email})
	require.NoError(t, err)
	require.Equal(t, email, updated.Email)
	require.Equal(t, user.Username, updated.Username)
	require.Equal(t, user.RoleID, updated.RoleID)
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), CreateUserInput{
		Username: "budi",
		Email:    "budi@samudra.test",
		Password: "rahasia-besar",
		RoleID:   2,
	})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), created.ID, "salah", "kata-sandi-baru")
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.ChangePassword(context.Background(), created.ID, "rahasia-besar", "kata-sandi-baru")
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, auth.NewHasher(4).Verify(stored.PasswordHash, "kata-sandi-baru"))
}

func TestStatisticsCountsStatusAndRoles(t *testing.T) {
	repo := newFakeRepo()
	repo.seed("admin", 1, StatusActive)
	repo.seed("budi", 2, StatusActive)
	repo.seed("sari", 2, StatusDeactivated)
	svc := newTestService(repo)

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalUsers)
	require.Equal(t, 2, stats.ActiveUsers)
	require.Equal(t, 1, stats.InactiveUsers)
	require.Equal(t, 2, stats.RoleDistribution["operations"])
}

func TestSearchRequiresQuery(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, _, err := svc.Search(context.Background(), "  ", 1, 20)
	require.ErrorIs(t, err, shared.ErrValidation)
}
