package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

type fakeRepo struct {
	nextID    int64
	roles     map[int64]Role
	userCount map[int64]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, roles: map[int64]Role{}, userCount: map[int64]int{}}
}

func (f *fakeRepo) List(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (Role, error) {
	role, ok := f.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (f *fakeRepo) GetByName(ctx context.Context, name string) (Role, error) {
	for _, r := range f.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return Role{}, shared.ErrNotFound
}

func (f *fakeRepo) Create(ctx context.Context, role Role) (Role, error) {
	for _, r := range f.roles {
		if r.Name == role.Name {
			return Role{}, shared.ErrConflict
		}
	}
	role.ID = f.nextID
	f.nextID++
	f.roles[role.ID] = role
	return role, nil
}

func (f *fakeRepo) Update(ctx context.Context, role Role) error {
	if _, ok := f.roles[role.ID]; !ok {
		return shared.ErrNotFound
	}
	f.roles[role.ID] = role
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.roles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.roles, id)
	return nil
}

func (f *fakeRepo) CountUsers(ctx context.Context, id int64) (int, error) {
	return f.userCount[id], nil
}

func TestCreateNormalizesName(t *testing.T) {
	svc := NewService(newFakeRepo())

	role, err := svc.Create(context.Background(), "  Marketing ", " contract drafting ", nil)
	require.NoError(t, err)
	require.Equal(t, "marketing", role.Name)
	require.Equal(t, "contract drafting", role.Description)
	require.NotNil(t, role.Permissions)
}

func TestCreateDuplicateName(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), "finance", "", nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "Finance", "", nil)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), "   ", "", nil)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateKeepsPermissionsWhenNil(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), "finance", "", map[string]bool{"finance:edit": true})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, "finance", "money things", nil)
	require.NoError(t, err)
	require.Equal(t, "money things", updated.Description)
	require.True(t, updated.Permissions["finance:edit"])

	updated, err = svc.Update(context.Background(), created.ID, "finance", "", map[string]bool{})
	require.NoError(t, err)
	require.Empty(t, updated.Permissions)
}

func TestDeleteReferencedRole(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), "operation", "", nil)
	require.NoError(t, err)
	repo.userCount[created.ID] = 3

	err = svc.Delete(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrConflict)

	repo.userCount[created.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
