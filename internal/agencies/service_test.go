package agencies

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

type fakeRepo struct {
	nextID   int64
	agencies map[int64]Agency
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, agencies: map[int64]Agency{}}
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (Agency, error) {
	a, ok := f.agencies[id]
	if !ok {
		return Agency{}, shared.ErrNotFound
	}
	return a, nil
}

func (f *fakeRepo) GetByCode(ctx context.Context, code string) (Agency, error) {
	for _, a := range f.agencies {
		if a.Code == code {
			return a, nil
		}
	}
	return Agency{}, shared.ErrNotFound
}

func (f *fakeRepo) List(ctx context.Context, filters ListFilters) ([]Agency, int, error) {
	out := make([]Agency, 0, len(f.agencies))
	for _, a := range f.agencies {
		if !filters.IncludeInactive && !a.IsActive {
			continue
		}
		if filters.Search != "" && !strings.Contains(a.Name, filters.Search) {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Create(ctx context.Context, agency Agency) (int64, error) {
	for _, existing := range f.agencies {
		if existing.Code == agency.Code {
			return 0, shared.ErrConflict
		}
	}
	agency.ID = f.nextID
	f.nextID++
	f.agencies[agency.ID] = agency
	return agency.ID, nil
}

func (f *fakeRepo) Update(ctx context.Context, agency Agency) error {
	if _, ok := f.agencies[agency.ID]; !ok {
		return shared.ErrNotFound
	}
	f.agencies[agency.ID] = agency
	return nil
}

func (f *fakeRepo) Exists(ctx context.Context, id int64) (bool, error) {
	a, ok := f.agencies[id]
	return ok && a.IsActive, nil
}

func TestCreateNormalizesCode(t *testing.T) {
	svc := NewService(newFakeRepo())

	agency, err := svc.Create(context.Background(), CreateInput{
		Name: "Pelayaran Nusantara",
		Code: " pnu ",
	})
	require.NoError(t, err)
	require.Equal(t, "PNU", agency.Code)
	require.True(t, agency.IsActive)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), CreateInput{Name: "One", Code: "PNU"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{Name: "Two", Code: "pnu"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateRequiresNameAndCode(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), CreateInput{Name: "Only Name"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{
		Name: "Pelayaran Nusantara", Code: "PNU", City: "Jakarta",
	})
	require.NoError(t, err)

	city := "Surabaya"
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{City: &city})
	require.NoError(t, err)
	require.Equal(t, "Surabaya", updated.City)
	require.Equal(t, "Pelayaran Nusantara", updated.Name)
	require.Equal(t, "PNU", updated.Code)
}

func TestDeactivateHidesFromDefaultList(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Name: "One", Code: "ONE"})
	require.NoError(t, err)

	_, err = svc.Deactivate(context.Background(), created.ID)
	require.NoError(t, err)

	items, total, err := svc.List(context.Background(), ListFilters{})
	require.NoError(t, err)
	require.Empty(t, items)
	require.Zero(t, total)

	ok, err := svc.Exists(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, ok)
}
