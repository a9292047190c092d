package shipments

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/shared"
	"github.com/samudra-erp/samudra-erp/internal/workflow"
)

type fakeRepo struct {
	nextID    int64
	shipments map[int64]Shipment
	contracts map[int64]bool
	agencies  map[int64]bool
	history   []workflow.Entry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		nextID:    1,
		shipments: map[int64]Shipment{},
		contracts: map[int64]bool{1: true},
		agencies:  map[int64]bool{1: true},
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (Shipment, error) {
	s, ok := f.shipments[id]
	if !ok {
		return Shipment{}, shared.ErrNotFound
	}
	return s, nil
}

func (f *fakeRepo) List(ctx context.Context, filters ListFilters) ([]Shipment, int, error) {
	out := make([]Shipment, 0, len(f.shipments))
	for _, s := range f.shipments {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ContractExists(ctx context.Context, contractID int64) (bool, error) {
	return f.contracts[contractID], nil
}

func (f *fakeRepo) AgencyExists(ctx context.Context, agencyID int64) (bool, error) {
	return f.agencies[agencyID], nil
}

func (f *fakeRepo) Create(ctx context.Context, s Shipment) (int64, error) {
	s.ID = f.nextID
	f.nextID++
	f.shipments[s.ID] = s
	return s.ID, nil
}

func (f *fakeRepo) Update(ctx context.Context, s Shipment) error {
	if _, ok := f.shipments[s.ID]; !ok {
		return shared.ErrNotFound
	}
	f.shipments[s.ID] = s
	return nil
}

func (f *fakeRepo) AppendHistory(ctx context.Context, entry workflow.Entry) error {
	f.history = append(f.history, entry)
	return nil
}

func createPlanned(t *testing.T, svc *Service) Shipment {
	t.Helper()
	shipment, err := svc.Create(context.Background(), CreateInput{
		ShipmentNumber: "SHP-2026-001",
		ContractID:     1,
		AgencyID:       1,
		VesselName:     "MV Samudra Jaya",
		Quantity:       decimal.NewFromInt(12_500),
		QuantityUnit:   "MT",
		CreatedBy:      7,
	})
	require.NoError(t, err)
	return shipment
}

func TestCreateDefaultsToPlanned(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	shipment := createPlanned(t, svc)
	require.Equal(t, StatusPlanned, shipment.Status)
	require.Len(t, repo.history, 1)
	require.Equal(t, workflow.EntityShipment, repo.history[0].EntityType)
}

func TestCreateRejectsUnknownContract(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateInput{
		ShipmentNumber: "SHP-2026-002",
		ContractID:     99,
		AgencyID:       1,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.shipments)
}

func TestLifecycleTransitions(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	shipment := createPlanned(t, svc)

	for _, to := range []Status{StatusLoading, StatusInTransit, StatusArrived, StatusCompleted} {
		updated, err := svc.Transition(context.Background(), shipment.ID, to, 7, "")
		require.NoError(t, err)
		require.Equal(t, to, updated.Status)
	}

	final, err := svc.Get(context.Background(), shipment.ID)
	require.NoError(t, err)
	require.NotNil(t, final.ATA)

	// create + 4 transitions
	require.Len(t, repo.history, 5)
	last := repo.history[len(repo.history)-1]
	require.Equal(t, workflow.ActionComplete, last.Action)
	require.Equal(t, string(StatusArrived), last.FromStatus)
}

func TestSkippingStatesRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	shipment := createPlanned(t, svc)

	_, err := svc.Transition(context.Background(), shipment.ID, StatusArrived, 7, "")
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCancelFromTransitKeepsReason(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	shipment := createPlanned(t, svc)

	_, err := svc.Transition(context.Background(), shipment.ID, StatusLoading, 7, "")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), shipment.ID, 9, "vessel off-hire")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Equal(t, "vessel off-hire", cancelled.CancelReason)

	_, err = svc.Transition(context.Background(), shipment.ID, StatusInTransit, 7, "")
	require.ErrorIs(t, err, shared.ErrInvalidState)
}
