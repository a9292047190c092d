package contracts

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
	contracts map[int64]Contract
	agencies  map[int64]bool
	history   []workflow.Entry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		nextID:    1,
		contracts: map[int64]Contract{},
		agencies:  map[int64]bool{1: true},
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (Contract, error) {
	c, ok := f.contracts[id]
	if !ok {
		return Contract{}, shared.ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) List(ctx context.Context, filters ListFilters) ([]Contract, int, error) {
	out := make([]Contract, 0, len(f.contracts))
	for _, c := range f.contracts {
		if filters.Status != "" && c.Status != filters.Status {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (f *fakeRepo) AgencyExists(ctx context.Context, agencyID int64) (bool, error) {
	return f.agencies[agencyID], nil
}

func (f *fakeRepo) Create(ctx context.Context, c Contract) (int64, error) {
	for _, existing := range f.contracts {
		if existing.ContractNumber == c.ContractNumber {
			return 0, shared.ErrConflict
		}
	}
	c.ID = f.nextID
	f.nextID++
	f.contracts[c.ID] = c
	return c.ID, nil
}

func (f *fakeRepo) Update(ctx context.Context, c Contract) error {
	if _, ok := f.contracts[c.ID]; !ok {
		return shared.ErrNotFound
	}
	f.contracts[c.ID] = c
	return nil
}

func (f *fakeRepo) AppendHistory(ctx context.Context, entry workflow.Entry) error {
	f.history = append(f.history, entry)
	return nil
}

func createDraft(t *testing.T, svc *Service) Contract {
	t.Helper()
	contract, err := svc.Create(context.Background(), CreateInput{
		ContractNumber: "CTR-2026-001",
		AgencyID:       1,
		Title:          "Liner agency agreement",
		TotalValue:     decimal.NewFromInt(150_000),
		Currency:       "USD",
		CreatedBy:      7,
	})
	require.NoError(t, err)
	return contract
}

func TestCreateDefaultsAndHistory(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	contract := createDraft(t, svc)
	require.Equal(t, StatusDraft, contract.Status)
	require.Equal(t, TrackPending, contract.Marketing.Status)
	require.Equal(t, TrackPending, contract.Operation.Status)
	require.Equal(t, TrackPending, contract.Finance.Status)

	require.Len(t, repo.history, 1)
	entry := repo.history[0]
	require.Equal(t, workflow.EntityContract, entry.EntityType)
	require.Equal(t, contract.ID, entry.EntityID)
	require.Equal(t, workflow.ActionCreate, entry.Action)
	require.Equal(t, string(StatusDraft), entry.ToStatus)
}

func TestCreateRejectsUnknownAgency(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateInput{
		ContractNumber: "CTR-2026-002",
		AgencyID:       99,
		Title:          "Orphan",
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.contracts)
	require.Empty(t, repo.history)
}

func TestTrackTransitionWritesOneHistoryRow(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	contract := createDraft(t, svc)
	before := len(repo.history)

	updated, err := svc.SubmitTrack(context.Background(), contract.ID, DeptMarketing, 7, "docs attached")
	require.NoError(t, err)
	require.Equal(t, TrackSubmitted, updated.Marketing.Status)
	require.Equal(t, StatusPending, updated.Status)

	require.Len(t, repo.history, before+1)
	entry := repo.history[len(repo.history)-1]
	require.Equal(t, workflow.ActionSubmit, entry.Action)
	require.Equal(t, string(TrackPending), entry.FromStatus)
	require.Equal(t, string(TrackSubmitted), entry.ToStatus)
	require.Equal(t, string(DeptMarketing), entry.Department)
	require.Equal(t, contract.ID, entry.EntityID)
}

func TestApproveRequiresSubmission(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	contract := createDraft(t, svc)

	_, err := svc.ApproveTrack(context.Background(), contract.ID, DeptFinance, 7, "")
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestAllTracksApprovedDerivesApproved(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	contract := createDraft(t, svc)

	for _, dept := range Departments {
		_, err := svc.SubmitTrack(context.Background(), contract.ID, dept, 7, "")
		require.NoError(t, err)
		_, err = svc.ApproveTrack(context.Background(), contract.ID, dept, 9, "")
		require.NoError(t, err)
	}

	final, err := svc.Get(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, final.Status)
	require.Equal(t, int64(9), final.ApprovedBy)
	require.NotNil(t, final.ApprovedAt)

	// create + 3 submits + 3 approvals
	require.Len(t, repo.history, 7)
}

func TestRejectRequiresRemarksAndAllowsResubmit(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	contract := createDraft(t, svc)

	_, err := svc.SubmitTrack(context.Background(), contract.ID, DeptOperation, 7, "")
	require.NoError(t, err)

	_, err = svc.RejectTrack(context.Background(), contract.ID, DeptOperation, 9, "")
	require.ErrorIs(t, err, shared.ErrValidation)

	rejected, err := svc.RejectTrack(context.Background(), contract.ID, DeptOperation, 9, "missing vessel schedule")
	require.NoError(t, err)
	require.Equal(t, TrackRejected, rejected.Operation.Status)
	// A rejection keeps the contract under review, not back in draft.
	require.Equal(t, StatusPending, rejected.Status)

	resubmitted, err := svc.SubmitTrack(context.Background(), contract.ID, DeptOperation, 7, "schedule added")
	require.NoError(t, err)
	require.Equal(t, TrackSubmitted, resubmitted.Operation.Status)
}

func TestCancelRequiresReason(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	contract := createDraft(t, svc)

	_, err := svc.Cancel(context.Background(), contract.ID, 7, "  ")
	require.ErrorIs(t, err, shared.ErrValidation)

	cancelled, err := svc.Cancel(context.Background(), contract.ID, 7, "superseded by CTR-2026-003")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Equal(t, int64(7), cancelled.CancelledBy)
	require.NotNil(t, cancelled.CancelledAt)
	require.Equal(t, TrackCancelled, cancelled.Marketing.Status)

	_, err = svc.Cancel(context.Background(), contract.ID, 7, "again")
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCompleteOnlyFromApprovedOrActive(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	contract := createDraft(t, svc)

	_, err := svc.Complete(context.Background(), contract.ID, 7)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	for _, dept := range Departments {
		_, err := svc.SubmitTrack(context.Background(), contract.ID, dept, 7, "")
		require.NoError(t, err)
		_, err = svc.ApproveTrack(context.Background(), contract.ID, dept, 9, "")
		require.NoError(t, err)
	}

	activated, err := svc.Activate(context.Background(), contract.ID, 7)
	require.NoError(t, err)
	require.Equal(t, StatusActive, activated.Status)

	completed, err := svc.Complete(context.Background(), contract.ID, 7)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, completed.Status)
}

func TestUpdateRejectedOnTerminalContract(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	contract := createDraft(t, svc)

	_, err := svc.Cancel(context.Background(), contract.ID, 7, "void")
	require.NoError(t, err)

	title := "renamed"
	_, err = svc.Update(context.Background(), contract.ID, UpdateInput{Title: &title})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}
