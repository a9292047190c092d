package finance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/shared"
	"github.com/samudra-erp/samudra-erp/internal/workflow"
)

type fakeRepo struct {
	nextID       int64
	transactions map[int64]Transaction
	refs         map[string]map[int64]bool
	history      []workflow.Entry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		nextID:       1,
		transactions: map[int64]Transaction{},
		refs: map[string]map[int64]bool{
			"contracts": {1: true},
			"shipments": {1: true},
			"agencies":  {1: true},
		},
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (Transaction, error) {
	tr, ok := f.transactions[id]
	if !ok {
		return Transaction{}, shared.ErrNotFound
	}
	return tr, nil
}

func (f *fakeRepo) List(ctx context.Context, filters ListFilters) ([]Transaction, int, error) {
	out := make([]Transaction, 0, len(f.transactions))
	for _, tr := range f.transactions {
		out = append(out, tr)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]Transaction, error) {
	var out []Transaction
	for _, tr := range f.transactions {
		if tr.DueDate == nil || !tr.DueDate.Before(asOf) {
			continue
		}
		switch tr.Status {
		case StatusPending, StatusApproved, StatusOverdue:
			out = append(out, tr)
		}
	}
	return out, nil
}

func (f *fakeRepo) ReferenceExists(ctx context.Context, table string, id int64) (bool, error) {
	return f.refs[table][id], nil
}

func (f *fakeRepo) Create(ctx context.Context, tr Transaction) (int64, error) {
	for _, existing := range f.transactions {
		if existing.TransactionNumber == tr.TransactionNumber {
			return 0, shared.ErrConflict
		}
	}
	tr.ID = f.nextID
	f.nextID++
	f.transactions[tr.ID] = tr
	return tr.ID, nil
}

func (f *fakeRepo) Update(ctx context.Context, tr Transaction) error {
	if _, ok := f.transactions[tr.ID]; !ok {
		return shared.ErrNotFound
	}
	f.transactions[tr.ID] = tr
	return nil
}

func (f *fakeRepo) AppendHistory(ctx context.Context, entry workflow.Entry) error {
	f.history = append(f.history, entry)
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createInvoice(t *testing.T, svc *Service, due *time.Time) Transaction {
	t.Helper()
	tr, err := svc.Create(context.Background(), CreateInput{
		TransactionNumber: "INV-2026-001",
		Type:              TypeInvoice,
		ContractID:        1,
		Amount:            dec("1000.00"),
		Tax:               dec("110.00"),
		Discount:          dec("50.00"),
		Currency:          "USD",
		ExchangeRate:      dec("15500"),
		DueDate:           due,
		CreatedBy:         7,
	})
	require.NoError(t, err)
	return tr
}

func TestCreateComputesDerivedAmounts(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	tr := createInvoice(t, svc, nil)
	require.Equal(t, StatusPending, tr.Status)
	require.True(t, tr.Total.Equal(dec("1060.00")), "total = %s", tr.Total)
	require.True(t, tr.AmountLocal.Equal(dec("16430000")), "amount_local = %s", tr.AmountLocal)
	require.Len(t, repo.history, 1)
}

func TestCreateDefaultsExchangeRateToOne(t *testing.T) {
	svc := NewService(newFakeRepo())

	tr, err := svc.Create(context.Background(), CreateInput{
		TransactionNumber: "PAY-2026-001",
		Type:              TypePayment,
		Amount:            dec("250.00"),
		Currency:          "IDR",
	})
	require.NoError(t, err)
	require.True(t, tr.AmountLocal.Equal(dec("250.00")))
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), CreateInput{
		TransactionNumber: "X-1",
		Type:              "wire",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsUnknownReference(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateInput{
		TransactionNumber: "INV-2026-002",
		Type:              TypeInvoice,
		ContractID:        99,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.transactions)
}

func TestUpdateRecomputesDerived(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	tr := createInvoice(t, svc, nil)

	amount := dec("2000.00")
	updated, err := svc.Update(context.Background(), tr.ID, UpdateInput{Amount: &amount})
	require.NoError(t, err)
	require.True(t, updated.Total.Equal(dec("2060.00")))
	require.True(t, updated.AmountLocal.Equal(dec("31930000")))
}

func TestApprovePayLifecycle(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	tr := createInvoice(t, svc, nil)

	_, err := svc.MarkPaid(context.Background(), tr.ID, 9, "bank_transfer", nil)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	approved, err := svc.Approve(context.Background(), tr.ID, 9)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, int64(9), approved.ApprovedBy)

	paid, err := svc.MarkPaid(context.Background(), tr.ID, 9, "bank_transfer", nil)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentDate)
	require.Equal(t, "bank_transfer", paid.PaymentMethod)

	// create + approve + pay
	require.Len(t, repo.history, 3)

	_, err = svc.Cancel(context.Background(), tr.ID, 9, "dup")
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestMarkOverdueBumpsReminders(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	due := time.Now().Add(-48 * time.Hour)
	tr := createInvoice(t, svc, &due)

	first, err := svc.MarkOverdue(context.Background(), tr.ID)
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, first.Status)
	require.True(t, first.ReminderSent)
	require.Equal(t, 1, first.ReminderCount)
	require.Len(t, repo.history, 2)

	second, err := svc.MarkOverdue(context.Background(), tr.ID)
	require.NoError(t, err)
	require.Equal(t, 2, second.ReminderCount)
	// repeat reminders do not add history rows
	require.Len(t, repo.history, 2)
}

func TestMarkOverdueRejectsFutureDue(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	due := time.Now().Add(72 * time.Hour)
	tr := createInvoice(t, svc, &due)

	_, err := svc.MarkOverdue(context.Background(), tr.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestListOverdueFiltersSettled(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	due := time.Now().Add(-24 * time.Hour)
	tr := createInvoice(t, svc, &due)

	overdue, err := svc.ListOverdue(context.Background())
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	_, err = svc.Approve(context.Background(), tr.ID, 9)
	require.NoError(t, err)
	_, err = svc.MarkPaid(context.Background(), tr.ID, 9, "", nil)
	require.NoError(t, err)

	overdue, err = svc.ListOverdue(context.Background())
	require.NoError(t, err)
	require.Empty(t, overdue)
}
