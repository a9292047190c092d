package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/finance"
	"github.com/samudra-erp/samudra-erp/internal/notifications"
	"github.com/samudra-erp/samudra-erp/internal/shared"
	"github.com/samudra-erp/samudra-erp/internal/workflow"
)

type fakeFinanceRepo struct {
	transactions map[int64]finance.Transaction
	history      []workflow.Entry
}

func (f *fakeFinanceRepo) WithTx(ctx context.Context, fn func(context.Context, finance.TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeFinanceRepo) Get(ctx context.Context, id int64) (finance.Transaction, error) {
	tr, ok := f.transactions[id]
	if !ok {
		return finance.Transaction{}, shared.ErrNotFound
	}
	return tr, nil
}

func (f *fakeFinanceRepo) List(ctx context.Context, filters finance.ListFilters) ([]finance.Transaction, int, error) {
	return nil, 0, nil
}

func (f *fakeFinanceRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]finance.Transaction, error) {
	var out []finance.Transaction
	for _, tr := range f.transactions {
		if tr.DueDate == nil || !tr.DueDate.Before(asOf) {
			continue
		}
		switch tr.Status {
		case finance.StatusPending, finance.StatusApproved, finance.StatusOverdue:
			out = append(out, tr)
		}
	}
	return out, nil
}

func (f *fakeFinanceRepo) ReferenceExists(ctx context.Context, table string, id int64) (bool, error) {
	return true, nil
}

func (f *fakeFinanceRepo) Create(ctx context.Context, tr finance.Transaction) (int64, error) {
	return 0, nil
}

func (f *fakeFinanceRepo) Update(ctx context.Context, tr finance.Transaction) error {
	if _, ok := f.transactions[tr.ID]; !ok {
		return shared.ErrNotFound
	}
	f.transactions[tr.ID] = tr
	return nil
}

func (f *fakeFinanceRepo) AppendHistory(ctx context.Context, entry workflow.Entry) error {
	f.history = append(f.history, entry)
	return nil
}

type fakeNotificationRepo struct {
	nextID  int64
	created []notifications.Notification
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n notifications.Notification) (int64, error) {
	f.nextID++
	n.ID = f.nextID
	f.created = append(f.created, n)
	return n.ID, nil
}

func (f *fakeNotificationRepo) Get(ctx context.Context, userID, id int64) (notifications.Notification, error) {
	return notifications.Notification{}, shared.ErrNotFound
}

func (f *fakeNotificationRepo) List(ctx context.Context, userID int64, filters notifications.ListFilters) ([]notifications.Notification, int, error) {
	return nil, 0, nil
}

func (f *fakeNotificationRepo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return len(f.created), nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, userID, id int64) error {
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

func pastDueTransaction(id int64, number string, createdBy int64) finance.Transaction {
	due := time.Now().Add(-48 * time.Hour)
	return finance.Transaction{
		ID:                id,
		TransactionNumber: number,
		Type:              finance.TypeInvoice,
		Amount:            decimal.RequireFromString("1000.00"),
		Total:             decimal.RequireFromString("1000.00"),
		Currency:          "USD",
		ExchangeRate:      decimal.NewFromInt(1),
		AmountLocal:       decimal.RequireFromString("1000.00"),
		DueDate:           &due,
		Status:            finance.StatusPending,
		CreatedBy:         createdBy,
	}
}

func newReminderJob(finRepo *fakeFinanceRepo, notifRepo *fakeNotificationRepo) *PaymentReminderJob {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPaymentReminderJob(
		finance.NewService(finRepo),
		notifications.NewService(notifRepo, nil),
		logger,
	)
}

func TestReminderScanMarksOverdueAndNotifies(t *testing.T) {
	finRepo := &fakeFinanceRepo{transactions: map[int64]finance.Transaction{
		1: pastDueTransaction(1, "INV-2026-001", 7),
		2: pastDueTransaction(2, "INV-2026-002", 9),
	}}
	notifRepo := &fakeNotificationRepo{}
	job := newReminderJob(finRepo, notifRepo)

	task, err := NewPaymentReminderTask(PaymentReminderPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	// First run: one history row and one notification per transaction.
	require.Len(t, finRepo.history, 2)
	require.Len(t, notifRepo.created, 2)
	recipients := map[int64]bool{}
	for _, n := range notifRepo.created {
		recipients[n.UserID] = true
		require.Equal(t, notifications.PriorityHigh, n.Priority)
		require.Equal(t, "payment_reminder", n.Type)
		require.Equal(t, "transaction", n.EntityType)
	}
	require.True(t, recipients[7])
	require.True(t, recipients[9])

	for _, id := range []int64{1, 2} {
		tr := finRepo.transactions[id]
		require.Equal(t, finance.StatusOverdue, tr.Status)
		require.True(t, tr.ReminderSent)
		require.Equal(t, 1, tr.ReminderCount)
		require.NotNil(t, tr.LastReminderAt)
	}
}

func TestReminderScanRepeatRunBumpsCountsWithoutNewHistory(t *testing.T) {
	finRepo := &fakeFinanceRepo{transactions: map[int64]finance.Transaction{
		1: pastDueTransaction(1, "INV-2026-001", 7),
	}}
	notifRepo := &fakeNotificationRepo{}
	job := newReminderJob(finRepo, notifRepo)

	task, err := NewPaymentReminderTask(PaymentReminderPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.NoError(t, job.Handle(context.Background(), task))

	// The overdue transition is recorded once; later runs only remind.
	require.Len(t, finRepo.history, 1)
	require.Len(t, notifRepo.created, 2)
	require.Equal(t, 2, finRepo.transactions[1].ReminderCount)
}

func TestReminderScanSkipsSettledTransactions(t *testing.T) {
	paid := pastDueTransaction(3, "INV-2026-003", 7)
	paid.Status = finance.StatusPaid
	finRepo := &fakeFinanceRepo{transactions: map[int64]finance.Transaction{3: paid}}
	notifRepo := &fakeNotificationRepo{}
	job := newReminderJob(finRepo, notifRepo)

	task, err := NewPaymentReminderTask(PaymentReminderPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Empty(t, finRepo.history)
	require.Empty(t, notifRepo.created)
	require.Equal(t, finance.StatusPaid, finRepo.transactions[3].Status)
}

func TestReminderScanHonorsLimit(t *testing.T) {
	finRepo := &fakeFinanceRepo{transactions: map[int64]finance.Transaction{
		1: pastDueTransaction(1, "INV-2026-001", 7),
		2: pastDueTransaction(2, "INV-2026-002", 9),
	}}
	notifRepo := &fakeNotificationRepo{}
	job := newReminderJob(finRepo, notifRepo)

	task, err := NewPaymentReminderTask(PaymentReminderPayload{Limit: 1})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, finRepo.history, 1)
	require.Len(t, notifRepo.created, 1)
}
