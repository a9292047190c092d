package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/samudra-erp/samudra-erp/internal/finance"
	"github.com/samudra-erp/samudra-erp/internal/notifications"
)

// PaymentReminderJob marks past-due transactions overdue and emits one
// notification per transaction to its creator.
type PaymentReminderJob struct {
	Finance       *finance.Service
	Notifications *notifications.Service
	Logger        *slog.Logger
}

// NewPaymentReminderJob initialises the reminder scan handler.
func NewPaymentReminderJob(fin *finance.Service, notif *notifications.Service, logger *slog.Logger) *PaymentReminderJob {
	return &PaymentReminderJob{Finance: fin, Notifications: notif, Logger: logger}
}

// Handle executes one reminder scan.
func (j *PaymentReminderJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Finance == nil {
		return errors.New("payment reminder: handler not configured")
	}
	var payload PaymentReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	overdue, err := j.Finance.ListOverdue(ctx)
	if err != nil {
		return fmt.Errorf("payment reminder: list overdue: %w", err)
	}
	if payload.Limit > 0 && len(overdue) > payload.Limit {
		overdue = overdue[:payload.Limit]
	}

	var marked, notified int
	for _, tr := range overdue {
		wasOverdue := tr.Status == finance.StatusOverdue
		updated, err := j.Finance.MarkOverdue(ctx, tr.ID)
		if err != nil {
			j.logError("mark overdue", tr.ID, err)
			continue
		}
		if !wasOverdue {
			marked++
		}
		if j.Notifications == nil || updated.CreatedBy == 0 {
			continue
		}
		_, err = j.Notifications.Create(ctx, notifications.CreateInput{
			UserID:   updated.CreatedBy,
			Title:    "Payment overdue: " + updated.TransactionNumber,
			Message: fmt.Sprintf("Transaction %s for %s %s is past its due date (reminder #%d).",
				updated.TransactionNumber, updated.Currency, updated.Total.StringFixed(2), updated.ReminderCount),
			Type:       "payment_reminder",
			Priority:   notifications.PriorityHigh,
			EntityType: "transaction",
			EntityID:   updated.ID,
		})
		if err != nil {
			j.logError("notify", tr.ID, err)
			continue
		}
		notified++
	}

	if j.Logger != nil {
		j.Logger.Info("payment reminder scan finished",
			slog.Int("scanned", len(overdue)),
			slog.Int("newly_overdue", marked),
			slog.Int("notified", notified))
	}
	return nil
}

func (j *PaymentReminderJob) logError(stage string, transactionID int64, err error) {
	if j.Logger == nil {
		return
	}
	j.Logger.Error("payment reminder "+stage,
		slog.Int64("transaction_id", transactionID),
		slog.Any("error", err))
}
