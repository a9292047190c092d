package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPaymentReminderScan walks unpaid transactions past their due
	// date, marks them overdue and notifies their creators.
	TaskPaymentReminderScan = "finance:payment_reminder_scan"
)

// PaymentReminderPayload tunes a reminder scan run. The zero value scans
// everything due before now.
type PaymentReminderPayload struct {
	Limit int `json:"limit,omitempty"`
}

// NewPaymentReminderTask constructs an Asynq task.
func NewPaymentReminderTask(payload PaymentReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentReminderScan, data), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueuePaymentReminderScan enqueues an immediate reminder scan.
func (c *Client) EnqueuePaymentReminderScan(ctx context.Context, payload PaymentReminderPayload) (*asynq.TaskInfo, error) {
	task, err := NewPaymentReminderTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}
