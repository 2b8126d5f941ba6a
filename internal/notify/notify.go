// Package notify implements the reminder trigger queue and its delivery.
package notify

import (
	"context"
	"time"

	"github.com/ukydev/maintenance-tracker/internal/reminder"
)

// Trigger is a registered reminder waiting for its fire time.
type Trigger struct {
	ID      string           `json:"id"`
	FiresAt time.Time        `json:"fires_at"`
	Payload reminder.Payload `json:"payload"`
}

// Queue hands out triggers whose fire time has passed. A popped trigger is
// removed from the queue.
type Queue interface {
	PopDue(ctx context.Context, now time.Time, limit int) ([]Trigger, error)
}

// Publisher delivers a fired trigger.
type Publisher interface {
	Publish(ctx context.Context, t Trigger) error
}
