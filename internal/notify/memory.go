package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ukydev/maintenance-tracker/internal/reminder"
)

// MemoryNotifier keeps triggers in process memory. It implements
// reminder.Notifier and Queue.
type MemoryNotifier struct {
	mu       sync.Mutex
	triggers map[string]Trigger
}

// NewMemoryNotifier returns an empty notifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{triggers: map[string]Trigger{}}
}

// Register stores or replaces the trigger with the given id.
func (n *MemoryNotifier) Register(_ context.Context, id string, firesAt time.Time, payload reminder.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.triggers[id] = Trigger{ID: id, FiresAt: firesAt, Payload: payload}
	return nil
}

// Cancel removes the trigger with the given id, if any.
func (n *MemoryNotifier) Cancel(_ context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.triggers, id)
	return nil
}

// PopDue removes and returns up to limit triggers due at or before now, earliest first.
func (n *MemoryNotifier) PopDue(_ context.Context, now time.Time, limit int) ([]Trigger, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	due := []Trigger{}
	for _, t := range n.triggers {
		if !t.FiresAt.After(now) {
			due = append(due, t)
		}
	}
	sortTriggers(due)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for _, t := range due {
		delete(n.triggers, t.ID)
	}
	return due, nil
}

// Pending returns every registered trigger, earliest first.
func (n *MemoryNotifier) Pending() []Trigger {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Trigger, 0, len(n.triggers))
	for _, t := range n.triggers {
		out = append(out, t)
	}
	sortTriggers(out)
	return out
}

func sortTriggers(ts []Trigger) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].FiresAt.Equal(ts[j].FiresAt) {
			return ts[i].FiresAt.Before(ts[j].FiresAt)
		}
		return ts[i].ID < ts[j].ID
	})
}
