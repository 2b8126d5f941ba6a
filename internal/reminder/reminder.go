// Package reminder derives the reminder triggers of planned maintenance records and
// registers them with a notification collaborator.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/maintenance-tracker/internal/models"
)

const (
	// Title is the title of every maintenance reminder.
	Title = "Maintenance reminder"

	weekSuffix = "week"
	daySuffix  = "day"
)

// Payload is the content delivered when a trigger fires.
type Payload struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	VehicleID string `json:"vehicle_id"`
	RecordID  string `json:"record_id"`
}

// Notifier registers time-anchored triggers. Register is last-write-wins per id;
// Cancel of an unknown id is not an error.
type Notifier interface {
	Register(ctx context.Context, id string, firesAt time.Time, payload Payload) error
	Cancel(ctx context.Context, id string) error
}

// WeekID is the trigger id of the week-before reminder.
func WeekID(recordID string) string { return recordID + ":" + weekSuffix }

// DayID is the trigger id of the day-before reminder.
func DayID(recordID string) string { return recordID + ":" + daySuffix }

// Scheduler maps planned records onto week-before and day-before triggers.
type Scheduler struct {
	notifier Notifier
}

// NewScheduler returns a Scheduler registering triggers with n.
func NewScheduler(n Notifier) *Scheduler {
	return &Scheduler{notifier: n}
}

type candidate struct {
	id      string
	firesAt time.Time
	body    string
}

// Schedule registers every trigger of record that is still strictly after now and
// cancels the ones that are not, so a rescheduled record keeps no stale trigger.
// Completed records are ignored. A target already in the past is not an error.
func (s *Scheduler) Schedule(ctx context.Context, record models.MaintenanceRecord, vehicleName string, now time.Time) error {
	if !record.IsPlanned {
		return nil
	}
	target := record.TargetDate()
	candidates := []candidate{
		{
			id:      WeekID(record.ID),
			firesAt: target.AddDate(0, 0, -7),
			body:    fmt.Sprintf("Maintenance in one week for %s: %s", vehicleName, record.ServiceType),
		},
		{
			id:      DayID(record.ID),
			firesAt: target.AddDate(0, 0, -1),
			body:    fmt.Sprintf("Maintenance tomorrow for %s: %s", vehicleName, record.ServiceType),
		},
	}

	var errs []error
	for _, c := range candidates {
		if !c.firesAt.After(now) {
			if err := s.notifier.Cancel(ctx, c.id); err != nil {
				errs = append(errs, fmt.Errorf("cancel %s: %w", c.id, err))
			}
			continue
		}
		payload := Payload{Title: Title, Body: c.body, VehicleID: record.VehicleID, RecordID: record.ID}
		if err := s.notifier.Register(ctx, c.id, c.firesAt, payload); err != nil {
			errs = append(errs, fmt.Errorf("register %s: %w", c.id, err))
		}
	}
	return errors.Join(errs...)
}

// Cancel removes both triggers of a record.
func (s *Scheduler) Cancel(ctx context.Context, recordID string) error {
	var errs []error
	for _, id := range []string{WeekID(recordID), DayID(recordID)} {
		if err := s.notifier.Cancel(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("cancel %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
