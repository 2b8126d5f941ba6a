// Package lifecycle creates, edits and deletes maintenance records. Completed work
// forks an independent planned record at its next due point, at most one per
// vehicle and date, and planned records get reminder triggers.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"github.com/zoobzio/clockz"

	"github.com/ukydev/maintenance-tracker/internal/db"
	"github.com/ukydev/maintenance-tracker/internal/interval"
	"github.com/ukydev/maintenance-tracker/internal/models"
	"github.com/ukydev/maintenance-tracker/internal/partition"
	"github.com/ukydev/maintenance-tracker/internal/xerrors"
)

// ForkDescription marks planned records derived from completed work.
const ForkDescription = "Created automatically from completed service"

// Scheduler registers and cancels the reminder triggers of planned records.
type Scheduler interface {
	Schedule(ctx context.Context, record models.MaintenanceRecord, vehicleName string, now time.Time) error
	Cancel(ctx context.Context, recordID string) error
}

// Engine owns every mutation of maintenance records. Mutations of one vehicle are
// serialized; different vehicles proceed in parallel.
type Engine struct {
	store     db.Store
	scheduler Scheduler
	clock     clockz.Clock
	log       logrus.FieldLogger
	newID     func() string
	locks     *keyedMutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source.
func WithClock(c clockz.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger used for reminder failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithIDGenerator overrides ULID record ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// New returns an Engine persisting to store and scheduling through scheduler.
func New(store db.Store, scheduler Scheduler, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		scheduler: scheduler,
		clock:     clockz.RealClock,
		log:       logrus.StandardLogger(),
		newID:     func() string { return ulid.Make().String() },
		locks:     newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CompletedInput describes work already performed.
type CompletedInput struct {
	VehicleID      string    `json:"vehicle_id"`
	Date           time.Time `json:"date"`
	Mileage        *int      `json:"mileage"`
	ServiceType    string    `json:"service_type"`
	Description    string    `json:"description"`
	WorksPerformed string    `json:"works_performed"`
	AttachmentText string    `json:"attachment_text"`
}

// PlannedInput describes user-authored future work.
type PlannedInput struct {
	VehicleID     string    `json:"vehicle_id"`
	Date          time.Time `json:"date"`
	ServiceType   string    `json:"service_type"`
	Description   string    `json:"description"`
	TargetMileage *int      `json:"target_mileage,omitempty"`
}

// VehicleInput describes a vehicle to register.
type VehicleInput struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	VIN   string `json:"vin"`
}

// CreateVehicle registers a vehicle.
func (e *Engine) CreateVehicle(ctx context.Context, in VehicleInput) (*models.Vehicle, error) {
	v := models.Vehicle{
		ID:        e.newID(),
		Make:      strings.TrimSpace(in.Make),
		Model:     strings.TrimSpace(in.Model),
		Year:      in.Year,
		VIN:       strings.TrimSpace(in.VIN),
		CreatedAt: normalize(e.clock.Now()),
	}
	if v.Make == "" && v.Model == "" {
		return nil, xerrors.Invalid("make", "make or model is required")
	}
	if v.Year < 0 {
		return nil, xerrors.Invalid("year", "must not be negative")
	}
	if err := e.store.InsertVehicle(ctx, v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Vehicle returns a vehicle by id.
func (e *Engine) Vehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	return e.store.FindVehicleByID(ctx, id)
}

// Vehicles lists every vehicle.
func (e *Engine) Vehicles(ctx context.Context) ([]models.Vehicle, error) {
	return e.store.FindVehicles(ctx)
}

// CreateCompleted records completed work and forks a planned record at its next
// due point unless one already exists for that date. Nothing is stored if any
// step fails.
func (e *Engine) CreateCompleted(ctx context.Context, in CompletedInput) (*models.MaintenanceRecord, error) {
	if err := validateCompleted(in); err != nil {
		return nil, err
	}
	defer e.locks.Lock(in.VehicleID)()

	now := e.clock.Now()
	var (
		completed models.MaintenanceRecord
		vehicle   *models.Vehicle
		fork      *models.MaintenanceRecord
	)
	err := e.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if vehicle, err = e.store.FindVehicleByID(ctx, in.VehicleID); err != nil {
			return err
		}

		stamp := normalize(now)
		completed = models.MaintenanceRecord{
			ID:             e.newID(),
			VehicleID:      in.VehicleID,
			Date:           normalize(in.Date),
			Mileage:        *in.Mileage,
			ServiceType:    strings.TrimSpace(in.ServiceType),
			Description:    in.Description,
			WorksPerformed: in.WorksPerformed,
			AttachmentText: in.AttachmentText,
			CreatedAt:      stamp,
			UpdatedAt:      stamp,
		}
		setDuePoint(&completed)
		if err := e.store.InsertRecord(ctx, completed); err != nil {
			return fmt.Errorf("insert completed record: %w", err)
		}

		fork, err = e.forkPlanned(ctx, completed, stamp)
		return err
	})
	if err != nil {
		return nil, err
	}

	if fork != nil {
		e.schedule(ctx, *fork, vehicle, now)
	}
	return &completed, nil
}

// forkPlanned creates the planned record for the due point of completed, or
// returns nil if the vehicle already has a planned record at that date.
func (e *Engine) forkPlanned(ctx context.Context, completed models.MaintenanceRecord, stamp time.Time) (*models.MaintenanceRecord, error) {
	target := completed.NextServiceDate
	exists, err := e.plannedExists(ctx, completed.VehicleID, target, "")
	if err != nil || exists {
		return nil, err
	}

	fork := models.MaintenanceRecord{
		ID:                 e.newID(),
		VehicleID:          completed.VehicleID,
		Date:               target,
		Mileage:            completed.Mileage,
		ServiceType:        completed.ServiceType,
		Description:        ForkDescription,
		NextServiceDate:    target,
		NextServiceMileage: completed.NextServiceMileage,
		IsPlanned:          true,
		CreatedAt:          stamp,
		UpdatedAt:          stamp,
	}
	if err := e.store.InsertRecord(ctx, fork); err != nil {
		return nil, fmt.Errorf("insert planned record: %w", err)
	}
	return &fork, nil
}

// CreatePlanned stores a user-authored planned record and schedules its reminders.
// It returns (nil, nil) when the vehicle already has a planned record at that date.
func (e *Engine) CreatePlanned(ctx context.Context, in PlannedInput) (*models.MaintenanceRecord, error) {
	if err := validatePlanned(in); err != nil {
		return nil, err
	}
	defer e.locks.Lock(in.VehicleID)()

	now := e.clock.Now()
	var (
		planned *models.MaintenanceRecord
		vehicle *models.Vehicle
	)
	err := e.store.WithTransaction(ctx, func(ctx context.Context) error {
		planned = nil
		var err error
		if vehicle, err = e.store.FindVehicleByID(ctx, in.VehicleID); err != nil {
			return err
		}

		target := normalize(in.Date)
		exists, err := e.plannedExists(ctx, in.VehicleID, target, "")
		if err != nil || exists {
			return err
		}

		snapshot, err := e.lastMileage(ctx, in.VehicleID)
		if err != nil {
			return err
		}
		stamp := normalize(now)
		rec := models.MaintenanceRecord{
			ID:              e.newID(),
			VehicleID:       in.VehicleID,
			Date:            target,
			Mileage:         snapshot,
			ServiceType:     strings.TrimSpace(in.ServiceType),
			Description:     in.Description,
			NextServiceDate: target,
			IsPlanned:       true,
			CreatedAt:       stamp,
			UpdatedAt:       stamp,
		}
		if in.TargetMileage != nil {
			rec.NextServiceMileage = *in.TargetMileage
		}
		if err := e.store.InsertRecord(ctx, rec); err != nil {
			return fmt.Errorf("insert planned record: %w", err)
		}
		planned = &rec
		return nil
	})
	if err != nil || planned == nil {
		return nil, err
	}

	e.schedule(ctx, *planned, vehicle, now)
	return planned, nil
}

// Update applies patch to a record. Planned records take the fields as given and
// have their reminders re-registered. Completed records get their due point
// recomputed and may fork a new planned record. No other record is modified.
func (e *Engine) Update(ctx context.Context, id string, patch models.RecordPatch) (*models.MaintenanceRecord, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	current, err := e.store.FindRecordByID(ctx, id)
	if err != nil {
		return nil, err
	}
	defer e.locks.Lock(current.VehicleID)()

	now := e.clock.Now()
	var (
		updated models.MaintenanceRecord
		vehicle *models.Vehicle
		fork    *models.MaintenanceRecord
	)
	err = e.store.WithTransaction(ctx, func(ctx context.Context) error {
		fork = nil
		rec, err := e.store.FindRecordByID(ctx, id)
		if err != nil {
			return err
		}
		if vehicle, err = e.store.FindVehicleByID(ctx, rec.VehicleID); err != nil {
			return err
		}

		updated = applyPatch(*rec, patch)
		updated.UpdatedAt = normalize(now)

		if updated.IsPlanned {
			updated.NextServiceDate = updated.Date
			if !updated.Date.Equal(rec.Date) {
				taken, err := e.plannedExists(ctx, updated.VehicleID, updated.Date, updated.ID)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("planned record at %s: %w", updated.Date.Format(time.DateOnly), xerrors.ErrConflict)
				}
			}
			return e.store.UpdateRecord(ctx, updated)
		}

		setDuePoint(&updated)
		if err := e.store.UpdateRecord(ctx, updated); err != nil {
			return err
		}
		fork, err = e.forkPlanned(ctx, updated, updated.UpdatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	if updated.IsPlanned {
		e.schedule(ctx, updated, vehicle, now)
	} else if fork != nil {
		e.schedule(ctx, *fork, vehicle, now)
	}
	return &updated, nil
}

// Delete removes a single record and, for planned records, cancels its reminders.
func (e *Engine) Delete(ctx context.Context, id string) error {
	current, err := e.store.FindRecordByID(ctx, id)
	if err != nil {
		return err
	}
	defer e.locks.Lock(current.VehicleID)()

	var removed *models.MaintenanceRecord
	err = e.store.WithTransaction(ctx, func(ctx context.Context) error {
		rec, err := e.store.FindRecordByID(ctx, id)
		if err != nil {
			return err
		}
		removed = rec
		return e.store.DeleteRecord(ctx, id)
	})
	if err != nil {
		return err
	}

	if removed.IsPlanned {
		if err := e.scheduler.Cancel(ctx, id); err != nil {
			e.log.WithFields(logrus.Fields{
				"record_id":  id,
				"vehicle_id": removed.VehicleID,
				"error":      err,
			}).Warn("failed to cancel maintenance reminders")
		}
	}
	return nil
}

// Get returns a record by id.
func (e *Engine) Get(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	return e.store.FindRecordByID(ctx, id)
}

// ListForVehicle returns every record of a vehicle, most recent first.
func (e *Engine) ListForVehicle(ctx context.Context, vehicleID string) ([]models.MaintenanceRecord, error) {
	if _, err := e.store.FindVehicleByID(ctx, vehicleID); err != nil {
		return nil, err
	}
	return e.store.FindRecords(ctx, db.RecordQuery{VehicleID: vehicleID})
}

// Overview returns the history and upcoming views of a vehicle as of now.
func (e *Engine) Overview(ctx context.Context, vehicleID string) (partition.Result, error) {
	records, err := e.ListForVehicle(ctx, vehicleID)
	if err != nil {
		return partition.Result{}, err
	}
	return partition.Partition(records, e.clock.Now()), nil
}

func (e *Engine) plannedExists(ctx context.Context, vehicleID string, date time.Time, exceptID string) (bool, error) {
	found, err := e.store.FindRecords(ctx, db.Planned(vehicleID, date))
	if err != nil {
		return false, fmt.Errorf("query planned records: %w", err)
	}
	for _, r := range found {
		if r.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

// lastMileage is the odometer reading of the most recent completed record, or 0.
func (e *Engine) lastMileage(ctx context.Context, vehicleID string) (int, error) {
	completed := false
	records, err := e.store.FindRecords(ctx, db.RecordQuery{VehicleID: vehicleID, IsPlanned: &completed})
	if err != nil {
		return 0, fmt.Errorf("query completed records: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	return records[0].Mileage, nil
}

func (e *Engine) schedule(ctx context.Context, rec models.MaintenanceRecord, vehicle *models.Vehicle, now time.Time) {
	if err := e.scheduler.Schedule(ctx, rec, vehicle.DisplayName(), now); err != nil {
		e.log.WithFields(logrus.Fields{
			"record_id":  rec.ID,
			"vehicle_id": rec.VehicleID,
			"error":      err,
		}).Warn("failed to schedule maintenance reminders")
	}
}

func setDuePoint(r *models.MaintenanceRecord) {
	date, mileage := interval.Resolve(r.ServiceType).Next(r.Date, r.Mileage)
	r.NextServiceDate = normalize(date)
	r.NextServiceMileage = mileage
}

func applyPatch(r models.MaintenanceRecord, p models.RecordPatch) models.MaintenanceRecord {
	if p.Date != nil {
		r.Date = normalize(*p.Date)
	}
	if p.Mileage != nil {
		r.Mileage = *p.Mileage
	}
	if p.ServiceType != nil {
		r.ServiceType = strings.TrimSpace(*p.ServiceType)
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.WorksPerformed != nil {
		r.WorksPerformed = *p.WorksPerformed
	}
	if p.AttachmentText != nil {
		r.AttachmentText = *p.AttachmentText
	}
	return r
}

// normalize puts instants in the form every store round-trips exactly, so dedup
// equality holds regardless of backend.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
