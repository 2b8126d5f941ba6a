package db

import (
	"context"
	"time"

	"github.com/ukydev/maintenance-tracker/internal/models"
)

// RecordQuery filters maintenance records. Zero-valued fields do not filter.
type RecordQuery struct {
	VehicleID       string
	IsPlanned       *bool
	NextServiceDate *time.Time
}

// Planned returns a query for the planned records of a vehicle due at date.
func Planned(vehicleID string, date time.Time) RecordQuery {
	planned := true
	return RecordQuery{VehicleID: vehicleID, IsPlanned: &planned, NextServiceDate: &date}
}

// RecordCollection defines the interface for maintenance record operations.
// FindRecords returns records ordered by date, most recent first.
type RecordCollection interface {
	InsertRecord(ctx context.Context, record models.MaintenanceRecord) error
	FindRecordByID(ctx context.Context, id string) (*models.MaintenanceRecord, error)
	FindRecords(ctx context.Context, q RecordQuery) ([]models.MaintenanceRecord, error)
	UpdateRecord(ctx context.Context, record models.MaintenanceRecord) error
	DeleteRecord(ctx context.Context, id string) error
}

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindVehicles(ctx context.Context) ([]models.Vehicle, error)
}

// Transactor runs fn atomically. Collection calls made with the context passed to
// fn take part in the transaction; if fn returns an error nothing it wrote is kept.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is the full persistence collaborator.
type Store interface {
	RecordCollection
	VehicleCollection
	Transactor
	Close(ctx context.Context) error
}
