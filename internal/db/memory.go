package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ukydev/maintenance-tracker/internal/models"
	"github.com/ukydev/maintenance-tracker/internal/xerrors"
)

// MemoryStore is an in-process Store used by tests and the "memory" backend.
// Transactions are serialized and roll back by restoring a snapshot. Writes
// outside a transaction wait for the running one, so a rollback never discards
// them.
type MemoryStore struct {
	txMu sync.Mutex // held by a transaction or a standalone write

	mu       sync.RWMutex
	records  map[string]models.MaintenanceRecord
	vehicles map[string]models.Vehicle
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  map[string]models.MaintenanceRecord{},
		vehicles: map[string]models.Vehicle{},
	}
}

// InsertRecord stores a new record.
func (s *MemoryStore) InsertRecord(ctx context.Context, record models.MaintenanceRecord) error {
	defer s.exclusive(ctx)()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return fmt.Errorf("insert record %s: %w", record.ID, xerrors.ErrConflict)
	}
	if err := s.checkPlannedUnique(record); err != nil {
		return err
	}
	s.records[record.ID] = record
	return nil
}

// FindRecordByID finds a record by its ID.
func (s *MemoryStore) FindRecordByID(_ context.Context, id string) (*models.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, xerrors.NotFound("record", id)
	}
	return &record, nil
}

// FindRecords returns matching records, most recent first.
func (s *MemoryStore) FindRecords(_ context.Context, q RecordQuery) ([]models.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.MaintenanceRecord{}
	for _, r := range s.records {
		if q.VehicleID != "" && r.VehicleID != q.VehicleID {
			continue
		}
		if q.IsPlanned != nil && r.IsPlanned != *q.IsPlanned {
			continue
		}
		if q.NextServiceDate != nil && !r.NextServiceDate.Equal(*q.NextServiceDate) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateRecord replaces an existing record.
func (s *MemoryStore) UpdateRecord(ctx context.Context, record models.MaintenanceRecord) error {
	defer s.exclusive(ctx)()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; !ok {
		return xerrors.NotFound("record", record.ID)
	}
	if err := s.checkPlannedUnique(record); err != nil {
		return err
	}
	s.records[record.ID] = record
	return nil
}

// DeleteRecord removes a record.
func (s *MemoryStore) DeleteRecord(ctx context.Context, id string) error {
	defer s.exclusive(ctx)()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return xerrors.NotFound("record", id)
	}
	delete(s.records, id)
	return nil
}

// checkPlannedUnique mirrors the unique planned-due-point index of the SQL and
// Mongo stores. Callers hold mu.
func (s *MemoryStore) checkPlannedUnique(record models.MaintenanceRecord) error {
	if !record.IsPlanned {
		return nil
	}
	for id, r := range s.records {
		if id == record.ID || !r.IsPlanned || r.VehicleID != record.VehicleID {
			continue
		}
		if r.NextServiceDate.Equal(record.NextServiceDate) {
			return fmt.Errorf("planned record for %s at %s: %w",
				record.VehicleID, record.NextServiceDate.Format("2006-01-02"), xerrors.ErrConflict)
		}
	}
	return nil
}

// InsertVehicle stores a new vehicle.
func (s *MemoryStore) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	defer s.exclusive(ctx)()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.vehicles[vehicle.ID]; exists {
		return fmt.Errorf("insert vehicle %s: %w", vehicle.ID, xerrors.ErrConflict)
	}
	s.vehicles[vehicle.ID] = vehicle
	return nil
}

// FindVehicleByID finds a vehicle by its ID.
func (s *MemoryStore) FindVehicleByID(_ context.Context, id string) (*models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicle, ok := s.vehicles[id]
	if !ok {
		return nil, xerrors.NotFound("vehicle", id)
	}
	return &vehicle, nil
}

// FindVehicles lists all vehicles, oldest first.
func (s *MemoryStore) FindVehicles(_ context.Context) ([]models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memoryTxKey struct{}

// exclusive takes the transaction lock for a write issued outside a transaction.
// Writes inside one already hold it.
func (s *MemoryStore) exclusive(ctx context.Context) func() {
	if ctx.Value(memoryTxKey{}) != nil {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

// WithTransaction runs fn with exclusive access to the transaction lock and restores
// the previous state if fn fails. Nested calls join the outer transaction.
func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	records, vehicles := s.snapshot()
	if err := fn(context.WithValue(ctx, memoryTxKey{}, true)); err != nil {
		s.mu.Lock()
		s.records, s.vehicles = records, vehicles
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemoryStore) snapshot() (map[string]models.MaintenanceRecord, map[string]models.Vehicle) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make(map[string]models.MaintenanceRecord, len(s.records))
	for k, v := range s.records {
		records[k] = v
	}
	vehicles := make(map[string]models.Vehicle, len(s.vehicles))
	for k, v := range s.vehicles {
		vehicles[k] = v
	}
	return records, vehicles
}

// Close is a no-op.
func (s *MemoryStore) Close(context.Context) error {
	return nil
}
