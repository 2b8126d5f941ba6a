package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/maintenance-tracker/internal/models"
	"github.com/ukydev/maintenance-tracker/internal/xerrors"
)

var baseTime = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func sampleRecord(id, vehicleID string, date time.Time, planned bool) models.MaintenanceRecord {
	return models.MaintenanceRecord{
		ID:                 id,
		VehicleID:          vehicleID,
		Date:               date,
		Mileage:            50000,
		ServiceType:        "Oil change",
		Description:        "synthetic 5W-30",
		NextServiceDate:    date.AddDate(0, 6, 0),
		NextServiceMileage: 60000,
		IsPlanned:          planned,
		CreatedAt:          baseTime,
		UpdatedAt:          baseTime,
	}
}

// runStoreContract exercises behaviour every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("vehicle round trip", func(t *testing.T) {
		store := newStore(t)
		v := models.Vehicle{ID: "veh-1", Make: "Toyota", Model: "Corolla", Year: 2018, CreatedAt: baseTime}
		require.NoError(t, store.InsertVehicle(ctx, v))

		got, err := store.FindVehicleByID(ctx, "veh-1")
		require.NoError(t, err)
		assert.Equal(t, v, *got)

		err = store.InsertVehicle(ctx, v)
		assert.True(t, xerrors.IsConflict(err))

		_, err = store.FindVehicleByID(ctx, "missing")
		assert.True(t, xerrors.IsNotFound(err))

		all, err := store.FindVehicles(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("record crud", func(t *testing.T) {
		store := newStore(t)
		r := sampleRecord("rec-1", "veh-1", baseTime, false)
		require.NoError(t, store.InsertRecord(ctx, r))

		got, err := store.FindRecordByID(ctx, "rec-1")
		require.NoError(t, err)
		assert.Equal(t, r, *got)

		r.WorksPerformed = "drained and refilled"
		require.NoError(t, store.UpdateRecord(ctx, r))
		got, err = store.FindRecordByID(ctx, "rec-1")
		require.NoError(t, err)
		assert.Equal(t, "drained and refilled", got.WorksPerformed)

		require.NoError(t, store.DeleteRecord(ctx, "rec-1"))
		_, err = store.FindRecordByID(ctx, "rec-1")
		assert.True(t, xerrors.IsNotFound(err))
		assert.True(t, xerrors.IsNotFound(store.DeleteRecord(ctx, "rec-1")))
		assert.True(t, xerrors.IsNotFound(store.UpdateRecord(ctx, r)))
	})

	t.Run("find records filters and orders", func(t *testing.T) {
		store := newStore(t)
		older := sampleRecord("rec-a", "veh-1", baseTime, false)
		newer := sampleRecord("rec-b", "veh-1", baseTime.AddDate(0, 2, 0), false)
		planned := sampleRecord("rec-c", "veh-1", baseTime.AddDate(0, 6, 0), true)
		planned.NextServiceDate = planned.Date
		other := sampleRecord("rec-d", "veh-2", baseTime, false)
		for _, r := range []models.MaintenanceRecord{older, newer, planned, other} {
			require.NoError(t, store.InsertRecord(ctx, r))
		}

		all, err := store.FindRecords(ctx, RecordQuery{VehicleID: "veh-1"})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"rec-c", "rec-b", "rec-a"}, []string{all[0].ID, all[1].ID, all[2].ID})

		due, err := store.FindRecords(ctx, Planned("veh-1", planned.Date))
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, "rec-c", due[0].ID)

		none, err := store.FindRecords(ctx, Planned("veh-2", planned.Date))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("one planned record per due date", func(t *testing.T) {
		store := newStore(t)
		due := baseTime.AddDate(0, 6, 0)
		first := sampleRecord("rec-1", "veh-1", due, true)
		first.NextServiceDate = due
		require.NoError(t, store.InsertRecord(ctx, first))

		dup := first
		dup.ID = "rec-2"
		err := store.InsertRecord(ctx, dup)
		assert.True(t, xerrors.IsConflict(err))

		// Completed records and other vehicles are unaffected.
		completed := sampleRecord("rec-3", "veh-1", baseTime, false)
		completed.NextServiceDate = due
		assert.NoError(t, store.InsertRecord(ctx, completed))
		elsewhere := dup
		elsewhere.ID, elsewhere.VehicleID = "rec-4", "veh-2"
		assert.NoError(t, store.InsertRecord(ctx, elsewhere))
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		store := newStore(t)
		boom := errors.New("boom")
		err := store.WithTransaction(ctx, func(ctx context.Context) error {
			if err := store.InsertRecord(ctx, sampleRecord("rec-1", "veh-1", baseTime, false)); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = store.FindRecordByID(ctx, "rec-1")
		assert.True(t, xerrors.IsNotFound(err))
	})

	t.Run("transaction commits", func(t *testing.T) {
		store := newStore(t)
		err := store.WithTransaction(ctx, func(ctx context.Context) error {
			return store.InsertRecord(ctx, sampleRecord("rec-1", "veh-1", baseTime, false))
		})
		require.NoError(t, err)

		_, err = store.FindRecordByID(ctx, "rec-1")
		assert.NoError(t, err)
	})
}
