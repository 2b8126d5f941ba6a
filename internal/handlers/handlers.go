package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/maintenance-tracker/internal/lifecycle"
	"github.com/ukydev/maintenance-tracker/internal/models"
	"github.com/ukydev/maintenance-tracker/internal/partition"
	"github.com/ukydev/maintenance-tracker/internal/xerrors"
)

const maxBodyBytes = 1 << 20

// MaintenanceService is the lifecycle engine as seen by the HTTP layer.
type MaintenanceService interface {
	CreateVehicle(ctx context.Context, in lifecycle.VehicleInput) (*models.Vehicle, error)
	Vehicle(ctx context.Context, id string) (*models.Vehicle, error)
	Vehicles(ctx context.Context) ([]models.Vehicle, error)
	CreateCompleted(ctx context.Context, in lifecycle.CompletedInput) (*models.MaintenanceRecord, error)
	CreatePlanned(ctx context.Context, in lifecycle.PlannedInput) (*models.MaintenanceRecord, error)
	Update(ctx context.Context, id string, patch models.RecordPatch) (*models.MaintenanceRecord, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.MaintenanceRecord, error)
	Overview(ctx context.Context, vehicleID string) (partition.Result, error)
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return xerrors.Invalid("body", "failed to read request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return xerrors.Invalid("body", "invalid JSON")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP status codes. Unexpected errors
// are logged and hidden from the client.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	switch {
	case xerrors.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case xerrors.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case xerrors.IsConflict(err):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.WithError(err).Error("request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// parseDate accepts a calendar date (2006-01-02, taken as UTC midnight) or an
// RFC 3339 timestamp.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, xerrors.Invalid(field, "is required")
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, xerrors.Invalid(field, "must be YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}
