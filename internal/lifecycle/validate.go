package lifecycle

import (
	"fmt"
	"strings"

	"github.com/ukydev/maintenance-tracker/internal/models"
	"github.com/ukydev/maintenance-tracker/internal/xerrors"
)

// maxMileage bounds odometer readings in kilometers. It keeps due-mileage
// arithmetic far from integer overflow.
const maxMileage = 10_000_000

func checkMileage(field string, v int) error {
	if v < 0 {
		return xerrors.Invalid(field, "must not be negative")
	}
	if v > maxMileage {
		return xerrors.Invalid(field, fmt.Sprintf("must not exceed %d", maxMileage))
	}
	return nil
}

func validateCompleted(in CompletedInput) error {
	if strings.TrimSpace(in.VehicleID) == "" {
		return xerrors.Invalid("vehicle_id", "is required")
	}
	if in.Date.IsZero() {
		return xerrors.Invalid("date", "is required")
	}
	if in.Mileage == nil {
		return xerrors.Invalid("mileage", "is required")
	}
	return checkMileage("mileage", *in.Mileage)
}

func validatePlanned(in PlannedInput) error {
	if strings.TrimSpace(in.VehicleID) == "" {
		return xerrors.Invalid("vehicle_id", "is required")
	}
	if in.Date.IsZero() {
		return xerrors.Invalid("date", "is required")
	}
	if in.TargetMileage != nil {
		return checkMileage("target_mileage", *in.TargetMileage)
	}
	return nil
}

func validatePatch(p models.RecordPatch) error {
	if p.Date != nil && p.Date.IsZero() {
		return xerrors.Invalid("date", "must not be empty")
	}
	if p.Mileage != nil {
		return checkMileage("mileage", *p.Mileage)
	}
	return nil
}
