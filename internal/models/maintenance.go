package models

import (
	"time"
)

// MaintenanceRecord is a single entry in a vehicle's service log. Completed records
// document work already done; planned records are forward-looking due points.
//
// A planned record carries no reference to the completed record it was derived
// from. Both only share VehicleID.
type MaintenanceRecord struct {
	ID                 string    `json:"id" bson:"_id"`
	VehicleID          string    `json:"vehicle_id" bson:"vehicle_id"`
	Date               time.Time `json:"date" bson:"date"`
	Mileage            int       `json:"mileage" bson:"mileage"` // in kilometers
	ServiceType        string    `json:"service_type" bson:"service_type"`
	Description        string    `json:"description" bson:"description"`
	WorksPerformed     string    `json:"works_performed" bson:"works_performed"`
	NextServiceDate    time.Time `json:"next_service_date" bson:"next_service_date"`
	NextServiceMileage int       `json:"next_service_mileage" bson:"next_service_mileage"`
	IsPlanned          bool      `json:"is_planned" bson:"is_planned"`
	AttachmentText     string    `json:"attachment_text,omitempty" bson:"attachment_text,omitempty"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`
}

// TargetDate is the instant a planned record is due. For completed records it is
// the computed next service date.
func (r MaintenanceRecord) TargetDate() time.Time {
	if r.IsPlanned {
		return r.Date
	}
	return r.NextServiceDate
}

// RecordPatch carries the editable fields of a record. Nil fields are left untouched.
// The owning vehicle and the planned flag are not editable.
type RecordPatch struct {
	Date           *time.Time `json:"date,omitempty"`
	Mileage        *int       `json:"mileage,omitempty"`
	ServiceType    *string    `json:"service_type,omitempty"`
	Description    *string    `json:"description,omitempty"`
	WorksPerformed *string    `json:"works_performed,omitempty"`
	AttachmentText *string    `json:"attachment_text,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p RecordPatch) IsEmpty() bool {
	return p.Date == nil && p.Mileage == nil && p.ServiceType == nil &&
		p.Description == nil && p.WorksPerformed == nil && p.AttachmentText == nil
}
