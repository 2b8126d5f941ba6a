package models

import (
	"strings"
	"time"
)

// Vehicle represents a tracked vehicle. Maintenance records point at it by ID.
type Vehicle struct {
	ID        string    `bson:"_id" json:"id"`
	Make      string    `bson:"make" json:"make"`
	Model     string    `bson:"model" json:"model"`
	Year      int       `bson:"year" json:"year"`
	VIN       string    `bson:"vin,omitempty" json:"vin,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// DisplayName returns "Make Model", used in reminder text.
func (v Vehicle) DisplayName() string {
	return strings.TrimSpace(v.Make + " " + v.Model)
}
