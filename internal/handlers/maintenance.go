package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/maintenance-tracker/internal/lifecycle"
	"github.com/ukydev/maintenance-tracker/internal/models"
)

// MaintenanceHandler handles maintenance record requests
type MaintenanceHandler struct {
	service MaintenanceService
	log     logrus.FieldLogger
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(service MaintenanceService, log logrus.FieldLogger) *MaintenanceHandler {
	return &MaintenanceHandler{service: service, log: log}
}

type completedRequest struct {
	Date           string `json:"date"`
	Mileage        *int   `json:"mileage"`
	ServiceType    string `json:"service_type"`
	Description    string `json:"description"`
	WorksPerformed string `json:"works_performed"`
	AttachmentText string `json:"attachment_text"`
}

type plannedRequest struct {
	Date          string `json:"date"`
	ServiceType   string `json:"service_type"`
	Description   string `json:"description"`
	TargetMileage *int   `json:"target_mileage"`
}

type patchRequest struct {
	Date           *string `json:"date"`
	Mileage        *int    `json:"mileage"`
	ServiceType    *string `json:"service_type"`
	Description    *string `json:"description"`
	WorksPerformed *string `json:"works_performed"`
	AttachmentText *string `json:"attachment_text"`
}

// Overview returns the history and upcoming views of a vehicle
func (h *MaintenanceHandler) Overview(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Overview(r.Context(), r.PathValue("vehicleID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateCompleted records completed work for a vehicle
func (h *MaintenanceHandler) CreateCompleted(w http.ResponseWriter, r *http.Request) {
	var req completedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	rec, err := h.service.CreateCompleted(r.Context(), lifecycle.CompletedInput{
		VehicleID:      r.PathValue("vehicleID"),
		Date:           date,
		Mileage:        req.Mileage,
		ServiceType:    req.ServiceType,
		Description:    req.Description,
		WorksPerformed: req.WorksPerformed,
		AttachmentText: req.AttachmentText,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// CreatePlanned records user-authored future work. A planned record already
// existing at that date yields 204 No Content.
func (h *MaintenanceHandler) CreatePlanned(w http.ResponseWriter, r *http.Request) {
	var req plannedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	rec, err := h.service.CreatePlanned(r.Context(), lifecycle.PlannedInput{
		VehicleID:     r.PathValue("vehicleID"),
		Date:          date,
		ServiceType:   req.ServiceType,
		Description:   req.Description,
		TargetMileage: req.TargetMileage,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if rec == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Get returns a single record
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), r.PathValue("recordID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Update applies a partial update to a record
func (h *MaintenanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	patch := models.RecordPatch{
		Mileage:        req.Mileage,
		ServiceType:    req.ServiceType,
		Description:    req.Description,
		WorksPerformed: req.WorksPerformed,
		AttachmentText: req.AttachmentText,
	}
	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		patch.Date = &date
	}
	if patch.IsEmpty() {
		http.Error(w, "No fields to update", http.StatusBadRequest)
		return
	}

	rec, err := h.service.Update(r.Context(), r.PathValue("recordID"), patch)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Delete removes a record
func (h *MaintenanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("recordID")); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
