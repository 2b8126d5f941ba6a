package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/maintenance-tracker/internal/lifecycle"
)

// VehicleHandler handles vehicle requests
type VehicleHandler struct {
	service MaintenanceService
	log     logrus.FieldLogger
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(service MaintenanceService, log logrus.FieldLogger) *VehicleHandler {
	return &VehicleHandler{service: service, log: log}
}

// Create registers a vehicle
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.VehicleInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	v, err := h.service.CreateVehicle(r.Context(), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// Get returns a vehicle
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Vehicle(r.Context(), r.PathValue("vehicleID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// List returns every vehicle
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.service.Vehicles(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}
