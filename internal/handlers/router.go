package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/maintenance-tracker/internal/middleware"
	"github.com/ukydev/maintenance-tracker/internal/models"
)

// RateLimit bounds requests per client. A nil Limiter disables limiting.
type RateLimit struct {
	Limiter     *middleware.RateLimitMiddleware
	MaxRequests int
	Window      time.Duration
}

// NewRouter wires every API route behind authentication, permissions and
// request logging.
func NewRouter(service MaintenanceService, authMW *middleware.AuthMiddleware, limit RateLimit, log logrus.FieldLogger) http.Handler {
	vehicles := NewVehicleHandler(service, log)
	maintenance := NewMaintenanceHandler(service, log)

	mux := http.NewServeMux()
	route := func(pattern, action string, h http.HandlerFunc) {
		mux.Handle(pattern, authMW.RequirePermission(action)(h))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	route("GET /api/vehicles", models.ActionViewMaintenance, vehicles.List)
	route("POST /api/vehicles", models.ActionManageVehicles, vehicles.Create)
	route("GET /api/vehicles/{vehicleID}", models.ActionViewMaintenance, vehicles.Get)
	route("GET /api/vehicles/{vehicleID}/maintenance", models.ActionViewMaintenance, maintenance.Overview)
	route("POST /api/vehicles/{vehicleID}/records", models.ActionCreateMaintenance, maintenance.CreateCompleted)
	route("POST /api/vehicles/{vehicleID}/planned", models.ActionCreateMaintenance, maintenance.CreatePlanned)
	route("GET /api/records/{recordID}", models.ActionViewMaintenance, maintenance.Get)
	route("PATCH /api/records/{recordID}", models.ActionUpdateMaintenance, maintenance.Update)
	route("DELETE /api/records/{recordID}", models.ActionDeleteMaintenance, maintenance.Delete)
	route("POST /api/extract", models.ActionCreateMaintenance, Extract)

	var handler http.Handler = authMW.Authenticate(mux)
	if limit.Limiter != nil {
		handler = limit.Limiter.RateLimit(limit.MaxRequests, limit.Window)(handler)
	}
	return middleware.RequestLogger(log)(handler)
}
