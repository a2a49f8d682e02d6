package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gateway-console/internal/gateway"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	backend *gateway.Client
}

func NewHealthHandler(db *gorm.DB, backend *gateway.Client) *HealthHandler {
	return &HealthHandler{db: db, backend: backend}
}

func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Ready)
	r.Get("/health/live", h.Live)
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Unix(),
	})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	checks := make(map[string]CheckResult)
	allHealthy := true

	dbCheck := h.checkDatabase()
	checks["audit_db"] = dbCheck
	if !dbCheck.Healthy {
		allHealthy = false
	}

	backendCheck := h.checkBackend(r.Context())
	checks["backend"] = backendCheck
	if !backendCheck.Healthy {
		allHealthy = false
	}

	response := HealthDetailResponse{
		Status:    "ready",
		Timestamp: time.Now().Unix(),
		Checks:    checks,
	}

	if !allHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *HealthHandler) checkDatabase() CheckResult {
	sqlDB, err := h.db.DB()
	if err != nil {
		return CheckResult{
			Healthy: false,
			Message: "Failed to get database connection: " + err.Error(),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return CheckResult{
			Healthy: false,
			Message: "Database ping failed: " + err.Error(),
		}
	}

	return CheckResult{
		Healthy: true,
		Message: "Audit database connected",
	}
}

// checkBackend probes the validate endpoint. Any HTTP answer means the
// backend is reachable; an auth rejection still proves liveness.
func (h *HealthHandler) checkBackend(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := h.backend.ValidateToken(ctx)
	if err != nil && !gateway.IsAPIError(err) {
		return CheckResult{
			Healthy: false,
			Message: "Backend unreachable: " + err.Error(),
		}
	}

	return CheckResult{
		Healthy: true,
		Message: "Backend reachable",
	}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

type HealthDetailResponse struct {
	Status    string                 `json:"status"`
	Timestamp int64                  `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message"`
}
