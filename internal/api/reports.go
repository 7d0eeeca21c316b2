package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/store"
)

const (
	defaultLogLimit = 10
	maxLogLimit     = 100
)

// ReportsHandler serves the read-only dashboard and report endpoints.
type ReportsHandler struct {
	DB *db.DB
}

// Dashboard handles GET /api/dashboard/stats.
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := store.DashboardStats(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "load dashboard")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// EquipmentByStatus handles GET /api/reports/equipment-by-status.
func (h *ReportsHandler) EquipmentByStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := store.EquipmentByStatus(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "build report")
		return
	}
	jsonResponse(w, http.StatusOK, counts)
}

// InventoryByCustodian handles GET /api/reports/inventory-by-custodian.
func (h *ReportsHandler) InventoryByCustodian(w http.ResponseWriter, r *http.Request) {
	counts, err := store.InventoryByCustodian(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "build report")
		return
	}
	jsonResponse(w, http.StatusOK, counts)
}

// RecentLogs handles GET /api/logs/recent?limit=.
func (h *ReportsHandler) RecentLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLogLimit)
	}

	logs, err := store.RecentActivity(r.Context(), h.DB, limit)
	if err != nil {
		storeError(w, err, "list activity")
		return
	}
	jsonResponse(w, http.StatusOK, logs)
}

// Health handles GET /api/health.
func (h *ReportsHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable", "database": h.DB.Dialect().String(),
		})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ok", "database": h.DB.Dialect().String(),
	})
}
