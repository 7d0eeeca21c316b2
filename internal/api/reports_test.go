package api

import (
	"net/http"
	"testing"

	"github.com/erazemk/custodia/internal/model"
)

func TestReportsAPI(t *testing.T) {
	env := setupTestServer(t)
	token, ana := env.userToken(t, "Ana", "ana@example.com")

	env.createItem(t, env.adminToken, map[string]any{"type": "equipment", "identifier": "E-1", "custodian_id": ana.ID})
	env.createItem(t, env.adminToken, map[string]any{"type": "tool", "identifier": "T-1", "status": "broken"})
	env.createItem(t, env.adminToken, map[string]any{
		"type": "chip", "identifier": "C-1", "properties": map[string]string{"carrier": "A1"},
	})

	var stats model.DashboardStats
	env.expect(t, "GET", "/api/dashboard/stats", token, nil, http.StatusOK, &stats)
	if stats.TotalEquipment != 2 || stats.TotalChips != 1 || stats.ChipsByCarrier["A1"] != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	var byStatus map[string]int
	env.expect(t, "GET", "/api/reports/equipment-by-status", token, nil, http.StatusOK, &byStatus)
	if byStatus["available"] != 1 || byStatus["broken"] != 1 {
		t.Errorf("unexpected status report: %v", byStatus)
	}

	var byCustodian []model.CustodianCount
	env.expect(t, "GET", "/api/reports/inventory-by-custodian", token, nil, http.StatusOK, &byCustodian)
	if len(byCustodian) != 1 || byCustodian[0].Custodian != "Ana" || byCustodian[0].Items != 1 {
		t.Errorf("unexpected custodian report: %+v", byCustodian)
	}

	env.expect(t, "GET", "/api/dashboard/stats", "", nil, http.StatusUnauthorized, nil)
}

func TestRecentLogsAPI(t *testing.T) {
	env := setupTestServer(t)

	for _, id := range []string{"1", "2", "3"} {
		env.createItem(t, env.adminToken, map[string]any{"type": "chip", "identifier": id})
	}

	var logs []model.ActivityLog
	env.expect(t, "GET", "/api/logs/recent", env.adminToken, nil, http.StatusOK, &logs)
	if len(logs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(logs))
	}
	if logs[0].Action != model.ActionItemCreated || logs[0].UserName != "Admin" {
		t.Errorf("unexpected entry: %+v", logs[0])
	}

	env.expect(t, "GET", "/api/logs/recent?limit=2", env.adminToken, nil, http.StatusOK, &logs)
	if len(logs) != 2 {
		t.Errorf("expected 2 entries, got %d", len(logs))
	}

	env.expect(t, "GET", "/api/logs/recent?limit=1000", env.adminToken, nil, http.StatusOK, &logs)
	if len(logs) != 3 {
		t.Errorf("expected oversized limit to be capped, got %d", len(logs))
	}

	env.expect(t, "GET", "/api/logs/recent?limit=zero", env.adminToken, nil, http.StatusBadRequest, nil)
	env.expect(t, "GET", "/api/logs/recent?limit=-5", env.adminToken, nil, http.StatusBadRequest, nil)
}
