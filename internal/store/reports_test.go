package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/model"
)

func TestDashboardStats(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	createTestItem(t, database, newItem(model.ItemTypeEquipment, "E-1"))
	createTestItem(t, database, newItem(model.ItemTypeTool, "T-1"))
	createTestItem(t, database, newItem(model.ItemTypePadlock, "P-1"))
	for i, carrier := range []string{"A1", "Telekom", "A1", ""} {
		in := newItem(model.ItemTypeChip, string(rune('0'+i)))
		if carrier != "" {
			in.Properties = json.RawMessage(`{"carrier":"` + carrier + `"}`)
		}
		createTestItem(t, database, in)
	}

	stats, err := DashboardStats(ctx, database)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalEquipment != 2 {
		t.Errorf("expected 2 equipment (incl. tools), got %d", stats.TotalEquipment)
	}
	if stats.TotalChips != 4 {
		t.Errorf("expected 4 chips, got %d", stats.TotalChips)
	}
	if stats.ChipsByCarrier["A1"] != 2 || stats.ChipsByCarrier["Telekom"] != 1 {
		t.Errorf("unexpected carrier counts: %v", stats.ChipsByCarrier)
	}
	if len(stats.ChipsByCarrier) != 2 {
		t.Errorf("expected chips without carrier to be skipped, got %v", stats.ChipsByCarrier)
	}
}

func TestDashboardStatsEmpty(t *testing.T) {
	database := db.NewTestDB(t)

	stats, err := DashboardStats(context.Background(), database)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalEquipment != 0 || stats.TotalChips != 0 || len(stats.ChipsByCarrier) != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
	if stats.ChipsByCarrier == nil {
		t.Error("expected non-nil carrier map")
	}
}

func TestEquipmentByStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	createTestItem(t, database, newItem(model.ItemTypeEquipment, "E-1"))
	createTestItem(t, database, newItem(model.ItemTypeEquipment, "E-2"))
	broken := createTestItem(t, database, newItem(model.ItemTypeEquipment, "E-3"))
	blank := createTestItem(t, database, newItem(model.ItemTypeEquipment, "E-4"))
	createTestItem(t, database, newItem(model.ItemTypeTool, "T-1"))
	createTestItem(t, database, newItem(model.ItemTypeChip, "C-1"))

	if _, err := UpdateItem(ctx, database, broken.ID, model.ItemUpdate{Status: "broken"}, nil); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if _, err := UpdateItem(ctx, database, blank.ID, model.ItemUpdate{}, nil); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	counts, err := EquipmentByStatus(ctx, database)
	if err != nil {
		t.Fatalf("EquipmentByStatus: %v", err)
	}
	want := map[string]int{model.ItemStatusAvailable: 3, "broken": 1, model.StatusNotSet: 1}
	if len(counts) != len(want) {
		t.Fatalf("expected %v, got %v", want, counts)
	}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("status %q: expected %d, got %d", k, v, counts[k])
		}
	}
}

func TestInventoryByCustodian(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	ana := createTestUser(t, database, "Ana", "ana@example.com", model.RoleUser)
	for _, id := range []string{"1", "2"} {
		in := newItem(model.ItemTypeEquipment, id)
		in.CustodianID = &ana.ID
		createTestItem(t, database, in)
	}
	named := newItem(model.ItemTypeEquipment, "3")
	named.CustodianName = "Warehouse"
	createTestItem(t, database, named)
	createTestItem(t, database, newItem(model.ItemTypeEquipment, "4"))

	counts, err := InventoryByCustodian(ctx, database)
	if err != nil {
		t.Fatalf("InventoryByCustodian: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 custodians, got %+v", counts)
	}
	if counts[0].Custodian != "Ana" || counts[0].Items != 2 || counts[0].CustodianID == nil {
		t.Errorf("unexpected first row: %+v", counts[0])
	}
	if counts[1].Custodian != "Warehouse" || counts[1].Items != 1 || counts[1].CustodianID != nil {
		t.Errorf("unexpected second row: %+v", counts[1])
	}
}
