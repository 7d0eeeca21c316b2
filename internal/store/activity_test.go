package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/model"
)

func TestLogAndListActivity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := createTestUser(t, database, "Admin", "admin@example.com", model.RoleAdmin)

	if err := LogActivity(ctx, database, &admin.ID, admin.Name, model.ActionItemCreated,
		map[string]any{"item_id": 1}); err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if err := LogActivity(ctx, database, nil, "", model.ActionUserRegistered, nil); err != nil {
		t.Fatalf("LogActivity: %v", err)
	}

	logs, err := RecentActivity(ctx, database, 10)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(logs))
	}
	if logs[0].Action != model.ActionUserRegistered {
		t.Errorf("expected newest entry first, got %s", logs[0].Action)
	}
	if logs[0].Details != nil {
		t.Errorf("expected no details, got %s", logs[0].Details)
	}

	var details map[string]int
	if err := json.Unmarshal(logs[1].Details, &details); err != nil {
		t.Fatalf("decoding details: %v", err)
	}
	if details["item_id"] != 1 {
		t.Errorf("expected item_id 1, got %v", details)
	}
	if logs[1].UserName != "Admin" {
		t.Errorf("expected user name 'Admin', got %q", logs[1].UserName)
	}
}

func TestRecentActivityLimit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		LogActivity(ctx, database, nil, "", model.ActionItemDeleted, nil)
	}

	logs, err := RecentActivity(ctx, database, 3)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(logs) != 3 {
		t.Errorf("expected 3 entries, got %d", len(logs))
	}
}

func TestActivitySurvivesUserDeletion(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, database, "Temp", "temp@example.com", model.RoleUser)
	LogActivity(ctx, database, &user.ID, user.Name, model.ActionPasswordChanged, nil)
	DeleteUser(ctx, database, user.ID)

	logs, _ := RecentActivity(ctx, database, 10)
	if len(logs) != 1 {
		t.Fatalf("expected entry to survive, got %d", len(logs))
	}
	if logs[0].UserID != nil {
		t.Errorf("expected user_id cleared, got %d", *logs[0].UserID)
	}
	if logs[0].UserName != "Temp" {
		t.Errorf("expected stored name 'Temp', got %q", logs[0].UserName)
	}
}
