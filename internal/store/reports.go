package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/model"
)

// DashboardStats counts equipment (including tools) and chips, and groups
// chips by the "carrier" property.
func DashboardStats(ctx context.Context, q db.Querier) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{ChipsByCarrier: map[string]int{}}

	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE type IN (?, ?)`,
		model.ItemTypeEquipment, model.ItemTypeTool,
	).Scan(&stats.TotalEquipment)
	if err != nil {
		return nil, fmt.Errorf("counting equipment: %w", err)
	}

	err = q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE type = ?`, model.ItemTypeChip,
	).Scan(&stats.TotalChips)
	if err != nil {
		return nil, fmt.Errorf("counting chips: %w", err)
	}

	carrier := q.Dialect().JSONText("properties", "carrier")
	rows, err := q.QueryContext(ctx,
		`SELECT `+carrier+`, COUNT(*) FROM items WHERE type = ? AND `+carrier+` IS NOT NULL GROUP BY 1`,
		model.ItemTypeChip,
	)
	if err != nil {
		return nil, fmt.Errorf("grouping chips by carrier: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name sql.NullString
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scanning carrier: %w", err)
		}
		if name.String == "" {
			continue
		}
		stats.ChipsByCarrier[name.String] += n
	}
	return stats, rows.Err()
}

// EquipmentByStatus counts equipment and tools per status. Items without a
// status are reported as "not set".
func EquipmentByStatus(ctx context.Context, q db.Querier) (map[string]int, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM items WHERE type IN (?, ?) GROUP BY status`,
		model.ItemTypeEquipment, model.ItemTypeTool,
	)
	if err != nil {
		return nil, fmt.Errorf("grouping equipment by status: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status sql.NullString
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status: %w", err)
		}
		key := strings.TrimSpace(status.String)
		if key == "" {
			key = model.StatusNotSet
		}
		counts[key] += n
	}
	return counts, rows.Err()
}

// InventoryByCustodian counts assigned items per custodian, largest first.
// Unassigned items are not counted.
func InventoryByCustodian(ctx context.Context, q db.Querier) ([]model.CustodianCount, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT i.custodian_user_id, COALESCE(u.name, i.custodian_name), COUNT(*)
		 FROM items i LEFT JOIN users u ON u.id = i.custodian_user_id
		 WHERE i.custodian_user_id IS NOT NULL OR i.custodian_name IS NOT NULL
		 GROUP BY i.custodian_user_id, COALESCE(u.name, i.custodian_name)`,
	)
	if err != nil {
		return nil, fmt.Errorf("grouping items by custodian: %w", err)
	}
	defer rows.Close()

	counts := []model.CustodianCount{}
	for rows.Next() {
		var c model.CustodianCount
		var userID sql.NullInt64
		var name sql.NullString
		if err := rows.Scan(&userID, &name, &c.Items); err != nil {
			return nil, fmt.Errorf("scanning custodian count: %w", err)
		}
		if userID.Valid {
			id := userID.Int64
			c.CustodianID = &id
		}
		c.Custodian = name.String
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Items != counts[j].Items {
			return counts[i].Items > counts[j].Items
		}
		return counts[i].Custodian < counts[j].Custodian
	})
	return counts, nil
}
