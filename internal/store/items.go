package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erazemk/custodia/internal/custody"
	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/model"
)

const itemSelect = `SELECT i.id, i.type, i.identifier, i.description, i.status,
	i.custodian_user_id, i.custodian_name, i.properties, i.image_mime,
	i.created_at, i.updated_at, COALESCE(u.name, i.custodian_name)
	FROM items i LEFT JOIN users u ON u.id = i.custodian_user_id`

var sortColumns = map[string]string{
	model.SortCreatedAt:  "i.created_at",
	model.SortIdentifier: "i.identifier",
}

// CreateItem inserts an item. An item created with a user custodian gets an
// initial DELIVERY movement in the same transaction.
func CreateItem(ctx context.Context, conn *db.DB, in model.ItemInput, actorID *int64) (*model.Item, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := insertItem(ctx, tx, in, actorID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}

	return GetItem(ctx, conn, id)
}

// ImportItems inserts a batch of items of one type. Either every item is
// stored or none is.
func ImportItems(ctx context.Context, conn *db.DB, itemType string, inputs []model.ItemInput, actorID *int64) (int, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, in := range inputs {
		in.Type = itemType
		if _, err := insertItem(ctx, tx, in, actorID); err != nil {
			return 0, fmt.Errorf("importing row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return len(inputs), nil
}

func insertItem(ctx context.Context, tx *db.Tx, in model.ItemInput, actorID *int64) (int64, error) {
	after := custody.Resolve(in.CustodianID, in.CustodianName)
	toUser, err := custodianUserName(ctx, tx, after)
	if err != nil {
		return 0, err
	}

	status := in.Status
	if strings.TrimSpace(status) == "" {
		status = model.ItemStatusAvailable
	}

	userID, name := after.Columns()
	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO items (type, identifier, description, status, custodian_user_id, custodian_name, properties)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		in.Type, in.Identifier, nullIfEmpty(in.Description), status, userID, name, jsonArg(in.Properties),
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("item %s/%s: %w", in.Type, in.Identifier, ErrConflict)
		}
		return 0, fmt.Errorf("creating item: %w", err)
	}

	if err := recordCustodyChange(ctx, tx, id, custody.None(), after, toUser, actorID); err != nil {
		return 0, err
	}
	return id, nil
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, q db.Querier, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx, itemSelect+` WHERE i.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching the filter. Search matches identifier,
// description and custodian name case-insensitively. Unknown sort fields fall
// back to creation time, and the default order is newest first.
func ListItems(ctx context.Context, q db.Querier, f model.ItemFilter) ([]model.Item, error) {
	query := db.NewQuery(itemSelect)
	if f.Type != "" && f.Type != model.ItemTypeAll {
		query.Where("i.type = ?", f.Type)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		d := q.Dialect()
		query.Where("("+d.ILike("i.identifier")+
			" OR "+d.ILike("COALESCE(i.description, '')")+
			" OR "+d.ILike("COALESCE(u.name, i.custodian_name, '')")+")",
			pattern, pattern, pattern)
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = sortColumns[model.SortCreatedAt]
	}
	dir := "DESC"
	if strings.EqualFold(f.Order, model.OrderAsc) {
		dir = "ASC"
	}
	query.OrderBy(col + " " + dir + ", i.id " + dir)

	text, args := query.Build()
	rows, err := q.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem replaces an item's mutable fields. When the custodian reference
// changes, a movement describing the change is recorded in the same
// transaction. The returned item is read after commit.
func UpdateItem(ctx context.Context, conn *db.DB, id int64, in model.ItemUpdate, actorID *int64) (*model.Item, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	before, err := lockCustodian(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	after := custody.Resolve(in.CustodianID, in.CustodianName)
	toUser, err := custodianUserName(ctx, tx, after)
	if err != nil {
		return nil, err
	}

	userID, name := after.Columns()
	_, err = tx.ExecContext(ctx,
		`UPDATE items SET description = ?, status = ?, properties = ?, custodian_user_id = ?, custodian_name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullIfEmpty(in.Description), nullIfEmpty(in.Status), jsonArg(in.Properties), userID, name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	if err := recordCustodyChange(ctx, tx, id, before, after, toUser, actorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}

	item, err := GetItem(ctx, conn, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		// Deleted by another request after commit.
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return item, nil
}

// lockCustodian reads the current custodian of an item and, on dialects that
// support it, locks the row until the transaction ends.
func lockCustodian(ctx context.Context, tx *db.Tx, id int64) (custody.Custodian, error) {
	var userID sql.NullInt64
	var name sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT custodian_user_id, custodian_name FROM items WHERE id = ?`+tx.Dialect().ForUpdate(), id,
	).Scan(&userID, &name)
	if err == sql.ErrNoRows {
		return custody.None(), fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return custody.None(), fmt.Errorf("reading item custodian: %w", err)
	}

	if userID.Valid {
		return custody.User(userID.Int64), nil
	}
	return custody.Named(name.String), nil
}

// DeleteItem removes an item together with its movements.
func DeleteItem(ctx context.Context, q db.Querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return expectAffected(result, "item", id)
}

// BulkDeleteItems removes all listed items in one statement and returns how
// many existed.
func BulkDeleteItems(ctx context.Context, q db.Querier, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	text, args := db.NewQuery(`DELETE FROM items`).WhereIn("id", ids).Build()
	result, err := q.ExecContext(ctx, text, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk deleting items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking affected rows: %w", err)
	}
	return n, nil
}

// SetItemImage stores a processed photo for an item.
func SetItemImage(ctx context.Context, q db.Querier, id int64, data []byte, mime string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		data, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return expectAffected(result, "item", id)
}

// GetItemImage returns an item's photo, or nil data if it has none.
func GetItemImage(ctx context.Context, q db.Querier, id int64) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return data, mime.String, nil
}

func scanItem(s scanner) (*model.Item, error) {
	var (
		item                                     model.Item
		description, status, custodianName, mime sql.NullString
		custodian                                sql.NullString
		custodianID                              sql.NullInt64
		properties                               []byte
	)
	err := s.Scan(&item.ID, &item.Type, &item.Identifier, &description, &status,
		&custodianID, &custodianName, &properties, &mime,
		&item.CreatedAt, &item.UpdatedAt, &custodian)
	if err != nil {
		return nil, err
	}

	item.Description = description.String
	item.Status = status.String
	item.CustodianName = custodianName.String
	item.ImageMime = mime.String
	item.Custodian = custodian.String
	if custodianID.Valid {
		id := custodianID.Int64
		item.CustodianID = &id
	}
	if len(properties) > 0 {
		item.Properties = json.RawMessage(properties)
	}
	return &item, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
