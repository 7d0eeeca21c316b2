package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/imaging"
	"github.com/erazemk/custodia/internal/model"
	"github.com/erazemk/custodia/internal/store"
)

// ItemsHandler handles item endpoints, including custody changes.
type ItemsHandler struct {
	DB *db.DB
}

// itemFields are the mutable fields shared by create, update and import.
type itemFields struct {
	Description   string          `json:"description" validate:"max=2000"`
	Status        string          `json:"status" validate:"max=50"`
	Properties    json.RawMessage `json:"properties"`
	CustodianID   *int64          `json:"custodian_id" validate:"omitempty,gt=0"`
	CustodianName string          `json:"custodian_name" validate:"max=255"`
}

func (f itemFields) update() model.ItemUpdate {
	return model.ItemUpdate{
		Description:   strings.TrimSpace(f.Description),
		Status:        strings.TrimSpace(f.Status),
		Properties:    f.Properties,
		CustodianID:   f.CustodianID,
		CustodianName: strings.TrimSpace(f.CustodianName),
	}
}

type createItemRequest struct {
	Type       string `json:"type" validate:"required,max=50,ne=all"`
	Identifier string `json:"identifier" validate:"required,max=255"`
	itemFields
}

type importRow struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	itemFields
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// validProperties reports whether raw is absent, null or a JSON object.
func validProperties(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true
	}
	return trimmed[0] == '{'
}

// List handles GET /api/items?type=&search=&sortBy=&order=.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := store.ListItems(r.Context(), h.DB, model.ItemFilter{
		Type:   q.Get("type"),
		Search: q.Get("search"),
		SortBy: q.Get("sortBy"),
		Order:  q.Get("order"),
	})
	if err != nil {
		storeError(w, err, "list items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !bind(w, r, &req) {
		return
	}
	if !validProperties(req.Properties) {
		jsonError(w, http.StatusBadRequest, "properties must be a JSON object")
		return
	}

	claims := GetClaims(r.Context())
	item, err := store.CreateItem(r.Context(), h.DB, model.ItemInput{
		Type:       strings.ToLower(strings.TrimSpace(req.Type)),
		Identifier: strings.TrimSpace(req.Identifier),
		ItemUpdate: req.update(),
	}, actorID(claims))
	if err != nil {
		storeError(w, err, "create item")
		return
	}

	recordActivity(r.Context(), h.DB, claims, model.ActionItemCreated, map[string]any{
		"item_id": item.ID, "type": item.Type, "identifier": item.Identifier,
	})
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. A change of custodian user is recorded
// as a movement in the same transaction as the update.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemFields
	if !bind(w, r, &req) {
		return
	}
	if !validProperties(req.Properties) {
		jsonError(w, http.StatusBadRequest, "properties must be a JSON object")
		return
	}

	claims := GetClaims(r.Context())
	item, err := store.UpdateItem(r.Context(), h.DB, id, req.update(), actorID(claims))
	if err != nil {
		storeError(w, err, "update item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	recordActivity(r.Context(), h.DB, claims, model.ActionItemUpdated, map[string]any{
		"item_id": item.ID, "identifier": item.Identifier, "custodian": item.Custodian,
	})
	slog.Info("item updated", "item_id", item.ID, "custodian", item.Custodian, "by", claims.UserID)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		storeError(w, err, "delete item")
		return
	}

	recordActivity(r.Context(), h.DB, GetClaims(r.Context()), model.ActionItemDeleted,
		map[string]any{"item_id": id})
	w.WriteHeader(http.StatusNoContent)
}

// BulkDelete handles DELETE /api/items/bulk.
func (h *ItemsHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if !bind(w, r, &req) {
		return
	}

	n, err := store.BulkDeleteItems(r.Context(), h.DB, req.IDs)
	if err != nil {
		storeError(w, err, "delete items")
		return
	}

	recordActivity(r.Context(), h.DB, GetClaims(r.Context()), model.ActionBulkItemDeleted,
		map[string]any{"ids": req.IDs, "deleted_count": n})
	jsonResponse(w, http.StatusOK, map[string]int64{"deleted_count": n})
}

// Movements handles GET /api/items/{id}/movements.
func (h *ItemsHandler) Movements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "list movements")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	movements, err := store.ListMovements(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "list movements")
		return
	}
	jsonResponse(w, http.StatusOK, movements)
}

// Import handles POST /api/import/{type}. The body is a JSON array of items;
// either all of them are created or none.
func (h *ItemsHandler) Import(w http.ResponseWriter, r *http.Request) {
	itemType := strings.ToLower(strings.TrimSpace(r.PathValue("type")))
	if itemType == "" || itemType == model.ItemTypeAll || len(itemType) > 50 {
		jsonError(w, http.StatusBadRequest, "invalid item type")
		return
	}

	var rows []importRow
	if err := decodeJSON(r, &rows); err != nil {
		jsonError(w, http.StatusBadRequest, "request body must be a JSON array of items")
		return
	}
	if len(rows) == 0 {
		jsonError(w, http.StatusBadRequest, "no items to import")
		return
	}

	inputs := make([]model.ItemInput, 0, len(rows))
	for i, row := range rows {
		if err := validate.Struct(row); err != nil {
			slog.Warn("import row rejected", "row", i+1, "error", err)
			validationError(w, err)
			return
		}
		if !validProperties(row.Properties) {
			jsonError(w, http.StatusBadRequest, "row "+strconv.Itoa(i+1)+": properties must be a JSON object")
			return
		}
		inputs = append(inputs, model.ItemInput{
			Identifier: strings.TrimSpace(row.Identifier),
			ItemUpdate: row.update(),
		})
	}

	claims := GetClaims(r.Context())
	n, err := store.ImportItems(r.Context(), h.DB, itemType, inputs, actorID(claims))
	if err != nil {
		storeError(w, err, "import items")
		return
	}

	recordActivity(r.Context(), h.DB, claims, model.ActionItemsImported,
		map[string]any{"type": itemType, "count": n})
	slog.Info("items imported", "type", itemType, "count", n, "by", claims.UserID)
	jsonResponse(w, http.StatusCreated, map[string]int{"imported": n})
}

// UploadImage handles PUT /api/items/{id}/image (multipart field "image").
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		switch {
		case errors.Is(err, imaging.ErrUnsupportedFormat):
			jsonError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, imaging.ErrTooLarge):
			jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
		default:
			jsonError(w, http.StatusBadRequest, "could not read image")
		}
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, photo.Data, imaging.MIMEType); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		storeError(w, err, "save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "image uploaded", "width": photo.Width, "height": photo.Height,
	})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
