package api

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/erazemk/custodia/internal/model"
)

func (e *testEnv) createItem(t *testing.T, token string, body map[string]any) model.Item {
	t.Helper()
	var item model.Item
	e.expect(t, "POST", "/api/items", token, body, http.StatusCreated, &item)
	return item
}

func TestItemsAPIFlow(t *testing.T) {
	env := setupTestServer(t)

	item := env.createItem(t, env.adminToken, map[string]any{
		"type":        "equipment",
		"identifier":  "LAP-001",
		"description": "Dell XPS",
		"properties":  map[string]string{"serial": "ABC"},
	})
	if item.Status != model.ItemStatusAvailable {
		t.Errorf("expected default status, got %q", item.Status)
	}

	env.expect(t, "POST", "/api/items", env.adminToken, map[string]any{
		"type": "equipment", "identifier": "LAP-001",
	}, http.StatusConflict, nil)

	env.expect(t, "POST", "/api/items", env.adminToken, map[string]any{
		"type": "equipment",
	}, http.StatusBadRequest, nil)

	env.expect(t, "POST", "/api/items", env.adminToken, map[string]any{
		"type": "equipment", "identifier": "LAP-002", "properties": []int{1, 2},
	}, http.StatusBadRequest, nil)

	var got model.Item
	env.expect(t, "GET", fmt.Sprintf("/api/items/%d", item.ID), env.adminToken, nil, http.StatusOK, &got)
	if got.Identifier != "LAP-001" || got.Description != "Dell XPS" {
		t.Errorf("unexpected item: %+v", got)
	}

	env.expect(t, "GET", "/api/items/9999", env.adminToken, nil, http.StatusNotFound, nil)
	env.expect(t, "GET", "/api/items/abc", env.adminToken, nil, http.StatusBadRequest, nil)

	var items []model.Item
	env.expect(t, "GET", "/api/items", env.adminToken, nil, http.StatusOK, &items)
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}

	env.expect(t, "DELETE", fmt.Sprintf("/api/items/%d", item.ID), env.adminToken, nil, http.StatusNoContent, nil)
	env.expect(t, "DELETE", fmt.Sprintf("/api/items/%d", item.ID), env.adminToken, nil, http.StatusNotFound, nil)
}

func TestCustodyMovementsAPI(t *testing.T) {
	env := setupTestServer(t)
	token, ana := env.userToken(t, "Ana", "ana@example.com")
	_, bojan := env.userToken(t, "Bojan", "bojan@example.com")

	item := env.createItem(t, token, map[string]any{"type": "tool", "identifier": "DRILL-1"})
	path := fmt.Sprintf("/api/items/%d", item.ID)

	var updated model.Item
	env.expect(t, "PUT", path, token, map[string]any{"custodian_id": ana.ID}, http.StatusOK, &updated)
	if updated.CustodianID == nil || *updated.CustodianID != ana.ID || updated.Custodian != "Ana" {
		t.Errorf("expected Ana as custodian, got %+v", updated)
	}

	// A reference wins over free text.
	var transferred model.Item
	env.expect(t, "PUT", path, token, map[string]any{
		"custodian_id": bojan.ID, "custodian_name": "ignored",
	}, http.StatusOK, &transferred)
	if transferred.CustodianName != "" || transferred.Custodian != "Bojan" {
		t.Errorf("expected reference to win, got %+v", transferred)
	}

	var named model.Item
	env.expect(t, "PUT", path, token, map[string]any{"custodian_name": "Front desk"}, http.StatusOK, &named)
	if named.CustodianID != nil || named.CustodianName != "Front desk" || named.Custodian != "Front desk" {
		t.Errorf("expected named custodian, got %+v", named)
	}

	var cleared model.Item
	env.expect(t, "PUT", path, token, map[string]any{"custodian_name": "  "}, http.StatusOK, &cleared)
	if cleared.CustodianID != nil || cleared.CustodianName != "" || cleared.Custodian != "" {
		t.Errorf("expected unassigned item, got %+v", cleared)
	}

	var movements []model.Movement
	env.expect(t, "GET", path+"/movements", token, nil, http.StatusOK, &movements)
	want := []struct{ kind, notes string }{
		{"RETURN", "Item moved from Bojan to nobody."},
		{"TRANSFER", "Item moved from Ana to Bojan."},
		{"DELIVERY", "Item moved from nobody to Ana."},
	}
	if len(movements) != len(want) {
		t.Fatalf("expected %d movements, got %d", len(want), len(movements))
	}
	for i, w := range want {
		if movements[i].Kind != w.kind || movements[i].Notes != w.notes {
			t.Errorf("movement %d: got %s %q, want %s %q", i, movements[i].Kind, movements[i].Notes, w.kind, w.notes)
		}
		if movements[i].MovedBy == nil || *movements[i].MovedBy != ana.ID {
			t.Errorf("movement %d: expected moved_by %d, got %v", i, ana.ID, movements[i].MovedBy)
		}
	}

	env.expect(t, "GET", "/api/items/9999/movements", token, nil, http.StatusNotFound, nil)
}

func TestUpdateItemErrors(t *testing.T) {
	env := setupTestServer(t)

	env.expect(t, "PUT", "/api/items/9999", env.adminToken, map[string]any{"status": "lost"},
		http.StatusNotFound, nil)

	item := env.createItem(t, env.adminToken, map[string]any{"type": "equipment", "identifier": "E-1"})
	path := fmt.Sprintf("/api/items/%d", item.ID)

	env.expect(t, "PUT", path, env.adminToken, map[string]any{"custodian_id": 4242},
		http.StatusBadRequest, nil)
	env.expect(t, "PUT", path, env.adminToken, map[string]any{"custodian_id": -1},
		http.StatusBadRequest, nil)

	var movements []model.Movement
	env.expect(t, "GET", path+"/movements", env.adminToken, nil, http.StatusOK, &movements)
	if len(movements) != 0 {
		t.Errorf("expected failed updates to leave no movements, got %d", len(movements))
	}
}

func TestSearchAndSortAPI(t *testing.T) {
	env := setupTestServer(t)
	_, marko := env.userToken(t, "Marko Horvat", "marko@example.com")

	env.createItem(t, env.adminToken, map[string]any{"type": "equipment", "identifier": "B-laptop"})
	env.createItem(t, env.adminToken, map[string]any{
		"type": "equipment", "identifier": "A-monitor", "description": "Dell LAPTOP dock",
	})
	env.createItem(t, env.adminToken, map[string]any{
		"type": "chip", "identifier": "C-1", "custodian_id": marko.ID,
	})

	var items []model.Item
	env.expect(t, "GET", "/api/items?search=laptop&sortBy=identifier&order=asc", env.adminToken, nil,
		http.StatusOK, &items)
	if len(items) != 2 || items[0].Identifier != "A-monitor" || items[1].Identifier != "B-laptop" {
		t.Errorf("unexpected search result: %+v", items)
	}

	env.expect(t, "GET", "/api/items?search=HORVAT", env.adminToken, nil, http.StatusOK, &items)
	if len(items) != 1 || items[0].Identifier != "C-1" {
		t.Errorf("expected custodian name search to find C-1, got %+v", items)
	}

	env.expect(t, "GET", "/api/items?type=chip", env.adminToken, nil, http.StatusOK, &items)
	if len(items) != 1 {
		t.Errorf("expected 1 chip, got %d", len(items))
	}

	env.expect(t, "GET", "/api/items?type=all", env.adminToken, nil, http.StatusOK, &items)
	if len(items) != 3 {
		t.Errorf("expected 3 items, got %d", len(items))
	}
}

func TestBulkDeleteAPI(t *testing.T) {
	env := setupTestServer(t)
	token, _ := env.userToken(t, "Regular", "user@example.com")

	a := env.createItem(t, env.adminToken, map[string]any{"type": "chip", "identifier": "1"})
	b := env.createItem(t, env.adminToken, map[string]any{"type": "chip", "identifier": "2"})
	env.createItem(t, env.adminToken, map[string]any{"type": "chip", "identifier": "3"})

	env.expect(t, "DELETE", "/api/items/bulk", token, map[string]any{"ids": []int64{a.ID}},
		http.StatusForbidden, nil)
	env.expect(t, "DELETE", "/api/items/bulk", env.adminToken, map[string]any{"ids": []int64{}},
		http.StatusBadRequest, nil)
	env.expect(t, "DELETE", "/api/items/bulk", env.adminToken, map[string]any{"ids": []int64{0}},
		http.StatusBadRequest, nil)
	env.expect(t, "DELETE", "/api/items/bulk", env.adminToken, map[string]any{"ids": "1,2"},
		http.StatusBadRequest, nil)

	var body map[string]int64
	env.expect(t, "DELETE", "/api/items/bulk", env.adminToken, map[string]any{"ids": []int64{a.ID, b.ID, 999}},
		http.StatusOK, &body)
	if body["deleted_count"] != 2 {
		t.Errorf("expected deleted_count 2, got %v", body)
	}

	var items []model.Item
	env.expect(t, "GET", "/api/items", env.adminToken, nil, http.StatusOK, &items)
	if len(items) != 1 {
		t.Errorf("expected 1 remaining item, got %d", len(items))
	}
}

func TestImportAPI(t *testing.T) {
	env := setupTestServer(t)
	token, ana := env.userToken(t, "Ana", "ana@example.com")

	rows := []map[string]any{
		{"identifier": "P-1", "custodian_name": "Gate 1"},
		{"identifier": "P-2", "custodian_id": ana.ID},
	}

	env.expect(t, "POST", "/api/import/padlock", token, rows, http.StatusForbidden, nil)

	var body map[string]int
	env.expect(t, "POST", "/api/import/padlock", env.adminToken, rows, http.StatusCreated, &body)
	if body["imported"] != 2 {
		t.Errorf("expected 2 imported, got %v", body)
	}

	env.expect(t, "POST", "/api/import/padlock", env.adminToken, []map[string]any{
		{"identifier": "P-3"}, {"identifier": "P-1"},
	}, http.StatusConflict, nil)
	env.expect(t, "POST", "/api/import/padlock", env.adminToken, []map[string]any{},
		http.StatusBadRequest, nil)
	env.expect(t, "POST", "/api/import/padlock", env.adminToken, []map[string]any{{"description": "x"}},
		http.StatusBadRequest, nil)

	var items []model.Item
	env.expect(t, "GET", "/api/items?type=padlock", env.adminToken, nil, http.StatusOK, &items)
	if len(items) != 2 {
		t.Fatalf("expected 2 padlocks after failed import, got %d", len(items))
	}

	for _, it := range items {
		if it.Identifier != "P-2" {
			continue
		}
		var movements []model.Movement
		env.expect(t, "GET", fmt.Sprintf("/api/items/%d/movements", it.ID), env.adminToken, nil,
			http.StatusOK, &movements)
		if len(movements) != 1 || movements[0].Kind != "DELIVERY" {
			t.Errorf("expected a DELIVERY for imported P-2, got %+v", movements)
		}
	}
}

func TestItemImageAPI(t *testing.T) {
	env := setupTestServer(t)
	item := env.createItem(t, env.adminToken, map[string]any{"type": "equipment", "identifier": "CAM-1"})
	path := fmt.Sprintf("/api/items/%d/image", item.ID)

	env.expect(t, "GET", path, env.adminToken, nil, http.StatusNotFound, nil)

	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	var pngData bytes.Buffer
	png.Encode(&pngData, img)

	upload := func(data []byte) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, _ := mw.CreateFormFile("image", "photo.png")
		fw.Write(data)
		mw.Close()

		req, _ := http.NewRequest("PUT", env.server.URL+path, &buf)
		req.Header.Set("Authorization", "Bearer "+env.adminToken)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("uploading image: %v", err)
		}
		return resp
	}

	resp := upload([]byte("definitely not an image"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for non-image upload, got %d", resp.StatusCode)
	}

	resp = upload(pngData.Bytes())
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for PNG upload, got %d", resp.StatusCode)
	}

	resp = env.do(t, "GET", path, env.adminToken, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("expected decodable image: %v", err)
	}
}
