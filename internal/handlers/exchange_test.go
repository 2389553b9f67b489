package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ricereport/models"
)

func multipartCSVRequest(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestExportSalesAsAttachment(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	withFixedClock(t, "2026-08-29")

	entry := models.SalesEntry{Date: "2026-08-29", Location: "SM Mall", Variant: "Classic Fried Rice", BowlsSold: 4, UnitPrice: 95, Revenue: 380}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("failed to seed sales entry: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/export/sales", nil)
	w := httptest.NewRecorder()
	ExportCollection(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "RiceReport_sales_2026-08-29.csv") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Classic Fried Rice") || !strings.Contains(body, "380") {
		t.Fatalf("expected entry in export, got %q", body)
	}
}

func TestExportUnknownCollection(t *testing.T) {
	_, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)

	req := httptest.NewRequest(http.MethodGet, "/api/export/recipes", nil)
	w := httptest.NewRecorder()
	ExportCollection(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestImportInventoryReplacesCollection(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)
	withFixedClock(t, "2026-08-29")

	stale := models.InventoryItem{Ingredient: "Old Stock", OnHandG: 100}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}

	csv := "ingredient,onHandG,parG,leadTimeDays,supplier,packSizeG,costPerPack\n" +
		"Jasmine Rice,5000,10000,7,ABC Rice Supplier,25000,850\n" +
		"Garlic,200,1000,3,Local Market,500,60\n"
	req := sessionRequest(t, sm, multipartCSVRequest(t, "/api/import/inventory", "inventory.csv", csv))
	w := httptest.NewRecorder()
	ImportCollection(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["imported"] != 2 {
		t.Fatalf("expected 2 imported records, got %d", result["imported"])
	}

	var items []models.InventoryItem
	if err := db.Order("ingredient asc").Find(&items).Error; err != nil {
		t.Fatalf("failed to load items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected the stale item replaced, got %d items", len(items))
	}
	if items[0].Ingredient != "Garlic" || items[1].Ingredient != "Jasmine Rice" {
		t.Fatalf("unexpected items after import: %+v", items)
	}
	if items[1].Status != models.StatusOK {
		t.Fatalf("expected derived status recomputed on import, got %q", items[1].Status)
	}
}

func TestImportRejectsNonCSVFilename(t *testing.T) {
	_, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	req := sessionRequest(t, sm, multipartCSVRequest(t, "/api/import/sales", "sales.txt", "date,variant\n2026-08-29,Classic Fried Rice\n"))
	w := httptest.NewRecorder()
	ImportCollection(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestImportInvalidRowsLeaveCollectionUntouched(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)
	withFixedClock(t, "2026-08-29")

	keep := models.InventoryItem{Ingredient: "Jasmine Rice", OnHandG: 5000}
	if err := db.Create(&keep).Error; err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}

	csv := "ingredient,onHandG\nGarlic,-5\n"
	req := sessionRequest(t, sm, multipartCSVRequest(t, "/api/import/inventory", "inventory.csv", csv))
	w := httptest.NewRecorder()
	ImportCollection(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	if err := db.Model(&models.InventoryItem{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count items: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected existing collection untouched, got %d items", count)
	}
}

func TestTemplateCollections(t *testing.T) {
	withFixedClock(t, "2026-08-29")

	for _, collection := range []string{"sales", "inventory", "products"} {
		req := httptest.NewRequest(http.MethodGet, "/api/templates/"+collection, nil)
		w := httptest.NewRecorder()
		TemplateCollection(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200 for %s template, got %d", collection, w.Code)
		}
		if w.Body.Len() == 0 {
			t.Fatalf("expected non-empty %s template", collection)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/templates/suppliers", nil)
	w := httptest.NewRecorder()
	TemplateCollection(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
