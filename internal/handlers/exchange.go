package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"ricereport/internal/csvio"
	applog "ricereport/internal/log"
	"ricereport/internal/pricing"
	"ricereport/internal/stock"
	"ricereport/models"
)

// maxImportSize bounds uploaded CSV files.
const maxImportSize = 8 << 20

func collectionFromPath(r *http.Request, prefix string) string {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	return strings.Trim(path, "/")
}

// ExportCollection serializes one persisted collection as a CSV attachment.
func ExportCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	collection := collectionFromPath(r, "/api/export")

	var (
		content string
		err     error
	)
	switch collection {
	case "sales":
		var entries []models.SalesEntry
		if err = database.WithContext(ctx).Order("id asc").Find(&entries).Error; err == nil {
			content, err = csvio.EncodeSalesEntries(entries)
		}
	case "inventory":
		var items []models.InventoryItem
		if err = database.WithContext(ctx).Order("id asc").Find(&items).Error; err == nil {
			content, err = csvio.EncodeInventoryItems(items)
		}
	case "products":
		var products []models.Product
		if err = database.WithContext(ctx).Preload("Ingredients").Order("id asc").Find(&products).Error; err == nil {
			content, err = csvio.EncodeProducts(products)
		}
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		applog.Error(ctx, "failed to export collection", "error", err, "collection", collection)
		writeJSONError(w, http.StatusInternalServerError, "unable to export "+collection)
		return
	}

	filename := fmt.Sprintf("RiceReport_%s_%s.csv", collection, today())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write([]byte(content)); err != nil {
		applog.Error(ctx, "failed to write csv export", "error", err)
	}
}

// ImportCollection replaces one persisted collection from an uploaded CSV
// file. The replacement is all-or-nothing: a validation failure anywhere in
// the file leaves the existing collection untouched.
func ImportCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	collection := collectionFromPath(r, "/api/import")
	switch collection {
	case "sales", "inventory", "products":
	default:
		http.NotFound(w, r)
		return
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		notify(r, "error", "Import failed", "Could not read the uploaded file")
		writeJSONError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		notify(r, "error", "Import failed", "No file selected")
		writeJSONError(w, http.StatusBadRequest, "no file selected")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		notify(r, "error", "Import failed", "Please select a CSV file")
		writeJSONError(w, http.StatusBadRequest, "file must have a .csv extension")
		return
	}

	records, err := csvio.Parse(file)
	if err != nil {
		applog.Warn(ctx, "failed to parse uploaded csv", "error", err, "collection", collection)
		notify(r, "error", "Import failed", "Error parsing CSV file")
		writeJSONError(w, http.StatusBadRequest, "unable to parse CSV file")
		return
	}

	var count int
	switch collection {
	case "sales":
		count, err = replaceSales(r, records)
	case "inventory":
		count, err = replaceInventory(r, records)
	case "products":
		count, err = replaceProducts(r, records)
	}
	if err != nil {
		var badInput *importError
		if errors.As(err, &badInput) {
			notify(r, "error", "Import failed", badInput.Error())
			writeJSONError(w, http.StatusBadRequest, badInput.Error())
			return
		}
		applog.Error(ctx, "failed to import collection", "error", err, "collection", collection)
		writeJSONError(w, http.StatusInternalServerError, "unable to import "+collection)
		return
	}

	applog.Info(ctx, "imported collection", "collection", collection, "records", count)
	notify(r, "success", "Import successful", fmt.Sprintf("Imported %d %s records", count, collection))
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

// importError marks user-correctable problems with the uploaded file.
type importError struct {
	msg string
}

func (e *importError) Error() string { return e.msg }

func replaceSales(r *http.Request, records []csvio.Record) (int, error) {
	entries, err := csvio.DecodeSalesEntries(records)
	if err != nil {
		return 0, &importError{msg: err.Error()}
	}
	err = database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&models.SalesEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
	return len(entries), err
}

func replaceInventory(r *http.Request, records []csvio.Record) (int, error) {
	items, err := csvio.DecodeInventoryItems(records, today())
	if err != nil {
		return 0, &importError{msg: err.Error()}
	}
	err = database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&models.InventoryItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
	return len(items), err
}

func replaceProducts(r *http.Request, records []csvio.Record) (int, error) {
	products, err := csvio.DecodeProducts(records)
	if err != nil {
		return 0, &importError{msg: err.Error()}
	}
	err = database.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("1 = 1").Delete(&models.Product{}).Error; err != nil {
			return err
		}
		if len(products) == 0 {
			return nil
		}
		return tx.Create(&products).Error
	})
	return len(products), err
}

// TemplateCollection serves a sample CSV in the import format.
func TemplateCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	collection := collectionFromPath(r, "/api/templates")

	var (
		content string
		err     error
	)
	switch collection {
	case "sales":
		content, err = csvio.EncodeSalesEntries(templateSales())
	case "inventory":
		content, err = csvio.EncodeInventoryItems(templateInventory())
	case "products":
		content, err = csvio.EncodeProducts(templateProducts())
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		applog.Error(r.Context(), "failed to render template csv", "error", err, "collection", collection)
		writeJSONError(w, http.StatusInternalServerError, "unable to render template")
		return
	}

	filename := fmt.Sprintf("RiceReport_%s_Template.csv", collection)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write([]byte(content)); err != nil {
		applog.Error(r.Context(), "failed to write template csv", "error", err)
	}
}

func templateSales() []models.SalesEntry {
	entry := models.SalesEntry{
		Date:      today(),
		Location:  "SM Mall",
		Variant:   "Classic Fried Rice",
		BowlsSold: 24,
		UnitPrice: 95,
		Notes:     "lunch rush",
	}
	entry.ID = 1
	entry.Revenue = float64(entry.BowlsSold) * entry.UnitPrice
	return []models.SalesEntry{entry}
}

func templateInventory() []models.InventoryItem {
	items := []models.InventoryItem{
		{Ingredient: "Jasmine Rice", OnHandG: 5000, ParG: 10000, LeadTimeDays: 7, Supplier: "ABC Rice Supplier", PackSizeG: 25000, CostPerPack: 850},
		{Ingredient: "Vegetable Oil", OnHandG: 2000, ParG: 5000, LeadTimeDays: 3, Supplier: "XYZ Food Supply", PackSizeG: 1000, CostPerPack: 120},
		{Ingredient: "Soy Sauce", OnHandG: 500, ParG: 2000, LeadTimeDays: 5, Supplier: "Premium Condiments", PackSizeG: 500, CostPerPack: 75},
	}
	for i := range items {
		items[i].ID = uint(i + 1)
		stock.SetLevel(&items[i], items[i].OnHandG, today())
	}
	return items
}

func templateProducts() []models.Product {
	product := models.Product{
		Name:                "Classic Fried Rice",
		TargetProfitPercent: 30,
		VATPercent:          12,
		Ingredients: []models.Ingredient{
			{Name: "Jasmine Rice", QtyPerBowlG: 150, YieldFactor: 2.5, CostPerG: 0.08},
			{Name: "Eggs", QtyPerBowlG: 50, YieldFactor: 1, CostPerG: 0.12},
			{Name: "Vegetable Oil", QtyPerBowlG: 15, YieldFactor: 1, CostPerG: 0.05},
			{Name: "Soy Sauce", QtyPerBowlG: 10, YieldFactor: 1, CostPerG: 0.03},
			{Name: "Garlic", QtyPerBowlG: 5, YieldFactor: 1, CostPerG: 0.15},
		},
	}
	product.ID = 1
	pricing.Reprice(&product)
	return []models.Product{product}
}
