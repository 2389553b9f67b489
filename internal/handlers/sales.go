package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	applog "ricereport/internal/log"
	"ricereport/internal/stock"
	"ricereport/models"
)

type salesEntryRequest struct {
	Date      string  `json:"date"`
	Location  string  `json:"location"`
	Variant   string  `json:"variant"`
	BowlsSold int     `json:"bowls_sold"`
	UnitPrice float64 `json:"unit_price"`
	PromoFlag bool    `json:"promo_flag"`
	Notes     string  `json:"notes"`
}

func (req salesEntryRequest) validate() string {
	if strings.TrimSpace(req.Date) == "" {
		return "date is required"
	}
	if strings.TrimSpace(req.Variant) == "" {
		return "variant is required"
	}
	if req.BowlsSold < 0 {
		return "bowls sold must not be negative"
	}
	if req.UnitPrice < 0 {
		return "unit price must not be negative"
	}
	return ""
}

type salesEntryResponse struct {
	models.SalesEntry
	Deducted []stock.Deduction `json:"deducted,omitempty"`
}

// SalesResource handles REST-style interactions for sales log records.
func SalesResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "sales request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/sales")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listSales(w, r)
		case http.MethodPost:
			createSalesEntry(w, r)
		case http.MethodDelete:
			clearSales(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	idValue, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil || len(segments) > 1 {
		applog.Debug(r.Context(), "invalid sales identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}
	entryID := uint(idValue)

	switch r.Method {
	case http.MethodGet:
		showSalesEntry(w, r, entryID)
	case http.MethodPut:
		updateSalesEntry(w, r, entryID)
	case http.MethodDelete:
		deleteSalesEntry(w, r, entryID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var entries []models.SalesEntry
	if err := database.WithContext(ctx).Order("date desc, id desc").Find(&entries).Error; err != nil {
		applog.Error(ctx, "failed to list sales entries", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load sales entries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func showSalesEntry(w http.ResponseWriter, r *http.Request, entryID uint) {
	ctx := r.Context()
	var entry models.SalesEntry
	if err := database.WithContext(ctx).First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load sales entry", "error", err, "id", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load sales entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// createSalesEntry records the sale and consumes the recipe's ingredients
// from inventory. A variant with no matching product, or ingredients with no
// matching inventory item, are skipped without error.
func createSalesEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload salesEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid sales payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := payload.validate(); msg != "" {
		notify(r, "error", "Cannot add sales entry", msg)
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	entry := models.SalesEntry{
		Date:      strings.TrimSpace(payload.Date),
		Location:  strings.TrimSpace(payload.Location),
		Variant:   strings.TrimSpace(payload.Variant),
		BowlsSold: payload.BowlsSold,
		UnitPrice: payload.UnitPrice,
		PromoFlag: payload.PromoFlag,
		Notes:     payload.Notes,
		Revenue:   float64(payload.BowlsSold) * payload.UnitPrice,
	}

	deducted, err := deductForSale(r, entry.Variant, entry.BowlsSold)
	if err != nil {
		applog.Error(ctx, "failed to deduct inventory for sale", "error", err, "variant", entry.Variant)
		writeJSONError(w, http.StatusInternalServerError, "unable to update inventory")
		return
	}

	if err := database.WithContext(ctx).Create(&entry).Error; err != nil {
		applog.Error(ctx, "failed to create sales entry", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to save sales entry")
		return
	}

	notify(r, "success", "Sales entry added",
		fmt.Sprintf("Added %d bowls of %s for %.2f", entry.BowlsSold, entry.Variant, entry.Revenue))
	if len(deducted) > 0 {
		parts := make([]string, 0, len(deducted))
		for _, d := range deducted {
			parts = append(parts, fmt.Sprintf("%s: -%.0fg", d.Ingredient, d.Grams))
		}
		notify(r, "success", "Inventory updated", "Deducted ingredients: "+strings.Join(parts, ", "))
	}

	writeJSON(w, http.StatusCreated, salesEntryResponse{SalesEntry: entry, Deducted: deducted})
}

func deductForSale(r *http.Request, variant string, bowlsSold int) ([]stock.Deduction, error) {
	ctx := r.Context()

	var product models.Product
	err := database.WithContext(ctx).Preload("Ingredients").Where("name = ?", variant).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		applog.Debug(ctx, "no recipe defined for variant, skipping deduction", "variant", variant)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.InventoryItem
	if err := database.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, err
	}

	deducted := stock.Deduct(&product, items, bowlsSold, today())
	if len(deducted) == 0 {
		return nil, nil
	}

	if err := database.WithContext(ctx).Save(&items).Error; err != nil {
		return nil, err
	}
	return deducted, nil
}

func updateSalesEntry(w http.ResponseWriter, r *http.Request, entryID uint) {
	ctx := r.Context()
	var entry models.SalesEntry
	if err := database.WithContext(ctx).First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load sales entry for update", "error", err, "id", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load sales entry")
		return
	}

	var payload salesEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid sales payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := payload.validate(); msg != "" {
		notify(r, "error", "Cannot update sales entry", msg)
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	// edits adjust the record only; inventory is deducted at record time
	entry.Date = strings.TrimSpace(payload.Date)
	entry.Location = strings.TrimSpace(payload.Location)
	entry.Variant = strings.TrimSpace(payload.Variant)
	entry.BowlsSold = payload.BowlsSold
	entry.UnitPrice = payload.UnitPrice
	entry.PromoFlag = payload.PromoFlag
	entry.Notes = payload.Notes
	entry.Revenue = float64(payload.BowlsSold) * payload.UnitPrice

	if err := database.WithContext(ctx).Save(&entry).Error; err != nil {
		applog.Error(ctx, "failed to update sales entry", "error", err, "id", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to save sales entry")
		return
	}

	notify(r, "success", "Sales entry updated", "Entry has been updated successfully")
	writeJSON(w, http.StatusOK, entry)
}

func deleteSalesEntry(w http.ResponseWriter, r *http.Request, entryID uint) {
	ctx := r.Context()
	var entry models.SalesEntry
	if err := database.WithContext(ctx).First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load sales entry for delete", "error", err, "id", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load sales entry")
		return
	}

	if err := database.WithContext(ctx).Unscoped().Delete(&entry).Error; err != nil {
		applog.Error(ctx, "failed to delete sales entry", "error", err, "id", entryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete sales entry")
		return
	}

	notify(r, "success", "Sales entry deleted", "Removed "+entry.Variant+" entry")
	w.WriteHeader(http.StatusNoContent)
}

func clearSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var count int64
	if err := database.WithContext(ctx).Model(&models.SalesEntry{}).Count(&count).Error; err != nil {
		applog.Error(ctx, "failed to count sales entries", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to clear sales entries")
		return
	}
	if count == 0 {
		notify(r, "info", "No data to clear", "There are no sales entries to remove")
		writeJSON(w, http.StatusOK, map[string]int64{"removed": 0})
		return
	}

	if err := database.WithContext(ctx).Unscoped().Where("1 = 1").Delete(&models.SalesEntry{}).Error; err != nil {
		applog.Error(ctx, "failed to clear sales entries", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to clear sales entries")
		return
	}

	notify(r, "success", "All sales entries cleared", "Removed "+strconv.FormatInt(count, 10)+" sales entries")
	writeJSON(w, http.StatusOK, map[string]int64{"removed": count})
}
