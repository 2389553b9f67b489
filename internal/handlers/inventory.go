package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	applog "ricereport/internal/log"
	"ricereport/internal/stock"
	"ricereport/models"
)

type inventoryItemRequest struct {
	Ingredient   string  `json:"ingredient"`
	OnHandG      float64 `json:"on_hand_g"`
	ParG         float64 `json:"par_g"`
	LeadTimeDays int     `json:"lead_time_days"`
	Supplier     string  `json:"supplier"`
	PackSizeG    float64 `json:"pack_size_g"`
	CostPerPack  float64 `json:"cost_per_pack"`
}

func (req inventoryItemRequest) validate() string {
	if strings.TrimSpace(req.Ingredient) == "" {
		return "ingredient name is required"
	}
	if req.OnHandG < 0 || req.ParG < 0 || req.PackSizeG < 0 || req.CostPerPack < 0 {
		return "stock figures must not be negative"
	}
	if req.LeadTimeDays < 0 {
		return "lead time must not be negative"
	}
	return ""
}

type stockLevelRequest struct {
	OnHandG float64 `json:"on_hand_g"`
}

// InventoryResource handles REST-style interactions for inventory records.
func InventoryResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "inventory request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/inventory")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listInventory(w, r)
		case http.MethodPost:
			createInventoryItem(w, r)
		case http.MethodDelete:
			clearInventory(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if path == "sync-from-recipes" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		syncRecipeIngredients(w, r)
		return
	}

	segments := strings.Split(path, "/")
	idValue, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid inventory identifier", "identifier", segments[0], "error", err)
		http.NotFound(w, r)
		return
	}
	itemID := uint(idValue)

	if len(segments) == 2 && segments[1] == "stock" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		updateStockLevel(w, r, itemID)
		return
	}

	if len(segments) > 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showInventoryItem(w, r, itemID)
	case http.MethodPut:
		updateInventoryItem(w, r, itemID)
	case http.MethodDelete:
		deleteInventoryItem(w, r, itemID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var items []models.InventoryItem
	if err := database.WithContext(ctx).Order("ingredient asc").Find(&items).Error; err != nil {
		applog.Error(ctx, "failed to list inventory", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func showInventoryItem(w http.ResponseWriter, r *http.Request, itemID uint) {
	ctx := r.Context()
	var item models.InventoryItem
	if err := database.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load inventory item", "error", err, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func ingredientNameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	query := database.WithContext(ctx).Model(&models.InventoryItem{}).Where("lower(ingredient) = ?", strings.ToLower(name))
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func createInventoryItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload inventoryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid inventory payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := payload.validate(); msg != "" {
		notify(r, "error", "Cannot add inventory item", msg)
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	name := strings.TrimSpace(payload.Ingredient)
	taken, err := ingredientNameTaken(ctx, name, 0)
	if err != nil {
		applog.Error(ctx, "failed to check ingredient uniqueness", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to save inventory item")
		return
	}
	if taken {
		notify(r, "error", "Cannot add inventory item", "An item for "+name+" already exists")
		writeJSONError(w, http.StatusBadRequest, "ingredient already tracked")
		return
	}

	item := models.InventoryItem{
		Ingredient:   name,
		ParG:         payload.ParG,
		LeadTimeDays: payload.LeadTimeDays,
		Supplier:     strings.TrimSpace(payload.Supplier),
		PackSizeG:    payload.PackSizeG,
		CostPerPack:  payload.CostPerPack,
	}
	stock.SetLevel(&item, payload.OnHandG, today())

	if err := database.WithContext(ctx).Create(&item).Error; err != nil {
		applog.Error(ctx, "failed to create inventory item", "error", err, "ingredient", name)
		writeJSONError(w, http.StatusInternalServerError, "unable to save inventory item")
		return
	}

	notify(r, "success", "Inventory item added", "Added "+item.Ingredient+" to inventory")
	writeJSON(w, http.StatusCreated, item)
}

func updateInventoryItem(w http.ResponseWriter, r *http.Request, itemID uint) {
	ctx := r.Context()
	var item models.InventoryItem
	if err := database.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load inventory item for update", "error", err, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory item")
		return
	}

	var payload inventoryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid inventory payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := payload.validate(); msg != "" {
		notify(r, "error", "Cannot update inventory item", msg)
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	name := strings.TrimSpace(payload.Ingredient)
	taken, err := ingredientNameTaken(ctx, name, itemID)
	if err != nil {
		applog.Error(ctx, "failed to check ingredient uniqueness", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to save inventory item")
		return
	}
	if taken {
		notify(r, "error", "Cannot update inventory item", "An item for "+name+" already exists")
		writeJSONError(w, http.StatusBadRequest, "ingredient already tracked")
		return
	}

	item.Ingredient = name
	item.ParG = payload.ParG
	item.LeadTimeDays = payload.LeadTimeDays
	item.Supplier = strings.TrimSpace(payload.Supplier)
	item.PackSizeG = payload.PackSizeG
	item.CostPerPack = payload.CostPerPack
	stock.SetLevel(&item, payload.OnHandG, today())

	if err := database.WithContext(ctx).Save(&item).Error; err != nil {
		applog.Error(ctx, "failed to update inventory item", "error", err, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to save inventory item")
		return
	}

	notify(r, "success", "Item updated", "Inventory item has been updated successfully")
	writeJSON(w, http.StatusOK, item)
}

func updateStockLevel(w http.ResponseWriter, r *http.Request, itemID uint) {
	ctx := r.Context()
	var payload stockLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.OnHandG < 0 {
		notify(r, "error", "Invalid stock level", "Stock must not be negative")
		writeJSONError(w, http.StatusBadRequest, "stock must not be negative")
		return
	}

	var item models.InventoryItem
	if err := database.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load inventory item for stock update", "error", err, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory item")
		return
	}

	stock.SetLevel(&item, payload.OnHandG, today())
	if err := database.WithContext(ctx).Save(&item).Error; err != nil {
		applog.Error(ctx, "failed to save stock update", "error", err, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to save inventory item")
		return
	}

	notify(r, "success", "Stock updated", "Inventory levels have been updated")
	writeJSON(w, http.StatusOK, item)
}

func deleteInventoryItem(w http.ResponseWriter, r *http.Request, itemID uint) {
	ctx := r.Context()
	var item models.InventoryItem
	if err := database.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load inventory item for delete", "error", err, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory item")
		return
	}

	if err := database.WithContext(ctx).Unscoped().Delete(&item).Error; err != nil {
		applog.Error(ctx, "failed to delete inventory item", "error", err, "id", itemID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete inventory item")
		return
	}

	notify(r, "success", "Item deleted", "Removed "+item.Ingredient+" from inventory")
	w.WriteHeader(http.StatusNoContent)
}

func clearInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var count int64
	if err := database.WithContext(ctx).Model(&models.InventoryItem{}).Count(&count).Error; err != nil {
		applog.Error(ctx, "failed to count inventory", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to clear inventory")
		return
	}
	if count == 0 {
		notify(r, "info", "No items to clear", "There are no inventory items to remove")
		writeJSON(w, http.StatusOK, map[string]int64{"removed": 0})
		return
	}

	if err := database.WithContext(ctx).Unscoped().Where("1 = 1").Delete(&models.InventoryItem{}).Error; err != nil {
		applog.Error(ctx, "failed to clear inventory", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to clear inventory")
		return
	}

	notify(r, "success", "All items cleared", "Removed "+strconv.FormatInt(count, 10)+" inventory items")
	writeJSON(w, http.StatusOK, map[string]int64{"removed": count})
}
