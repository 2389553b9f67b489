package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	applog "ricereport/internal/log"
	"ricereport/internal/pricing"
	"ricereport/internal/stock"
	"ricereport/models"
)

type ingredientRequest struct {
	Name        string  `json:"name"`
	QtyPerBowlG float64 `json:"qty_per_bowl_g"`
	YieldFactor float64 `json:"yield_factor"`
	CostPerG    float64 `json:"cost_per_g"`
}

type productRequest struct {
	Name                string              `json:"name"`
	TargetProfitPercent float64             `json:"target_profit_percent"`
	VATPercent          float64             `json:"vat_percent"`
	IsManualPrice       bool                `json:"is_manual_price"`
	ManualPrice         float64             `json:"manual_price"`
	Ingredients         []ingredientRequest `json:"ingredients"`
}

func (req productRequest) validate() string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if len(req.Ingredients) == 0 {
		return "at least one ingredient is required"
	}
	for _, ing := range req.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return "every ingredient needs a name"
		}
		if ing.YieldFactor <= 0 {
			return "yield factor must be positive"
		}
		if ing.QtyPerBowlG < 0 || ing.CostPerG < 0 {
			return "quantities and costs must not be negative"
		}
	}
	if req.IsManualPrice && req.ManualPrice <= 0 {
		return "manual price must be positive when manual pricing is enabled"
	}
	return ""
}

type quantityRequest struct {
	QtyPerBowlG float64 `json:"qty_per_bowl_g"`
}

// ProductResource handles REST-style interactions for rice product records.
func ProductResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "product request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/products")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listProducts(w, r)
		case http.MethodPost:
			createProduct(w, r)
		case http.MethodDelete:
			clearProducts(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if path == "sync-inventory" {
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
		applog.Debug(r.Context(), "invalid product identifier", "identifier", segments[0], "error", err)
		http.NotFound(w, r)
		return
	}
	productID := uint(idValue)

	if len(segments) == 4 && segments[1] == "ingredients" && segments[3] == "quantity" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		ingredientID, err := strconv.ParseUint(segments[2], 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		updateIngredientQuantity(w, r, productID, uint(ingredientID))
		return
	}

	if len(segments) > 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showProduct(w, r, productID)
	case http.MethodPut:
		updateProduct(w, r, productID)
	case http.MethodDelete:
		deleteProduct(w, r, productID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var products []models.Product
	if err := database.WithContext(ctx).Preload("Ingredients").Order("name asc").Find(&products).Error; err != nil {
		applog.Error(ctx, "failed to list products", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func showProduct(w http.ResponseWriter, r *http.Request, productID uint) {
	ctx := r.Context()
	var product models.Product
	if err := database.WithContext(ctx).Preload("Ingredients").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load product", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func buildProduct(req productRequest) models.Product {
	product := models.Product{
		Name:                strings.TrimSpace(req.Name),
		TargetProfitPercent: req.TargetProfitPercent,
		VATPercent:          req.VATPercent,
		IsManualPrice:       req.IsManualPrice,
		ManualPrice:         req.ManualPrice,
	}
	for _, ing := range req.Ingredients {
		product.Ingredients = append(product.Ingredients, models.Ingredient{
			Name:        strings.TrimSpace(ing.Name),
			QtyPerBowlG: ing.QtyPerBowlG,
			YieldFactor: ing.YieldFactor,
			CostPerG:    ing.CostPerG,
		})
	}
	pricing.Reprice(&product)
	return product
}

func createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload productRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid product payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := payload.validate(); msg != "" {
		notify(r, "error", "Cannot create product", msg)
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	product := buildProduct(payload)
	if err := database.WithContext(ctx).Create(&product).Error; err != nil {
		applog.Error(ctx, "failed to create product", "error", err, "name", product.Name)
		writeJSONError(w, http.StatusBadRequest, "unable to create product; is the name unique?")
		return
	}

	notify(r, "success", "Product created", product.Name+" added with "+strconv.Itoa(len(product.Ingredients))+" ingredients")
	writeJSON(w, http.StatusCreated, product)
}

func updateProduct(w http.ResponseWriter, r *http.Request, productID uint) {
	ctx := r.Context()
	var existing models.Product
	if err := database.WithContext(ctx).Preload("Ingredients").First(&existing, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load product for update", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load product")
		return
	}

	var payload productRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid product payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := payload.validate(); msg != "" {
		notify(r, "error", "Cannot update product", msg)
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	replacement := buildProduct(payload)
	replacement.ID = existing.ID
	for i := range replacement.Ingredients {
		replacement.Ingredients[i].ProductID = existing.ID
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("product_id = ?", existing.ID).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		updates := map[string]any{
			"name":                     replacement.Name,
			"target_profit_percent":    replacement.TargetProfitPercent,
			"vat_percent":              replacement.VATPercent,
			"is_manual_price":          replacement.IsManualPrice,
			"manual_price":             replacement.ManualPrice,
			"total_cost":               replacement.TotalCost,
			"selling_price_before_vat": replacement.SellingPriceBeforeVAT,
			"selling_price_after_vat":  replacement.SellingPriceAfterVAT,
			"profit_amount":            replacement.ProfitAmount,
			"margin":                   replacement.Margin,
			"food_cost_percent":        replacement.FoodCostPercent,
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(&replacement.Ingredients).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to update product", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update product")
		return
	}

	var updated models.Product
	if err := database.WithContext(ctx).Preload("Ingredients").First(&updated, productID).Error; err != nil {
		applog.Error(ctx, "failed to reload product after update", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load updated product")
		return
	}

	notify(r, "success", "Product updated", updated.Name+" has been updated")
	writeJSON(w, http.StatusOK, updated)
}

func updateIngredientQuantity(w http.ResponseWriter, r *http.Request, productID, ingredientID uint) {
	ctx := r.Context()
	var payload quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.QtyPerBowlG <= 0 {
		notify(r, "error", "Invalid quantity", "Quantity must be a positive number")
		writeJSONError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	var product models.Product
	if err := database.WithContext(ctx).Preload("Ingredients").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load product for quantity edit", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load product")
		return
	}

	found := false
	for i := range product.Ingredients {
		if product.Ingredients[i].ID == ingredientID {
			product.Ingredients[i].QtyPerBowlG = payload.QtyPerBowlG
			found = true
			break
		}
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	pricing.Reprice(&product)
	if err := database.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(&product).Error; err != nil {
		applog.Error(ctx, "failed to save quantity edit", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to save product")
		return
	}

	notify(r, "success", "Quantity updated", "Ingredient quantity has been updated and pricing recalculated")
	writeJSON(w, http.StatusOK, product)
}

func deleteProduct(w http.ResponseWriter, r *http.Request, productID uint) {
	ctx := r.Context()
	var product models.Product
	if err := database.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load product for delete", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load product")
		return
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("product_id = ?", productID).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&product).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to delete product", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete product")
		return
	}

	notify(r, "success", "Product deleted", "Removed "+product.Name)
	w.WriteHeader(http.StatusNoContent)
}

func clearProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var count int64
	if err := database.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		applog.Error(ctx, "failed to count products", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to clear products")
		return
	}
	if count == 0 {
		notify(r, "info", "No products to clear", "There are no products to remove")
		writeJSON(w, http.StatusOK, map[string]int64{"removed": 0})
		return
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("1 = 1").Delete(&models.Product{}).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to clear products", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to clear products")
		return
	}

	notify(r, "success", "All products cleared", "Removed "+strconv.FormatInt(count, 10)+" products")
	writeJSON(w, http.StatusOK, map[string]int64{"removed": count})
}

// syncRecipeIngredients adds a defaulted inventory item for every recipe
// ingredient not yet present in the inventory collection. Existing items are
// never modified.
func syncRecipeIngredients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var products []models.Product
	if err := database.WithContext(ctx).Preload("Ingredients").Order("id asc").Find(&products).Error; err != nil {
		applog.Error(ctx, "failed to load products for sync", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load products")
		return
	}
	if len(products) == 0 {
		notify(r, "error", "No recipe data found", "Create some rice products first")
		writeJSONError(w, http.StatusBadRequest, "no products to sync from")
		return
	}

	var existing []models.InventoryItem
	if err := database.WithContext(ctx).Find(&existing).Error; err != nil {
		applog.Error(ctx, "failed to load inventory for sync", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory")
		return
	}

	created := stock.MissingItems(products, existing, today())
	if len(created) > 0 {
		if err := database.WithContext(ctx).Create(&created).Error; err != nil {
			applog.Error(ctx, "failed to create synced inventory items", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to save inventory items")
			return
		}
	}

	applog.Info(ctx, "synced recipe ingredients to inventory", "added", len(created))
	notify(r, "success", "Ingredients synced to inventory",
		"Added "+strconv.Itoa(len(created))+" new ingredients to inventory. Existing ingredients were not modified.")
	writeJSON(w, http.StatusOK, map[string]any{"added": len(created), "items": created})
}
