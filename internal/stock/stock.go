// Package stock maintains inventory consistency. The engine operates on
// in-memory snapshots of the inventory collection; callers load the snapshot,
// apply an operation, and persist the result. Recipe ingredients and inventory
// items are linked by ingredient name, matched case-insensitively and exactly
// otherwise.
package stock

import (
	"strings"

	"ricereport/models"
)

// lowStockFraction is the share of par below which an item counts as low.
const lowStockFraction = 0.3

// Defaults applied to inventory items created from recipe ingredients.
const (
	DefaultParG         = 1000.0
	DefaultLeadTimeDays = 7
	DefaultSupplier     = "TBD"
	DefaultPackSizeG    = 1000.0
)

// StatusFor derives the stock status from the on-hand level and par.
func StatusFor(onHandG, parG float64) string {
	switch {
	case onHandG <= 0:
		return models.StatusCritical
	case onHandG < parG*lowStockFraction:
		return models.StatusLow
	default:
		return models.StatusOK
	}
}

// PacksOnHand derives the pack count from the gram level; zero when the pack
// size is not positive.
func PacksOnHand(onHandG, packSizeG float64) float64 {
	if packSizeG <= 0 {
		return 0
	}
	return onHandG / packSizeG
}

// DaysOfStock estimates coverage in days, treating the par level as the stock
// needed to ride out one lead time. Zero when par or lead time is unset.
func DaysOfStock(onHandG, parG float64, leadTimeDays int) float64 {
	if parG <= 0 || leadTimeDays <= 0 {
		return 0
	}
	return float64(leadTimeDays) * onHandG / parG
}

// SetLevel applies a manual stock adjustment and recomputes every derived
// field, stamping the item with the supplied date.
func SetLevel(item *models.InventoryItem, newOnHandG float64, today string) {
	item.OnHandG = newOnHandG
	refresh(item, today)
}

func refresh(item *models.InventoryItem, today string) {
	item.PacksOnHand = PacksOnHand(item.OnHandG, item.PackSizeG)
	item.Status = StatusFor(item.OnHandG, item.ParG)
	item.DaysOfStock = DaysOfStock(item.OnHandG, item.ParG, item.LeadTimeDays)
	item.LastUpdated = today
}

// Deduction reports grams consumed from one inventory item.
type Deduction struct {
	Ingredient string  `json:"ingredient"`
	Grams      float64 `json:"grams"`
}

// Deduct consumes the product's ingredients from the inventory snapshot for
// the given number of bowls. Matched items are mutated in place: the level is
// clamped at zero and the derived fields are refreshed. Ingredients with no
// matching inventory item are skipped. Returns what was actually deducted.
func Deduct(product *models.Product, items []models.InventoryItem, bowlsSold int, today string) []Deduction {
	if product == nil || bowlsSold <= 0 {
		return nil
	}

	byName := make(map[string]int, len(items))
	for i, item := range items {
		byName[strings.ToLower(item.Ingredient)] = i
	}

	var deducted []Deduction
	for _, ing := range product.Ingredients {
		idx, ok := byName[strings.ToLower(ing.Name)]
		if !ok {
			continue
		}
		required := ing.QtyPerBowlG * float64(bowlsSold)
		item := &items[idx]
		newLevel := item.OnHandG - required
		if newLevel < 0 {
			newLevel = 0
		}
		item.OnHandG = newLevel
		refresh(item, today)
		deducted = append(deducted, Deduction{Ingredient: ing.Name, Grams: required})
	}
	return deducted
}

// IngredientCostSummary is one distinct recipe ingredient with its cost per
// gram averaged across every product that uses it.
type IngredientCostSummary struct {
	Name         string
	AvgCostPerG  float64
	ProductCount int
}

// AverageCosts builds the union of distinct ingredient names across all
// products. The average is a cumulative running average in product-processing
// order; the first occurrence fixes the display name.
func AverageCosts(products []models.Product) []IngredientCostSummary {
	index := make(map[string]int)
	var summaries []IngredientCostSummary

	for _, product := range products {
		for _, ing := range product.Ingredients {
			key := strings.ToLower(ing.Name)
			if pos, ok := index[key]; ok {
				s := &summaries[pos]
				s.AvgCostPerG = (s.AvgCostPerG*float64(s.ProductCount) + ing.CostPerG) / float64(s.ProductCount+1)
				s.ProductCount++
				continue
			}
			index[key] = len(summaries)
			summaries = append(summaries, IngredientCostSummary{
				Name:         ing.Name,
				AvgCostPerG:  ing.CostPerG,
				ProductCount: 1,
			})
		}
	}
	return summaries
}

// MissingItems returns defaulted inventory items for every recipe ingredient
// that has no case-insensitive match in the existing collection. Existing
// items are never touched; running the sync twice adds nothing the second
// time.
func MissingItems(products []models.Product, existing []models.InventoryItem, today string) []models.InventoryItem {
	present := make(map[string]struct{}, len(existing))
	for _, item := range existing {
		present[strings.ToLower(item.Ingredient)] = struct{}{}
	}

	var created []models.InventoryItem
	for _, summary := range AverageCosts(products) {
		if _, ok := present[strings.ToLower(summary.Name)]; ok {
			continue
		}
		created = append(created, models.InventoryItem{
			Ingredient:   summary.Name,
			OnHandG:      0,
			ParG:         DefaultParG,
			LeadTimeDays: DefaultLeadTimeDays,
			Supplier:     DefaultSupplier,
			PackSizeG:    DefaultPackSizeG,
			PacksOnHand:  0,
			CostPerPack:  summary.AvgCostPerG * DefaultPackSizeG,
			LastUpdated:  today,
			Status:       models.StatusCritical,
			DaysOfStock:  0,
		})
	}
	return created
}
