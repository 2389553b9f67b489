package handlers

import (
	"net/http"

	applog "ricereport/internal/log"
	"ricereport/models"
)

type variantTotal struct {
	Variant string  `json:"variant"`
	Bowls   int     `json:"bowls"`
	Revenue float64 `json:"revenue"`
}

type dashboardSummary struct {
	Date            string         `json:"date"`
	BowlsToday      int            `json:"bowls_today"`
	RevenueToday    float64        `json:"revenue_today"`
	FoodCostPercent float64        `json:"food_cost_percent"`
	ItemCount       int            `json:"item_count"`
	CriticalCount   int            `json:"critical_count"`
	LowCount        int            `json:"low_count"`
	AtRiskCount     int            `json:"at_risk_count"`
	InventoryValue  float64        `json:"inventory_value"`
	VariantTotals   []variantTotal `json:"variant_totals"`
}

// Dashboard reports today's sales totals alongside the current state of the
// inventory. Food cost percent is weighted by revenue across today's
// variants; an item is at risk when it would run out before a resupply
// could arrive.
func Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	date := today()

	var entries []models.SalesEntry
	if err := database.WithContext(ctx).Where("date = ?", date).Find(&entries).Error; err != nil {
		applog.Error(ctx, "failed to load sales entries", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	var items []models.InventoryItem
	if err := database.WithContext(ctx).Find(&items).Error; err != nil {
		applog.Error(ctx, "failed to load inventory items", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	var products []models.Product
	if err := database.WithContext(ctx).Preload("Ingredients").Find(&products).Error; err != nil {
		applog.Error(ctx, "failed to load products", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}

	costByName := make(map[string]float64, len(products))
	for _, p := range products {
		costByName[p.Name] = p.TotalCost
	}

	summary := dashboardSummary{Date: date, VariantTotals: []variantTotal{}}

	byVariant := make(map[string]int)
	var weightedCost float64
	for _, entry := range entries {
		summary.BowlsToday += entry.BowlsSold
		summary.RevenueToday += entry.Revenue
		weightedCost += costByName[entry.Variant] * float64(entry.BowlsSold)
		if idx, ok := byVariant[entry.Variant]; ok {
			summary.VariantTotals[idx].Bowls += entry.BowlsSold
			summary.VariantTotals[idx].Revenue += entry.Revenue
			continue
		}
		byVariant[entry.Variant] = len(summary.VariantTotals)
		summary.VariantTotals = append(summary.VariantTotals, variantTotal{
			Variant: entry.Variant,
			Bowls:   entry.BowlsSold,
			Revenue: entry.Revenue,
		})
	}
	if summary.RevenueToday > 0 {
		summary.FoodCostPercent = weightedCost / summary.RevenueToday * 100
	}

	summary.ItemCount = len(items)
	for _, item := range items {
		switch item.Status {
		case models.StatusCritical:
			summary.CriticalCount++
		case models.StatusLow:
			summary.LowCount++
		}
		if item.DaysOfStock < float64(item.LeadTimeDays) {
			summary.AtRiskCount++
		}
		summary.InventoryValue += item.PacksOnHand * item.CostPerPack
	}

	writeJSON(w, http.StatusOK, summary)
}
