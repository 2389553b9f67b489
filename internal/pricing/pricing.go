// Package pricing computes product costing from a bill of ingredients and the
// pricing parameters. All functions are pure; degenerate inputs produce
// zero-safe results rather than errors.
package pricing

import (
	"ricereport/models"
)

// Quote is the derived pricing block for a product.
type Quote struct {
	TotalCost             float64
	SellingPriceBeforeVAT float64
	SellingPriceAfterVAT  float64
	ProfitAmount          float64
	Margin                float64
	FoodCostPercent       float64
}

// IngredientCost returns the cost of one bowl's worth of an ingredient. The
// yield factor scales the raw quantity up to what must actually be purchased
// to survive prep loss; a non-positive yield yields zero cost.
func IngredientCost(qtyPerBowlG, yieldFactor, costPerG float64) float64 {
	if yieldFactor <= 0 {
		return 0
	}
	return (qtyPerBowlG / yieldFactor) * costPerG
}

// Compute derives the full pricing block. In manual mode the after-VAT price
// is fixed and everything else is back-calculated from it; otherwise the
// before-VAT price is marked up from cost by the target profit percentage.
func Compute(ingredients []models.Ingredient, targetProfitPercent, vatPercent float64, isManualPrice bool, manualPrice float64) Quote {
	var totalCost float64
	for _, ing := range ingredients {
		totalCost += ing.TotalCost
	}

	var q Quote
	q.TotalCost = totalCost

	if isManualPrice && manualPrice > 0 {
		q.SellingPriceAfterVAT = manualPrice
		q.SellingPriceBeforeVAT = q.SellingPriceAfterVAT / (1 + vatPercent/100)
		q.ProfitAmount = q.SellingPriceBeforeVAT - totalCost
		if q.SellingPriceAfterVAT > 0 {
			q.Margin = q.ProfitAmount / q.SellingPriceAfterVAT * 100
			q.FoodCostPercent = totalCost / q.SellingPriceAfterVAT * 100
		}
		return q
	}

	q.SellingPriceBeforeVAT = totalCost * (1 + targetProfitPercent/100)
	vatAmount := q.SellingPriceBeforeVAT * vatPercent / 100
	q.SellingPriceAfterVAT = q.SellingPriceBeforeVAT + vatAmount
	q.ProfitAmount = q.SellingPriceBeforeVAT - totalCost
	if totalCost > 0 {
		q.Margin = q.ProfitAmount / q.SellingPriceAfterVAT * 100
	}
	if q.SellingPriceAfterVAT > 0 {
		q.FoodCostPercent = totalCost / q.SellingPriceAfterVAT * 100
	}
	return q
}

// Apply writes a quote onto the product's derived fields.
func Apply(product *models.Product, q Quote) {
	product.TotalCost = q.TotalCost
	product.SellingPriceBeforeVAT = q.SellingPriceBeforeVAT
	product.SellingPriceAfterVAT = q.SellingPriceAfterVAT
	product.ProfitAmount = q.ProfitAmount
	product.Margin = q.Margin
	product.FoodCostPercent = q.FoodCostPercent
}

// Reprice recomputes every ingredient line cost and the product pricing block
// in place. Call it after any edit to the ingredient list or the pricing
// parameters.
func Reprice(product *models.Product) {
	for i := range product.Ingredients {
		ing := &product.Ingredients[i]
		ing.TotalCost = IngredientCost(ing.QtyPerBowlG, ing.YieldFactor, ing.CostPerG)
	}
	Apply(product, Compute(product.Ingredients, product.TargetProfitPercent, product.VATPercent, product.IsManualPrice, product.ManualPrice))
}
