package models

import (
	"gorm.io/gorm"
)

// Product is a sellable rice bowl variant built from a bill of ingredients.
// The pricing block (TotalCost through FoodCostPercent) is derived from the
// ingredient list and the pricing parameters; it is recomputed on every edit
// and never edited directly.
type Product struct {
	gorm.Model
	Name        string       `gorm:"uniqueIndex;not null" json:"name"`
	Ingredients []Ingredient `gorm:"foreignKey:ProductID" json:"ingredients"`

	TargetProfitPercent float64 `json:"target_profit_percent"`
	VATPercent          float64 `json:"vat_percent"`
	IsManualPrice       bool    `gorm:"not null;default:false" json:"is_manual_price"`
	ManualPrice         float64 `json:"manual_price"`

	TotalCost             float64 `json:"total_cost"`
	SellingPriceBeforeVAT float64 `json:"selling_price_before_vat"`
	SellingPriceAfterVAT  float64 `json:"selling_price_after_vat"`
	ProfitAmount          float64 `json:"profit_amount"`
	Margin                float64 `json:"margin"`
	FoodCostPercent       float64 `json:"food_cost_percent"`
}

// Ingredient is a single line of a product's bill of materials. TotalCost is
// always (QtyPerBowlG / YieldFactor) * CostPerG.
type Ingredient struct {
	gorm.Model
	ProductID   uint    `gorm:"not null" json:"product_id"`
	Name        string  `gorm:"not null" json:"name"`
	QtyPerBowlG float64 `json:"qty_per_bowl_g"`
	YieldFactor float64 `json:"yield_factor"`
	CostPerG    float64 `json:"cost_per_g"`
	TotalCost   float64 `json:"total_cost"`
}
