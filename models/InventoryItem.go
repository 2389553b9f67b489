package models

import (
	"gorm.io/gorm"
)

// Inventory status values. Critical means depleted (or effectively so), low
// means the level has fallen under a fraction of par, ok is everything else.
const (
	StatusOK       = "ok"
	StatusLow      = "low"
	StatusCritical = "critical"
)

// InventoryItem tracks on-hand stock for one ingredient. Ingredient names are
// the linking key to recipe ingredients and are matched case-insensitively;
// the collection keeps at most one item per name. PacksOnHand, Status and
// DaysOfStock are derived and recomputed whenever the stock level changes.
type InventoryItem struct {
	gorm.Model
	Ingredient   string  `gorm:"uniqueIndex;not null" json:"ingredient"`
	OnHandG      float64 `json:"on_hand_g"`
	ParG         float64 `json:"par_g"`
	LeadTimeDays int     `json:"lead_time_days"`
	Supplier     string  `json:"supplier"`
	PackSizeG    float64 `json:"pack_size_g"`
	PacksOnHand  float64 `json:"packs_on_hand"`
	CostPerPack  float64 `json:"cost_per_pack"`
	LastUpdated  string  `json:"last_updated"`
	Status       string  `gorm:"not null;default:ok" json:"status"`
	DaysOfStock  float64 `json:"days_of_stock"`
}
