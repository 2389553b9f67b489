package models

import (
	"gorm.io/gorm"
)

// SalesEntry records bowls sold at a location on a date. Variant references a
// Product by name; Revenue is always BowlsSold * UnitPrice.
type SalesEntry struct {
	gorm.Model
	Date      string  `gorm:"not null" json:"date"`
	Location  string  `json:"location"`
	Variant   string  `gorm:"not null" json:"variant"`
	BowlsSold int     `json:"bowls_sold"`
	UnitPrice float64 `json:"unit_price"`
	PromoFlag bool    `gorm:"not null;default:false" json:"promo_flag"`
	Notes     string  `json:"notes"`
	Revenue   float64 `json:"revenue"`
}
