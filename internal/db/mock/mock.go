package mock

import (
	"context"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "ricereport/internal/log"
	"ricereport/internal/pricing"
	"ricereport/internal/stock"
	"ricereport/models"
)

// New returns an in-memory sqlite database seeded with a representative
// fried-rice operation: one priced product, its inventory, and a day of sales.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:ricereport-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.Product{},
		&models.Ingredient{},
		&models.InventoryItem{},
		&models.SalesEntry{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	today := time.Now().UTC().Format("2006-01-02")

	classic := models.Product{
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
	pricing.Reprice(&classic)

	seafood := models.Product{
		Name:                "Seafood Fried Rice",
		TargetProfitPercent: 35,
		VATPercent:          12,
		IsManualPrice:       true,
		ManualPrice:         180,
		Ingredients: []models.Ingredient{
			{Name: "Jasmine Rice", QtyPerBowlG: 150, YieldFactor: 2.5, CostPerG: 0.08},
			{Name: "Shrimp", QtyPerBowlG: 80, YieldFactor: 1, CostPerG: 0.45},
			{Name: "Squid", QtyPerBowlG: 60, YieldFactor: 1, CostPerG: 0.35},
		},
	}
	pricing.Reprice(&seafood)

	if err := db.WithContext(ctx).Create(&classic).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Create(&seafood).Error; err != nil {
		return err
	}

	items := []models.InventoryItem{
		{Ingredient: "Jasmine Rice", OnHandG: 5000, ParG: 10000, LeadTimeDays: 7, Supplier: "ABC Rice Supplier", PackSizeG: 25000, CostPerPack: 850},
		{Ingredient: "Vegetable Oil", OnHandG: 2000, ParG: 5000, LeadTimeDays: 3, Supplier: "XYZ Food Supply", PackSizeG: 1000, CostPerPack: 120},
		{Ingredient: "Soy Sauce", OnHandG: 500, ParG: 2000, LeadTimeDays: 5, Supplier: "Premium Condiments", PackSizeG: 500, CostPerPack: 75},
	}
	for i := range items {
		stock.SetLevel(&items[i], items[i].OnHandG, today)
	}
	if err := db.WithContext(ctx).Create(&items).Error; err != nil {
		return err
	}

	sale := models.SalesEntry{
		Date:      today,
		Location:  "SM Mall",
		Variant:   classic.Name,
		BowlsSold: 24,
		UnitPrice: classic.SellingPriceAfterVAT,
		Notes:     "lunch rush",
	}
	sale.Revenue = float64(sale.BowlsSold) * sale.UnitPrice
	if err := db.WithContext(ctx).Create(&sale).Error; err != nil {
		return err
	}

	return nil
}
