package stock

import (
	"math"
	"testing"

	"ricereport/models"
)

const today = "2026-08-29"

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		onHandG float64
		parG    float64
		want    string
	}{
		{"depleted", 0, 2000, models.StatusCritical},
		{"negative treated as depleted", -5, 2000, models.StatusCritical},
		{"below low threshold", 500, 2000, models.StatusLow},
		{"at low threshold", 600, 2000, models.StatusOK},
		{"healthy", 1500, 2000, models.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StatusFor(tt.onHandG, tt.parG); got != tt.want {
				t.Fatalf("StatusFor(%v, %v) = %q, want %q", tt.onHandG, tt.parG, got, tt.want)
			}
		})
	}
}

func TestPacksOnHand(t *testing.T) {
	t.Parallel()

	if got := PacksOnHand(2500, 1000); !almostEqual(got, 2.5) {
		t.Fatalf("PacksOnHand = %v, want 2.5", got)
	}
	if got := PacksOnHand(2500, 0); got != 0 {
		t.Fatalf("expected zero packs for zero pack size, got %v", got)
	}
}

func TestDaysOfStock(t *testing.T) {
	t.Parallel()

	if got := DaysOfStock(1000, 1000, 7); !almostEqual(got, 7) {
		t.Fatalf("full par should cover one lead time, got %v", got)
	}
	if got := DaysOfStock(500, 1000, 7); !almostEqual(got, 3.5) {
		t.Fatalf("DaysOfStock = %v, want 3.5", got)
	}
	if got := DaysOfStock(500, 0, 7); got != 0 {
		t.Fatalf("expected zero days for zero par, got %v", got)
	}
	if got := DaysOfStock(500, 1000, 0); got != 0 {
		t.Fatalf("expected zero days for zero lead time, got %v", got)
	}
}

func TestSetLevelRefreshesDerivedFields(t *testing.T) {
	t.Parallel()

	item := models.InventoryItem{
		Ingredient:   "Soy Sauce",
		OnHandG:      1500,
		ParG:         2000,
		LeadTimeDays: 5,
		PackSizeG:    500,
		Status:       models.StatusOK,
	}

	SetLevel(&item, 400, today)

	if item.OnHandG != 400 {
		t.Fatalf("OnHandG = %v, want 400", item.OnHandG)
	}
	if !almostEqual(item.PacksOnHand, 0.8) {
		t.Fatalf("PacksOnHand = %v, want 0.8", item.PacksOnHand)
	}
	if item.Status != models.StatusLow {
		t.Fatalf("Status = %q, want low after manual adjustment", item.Status)
	}
	if !almostEqual(item.DaysOfStock, 1) {
		t.Fatalf("DaysOfStock = %v, want 1", item.DaysOfStock)
	}
	if item.LastUpdated != today {
		t.Fatalf("LastUpdated = %q, want %q", item.LastUpdated, today)
	}
}

func deductFixture() (*models.Product, []models.InventoryItem) {
	product := &models.Product{
		Name: "Classic Fried Rice",
		Ingredients: []models.Ingredient{
			{Name: "Jasmine Rice", QtyPerBowlG: 150},
			{Name: "Eggs", QtyPerBowlG: 50},
			{Name: "Saffron", QtyPerBowlG: 1},
		},
	}
	items := []models.InventoryItem{
		{Ingredient: "jasmine rice", OnHandG: 500, ParG: 2000, LeadTimeDays: 7, PackSizeG: 1000},
		{Ingredient: "Eggs", OnHandG: 5000, ParG: 2000, LeadTimeDays: 3, PackSizeG: 600},
	}
	return product, items
}

func TestDeductClampsAndRefreshes(t *testing.T) {
	t.Parallel()

	product, items := deductFixture()

	deducted := Deduct(product, items, 4, today)

	// saffron has no inventory entry and is skipped
	if len(deducted) != 2 {
		t.Fatalf("expected 2 deductions, got %d: %+v", len(deducted), deducted)
	}
	if deducted[0].Ingredient != "Jasmine Rice" || !almostEqual(deducted[0].Grams, 600) {
		t.Fatalf("unexpected first deduction: %+v", deducted[0])
	}

	rice := items[0]
	if rice.OnHandG != 0 {
		t.Fatalf("rice OnHandG = %v, want 0 (clamped)", rice.OnHandG)
	}
	if rice.Status != models.StatusCritical {
		t.Fatalf("rice Status = %q, want critical", rice.Status)
	}
	if rice.LastUpdated != today {
		t.Fatalf("rice LastUpdated = %q, want %q", rice.LastUpdated, today)
	}

	eggs := items[1]
	if !almostEqual(eggs.OnHandG, 4800) {
		t.Fatalf("eggs OnHandG = %v, want 4800", eggs.OnHandG)
	}
	if eggs.Status != models.StatusOK {
		t.Fatalf("eggs Status = %q, want ok", eggs.Status)
	}
	if !almostEqual(eggs.PacksOnHand, 8) {
		t.Fatalf("eggs PacksOnHand = %v, want 8", eggs.PacksOnHand)
	}
}

func TestDeductNoOpCases(t *testing.T) {
	t.Parallel()

	product, items := deductFixture()

	if got := Deduct(nil, items, 5, today); got != nil {
		t.Fatalf("expected nil deductions for missing product, got %+v", got)
	}
	if got := Deduct(product, items, 0, today); got != nil {
		t.Fatalf("expected nil deductions for zero bowls, got %+v", got)
	}
	if items[0].OnHandG != 500 {
		t.Fatalf("no-op deduction must not mutate the snapshot")
	}
}

func TestDeductNeverGoesNegative(t *testing.T) {
	t.Parallel()

	product, items := deductFixture()
	for _, bowls := range []int{1, 10, 1000} {
		Deduct(product, items, bowls, today)
		for _, item := range items {
			if item.OnHandG < 0 {
				t.Fatalf("OnHandG went negative for %q after %d bowls: %v", item.Ingredient, bowls, item.OnHandG)
			}
		}
	}
}

func TestAverageCostsRunningAverage(t *testing.T) {
	t.Parallel()

	products := []models.Product{
		{Ingredients: []models.Ingredient{{Name: "Jasmine Rice", CostPerG: 0.08}}},
		{Ingredients: []models.Ingredient{{Name: "jasmine rice", CostPerG: 0.10}}},
		{Ingredients: []models.Ingredient{{Name: "Garlic", CostPerG: 0.15}}},
	}

	summaries := AverageCosts(products)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 distinct ingredients, got %d", len(summaries))
	}
	rice := summaries[0]
	if rice.Name != "Jasmine Rice" {
		t.Fatalf("first occurrence should fix the display name, got %q", rice.Name)
	}
	if !almostEqual(rice.AvgCostPerG, 0.09) {
		t.Fatalf("averaged cost = %v, want 0.09", rice.AvgCostPerG)
	}
	if rice.ProductCount != 2 {
		t.Fatalf("expected 2 contributing products, got %d", rice.ProductCount)
	}
}

func TestMissingItemsDefaultsAndIdempotence(t *testing.T) {
	t.Parallel()

	products := []models.Product{
		{Ingredients: []models.Ingredient{
			{Name: "Jasmine Rice", CostPerG: 0.08},
			{Name: "Garlic", CostPerG: 0.15},
		}},
	}
	existing := []models.InventoryItem{{Ingredient: "JASMINE RICE"}}

	created := MissingItems(products, existing, today)
	if len(created) != 1 {
		t.Fatalf("expected 1 new item, got %d", len(created))
	}
	garlic := created[0]
	if garlic.Ingredient != "Garlic" {
		t.Fatalf("unexpected ingredient %q", garlic.Ingredient)
	}
	if garlic.OnHandG != 0 || garlic.ParG != DefaultParG || garlic.LeadTimeDays != DefaultLeadTimeDays {
		t.Fatalf("unexpected defaults: %+v", garlic)
	}
	if garlic.Supplier != DefaultSupplier || garlic.PackSizeG != DefaultPackSizeG {
		t.Fatalf("unexpected defaults: %+v", garlic)
	}
	if !almostEqual(garlic.CostPerPack, 0.15*DefaultPackSizeG) {
		t.Fatalf("CostPerPack = %v, want %v", garlic.CostPerPack, 0.15*DefaultPackSizeG)
	}
	if garlic.Status != models.StatusCritical || garlic.DaysOfStock != 0 {
		t.Fatalf("new items start critical with zero coverage: %+v", garlic)
	}

	// a second pass over the grown collection creates nothing
	again := MissingItems(products, append(existing, created...), today)
	if len(again) != 0 {
		t.Fatalf("sync is additive-only and idempotent, got %d new items", len(again))
	}
}
