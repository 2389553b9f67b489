package csvio

import (
	"math"
	"strings"
	"testing"

	"ricereport/models"
)

const today = "2026-08-29"

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSalesRoundTrip(t *testing.T) {
	t.Parallel()

	entries := []models.SalesEntry{
		{
			Date:      "2026-08-28",
			Location:  "SM Mall",
			Variant:   "Classic, Extra Egg",
			BowlsSold: 12,
			UnitPrice: 95,
			PromoFlag: true,
			Notes:     `promo "buy 10"`,
			Revenue:   1140,
		},
	}
	entries[0].ID = 7

	out, err := EncodeSalesEntries(entries)
	if err != nil {
		t.Fatalf("EncodeSalesEntries returned error: %v", err)
	}
	records, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	decoded, err := DecodeSalesEntries(records)
	if err != nil {
		t.Fatalf("DecodeSalesEntries returned error: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(decoded))
	}
	got := decoded[0]
	if got.ID != 7 {
		t.Fatalf("ID = %d, want 7", got.ID)
	}
	if got.Variant != "Classic, Extra Egg" || got.Notes != `promo "buy 10"` {
		t.Fatalf("awkward strings mangled: %+v", got)
	}
	if got.BowlsSold != 12 || !got.PromoFlag {
		t.Fatalf("fields mangled: %+v", got)
	}
	if !almostEqual(got.Revenue, 1140) {
		t.Fatalf("Revenue = %v, want 1140", got.Revenue)
	}
}

func TestDecodeSalesEntriesValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		record Record
	}{
		{"missing date", Record{"variant": "Classic", "bowlsSold": 3.0}},
		{"missing variant", Record{"date": "2026-01-01", "bowlsSold": 3.0}},
		{"negative bowls", Record{"date": "2026-01-01", "variant": "Classic", "bowlsSold": -1.0}},
		{"negative price", Record{"date": "2026-01-01", "variant": "Classic", "unitPrice": -5.0}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := DecodeSalesEntries([]Record{tt.record}); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDecodeSalesEntriesRecomputesRevenue(t *testing.T) {
	t.Parallel()

	records := []Record{{
		"date":      "2026-08-28",
		"variant":   "Classic",
		"bowlsSold": 10.0,
		"unitPrice": 95.0,
		"revenue":   1.0, // stale value in the file
	}}
	decoded, err := DecodeSalesEntries(records)
	if err != nil {
		t.Fatalf("DecodeSalesEntries returned error: %v", err)
	}
	if !almostEqual(decoded[0].Revenue, 950) {
		t.Fatalf("Revenue = %v, want recomputed 950", decoded[0].Revenue)
	}
}

func TestInventoryRoundTripRecomputesDerived(t *testing.T) {
	t.Parallel()

	items := []models.InventoryItem{
		{
			Ingredient:   "Jasmine Rice",
			OnHandG:      500,
			ParG:         2000,
			LeadTimeDays: 7,
			Supplier:     "ABC Rice Supplier",
			PackSizeG:    1000,
			PacksOnHand:  99, // stale on purpose
			CostPerPack:  850,
			LastUpdated:  "2026-08-01",
			Status:       "ok", // stale on purpose
		},
	}

	out, err := EncodeInventoryItems(items)
	if err != nil {
		t.Fatalf("EncodeInventoryItems returned error: %v", err)
	}
	records, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	decoded, err := DecodeInventoryItems(records, today)
	if err != nil {
		t.Fatalf("DecodeInventoryItems returned error: %v", err)
	}
	got := decoded[0]
	if !almostEqual(got.PacksOnHand, 0.5) {
		t.Fatalf("PacksOnHand = %v, want recomputed 0.5", got.PacksOnHand)
	}
	if got.Status != models.StatusLow {
		t.Fatalf("Status = %q, want recomputed low", got.Status)
	}
	if !almostEqual(got.DaysOfStock, 1.75) {
		t.Fatalf("DaysOfStock = %v, want 1.75", got.DaysOfStock)
	}
	if got.LastUpdated != "2026-08-01" {
		t.Fatalf("LastUpdated = %q, should keep the file value", got.LastUpdated)
	}
}

func TestDecodeInventoryItemsValidation(t *testing.T) {
	t.Parallel()

	if _, err := DecodeInventoryItems([]Record{{"onHandG": 5.0}}, today); err == nil {
		t.Fatal("expected error for missing ingredient name")
	}
	records := []Record{
		{"ingredient": "Rice", "onHandG": 5.0},
		{"ingredient": "RICE", "onHandG": 5.0},
	}
	if _, err := DecodeInventoryItems(records, today); err == nil {
		t.Fatal("expected error for case-insensitive duplicate")
	}
	if _, err := DecodeInventoryItems([]Record{{"ingredient": "Rice", "onHandG": -5.0}}, today); err == nil {
		t.Fatal("expected error for negative stock")
	}
}

func TestProductsRoundTrip(t *testing.T) {
	t.Parallel()

	products := []models.Product{
		{
			Name:                "Classic Fried Rice",
			TargetProfitPercent: 30,
			VATPercent:          12,
			Ingredients: []models.Ingredient{
				{Name: "Jasmine Rice", QtyPerBowlG: 150, YieldFactor: 2.5, CostPerG: 0.08},
				{Name: "Eggs", QtyPerBowlG: 50, YieldFactor: 1, CostPerG: 0.12},
			},
		},
		{
			Name:                "Seafood Fried Rice",
			TargetProfitPercent: 35,
			VATPercent:          12,
			IsManualPrice:       true,
			ManualPrice:         180,
			Ingredients: []models.Ingredient{
				{Name: "Shrimp", QtyPerBowlG: 80, YieldFactor: 1, CostPerG: 0.45},
			},
		},
	}

	out, err := EncodeProducts(products)
	if err != nil {
		t.Fatalf("EncodeProducts returned error: %v", err)
	}
	records, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	decoded, err := DecodeProducts(records)
	if err != nil {
		t.Fatalf("DecodeProducts returned error: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 products, got %d", len(decoded))
	}

	classic := decoded[0]
	if len(classic.Ingredients) != 2 {
		t.Fatalf("expected 2 ingredients, got %d", len(classic.Ingredients))
	}
	if !almostEqual(classic.TotalCost, 10.8) {
		t.Fatalf("TotalCost = %v, want repriced 10.8", classic.TotalCost)
	}
	if !almostEqual(classic.SellingPriceBeforeVAT, 14.04) {
		t.Fatalf("SellingPriceBeforeVAT = %v, want 14.04", classic.SellingPriceBeforeVAT)
	}

	seafood := decoded[1]
	if !seafood.IsManualPrice || !almostEqual(seafood.SellingPriceAfterVAT, 180) {
		t.Fatalf("manual pricing lost in round trip: %+v", seafood)
	}
	if len(seafood.Ingredients) != 1 {
		t.Fatalf("padding columns leaked into ingredients: %d", len(seafood.Ingredients))
	}
}

func TestDecodeProductsValidation(t *testing.T) {
	t.Parallel()

	if _, err := DecodeProducts([]Record{{"targetProfitPercent": 30.0}}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := DecodeProducts([]Record{{"name": "Classic"}}); err == nil {
		t.Fatal("expected error for product without ingredients")
	}
	bad := Record{
		"name":                     "Classic",
		"ingredient_1_name":        "Rice",
		"ingredient_1_qtyPerBowlG": 150.0,
		"ingredient_1_yieldFactor": 0.0,
		"ingredient_1_costPerG":    0.08,
	}
	if _, err := DecodeProducts([]Record{bad}); err == nil {
		t.Fatal("expected error for non-positive yield factor")
	}
	dup := Record{
		"name":                     "Classic",
		"ingredient_1_name":        "Rice",
		"ingredient_1_qtyPerBowlG": 150.0,
		"ingredient_1_yieldFactor": 1.0,
		"ingredient_1_costPerG":    0.08,
	}
	dup2 := Record{
		"name":                     "CLASSIC",
		"ingredient_1_name":        "Rice",
		"ingredient_1_qtyPerBowlG": 150.0,
		"ingredient_1_yieldFactor": 1.0,
		"ingredient_1_costPerG":    0.08,
	}
	if _, err := DecodeProducts([]Record{dup, dup2}); err == nil {
		t.Fatal("expected error for duplicate product name")
	}
}
