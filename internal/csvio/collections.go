package csvio

import (
	"fmt"
	"strconv"
	"strings"

	"ricereport/internal/pricing"
	"ricereport/internal/stock"
	"ricereport/models"
)

var salesHeaders = []string{"id", "date", "location", "variant", "bowlsSold", "unitPrice", "promoFlag", "notes", "revenue"}

// EncodeSalesEntries renders the sales collection as CSV.
func EncodeSalesEntries(entries []models.SalesEntry) (string, error) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(e.ID), 10),
			e.Date,
			e.Location,
			e.Variant,
			strconv.Itoa(e.BowlsSold),
			formatFloat(e.UnitPrice),
			strconv.FormatBool(e.PromoFlag),
			e.Notes,
			formatFloat(e.Revenue),
		})
	}
	return Marshal(salesHeaders, rows)
}

// DecodeSalesEntries validates parsed records into sales entries. Revenue is
// recomputed rather than trusted from the file; records without a date or
// variant, or with negative quantities, are rejected with their row number.
func DecodeSalesEntries(records []Record) ([]models.SalesEntry, error) {
	entries := make([]models.SalesEntry, 0, len(records))
	for i, record := range records {
		date := strings.TrimSpace(stringField(record, "date"))
		variant := strings.TrimSpace(stringField(record, "variant"))
		if date == "" || variant == "" {
			return nil, fmt.Errorf("row %d: date and variant are required", i+1)
		}
		bowls := int(floatField(record, "bowlsSold"))
		unitPrice := floatField(record, "unitPrice")
		if bowls < 0 || unitPrice < 0 {
			return nil, fmt.Errorf("row %d: bowlsSold and unitPrice must not be negative", i+1)
		}

		entry := models.SalesEntry{
			Date:      date,
			Location:  strings.TrimSpace(stringField(record, "location")),
			Variant:   variant,
			BowlsSold: bowls,
			UnitPrice: unitPrice,
			PromoFlag: boolField(record, "promoFlag"),
			Notes:     stringField(record, "notes"),
			Revenue:   float64(bowls) * unitPrice,
		}
		entry.ID = idField(record)
		entries = append(entries, entry)
	}
	return entries, nil
}

var inventoryHeaders = []string{"id", "ingredient", "onHandG", "parG", "leadTimeDays", "supplier", "packSizeG", "packsOnHand", "costPerPack", "lastUpdated", "status", "daysOfStock"}

// EncodeInventoryItems renders the inventory collection as CSV.
func EncodeInventoryItems(items []models.InventoryItem) (string, error) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Ingredient,
			formatFloat(item.OnHandG),
			formatFloat(item.ParG),
			strconv.Itoa(item.LeadTimeDays),
			item.Supplier,
			formatFloat(item.PackSizeG),
			formatFloat(item.PacksOnHand),
			formatFloat(item.CostPerPack),
			item.LastUpdated,
			item.Status,
			formatFloat(item.DaysOfStock),
		})
	}
	return Marshal(inventoryHeaders, rows)
}

// DecodeInventoryItems validates parsed records into inventory items. The
// derived fields (packsOnHand, status, daysOfStock) are recomputed from the
// stored ones; duplicate ingredient names are rejected case-insensitively.
func DecodeInventoryItems(records []Record, today string) ([]models.InventoryItem, error) {
	items := make([]models.InventoryItem, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, record := range records {
		name := strings.TrimSpace(stringField(record, "ingredient"))
		if name == "" {
			return nil, fmt.Errorf("row %d: ingredient name is required", i+1)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("row %d: duplicate ingredient %q", i+1, name)
		}
		seen[key] = struct{}{}

		onHand := floatField(record, "onHandG")
		parG := floatField(record, "parG")
		if onHand < 0 || parG < 0 {
			return nil, fmt.Errorf("row %d: stock levels must not be negative", i+1)
		}

		item := models.InventoryItem{
			Ingredient:   name,
			OnHandG:      onHand,
			ParG:         parG,
			LeadTimeDays: int(floatField(record, "leadTimeDays")),
			Supplier:     strings.TrimSpace(stringField(record, "supplier")),
			PackSizeG:    floatField(record, "packSizeG"),
			CostPerPack:  floatField(record, "costPerPack"),
			LastUpdated:  strings.TrimSpace(stringField(record, "lastUpdated")),
		}
		if item.LastUpdated == "" {
			item.LastUpdated = today
		}
		item.PacksOnHand = stock.PacksOnHand(item.OnHandG, item.PackSizeG)
		item.Status = stock.StatusFor(item.OnHandG, item.ParG)
		item.DaysOfStock = stock.DaysOfStock(item.OnHandG, item.ParG, item.LeadTimeDays)
		item.ID = idField(record)
		items = append(items, item)
	}
	return items, nil
}

var productBaseHeaders = []string{"id", "name", "targetProfitPercent", "vatPercent", "isManualPrice", "manualPrice"}

// ingredient column family: ingredient_N_name, ingredient_N_qtyPerBowlG,
// ingredient_N_yieldFactor, ingredient_N_costPerG (N starting at 1).
func ingredientHeaders(n int) []string {
	headers := make([]string, 0, n*4)
	for i := 1; i <= n; i++ {
		prefix := fmt.Sprintf("ingredient_%d_", i)
		headers = append(headers,
			prefix+"name",
			prefix+"qtyPerBowlG",
			prefix+"yieldFactor",
			prefix+"costPerG",
		)
	}
	return headers
}

// EncodeProducts renders the product collection as CSV with the ingredient
// list flattened into numbered column families. The widest product decides
// how many families the header carries.
func EncodeProducts(products []models.Product) (string, error) {
	maxIngredients := 0
	for _, p := range products {
		if len(p.Ingredients) > maxIngredients {
			maxIngredients = len(p.Ingredients)
		}
	}

	headers := append(append([]string{}, productBaseHeaders...), ingredientHeaders(maxIngredients)...)
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		row := []string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.Name,
			formatFloat(p.TargetProfitPercent),
			formatFloat(p.VATPercent),
			strconv.FormatBool(p.IsManualPrice),
			formatFloat(p.ManualPrice),
		}
		for i := 0; i < maxIngredients; i++ {
			if i < len(p.Ingredients) {
				ing := p.Ingredients[i]
				row = append(row, ing.Name, formatFloat(ing.QtyPerBowlG), formatFloat(ing.YieldFactor), formatFloat(ing.CostPerG))
			} else {
				row = append(row, "", "", "", "")
			}
		}
		rows = append(rows, row)
	}
	return Marshal(headers, rows)
}

// DecodeProducts validates parsed records into products, reconstructing the
// ingredient list from the numbered column families and recomputing every
// derived field. A product needs a name and at least one named ingredient.
func DecodeProducts(records []Record) ([]models.Product, error) {
	products := make([]models.Product, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, record := range records {
		name := strings.TrimSpace(stringField(record, "name"))
		if name == "" {
			return nil, fmt.Errorf("row %d: product name is required", i+1)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("row %d: duplicate product %q", i+1, name)
		}
		seen[key] = struct{}{}

		product := models.Product{
			Name:                name,
			TargetProfitPercent: floatField(record, "targetProfitPercent"),
			VATPercent:          floatField(record, "vatPercent"),
			IsManualPrice:       boolField(record, "isManualPrice"),
			ManualPrice:         floatField(record, "manualPrice"),
		}

		for n := 1; ; n++ {
			prefix := fmt.Sprintf("ingredient_%d_", n)
			if _, ok := record[prefix+"name"]; !ok {
				break
			}
			ingName := strings.TrimSpace(stringField(record, prefix+"name"))
			if ingName == "" {
				continue
			}
			yield := floatField(record, prefix+"yieldFactor")
			if yield <= 0 {
				return nil, fmt.Errorf("row %d: ingredient %q needs a positive yield factor", i+1, ingName)
			}
			product.Ingredients = append(product.Ingredients, models.Ingredient{
				Name:        ingName,
				QtyPerBowlG: floatField(record, prefix+"qtyPerBowlG"),
				YieldFactor: yield,
				CostPerG:    floatField(record, prefix+"costPerG"),
			})
		}

		if len(product.Ingredients) == 0 {
			return nil, fmt.Errorf("row %d: product %q has no ingredients", i+1, name)
		}

		pricing.Reprice(&product)
		product.ID = idField(record)
		products = append(products, product)
	}
	return products, nil
}
