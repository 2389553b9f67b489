package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"ricereport/internal/config"
	"ricereport/internal/csvio"
	"ricereport/internal/db"
	"ricereport/models"
)

func main() {
	csvPath := "inventory.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	records, err := csvio.Parse(file)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	items, err := csvio.DecodeInventoryItems(records, today)
	if err != nil {
		return fmt.Errorf("decode records: %w", err)
	}

	created, updated, err := upsertItems(database, items)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d inventory items (%d created, %d updated) from %s\n",
		created+updated, created, updated, csvPath)
	return nil
}

// upsertItems merges decoded rows into the inventory, keyed by ingredient
// name regardless of case.
func upsertItems(database *gorm.DB, items []models.InventoryItem) (created, updated int, err error) {
	for _, item := range items {
		item := item
		err = database.Transaction(func(tx *gorm.DB) error {
			var existing models.InventoryItem
			findErr := tx.Where("lower(ingredient) = ?", strings.ToLower(item.Ingredient)).First(&existing).Error
			if findErr == nil {
				item.ID = existing.ID
				item.CreatedAt = existing.CreatedAt
				if saveErr := tx.Save(&item).Error; saveErr != nil {
					return fmt.Errorf("update inventory item %q: %w", item.Ingredient, saveErr)
				}
				updated++
				return nil
			}
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("find inventory item %q: %w", item.Ingredient, findErr)
			}
			if createErr := tx.Create(&item).Error; createErr != nil {
				return fmt.Errorf("create inventory item %q: %w", item.Ingredient, createErr)
			}
			created++
			return nil
		})
		if err != nil {
			return created, updated, err
		}
	}
	return created, updated, nil
}
