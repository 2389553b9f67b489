package main

import (
	"context"
	"testing"

	"ricereport/internal/db/mock"
	"ricereport/internal/stock"
	"ricereport/models"
)

func TestUpsertItemsMergesByIngredientName(t *testing.T) {
	ctx := context.Background()
	database, err := mock.New(ctx)
	if err != nil {
		t.Fatalf("mock.New returned error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})

	var before int64
	if err := database.Model(&models.InventoryItem{}).Count(&before).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	if before == 0 {
		t.Fatal("expected mock database to seed inventory items")
	}

	incoming := []models.InventoryItem{
		{Ingredient: "JASMINE RICE", ParG: 20000, LeadTimeDays: 5, Supplier: "New Supplier", PackSizeG: 25000, CostPerPack: 900},
		{Ingredient: "Spring Onion", ParG: 500, LeadTimeDays: 2, Supplier: "Local Market", PackSizeG: 250, CostPerPack: 40},
	}
	for i := range incoming {
		stock.SetLevel(&incoming[i], 1000, "2026-08-29")
	}

	created, updated, err := upsertItems(database, incoming)
	if err != nil {
		t.Fatalf("upsertItems returned error: %v", err)
	}
	if created != 1 || updated != 1 {
		t.Fatalf("expected 1 created and 1 updated, got %d and %d", created, updated)
	}

	var after int64
	if err := database.Model(&models.InventoryItem{}).Count(&after).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	if after != before+1 {
		t.Fatalf("expected one new row, got %d -> %d", before, after)
	}

	var rice models.InventoryItem
	if err := database.Where("lower(ingredient) = ?", "jasmine rice").First(&rice).Error; err != nil {
		t.Fatalf("load merged item: %v", err)
	}
	if rice.Supplier != "New Supplier" || rice.ParG != 20000 {
		t.Fatalf("expected existing row updated in place, got %+v", rice)
	}
}

func TestRunRejectsMissingFile(t *testing.T) {
	if err := run("no-such-file.csv"); err == nil {
		t.Fatal("expected error for missing csv file")
	}
}
