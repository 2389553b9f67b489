package server

import (
	"context"
	"net/http"

	"ricereport/internal/handlers"
	applog "ricereport/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/api/products", handlers.ProductResource)
	mux.HandleFunc("/api/products/", handlers.ProductResource)
	mux.HandleFunc("/api/inventory", handlers.InventoryResource)
	mux.HandleFunc("/api/inventory/", handlers.InventoryResource)
	mux.HandleFunc("/api/sales", handlers.SalesResource)
	mux.HandleFunc("/api/sales/", handlers.SalesResource)
	mux.HandleFunc("/api/export/", handlers.ExportCollection)
	mux.HandleFunc("/api/import/", handlers.ImportCollection)
	mux.HandleFunc("/api/templates/", handlers.TemplateCollection)
	mux.HandleFunc("/api/dashboard", handlers.Dashboard)
	mux.HandleFunc("/api/notifications", handlers.Notifications)
	applog.Debug(context.Background(), "routes registered")
	return mux
}
