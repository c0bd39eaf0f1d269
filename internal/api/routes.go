package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(InstrumentRoutes)

	// Public routes
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/register", handler.Register).Methods("POST")
	r.HandleFunc("/login", handler.Login).Methods("POST")
	r.HandleFunc("/logout", handler.Logout).Methods("POST")

	// External market-data push; no user identity involved
	r.HandleFunc("/api/v1/stocks/price-update", handler.UpdateStockPrice).Methods("POST")

	// Authenticated routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(handler.RequireAuth)
	api.HandleFunc("/stocks", handler.GetAllStocks).Methods("GET")
	api.HandleFunc("/stocks/{symbol}", handler.GetStock).Methods("GET")
	api.HandleFunc("/trades", handler.ExecuteTrade).Methods("POST")
	api.HandleFunc("/trades", handler.ListTrades).Methods("GET")
	api.HandleFunc("/portfolio", handler.GetPortfolio).Methods("GET")

	return r
}
