package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/tradefolio/portfolio-service/internal/auth"
	"github.com/tradefolio/portfolio-service/internal/config"
	"github.com/tradefolio/portfolio-service/internal/database"
	"github.com/tradefolio/portfolio-service/internal/ledger"
	"github.com/tradefolio/portfolio-service/internal/metrics"
	"github.com/tradefolio/portfolio-service/internal/models"
)

const defaultTradeLimit = 100

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store    Store
	prices   PriceSource
	producer EventPublisher
	authCfg  config.AuthConfig
}

// NewHandler creates a new Handler. producer may be nil when Kafka is
// not configured.
func NewHandler(store Store, prices PriceSource, producer EventPublisher, authCfg config.AuthConfig) *Handler {
	return &Handler{
		store:    store,
		prices:   prices,
		producer: producer,
		authCfg:  authCfg,
	}
}

// Register handles POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "username, email and password are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.store.CreateUser(user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUserByUsername(req.Username)
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(user, h.authCfg.JWTSecret, h.authCfg.TokenTTL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Logout handles POST /logout. Access tokens are stateless, so logging
// out is a client-side discard of the token; the endpoint just
// acknowledges it.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// GetAllStocks handles GET /api/v1/stocks
func (h *Handler) GetAllStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.store.GetAllStocks()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, stocks)
}

// GetStock handles GET /api/v1/stocks/{symbol}
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]

	stock, err := h.store.GetStockBySymbol(symbol)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, stock)
}

// ExecuteTrade handles POST /api/v1/trades
func (h *Handler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		StockID   int    `json:"stock_id"`
		TradeType string `json:"trade_type"`
		Quantity  int64  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	side := ledger.NormalizeSide(req.TradeType)
	if side == "" {
		metrics.TradesRejected.WithLabelValues("invalid_side").Inc()
		http.Error(w, "trade_type must be buy or sell", http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		metrics.TradesRejected.WithLabelValues("invalid_quantity").Inc()
		http.Error(w, "quantity must be positive", http.StatusBadRequest)
		return
	}

	stock, err := h.store.GetStockByID(req.StockID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	// Resolve the execution price before the position lock is taken;
	// the catalog snapshot covers a price-source outage.
	price, err := h.prices.GetPrice(r.Context(), stock.Symbol)
	if err != nil {
		log.Printf("Warning: price source unavailable for %s, using catalog snapshot: %v", stock.Symbol, err)
		price = stock.CurrentPrice
	}

	trade, position, err := h.store.ExecuteTrade(user.ID, stock.ID, side, req.Quantity, price)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientHoldings) {
			metrics.TradesRejected.WithLabelValues("insufficient_holdings").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, ledger.ErrInvalidTrade) {
			metrics.TradesRejected.WithLabelValues("invalid_trade").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.TradesExecuted.WithLabelValues(side).Inc()

	if h.producer != nil {
		if err := h.producer.PublishTradeExecuted(r.Context(), trade, stock.Symbol); err != nil {
			log.Printf("Warning: failed to publish trade event: %v", err)
		}
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"trade":    trade,
		"position": position,
	})
}

// ListTrades handles GET /api/v1/trades
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	limit := defaultTradeLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	trades, err := h.store.GetTradesByUser(user.ID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []*models.Trade{}
	}

	respondJSON(w, http.StatusOK, trades)
}

// GetPortfolio handles GET /api/v1/portfolio
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	entries, err := h.store.GetPortfolio(user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*models.PortfolioEntry{}
	}

	respondJSON(w, http.StatusOK, entries)
}

// UpdateStockPrice handles POST /api/v1/stocks/price-update, the HTTP
// form of the external price push.
func (h *Handler) UpdateStockPrice(w http.ResponseWriter, r *http.Request) {
	// latest_price arrives as a JSON number or a quoted string; the
	// decimal decoder accepts both.
	var req struct {
		Symbol      string           `json:"symbol"`
		LatestPrice *decimal.Decimal `json:"latest_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" || req.LatestPrice == nil {
		http.Error(w, "symbol and latest_price are required", http.StatusBadRequest)
		return
	}
	if req.LatestPrice.IsNegative() {
		http.Error(w, "latest_price must be a non-negative number", http.StatusBadRequest)
		return
	}

	stock, affected, err := h.store.ApplyPriceUpdate(req.Symbol, *req.LatestPrice)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	metrics.PriceUpdates.Inc()
	h.prices.Invalidate(r.Context(), stock.Symbol)

	if h.producer != nil {
		if err := h.producer.PublishPriceUpdated(r.Context(), stock.Symbol, stock.CurrentPrice); err != nil {
			log.Printf("Warning: failed to publish price event: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stock":             stock,
		"positions_updated": affected,
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.store.Ping(); err != nil {
		health["status"] = "degraded"
		health["postgres"] = "unhealthy: " + err.Error()
	} else {
		health["postgres"] = "healthy"
	}

	respondJSON(w, http.StatusOK, health)
}

// statusFor maps repository errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
