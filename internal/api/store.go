package api

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tradefolio/portfolio-service/internal/models"
)

// Store defines the database operations the HTTP layer depends on,
// satisfied by *database.DB.
type Store interface {
	CreateUser(u *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id int) (*models.User, error)

	GetAllStocks() ([]*models.Stock, error)
	GetStockBySymbol(symbol string) (*models.Stock, error)
	GetStockByID(id int) (*models.Stock, error)
	ApplyPriceUpdate(symbol string, price decimal.Decimal) (*models.Stock, int, error)

	ExecuteTrade(userID, stockID int, side string, quantity int64, price decimal.Decimal) (*models.Trade, *models.Position, error)
	GetTradesByUser(userID, limit int) ([]*models.Trade, error)
	GetPortfolio(userID int) ([]*models.PortfolioEntry, error)

	Ping() error
}

// PriceSource resolves execution prices, satisfied by
// *pricing.CachedSource.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	Invalidate(ctx context.Context, symbol string)
}

// EventPublisher publishes domain events, satisfied by
// *kafka.Producer. Publishing is best-effort and never fails a
// request.
type EventPublisher interface {
	PublishTradeExecuted(ctx context.Context, trade *models.Trade, symbol string) error
	PublishPriceUpdated(ctx context.Context, symbol string, price decimal.Decimal) error
}
