package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents a user's current holding in one stock.
// Unique per (user, stock); a position with zero quantity is never
// persisted, it is deleted the moment a sell fully liquidates it.
//
// CurrentValue and NetProfitLoss are cached figures maintained by the
// ledger and overwritten by external price pushes. Read-side reports
// derive valuation from the live stock price instead of trusting them.
type Position struct {
	ID             int             `json:"id"`
	UserID         int             `json:"user_id"`
	StockID        int             `json:"stock_id"`
	Quantity       int64           `json:"quantity"`
	AvgBuyPrice    decimal.Decimal `json:"avg_buy_price"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	CurrentValue   decimal.Decimal `json:"current_value"`
	NetProfitLoss  decimal.Decimal `json:"net_profit_loss"`

	// Optional risk metrics, populated by external analytics if at all.
	Volatility    *decimal.Decimal `json:"volatility,omitempty"`
	SharpeRatio   *decimal.Decimal `json:"sharpe_ratio,omitempty"`
	DividendYield *decimal.Decimal `json:"dividend_yield,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PortfolioEntry is the read-side projection of a position joined with
// its stock. CurrentValue and UnrealizedPnl are derived at read time
// from the live catalog price and the stored average cost.
type PortfolioEntry struct {
	StockID       int             `json:"stock_id"`
	Symbol        string          `json:"symbol"`
	CompanyName   string          `json:"company_name"`
	Quantity      int64           `json:"quantity"`
	AvgBuyPrice   decimal.Decimal `json:"avg_buy_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
	NetProfitLoss decimal.Decimal `json:"net_profit_loss"`
}
