package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade type constants
const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"
)

// Trade is an immutable entry in the append-only trade log.
// PriceAtTrade is a snapshot of the stock price at execution time and
// is never re-derived later.
type Trade struct {
	ID           int             `json:"id"`
	UserID       int             `json:"user_id"`
	StockID      int             `json:"stock_id"`
	TradeType    string          `json:"trade_type"`
	Quantity     int64           `json:"quantity"`
	PriceAtTrade decimal.Decimal `json:"price_at_trade"`
	RealizedPnl  decimal.Decimal `json:"realized_pnl"`
	ExecutedAt   time.Time       `json:"executed_at"`
	CreatedAt    time.Time       `json:"created_at"`
}
