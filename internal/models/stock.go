package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock represents one entry in the fixed stock catalog.
// The current price is the only mutable field; it is updated by
// external price pushes (HTTP or Kafka).
type Stock struct {
	ID           int             `json:"id"`
	Symbol       string          `json:"symbol"`
	CompanyName  string          `json:"company_name"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	LastUpdated  time.Time       `json:"last_updated"`
	CreatedAt    time.Time       `json:"created_at"`
}
