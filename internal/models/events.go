package models

import "time"

// Kafka event type constants
const (
	EventTradeExecuted = "TRADE_EXECUTED"
	EventPriceUpdated  = "PRICE_UPDATED"
)

// TradeEvent is published after a trade commits
type TradeEvent struct {
	EventType string    `json:"event_type"`
	Trade     *Trade    `json:"trade,omitempty"`
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
}

// PriceEvent carries an external price push for one symbol
type PriceEvent struct {
	EventType string    `json:"event_type"`
	Symbol    string    `json:"symbol"`
	Price     string    `json:"price"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
