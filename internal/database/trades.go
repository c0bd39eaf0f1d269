package database

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradefolio/portfolio-service/internal/ledger"
	"github.com/tradefolio/portfolio-service/internal/models"
)

// ExecuteTrade is the single write path for trades. It locks the
// (user, stock) position row, applies the trade through the ledger,
// appends to the trade log and mutates the position, all in one
// transaction. An oversell rolls back with nothing written.
//
// price is the execution price snapshot, fetched by the caller before
// the lock is taken; no network round-trip happens while the row lock
// is held.
//
// Returns the recorded trade and the resulting position (nil when the
// sell fully liquidated the holding).
func (db *DB) ExecuteTrade(userID, stockID int, side string, quantity int64, price decimal.Decimal) (*models.Trade, *models.Position, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getPositionForUpdate(tx, userID, stockID)
	if err != nil {
		return nil, nil, err
	}

	next, realized, err := ledger.Apply(current, side, quantity, price)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	trade := &models.Trade{
		UserID:       userID,
		StockID:      stockID,
		TradeType:    side,
		Quantity:     quantity,
		PriceAtTrade: price,
		RealizedPnl:  realized,
		ExecutedAt:   now,
		CreatedAt:    now,
	}
	err = tx.QueryRow(`
		INSERT INTO trades (user_id, stock_id, trade_type, quantity, price_at_trade,
		                    realized_pnl, executed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, userID, stockID, side, quantity, price, realized, now, now).Scan(&trade.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to append trade: %w", err)
	}

	switch {
	case current == nil:
		// First buy for this pair opens the position.
		next.UserID = userID
		next.StockID = stockID
		err = tx.QueryRow(`
			INSERT INTO positions (user_id, stock_id, quantity, avg_buy_price,
			                       initial_capital, current_value, net_profit_loss,
			                       created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, userID, stockID, next.Quantity, next.AvgBuyPrice, next.InitialCapital,
			next.CurrentValue, next.NetProfitLoss, now, now).Scan(&next.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create position: %w", err)
		}
		next.CreatedAt = now
		next.UpdatedAt = now

	case next == nil:
		// Full liquidation: a zero-quantity position is never persisted.
		if _, err := tx.Exec(`DELETE FROM positions WHERE id = $1`, current.ID); err != nil {
			return nil, nil, fmt.Errorf("failed to close position: %w", err)
		}

	default:
		_, err := tx.Exec(`
			UPDATE positions
			SET quantity = $2, avg_buy_price = $3, current_value = $4,
			    net_profit_loss = $5, updated_at = $6
			WHERE id = $1
		`, next.ID, next.Quantity, next.AvgBuyPrice, next.CurrentValue,
			next.NetProfitLoss, now)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to update position: %w", err)
		}
		next.UpdatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit trade: %w", err)
	}
	return trade, next, nil
}

// GetTradesByUser retrieves a user's trade log newest-first
func (db *DB) GetTradesByUser(userID, limit int) ([]*models.Trade, error) {
	query := `
		SELECT id, user_id, stock_id, trade_type, quantity, price_at_trade,
		       realized_pnl, executed_at, created_at
		FROM trades
		WHERE user_id = $1
		ORDER BY executed_at DESC, id DESC
		LIMIT $2
	`
	rows, err := db.conn.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.UserID, &t.StockID, &t.TradeType, &t.Quantity,
			&t.PriceAtTrade, &t.RealizedPnl, &t.ExecutedAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}
