package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradefolio/portfolio-service/internal/models"
)

// GetAllStocks retrieves the full stock catalog ordered by symbol
func (db *DB) GetAllStocks() ([]*models.Stock, error) {
	query := `
		SELECT id, symbol, company_name, current_price, last_updated, created_at
		FROM stocks
		ORDER BY symbol
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []*models.Stock
	for rows.Next() {
		var s models.Stock
		if err := rows.Scan(&s.ID, &s.Symbol, &s.CompanyName, &s.CurrentPrice, &s.LastUpdated, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, &s)
	}
	return stocks, rows.Err()
}

// GetStockBySymbol retrieves one catalog entry by symbol
func (db *DB) GetStockBySymbol(symbol string) (*models.Stock, error) {
	query := `
		SELECT id, symbol, company_name, current_price, last_updated, created_at
		FROM stocks
		WHERE symbol = $1
	`
	return db.scanStock(db.conn.QueryRow(query, symbol), symbol)
}

// GetStockByID retrieves one catalog entry by id
func (db *DB) GetStockByID(id int) (*models.Stock, error) {
	query := `
		SELECT id, symbol, company_name, current_price, last_updated, created_at
		FROM stocks
		WHERE id = $1
	`
	return db.scanStock(db.conn.QueryRow(query, id), fmt.Sprintf("id %d", id))
}

func (db *DB) scanStock(row *sql.Row, ref string) (*models.Stock, error) {
	var s models.Stock
	err := row.Scan(&s.ID, &s.Symbol, &s.CompanyName, &s.CurrentPrice, &s.LastUpdated, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("stock %s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return &s, nil
}

// ApplyPriceUpdate sets a new catalog price for the symbol and rewrites
// the cached valuation of every position holding it. The cached
// net_profit_loss becomes the mark-to-market figure
// (new_price - avg_buy_price) * quantity, replacing any accumulated
// realized P&L. That overwrite is the documented contract of the
// external price push; portfolio reads derive their own valuation from
// the live price and are unaffected.
//
// Returns the updated stock and the number of positions rewritten.
func (db *DB) ApplyPriceUpdate(symbol string, price decimal.Decimal) (*models.Stock, int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	var s models.Stock
	err = tx.QueryRow(`
		UPDATE stocks
		SET current_price = $2, last_updated = $3
		WHERE symbol = $1
		RETURNING id, symbol, company_name, current_price, last_updated, created_at
	`, symbol, price.Round(2), now).Scan(
		&s.ID, &s.Symbol, &s.CompanyName, &s.CurrentPrice, &s.LastUpdated, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, 0, fmt.Errorf("stock %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to update stock price: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE positions
		SET current_value = round(quantity * $2, 2),
		    net_profit_loss = round(($2 - avg_buy_price) * quantity, 2),
		    updated_at = $3
		WHERE stock_id = $1
	`, s.ID, price.Round(2), now)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to revalue positions: %w", err)
	}
	affected, _ := result.RowsAffected()

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit price update: %w", err)
	}
	return &s, int(affected), nil
}
