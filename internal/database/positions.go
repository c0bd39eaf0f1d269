package database

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tradefolio/portfolio-service/internal/ledger"
	"github.com/tradefolio/portfolio-service/internal/models"
)

// GetPortfolio projects a user's holdings joined with the live catalog
// price, ordered by symbol. Current value and unrealized P&L are
// derived here from the live price and the stored average cost; the
// position row's cached columns are deliberately not trusted.
func (db *DB) GetPortfolio(userID int) ([]*models.PortfolioEntry, error) {
	query := `
		SELECT p.stock_id, s.symbol, s.company_name, p.quantity,
		       p.avg_buy_price, s.current_price, p.net_profit_loss
		FROM positions p
		JOIN stocks s ON s.id = p.stock_id
		WHERE p.user_id = $1
		ORDER BY s.symbol
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}
	defer rows.Close()

	var entries []*models.PortfolioEntry
	for rows.Next() {
		var e models.PortfolioEntry
		if err := rows.Scan(&e.StockID, &e.Symbol, &e.CompanyName, &e.Quantity,
			&e.AvgBuyPrice, &e.CurrentPrice, &e.NetProfitLoss); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio entry: %w", err)
		}
		e.CurrentValue, e.UnrealizedPnl = ledger.Valuation(e.Quantity, e.AvgBuyPrice, e.CurrentPrice)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// GetPositionByUserAndStock retrieves one position outside of any
// transaction. Trade execution uses the locking variant instead.
func (db *DB) GetPositionByUserAndStock(userID, stockID int) (*models.Position, error) {
	query := positionSelect + ` WHERE user_id = $1 AND stock_id = $2`
	pos, err := scanPosition(db.conn.QueryRow(query, userID, stockID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("position: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return pos, nil
}

const positionSelect = `
	SELECT id, user_id, stock_id, quantity, avg_buy_price, initial_capital,
	       current_value, net_profit_loss, volatility, sharpe_ratio,
	       dividend_yield, created_at, updated_at
	FROM positions`

// getPositionForUpdate loads the position row under a row-level lock,
// serializing concurrent trades on the same (user, stock) pair for the
// duration of the transaction. Returns (nil, nil) when no position
// exists yet.
func getPositionForUpdate(tx *sql.Tx, userID, stockID int) (*models.Position, error) {
	query := positionSelect + ` WHERE user_id = $1 AND stock_id = $2 FOR UPDATE`
	pos, err := scanPosition(tx.QueryRow(query, userID, stockID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock position: %w", err)
	}
	return pos, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(row rowScanner) (*models.Position, error) {
	var p models.Position
	var volatility, sharpeRatio, dividendYield sql.NullString
	err := row.Scan(
		&p.ID, &p.UserID, &p.StockID, &p.Quantity, &p.AvgBuyPrice, &p.InitialCapital,
		&p.CurrentValue, &p.NetProfitLoss, &volatility, &sharpeRatio,
		&dividendYield, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Volatility = nullDecimal(volatility)
	p.SharpeRatio = nullDecimal(sharpeRatio)
	p.DividendYield = nullDecimal(dividendYield)
	return &p, nil
}

func nullDecimal(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid {
		return nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil
	}
	return &d
}
