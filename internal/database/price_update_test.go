package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stockCols = []string{"id", "symbol", "company_name", "current_price", "last_updated", "created_at"}

func TestApplyPriceUpdate_RewritesPositions(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := &DB{conn: sqlDB}
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE stocks").
		WillReturnRows(sqlmock.NewRows(stockCols).
			AddRow(1, "AAPL", "Apple Inc.", "190.00", now, now))
	mock.ExpectExec("UPDATE positions").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	stock, affected, err := db.ApplyPriceUpdate("AAPL", decimal.RequireFromString("190.00"))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", stock.Symbol)
	assert.True(t, decimal.RequireFromString("190.00").Equal(stock.CurrentPrice))
	assert.Equal(t, 3, affected)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPriceUpdate_UnknownSymbol(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := &DB{conn: sqlDB}

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE stocks").WillReturnRows(sqlmock.NewRows(stockCols))
	mock.ExpectRollback()

	_, _, err = db.ApplyPriceUpdate("NOPE", decimal.RequireFromString("10.00"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
