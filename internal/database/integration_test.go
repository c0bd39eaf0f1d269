package database

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradefolio/portfolio-service/internal/models"
)

// TestIntegration runs the repository tests against one shared postgres
// container; each subtest truncates the mutable tables for isolation.
func TestIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := SetupTestDB(t)
	defer tdb.Cleanup(t)

	t.Run("TradeLifecycle", func(t *testing.T) {
		tdb.TruncateAll(t)

		user := tdb.CreateTestUser(t, "alice")
		stock, err := tdb.GetStockBySymbol("AAPL")
		require.NoError(t, err)

		// Open with 10 shares at 175.30
		trade, pos, err := tdb.ExecuteTrade(user.ID, stock.ID, models.TradeTypeBuy, 10, decimal.RequireFromString("175.30"))
		require.NoError(t, err)
		require.NotNil(t, pos)
		assert.NotZero(t, trade.ID)
		assert.True(t, trade.RealizedPnl.IsZero())
		assert.Equal(t, int64(10), pos.Quantity)
		assert.True(t, decimal.RequireFromString("175.30").Equal(pos.AvgBuyPrice))

		// Add 5 at 180.00; weighted average lands on 176.87
		_, pos, err = tdb.ExecuteTrade(user.ID, stock.ID, models.TradeTypeBuy, 5, decimal.RequireFromString("180.00"))
		require.NoError(t, err)
		require.NotNil(t, pos)
		assert.Equal(t, int64(15), pos.Quantity)
		assert.True(t, decimal.RequireFromString("176.87").Equal(pos.AvgBuyPrice),
			"avg = %s", pos.AvgBuyPrice)

		stored, err := tdb.GetPositionByUserAndStock(user.ID, stock.ID)
		require.NoError(t, err)
		assert.True(t, pos.AvgBuyPrice.Equal(stored.AvgBuyPrice))

		// Sell everything at 190.00
		trade, pos, err = tdb.ExecuteTrade(user.ID, stock.ID, models.TradeTypeSell, 15, decimal.RequireFromString("190.00"))
		require.NoError(t, err)
		assert.Nil(t, pos)
		assert.True(t, decimal.RequireFromString("196.95").Equal(trade.RealizedPnl),
			"realized = %s", trade.RealizedPnl)

		_, err = tdb.GetPositionByUserAndStock(user.ID, stock.ID)
		require.ErrorIs(t, err, ErrNotFound)

		// Trade log survives the position and reads newest-first
		trades, err := tdb.GetTradesByUser(user.ID, 100)
		require.NoError(t, err)
		require.Len(t, trades, 3)
		assert.Equal(t, models.TradeTypeSell, trades[0].TradeType)
		assert.Equal(t, models.TradeTypeBuy, trades[1].TradeType)
		assert.Equal(t, int64(5), trades[1].Quantity)
		assert.Equal(t, int64(10), trades[2].Quantity)
	})

	t.Run("OversellLeavesNothingBehind", func(t *testing.T) {
		tdb.TruncateAll(t)

		user := tdb.CreateTestUser(t, "bob")
		stock, err := tdb.GetStockBySymbol("GOOGL")
		require.NoError(t, err)

		_, _, err = tdb.ExecuteTrade(user.ID, stock.ID, models.TradeTypeBuy, 5, decimal.RequireFromString("100.00"))
		require.NoError(t, err)

		_, _, err = tdb.ExecuteTrade(user.ID, stock.ID, models.TradeTypeSell, 10, decimal.RequireFromString("100.00"))
		require.Error(t, err)

		// The rejected sell must not appear in the trade log and the
		// position must be untouched.
		trades, err := tdb.GetTradesByUser(user.ID, 100)
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, models.TradeTypeBuy, trades[0].TradeType)

		pos, err := tdb.GetPositionByUserAndStock(user.ID, stock.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), pos.Quantity)
	})

	t.Run("PortfolioDerivesFromLivePrice", func(t *testing.T) {
		tdb.TruncateAll(t)

		user := tdb.CreateTestUser(t, "carol")
		stock, err := tdb.GetStockBySymbol("AAPL")
		require.NoError(t, err)

		_, _, err = tdb.ExecuteTrade(user.ID, stock.ID, models.TradeTypeBuy, 10, decimal.RequireFromString("170.00"))
		require.NoError(t, err)

		// Move the catalog price; the projection must pick it up
		_, affected, err := tdb.ApplyPriceUpdate("AAPL", decimal.RequireFromString("180.00"))
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		entries, err := tdb.GetPortfolio(user.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)

		e := entries[0]
		assert.Equal(t, "AAPL", e.Symbol)
		assert.Equal(t, int64(10), e.Quantity)
		assert.True(t, decimal.RequireFromString("180.00").Equal(e.CurrentPrice))
		assert.True(t, decimal.RequireFromString("1800.00").Equal(e.CurrentValue))
		assert.True(t, decimal.RequireFromString("100.00").Equal(e.UnrealizedPnl))

		// Reading twice returns the same projection
		again, err := tdb.GetPortfolio(user.ID)
		require.NoError(t, err)
		require.Len(t, again, 1)
		assert.True(t, e.CurrentValue.Equal(again[0].CurrentValue))
	})

	t.Run("PriceUpdateOverwritesCachedPnl", func(t *testing.T) {
		tdb.TruncateAll(t)

		user := tdb.CreateTestUser(t, "dave")
		stock, err := tdb.GetStockBySymbol("MSFT")
		require.NoError(t, err)

		// Accumulate realized P&L on the position via a partial sell
		_, _, err = tdb.ExecuteTrade(user.ID, stock.ID, models.TradeTypeBuy, 10, decimal.RequireFromString("100.00"))
		require.NoError(t, err)
		trade, _, err := tdb.ExecuteTrade(user.ID, stock.ID, models.TradeTypeSell, 5, decimal.RequireFromString("120.00"))
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("100.00").Equal(trade.RealizedPnl))

		// The push replaces the cached figure with mark-to-market
		_, _, err = tdb.ApplyPriceUpdate("MSFT", decimal.RequireFromString("110.00"))
		require.NoError(t, err)

		pos, err := tdb.GetPositionByUserAndStock(user.ID, stock.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), pos.Quantity)
		assert.True(t, decimal.RequireFromString("550.00").Equal(pos.CurrentValue),
			"current_value = %s", pos.CurrentValue)
		assert.True(t, decimal.RequireFromString("50.00").Equal(pos.NetProfitLoss),
			"net_profit_loss = %s", pos.NetProfitLoss)
	})

	t.Run("DeleteUserCascades", func(t *testing.T) {
		tdb.TruncateAll(t)

		user := tdb.CreateTestUser(t, "erin")
		stock, err := tdb.GetStockBySymbol("AAPL")
		require.NoError(t, err)

		_, _, err = tdb.ExecuteTrade(user.ID, stock.ID, models.TradeTypeBuy, 3, decimal.RequireFromString("150.00"))
		require.NoError(t, err)

		require.NoError(t, tdb.DeleteUser(user.ID))

		_, err = tdb.GetUserByID(user.ID)
		require.ErrorIs(t, err, ErrNotFound)

		_, err = tdb.GetPositionByUserAndStock(user.ID, stock.ID)
		require.ErrorIs(t, err, ErrNotFound)

		trades, err := tdb.GetTradesByUser(user.ID, 100)
		require.NoError(t, err)
		assert.Empty(t, trades)

		// The catalog row is untouched
		_, err = tdb.GetStockBySymbol("AAPL")
		require.NoError(t, err)
	})

	t.Run("DuplicateUsernameRejected", func(t *testing.T) {
		tdb.TruncateAll(t)

		tdb.CreateTestUser(t, "frank")

		dup := &models.User{Username: "frank", Email: "other@example.com", PasswordHash: "x"}
		err := tdb.CreateUser(dup)
		require.ErrorIs(t, err, ErrConflict)
	})
}
