package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tradefolio/portfolio-service/internal/models"
)

// Ledger errors
var (
	// ErrInsufficientHoldings is returned when a sell exceeds the held
	// quantity or no position exists. Sells are all-or-nothing.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrInvalidTrade is returned for a non-positive quantity or an
	// unknown trade side.
	ErrInvalidTrade = errors.New("invalid trade")
)

// moneyPlaces is the scale every money amount is rounded to whenever a
// division or valuation produces one. Quantities stay integral, so the
// only rounding point on the buy path is the weighted-average division.
const moneyPlaces = 2

// NormalizeSide maps a request trade type onto the canonical constants.
// Returns an empty string for anything that is not a buy or a sell.
func NormalizeSide(side string) string {
	switch strings.ToUpper(strings.TrimSpace(side)) {
	case models.TradeTypeBuy:
		return models.TradeTypeBuy
	case models.TradeTypeSell:
		return models.TradeTypeSell
	default:
		return ""
	}
}

// Apply reconciles one trade against a user's existing position in the
// traded stock and returns the resulting position along with the
// realized profit of the trade.
//
// pos is nil when the user holds nothing in the stock; the returned
// position is nil when a sell fully liquidates the holding, meaning the
// persisted row must be deleted. Apply never mutates pos.
//
// Buys contribute zero realized profit and fold the trade into the
// quantity-weighted average cost. Sells realize
// (price - avg_buy_price) * quantity against the current average cost,
// which a sell never changes.
func Apply(pos *models.Position, side string, quantity int64, price decimal.Decimal) (*models.Position, decimal.Decimal, error) {
	if quantity <= 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidTrade, quantity)
	}
	if price.IsNegative() {
		return nil, decimal.Zero, fmt.Errorf("%w: negative price %s", ErrInvalidTrade, price)
	}

	qty := decimal.NewFromInt(quantity)
	tradeValue := qty.Mul(price)

	switch side {
	case models.TradeTypeBuy:
		if pos == nil {
			opened := &models.Position{
				Quantity:       quantity,
				AvgBuyPrice:    price,
				InitialCapital: tradeValue,
				CurrentValue:   tradeValue,
				NetProfitLoss:  decimal.Zero,
			}
			return opened, decimal.Zero, nil
		}

		next := *pos
		oldQty := decimal.NewFromInt(pos.Quantity)
		totalCost := pos.AvgBuyPrice.Mul(oldQty).Add(tradeValue)
		next.Quantity = pos.Quantity + quantity
		newQty := decimal.NewFromInt(next.Quantity)
		// Quantity only grows on a buy, so the divisor is never zero.
		next.AvgBuyPrice = totalCost.Div(newQty).Round(moneyPlaces)
		next.CurrentValue = newQty.Mul(price)
		return &next, decimal.Zero, nil

	case models.TradeTypeSell:
		if pos == nil {
			return nil, decimal.Zero, fmt.Errorf("%w: no position to sell", ErrInsufficientHoldings)
		}
		if quantity > pos.Quantity {
			return nil, decimal.Zero, fmt.Errorf("%w: requested %d, holding %d", ErrInsufficientHoldings, quantity, pos.Quantity)
		}

		realized := price.Sub(pos.AvgBuyPrice).Mul(qty).Round(moneyPlaces)

		remaining := pos.Quantity - quantity
		if remaining == 0 {
			return nil, realized, nil
		}

		next := *pos
		next.Quantity = remaining
		next.NetProfitLoss = pos.NetProfitLoss.Add(realized)
		next.CurrentValue = decimal.NewFromInt(remaining).Mul(price)
		return &next, realized, nil

	default:
		return nil, decimal.Zero, fmt.Errorf("%w: unknown trade side %q", ErrInvalidTrade, side)
	}
}

// Valuation marks a holding to the given price, returning the position
// value and the mark-to-market profit against the average cost. Used by
// read-side projections and by external price pushes.
func Valuation(quantity int64, avgBuyPrice, price decimal.Decimal) (currentValue, unrealizedPnl decimal.Decimal) {
	qty := decimal.NewFromInt(quantity)
	currentValue = qty.Mul(price).Round(moneyPlaces)
	unrealizedPnl = price.Sub(avgBuyPrice).Mul(qty).Round(moneyPlaces)
	return currentValue, unrealizedPnl
}
