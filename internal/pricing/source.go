package pricing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradefolio/portfolio-service/internal/models"
)

// ErrUnavailable is returned when neither the cache nor the catalog can
// produce a price for the symbol.
var ErrUnavailable = errors.New("price unavailable")

// Source resolves the current price for a symbol
type Source interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// StockGetter is the slice of the repository the price source needs
type StockGetter interface {
	GetStockBySymbol(symbol string) (*models.Stock, error)
}

// PriceCache is a TTL cache for price strings, satisfied by the redis
// client. A nil cache disables caching entirely.
type PriceCache interface {
	GetStockPrice(ctx context.Context, symbol string) (string, error)
	SetStockPrice(ctx context.Context, symbol, price string, ttl time.Duration) error
	InvalidateStockPrice(ctx context.Context, symbol string) error
}

// CachedSource serves prices from a TTL cache in front of the stock
// catalog. A cached price inside its freshness window is an accepted
// approximation of the live catalog price, not an error.
type CachedSource struct {
	store StockGetter
	cache PriceCache
	ttl   time.Duration
}

// NewCachedSource creates a price source backed by the catalog with an
// optional cache in front. cache may be nil.
func NewCachedSource(store StockGetter, cache PriceCache, ttl time.Duration) *CachedSource {
	return &CachedSource{store: store, cache: cache, ttl: ttl}
}

// GetPrice returns the current price for the symbol: cache hit first,
// then the catalog, repopulating the cache on the way out.
func (s *CachedSource) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetStockPrice(ctx, symbol); err == nil {
			if price, perr := decimal.NewFromString(cached); perr == nil {
				return price, nil
			}
		}
	}

	stock, err := s.store.GetStockBySymbol(symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if s.cache != nil {
		if cerr := s.cache.SetStockPrice(ctx, symbol, stock.CurrentPrice.String(), s.ttl); cerr != nil {
			log.Printf("Warning: failed to cache price for %s: %v", symbol, cerr)
		}
	}
	return stock.CurrentPrice, nil
}

// Invalidate drops any cached price for the symbol. No-op without a
// cache.
func (s *CachedSource) Invalidate(ctx context.Context, symbol string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStockPrice(ctx, symbol); err != nil {
		log.Printf("Warning: failed to invalidate cached price for %s: %v", symbol, err)
	}
}
