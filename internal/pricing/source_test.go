package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradefolio/portfolio-service/internal/models"
)

type fakeStore struct {
	stock *models.Stock
	err   error
	calls int
}

func (f *fakeStore) GetStockBySymbol(symbol string) (*models.Stock, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.stock, nil
}

type fakeCache struct {
	values      map[string]string
	getErr      error
	setErr      error
	sets        int
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) GetStockPrice(ctx context.Context, symbol string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[symbol]
	if !ok {
		return "", errors.New("cache miss")
	}
	return v, nil
}

func (f *fakeCache) SetStockPrice(ctx context.Context, symbol, price string, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.values[symbol] = price
	return nil
}

func (f *fakeCache) InvalidateStockPrice(ctx context.Context, symbol string) error {
	f.invalidated = append(f.invalidated, symbol)
	delete(f.values, symbol)
	return nil
}

func catalogStock(price string) *models.Stock {
	return &models.Stock{
		ID:           2,
		Symbol:       "AAPL",
		CompanyName:  "Apple Inc.",
		CurrentPrice: decimal.RequireFromString(price),
	}
}

func TestGetPrice_CacheHitSkipsCatalog(t *testing.T) {
	store := &fakeStore{stock: catalogStock("175.30")}
	cache := newFakeCache()
	cache.values["AAPL"] = "176.00"

	source := NewCachedSource(store, cache, time.Minute)

	price, err := source.GetPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("176.00").Equal(price))
	assert.Zero(t, store.calls)
}

func TestGetPrice_CacheMissReadsCatalogAndRepopulates(t *testing.T) {
	store := &fakeStore{stock: catalogStock("175.30")}
	cache := newFakeCache()

	source := NewCachedSource(store, cache, time.Minute)

	price, err := source.GetPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("175.30").Equal(price))
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, "175.3", cache.values["AAPL"])

	// Second read is served from cache
	_, err = source.GetPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
}

func TestGetPrice_CorruptCacheEntryFallsThrough(t *testing.T) {
	store := &fakeStore{stock: catalogStock("175.30")}
	cache := newFakeCache()
	cache.values["AAPL"] = "not-a-number"

	source := NewCachedSource(store, cache, time.Minute)

	price, err := source.GetPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("175.30").Equal(price))
	assert.Equal(t, 1, store.calls)
}

func TestGetPrice_CatalogDown(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	source := NewCachedSource(store, newFakeCache(), time.Minute)

	_, err := source.GetPrice(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestGetPrice_NilCache(t *testing.T) {
	store := &fakeStore{stock: catalogStock("175.30")}
	source := NewCachedSource(store, nil, time.Minute)

	price, err := source.GetPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("175.30").Equal(price))
}

func TestGetPrice_CacheWriteFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{stock: catalogStock("175.30")}
	cache := newFakeCache()
	cache.setErr = errors.New("redis down")

	source := NewCachedSource(store, cache, time.Minute)

	price, err := source.GetPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("175.30").Equal(price))
}

func TestInvalidate(t *testing.T) {
	cache := newFakeCache()
	cache.values["AAPL"] = "176.00"

	source := NewCachedSource(&fakeStore{}, cache, time.Minute)
	source.Invalidate(context.Background(), "AAPL")

	assert.Equal(t, []string{"AAPL"}, cache.invalidated)
	assert.NotContains(t, cache.values, "AAPL")
}

func TestInvalidate_NilCache(t *testing.T) {
	source := NewCachedSource(&fakeStore{}, nil, time.Minute)
	source.Invalidate(context.Background(), "AAPL")
}
