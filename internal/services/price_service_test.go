package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCoinPriceParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		fmt.Fprint(w, `{"bitcoin": {"usd": 45000.5, "usd_market_cap": 900000000000, "usd_24h_change": 1.5, "usd_24h_vol": 30000000000}}`)
	}))
	defer server.Close()

	t.Setenv("PRICE_API_URL", server.URL)
	service := NewPriceService()

	price := service.GetCoinPrice("bitcoin")
	assert.Equal(t, "bitcoin", price.ID)
	assert.InDelta(t, 45000.5, price.Price, 1e-9)
	assert.InDelta(t, 1.5, price.PriceChange24h, 1e-9)
}

func TestGetCoinPriceDegradesToZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	t.Setenv("PRICE_API_URL", server.URL)
	service := NewPriceService()

	// Ante un fallo del proveedor se devuelven valores en cero, no un error
	price := service.GetCoinPrice("bitcoin")
	assert.Equal(t, "bitcoin", price.ID)
	assert.Zero(t, price.Price)
	assert.Zero(t, price.MarketCap)
}

func TestGetCachedPriceBoundsProviderCalls(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		fmt.Fprint(w, `{"bitcoin": {"usd": 45000}}`)
	}))
	defer server.Close()

	t.Setenv("PRICE_API_URL", server.URL)
	service := NewPriceService()

	first := service.GetCachedPrice("bitcoin")
	second := service.GetCachedPrice("bitcoin")

	assert.InDelta(t, first.Price, second.Price, 1e-9)
	// La segunda consulta sale del caché
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))

	// Al vaciar el caché se vuelve a consultar al proveedor
	service.ClearCache()
	service.GetCachedPrice("bitcoin")
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestGetTopCoins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "market_cap_desc", r.URL.Query().Get("order"))
		fmt.Fprint(w, `[
			{"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "current_price": 45000, "market_cap_rank": 1, "total_volume": 30000000000, "image": "https://example.com/btc.png"}
		]`)
	}))
	defer server.Close()

	t.Setenv("PRICE_API_URL", server.URL)
	service := NewPriceService()

	coins := service.GetTopCoins(10)
	require.Len(t, coins, 1)
	assert.Equal(t, "bitcoin", coins[0].ID)
	assert.Equal(t, 1, coins[0].MarketCapRank)
	assert.InDelta(t, 30000000000, coins[0].Volume24h, 1e-9)
}

func TestSearchCoins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "bit", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"coins": [{"id": "bitcoin", "name": "Bitcoin", "symbol": "BTC", "market_cap_rank": 1, "thumb": "t.png", "large": "l.png"}]}`)
	}))
	defer server.Close()

	t.Setenv("PRICE_API_URL", server.URL)
	service := NewPriceService()

	results, err := service.SearchCoins("bit")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "bitcoin", results[0].ID)
	assert.Equal(t, "BTC", results[0].Symbol)
}

func TestGetCoinDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin", r.URL.Path)
		fmt.Fprint(w, `{
			"id": "bitcoin", "symbol": "btc", "name": "Bitcoin",
			"image": {"large": "https://example.com/btc-large.png"},
			"market_cap_rank": 1,
			"market_data": {
				"current_price": {"usd": 45000},
				"market_cap": {"usd": 900000000000},
				"price_change_percentage_24h": 1.5,
				"total_volume": {"usd": 30000000000}
			},
			"last_updated": "2025-08-01T00:00:00Z"
		}`)
	}))
	defer server.Close()

	t.Setenv("PRICE_API_URL", server.URL)
	service := NewPriceService()

	details, err := service.GetCoinDetails("bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", details.Name)
	assert.InDelta(t, 45000, details.Price, 1e-9)
	assert.Equal(t, "https://example.com/btc-large.png", details.Image)
}

func TestGetCoinDetailsUnknownCoin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	t.Setenv("PRICE_API_URL", server.URL)
	service := NewPriceService()

	_, err := service.GetCoinDetails("nocoin")
	assert.Error(t, err)
}
