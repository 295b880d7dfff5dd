package models

import "time"

// Coin representa una moneda del catálogo persistido.
// Los campos de mercado se actualizan periódicamente desde el proveedor externo.
type Coin struct {
	ID             string    `json:"c_id"`
	Name           string    `json:"c_name"`
	Symbol         string    `json:"symbol"`
	Price          float64   `json:"price"`
	MarketCap      float64   `json:"market_cap"`
	MarketCapRank  int       `json:"market_cap_rank"`
	PriceChange24h float64   `json:"price_change_24h"`
	Volume24h      float64   `json:"volume_24h"`
	Image          string    `json:"image"`
	LastUpdated    time.Time `json:"last_updated"`
}

// CoinPrice contiene los datos de precio que devuelve el proveedor externo
// para una moneda (endpoint /simple/price)
type CoinPrice struct {
	ID             string  `json:"id"`
	Price          float64 `json:"price"`
	MarketCap      float64 `json:"market_cap"`
	PriceChange24h float64 `json:"price_change_24h"`
	Volume24h      float64 `json:"volume_24h"`
}

// CoinMarket es una fila del listado de mercado del proveedor (endpoint /coins/markets)
type CoinMarket struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	MarketCap      float64 `json:"market_cap"`
	MarketCapRank  int     `json:"market_cap_rank"`
	PriceChange24h float64 `json:"price_change_24h"`
	Volume24h      float64 `json:"volume_24h"`
	Image          string  `json:"image"`
	LastUpdated    string  `json:"last_updated"`
}

// CoinSearchResult es un resultado de búsqueda del proveedor (endpoint /search)
type CoinSearchResult struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
	Large         string `json:"large"`
}
