package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/models"
)

// Tiempo de vida del caché de precios en memoria
const priceCacheTTL = 2 * time.Minute

// PriceService es el adaptador al proveedor externo de precios (CoinGecko).
// Mantiene un caché en memoria de corta vida para acotar las llamadas a la API
// en consultas puntuales fuera del refresco programado.
type PriceService struct {
	baseURL  string
	client   *http.Client
	mutex    sync.Mutex
	cache    map[string]cachedPrice
	cacheTTL time.Duration
}

type cachedPrice struct {
	Data      models.CoinPrice
	Timestamp time.Time
}

func NewPriceService() *PriceService {
	// La URL base se puede sobrescribir por entorno (útil para tests)
	baseURL := os.Getenv("PRICE_API_URL")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}

	return &PriceService{
		baseURL:  baseURL,
		client:   &http.Client{},
		cache:    make(map[string]cachedPrice),
		cacheTTL: priceCacheTTL,
	}
}

// GetCoinPrice obtiene el precio actual de una moneda.
// Si el proveedor falla devuelve valores en cero en lugar de un error.
func (s *PriceService) GetCoinPrice(coinID string) models.CoinPrice {
	prices := s.fetchSimplePrices([]string{coinID}, 10*time.Second)

	data, exists := prices[coinID]
	if !exists {
		log.Printf("No se encontraron datos de precio para %s", coinID)
		return models.CoinPrice{ID: coinID}
	}

	return data
}

// GetMultipleCoinPrices obtiene los precios de varias monedas en una sola llamada.
// Si el proveedor falla devuelve un mapa vacío en lugar de un error.
func (s *PriceService) GetMultipleCoinPrices(coinIDs []string) map[string]models.CoinPrice {
	if len(coinIDs) == 0 {
		return map[string]models.CoinPrice{}
	}
	return s.fetchSimplePrices(coinIDs, 15*time.Second)
}

func (s *PriceService) fetchSimplePrices(coinIDs []string, timeout time.Duration) map[string]models.CoinPrice {
	prices := make(map[string]models.CoinPrice)

	params := url.Values{}
	params.Set("ids", strings.Join(coinIDs, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_market_cap", "true")
	params.Set("include_24hr_change", "true")
	params.Set("include_24hr_vol", "true")

	body, err := s.get("/simple/price", params, timeout)
	if err != nil {
		log.Printf("Error al obtener precios del proveedor: %v", err)
		return prices
	}

	// La respuesta tiene la forma {"bitcoin": {"usd": 45000, "usd_market_cap": ...}}
	var result map[string]map[string]float64
	if err := json.Unmarshal(body, &result); err != nil {
		log.Printf("Error al parsear la respuesta de precios: %v", err)
		return prices
	}

	for coinID, data := range result {
		prices[coinID] = models.CoinPrice{
			ID:             coinID,
			Price:          data["usd"],
			MarketCap:      data["usd_market_cap"],
			PriceChange24h: data["usd_24h_change"],
			Volume24h:      data["usd_24h_vol"],
		}
	}

	return prices
}

// respuesta del endpoint /coins/markets del proveedor
type marketResponse struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	CurrentPrice   float64 `json:"current_price"`
	MarketCap      float64 `json:"market_cap"`
	MarketCapRank  int     `json:"market_cap_rank"`
	PriceChange24h float64 `json:"price_change_percentage_24h"`
	TotalVolume    float64 `json:"total_volume"`
	Image          string  `json:"image"`
	LastUpdated    string  `json:"last_updated"`
}

// GetTopCoins obtiene las principales monedas por capitalización de mercado.
// Si el proveedor falla devuelve una lista vacía en lugar de un error.
func (s *PriceService) GetTopCoins(limit int) []models.CoinMarket {
	if limit <= 0 || limit > 250 {
		limit = 50
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", fmt.Sprintf("%d", limit))
	params.Set("page", "1")
	params.Set("sparkline", "false")
	params.Set("price_change_percentage", "24h")

	body, err := s.get("/coins/markets", params, 20*time.Second)
	if err != nil {
		log.Printf("Error al obtener el top de monedas: %v", err)
		return []models.CoinMarket{}
	}

	var result []marketResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Printf("Error al parsear el top de monedas: %v", err)
		return []models.CoinMarket{}
	}

	coins := make([]models.CoinMarket, 0, len(result))
	for _, c := range result {
		coins = append(coins, models.CoinMarket{
			ID:             c.ID,
			Symbol:         c.Symbol,
			Name:           c.Name,
			Price:          c.CurrentPrice,
			MarketCap:      c.MarketCap,
			MarketCapRank:  c.MarketCapRank,
			PriceChange24h: c.PriceChange24h,
			Volume24h:      c.TotalVolume,
			Image:          c.Image,
			LastUpdated:    c.LastUpdated,
		})
	}

	return coins
}

// respuesta (parcial) del endpoint /coins/{id} del proveedor
type coinDetailsResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  struct {
		Large string `json:"large"`
		Small string `json:"small"`
	} `json:"image"`
	MarketCapRank int `json:"market_cap_rank"`
	MarketData    struct {
		CurrentPrice   map[string]float64 `json:"current_price"`
		MarketCap      map[string]float64 `json:"market_cap"`
		PriceChange24h float64            `json:"price_change_percentage_24h"`
		TotalVolume    map[string]float64 `json:"total_volume"`
	} `json:"market_data"`
	LastUpdated string `json:"last_updated"`
}

// GetCoinDetails obtiene la información completa de una moneda.
// A diferencia de los otros métodos, propaga el error (lo usan los endpoints
// puntuales que sí deben responder 404 al cliente).
func (s *PriceService) GetCoinDetails(coinID string) (*models.CoinMarket, error) {
	params := url.Values{}
	params.Set("localization", "false")
	params.Set("tickers", "false")
	params.Set("market_data", "true")
	params.Set("community_data", "false")
	params.Set("developer_data", "false")
	params.Set("sparkline", "false")

	body, err := s.get("/coins/"+url.PathEscape(coinID), params, 10*time.Second)
	if err != nil {
		return nil, err
	}

	var result coinDetailsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("error decodificando JSON: %v", err)
	}

	if result.ID == "" {
		return nil, fmt.Errorf("no se encontraron datos para %s", coinID)
	}

	image := result.Image.Large
	if image == "" {
		image = result.Image.Small
	}

	return &models.CoinMarket{
		ID:             result.ID,
		Symbol:         result.Symbol,
		Name:           result.Name,
		Price:          result.MarketData.CurrentPrice["usd"],
		MarketCap:      result.MarketData.MarketCap["usd"],
		MarketCapRank:  result.MarketCapRank,
		PriceChange24h: result.MarketData.PriceChange24h,
		Volume24h:      result.MarketData.TotalVolume["usd"],
		Image:          image,
		LastUpdated:    result.LastUpdated,
	}, nil
}

// respuesta del endpoint /search del proveedor
type searchResponse struct {
	Coins []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Symbol        string `json:"symbol"`
		MarketCapRank int    `json:"market_cap_rank"`
		Thumb         string `json:"thumb"`
		Large         string `json:"large"`
	} `json:"coins"`
}

// SearchCoins busca monedas por nombre o símbolo en el proveedor
func (s *PriceService) SearchCoins(query string) ([]models.CoinSearchResult, error) {
	params := url.Values{}
	params.Set("query", query)

	body, err := s.get("/search", params, 10*time.Second)
	if err != nil {
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("error decodificando JSON: %v", err)
	}

	results := make([]models.CoinSearchResult, 0, len(result.Coins))
	for _, c := range result.Coins {
		results = append(results, models.CoinSearchResult{
			ID:            c.ID,
			Name:          c.Name,
			Symbol:        c.Symbol,
			MarketCapRank: c.MarketCapRank,
			Thumb:         c.Thumb,
			Large:         c.Large,
		})
	}

	return results, nil
}

// GetCachedPrice devuelve el precio cacheado de la moneda si sigue vigente,
// o lo pide al proveedor y lo guarda en el caché
func (s *PriceService) GetCachedPrice(coinID string) models.CoinPrice {
	s.mutex.Lock()
	cached, exists := s.cache[coinID]
	s.mutex.Unlock()

	if exists && time.Since(cached.Timestamp) < s.cacheTTL {
		return cached.Data
	}

	data := s.GetCoinPrice(coinID)

	s.mutex.Lock()
	s.cache[coinID] = cachedPrice{
		Data:      data,
		Timestamp: time.Now(),
	}
	s.mutex.Unlock()

	return data
}

// ClearCache vacía el caché de precios
func (s *PriceService) ClearCache() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cache = make(map[string]cachedPrice)
}

func (s *PriceService) get(path string, params url.Values, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fullURL := s.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "CryptoSim-Api/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error en la petición HTTP: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("el proveedor respondió %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error leyendo respuesta: %v", err)
	}

	return body, nil
}
