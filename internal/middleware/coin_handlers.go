package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/database"
	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/models"
	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/repository"
	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/services"
	"github.com/gin-gonic/gin"
)

var (
	coinRepo     *repository.CoinRepository
	tradingRepo  *repository.TradingRepository
	priceService *services.PriceService
)

func InitTrading() {
	coinRepo = repository.NewCoinRepository(database.DB)
	tradingRepo = repository.NewTradingRepository(database.DB)
	priceService = services.NewPriceService()
}

// GetPriceService expone el adaptador de precios para que main pueda
// compartirlo con el actualizador (y así compartir el caché)
func GetPriceService() *services.PriceService {
	return priceService
}

// GetCoins devuelve el catálogo persistido, con orden y límite opcionales
func GetCoins(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	sortBy := c.DefaultQuery("sortBy", "market_cap_rank")
	order := c.DefaultQuery("order", "asc")

	coins, err := coinRepo.GetAllCoins(limit, sortBy, order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener las monedas"})
		return
	}

	c.JSON(http.StatusOK, coins)
}

// GetTopCoins devuelve el top de monedas en vivo desde el proveedor
// (no pasa por el catálogo)
func GetTopCoins(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	coins := priceService.GetTopCoins(limit)
	c.JSON(http.StatusOK, coins)
}

// SearchCoins busca monedas en el proveedor externo
func SearchCoins(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Falta el parámetro de búsqueda"})
		return
	}

	results, err := priceService.SearchCoins(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al buscar monedas"})
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetCoin devuelve una moneda del catálogo. Si no está, la pide al proveedor,
// la agrega al catálogo y la devuelve.
func GetCoin(c *gin.Context) {
	coinID := c.Param("coinId")

	coin, err := coinRepo.GetCoin(coinID)
	if err == nil {
		c.JSON(http.StatusOK, coin)
		return
	}
	if err != repository.ErrMonedaNoEncontrada {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener la moneda"})
		return
	}

	// La moneda no está en el catálogo: consultar al proveedor
	details, err := priceService.GetCoinDetails(coinID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Moneda no encontrada"})
		return
	}

	lastUpdated, err := time.Parse(time.RFC3339, details.LastUpdated)
	if err != nil {
		lastUpdated = time.Now()
	}

	newCoin := &models.Coin{
		ID:             details.ID,
		Name:           details.Name,
		Symbol:         details.Symbol,
		Price:          details.Price,
		MarketCap:      details.MarketCap,
		MarketCapRank:  details.MarketCapRank,
		PriceChange24h: details.PriceChange24h,
		Volume24h:      details.Volume24h,
		Image:          details.Image,
		LastUpdated:    lastUpdated,
	}

	if err := coinRepo.UpsertCoin(newCoin); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al guardar la moneda"})
		return
	}

	c.JSON(http.StatusOK, newCoin)
}
