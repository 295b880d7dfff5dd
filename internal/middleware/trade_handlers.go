package middleware

import (
	"net/http"

	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/repository"
	"github.com/gin-gonic/gin"
)

type tradeRequest struct {
	CoinID string  `json:"coinId" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
}

type convertRequest struct {
	FromCoinID string  `json:"fromCoinId" binding:"required"`
	ToCoinID   string  `json:"toCoinId" binding:"required"`
	Amount     float64 `json:"amount" binding:"required"`
}

// tradeErrorStatus mapea los errores del repositorio de trading a códigos HTTP
func tradeErrorStatus(err error) int {
	switch err {
	case repository.ErrMontoInvalido, repository.ErrMismaMoneda,
		repository.ErrSaldoInsuficiente, repository.ErrTenenciaInsuficiente:
		return http.StatusBadRequest
	case repository.ErrMonedaNoEncontrada:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// BuyCoin compra una moneda contra el saldo de la billetera
func BuyCoin(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userId")

	balance, holding, err := tradingRepo.Buy(userID, req.CoinID, req.Amount)
	if err != nil {
		c.JSON(tradeErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Compra exitosa",
		"balance": balance,
		"holding": holding,
	})
}

// SellCoin vende una moneda y acredita el saldo en la billetera
func SellCoin(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userId")

	balance, holding, err := tradingRepo.Sell(userID, req.CoinID, req.Amount)
	if err != nil {
		c.JSON(tradeErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Venta exitosa",
		"balance": balance,
		"holding": holding,
	})
}

// ConvertCoin convierte una tenencia en otra moneda al precio actual de ambas
func ConvertCoin(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userId")

	fromHolding, toHolding, err := tradingRepo.Convert(userID, req.FromCoinID, req.ToCoinID, req.Amount)
	if err != nil {
		c.JSON(tradeErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Conversión exitosa",
		"from_holding": fromHolding,
		"to_holding":   toHolding,
	})
}

// GetPortfolio devuelve el saldo y las tenencias no nulas del usuario
func GetPortfolio(c *gin.Context) {
	userID := c.GetString("userId")

	portfolio, err := tradingRepo.GetPortfolio(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener el portafolio"})
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// GetTransactions devuelve las últimas 50 transacciones del usuario
func GetTransactions(c *gin.Context) {
	userID := c.GetString("userId")

	transactions, err := tradingRepo.GetRecentTransactions(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener las transacciones"})
		return
	}

	c.JSON(http.StatusOK, transactions)
}
