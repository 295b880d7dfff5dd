package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RefreshPrices fuerza un refresco manual de los precios del catálogo.
// Si ya hay un refresco en curso el pedido se descarta.
func RefreshPrices(c *gin.Context) {
	executed := GetPriceUpdater().RefreshAll()
	if !executed {
		c.JSON(http.StatusOK, gin.H{
			"message": "Hay un refresco en curso, el pedido se descartó",
			"skipped": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Precios actualizados",
		"skipped": false,
	})
}

// AddTopCoins agrega al catálogo las principales monedas por capitalización
func AddTopCoins(c *gin.Context) {
	var req struct {
		Limit int `json:"limit"`
	}
	// El cuerpo es opcional; sin límite se agregan las primeras 50
	_ = c.ShouldBindJSON(&req)
	if req.Limit <= 0 {
		req.Limit = 50
	}

	added, err := GetPriceUpdater().AddTopCoins(req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al agregar monedas"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Monedas agregadas al catálogo",
		"added":   added,
	})
}

// PriceStatus devuelve el estado del actualizador de precios
func PriceStatus(c *gin.Context) {
	c.JSON(http.StatusOK, GetPriceUpdater().Status())
}

// StartAutoUpdate inicia el refresco automático, opcionalmente con un
// intervalo nuevo en segundos
func StartAutoUpdate(c *gin.Context) {
	var req struct {
		IntervalSeconds int `json:"interval_seconds"`
	}
	_ = c.ShouldBindJSON(&req)

	updater := GetPriceUpdater()

	if req.IntervalSeconds > 0 {
		updater.Stop()
		updater.SetInterval(time.Duration(req.IntervalSeconds) * time.Second)
	}
	updater.Start()

	c.JSON(http.StatusOK, gin.H{"message": "Actualización automática iniciada"})
}

// StopAutoUpdate detiene el refresco automático
func StopAutoUpdate(c *gin.Context) {
	GetPriceUpdater().Stop()
	c.JSON(http.StatusOK, gin.H{"message": "Actualización automática detenida"})
}
