package middleware

import (
	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/services"
)

// Instancia del actualizador de precios, creada en main y compartida
// con los handlers de mantenimiento
var priceUpdaterInstance *services.PriceUpdater

// SetPriceUpdater establece la instancia del actualizador de precios
func SetPriceUpdater(updater *services.PriceUpdater) {
	priceUpdaterInstance = updater
}

// GetPriceUpdater obtiene la instancia del actualizador de precios
func GetPriceUpdater() *services.PriceUpdater {
	return priceUpdaterInstance
}
