package services

import (
	"log"
	"sync"
	"time"

	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/models"
)

// CoinRepositoryInterface define las operaciones que el actualizador
// necesita del repositorio del catálogo
type CoinRepositoryInterface interface {
	GetAllCoinIDs() ([]string, error)
	UpdateCoinPrice(coinID string, price models.CoinPrice) error
	InsertCoinIfAbsent(coin *models.Coin) (bool, error)
}

// UpdaterStatus es la respuesta del endpoint de estado del actualizador
type UpdaterStatus struct {
	IsUpdating         bool      `json:"is_updating"`
	UpdateFrequency    string    `json:"update_frequency"`
	IsAutoUpdateActive bool      `json:"is_auto_update_active"`
	LastUpdated        time.Time `json:"last_updated"`
}

// PriceUpdater refresca periódicamente los precios del catálogo desde el
// proveedor externo. Los refrescos son single-flight: si un tick llega mientras
// hay un refresco en curso, se descarta (no se encola).
type PriceUpdater struct {
	interval     time.Duration
	coinRepo     CoinRepositoryInterface
	priceService *PriceService
	isRunning    bool
	isUpdating   bool
	stopChan     chan struct{}
	mutex        sync.Mutex
	lastUpdated  time.Time
}

// NewPriceUpdater crea un nuevo servicio de actualización de precios
func NewPriceUpdater(interval time.Duration, coinRepo CoinRepositoryInterface, priceService *PriceService) *PriceUpdater {
	return &PriceUpdater{
		interval:     interval,
		coinRepo:     coinRepo,
		priceService: priceService,
		stopChan:     make(chan struct{}),
	}
}

// Start inicia el refresco automático: actualiza inmediatamente y después
// en cada intervalo. Si ya está corriendo no hace nada.
func (p *PriceUpdater) Start() {
	p.mutex.Lock()
	if p.isRunning {
		p.mutex.Unlock()
		return
	}
	p.isRunning = true
	p.stopChan = make(chan struct{})
	stopChan := p.stopChan
	interval := p.interval
	p.mutex.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Actualizar inmediatamente al iniciar
		p.RefreshAll()

		for {
			select {
			case <-ticker.C:
				p.RefreshAll()
			case <-stopChan:
				return
			}
		}
	}()

	log.Printf("Servicio de actualización de precios iniciado con intervalo de %v", interval)
}

// Stop detiene el refresco automático
func (p *PriceUpdater) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.isRunning {
		return
	}

	p.isRunning = false
	close(p.stopChan)
	log.Printf("Servicio de actualización de precios detenido")
}

// SetInterval cambia el intervalo de refresco. Si el servicio está corriendo
// hay que reiniciarlo para que tome el nuevo valor.
func (p *PriceUpdater) SetInterval(interval time.Duration) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.interval = interval
}

// RefreshAll actualiza los precios de todas las monedas del catálogo con una
// sola llamada batch al proveedor. Devuelve false si se descartó por haber
// otro refresco en curso. Las monedas que el proveedor no devuelve quedan
// sin tocar.
func (p *PriceUpdater) RefreshAll() bool {
	p.mutex.Lock()
	if p.isUpdating {
		p.mutex.Unlock()
		log.Printf("Refresco de precios en curso, se descarta el nuevo pedido")
		return false
	}
	p.isUpdating = true
	p.mutex.Unlock()

	defer func() {
		p.mutex.Lock()
		p.isUpdating = false
		p.mutex.Unlock()
	}()

	coinIDs, err := p.coinRepo.GetAllCoinIDs()
	if err != nil {
		log.Printf("Error al obtener las monedas del catálogo: %v", err)
		return true
	}

	if len(coinIDs) == 0 {
		log.Printf("No hay monedas en el catálogo para actualizar")
		return true
	}

	prices := p.priceService.GetMultipleCoinPrices(coinIDs)

	updated := 0
	for _, coinID := range coinIDs {
		price, exists := prices[coinID]
		if !exists {
			continue
		}
		if err := p.coinRepo.UpdateCoinPrice(coinID, price); err != nil {
			log.Printf("Error al actualizar el precio de %s: %v", coinID, err)
			continue
		}
		updated++
	}

	p.mutex.Lock()
	p.lastUpdated = time.Now()
	p.mutex.Unlock()

	log.Printf("Actualización de precios completada: %d de %d monedas", updated, len(coinIDs))
	return true
}

// AddTopCoins agrega al catálogo las principales monedas por capitalización
// que todavía no existen. No modifica las filas existentes.
// Devuelve la cantidad de monedas agregadas.
func (p *PriceUpdater) AddTopCoins(limit int) (int, error) {
	topCoins := p.priceService.GetTopCoins(limit)
	if len(topCoins) == 0 {
		log.Printf("El proveedor no devolvió monedas")
		return 0, nil
	}

	added := 0
	for _, coinData := range topCoins {
		if coinData.ID == "" || coinData.Name == "" || coinData.Symbol == "" {
			continue
		}

		lastUpdated, err := time.Parse(time.RFC3339, coinData.LastUpdated)
		if err != nil {
			lastUpdated = time.Now()
		}

		coin := &models.Coin{
			ID:             coinData.ID,
			Name:           coinData.Name,
			Symbol:         coinData.Symbol,
			Price:          coinData.Price,
			MarketCap:      coinData.MarketCap,
			MarketCapRank:  coinData.MarketCapRank,
			PriceChange24h: coinData.PriceChange24h,
			Volume24h:      coinData.Volume24h,
			Image:          coinData.Image,
			LastUpdated:    lastUpdated,
		}

		inserted, err := p.coinRepo.InsertCoinIfAbsent(coin)
		if err != nil {
			log.Printf("Error al insertar la moneda %s: %v", coin.ID, err)
			continue
		}
		if inserted {
			added++
		}
	}

	log.Printf("Se agregaron %d monedas nuevas al catálogo", added)
	return added, nil
}

// Status devuelve el estado actual del actualizador
func (p *PriceUpdater) Status() UpdaterStatus {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return UpdaterStatus{
		IsUpdating:         p.isUpdating,
		UpdateFrequency:    p.interval.String(),
		IsAutoUpdateActive: p.isRunning,
		LastUpdated:        p.lastUpdated,
	}
}
