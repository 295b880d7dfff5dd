package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/models"
)

var ErrMonedaNoEncontrada = errors.New("moneda no encontrada")

// Columnas permitidas para ordenar el listado del catálogo
var sortableColumns = map[string]string{
	"price":            "price",
	"market_cap":       "market_cap",
	"market_cap_rank":  "market_cap_rank",
	"price_change_24h": "price_change_24h",
	"c_name":           "c_name",
}

type CoinRepository struct {
	db *sql.DB
}

func NewCoinRepository(db *sql.DB) *CoinRepository {
	return &CoinRepository{db: db}
}

// GetAllCoins devuelve el catálogo ordenado. sortBy y order se validan contra
// una lista blanca para no interpolar entrada del usuario en el SQL.
func (r *CoinRepository) GetAllCoins(limit int, sortBy, order string) ([]models.Coin, error) {
	column, ok := sortableColumns[sortBy]
	if !ok {
		column = "market_cap_rank"
	}

	direction := "ASC"
	if order == "desc" {
		direction = "DESC"
	}

	if limit <= 0 || limit > 250 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT c_id, c_name, symbol, price, market_cap, market_cap_rank,
		       price_change_24h, volume_24h, image, last_updated
		FROM coins
		ORDER BY %s %s
		LIMIT ?`, column, direction)

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coins := []models.Coin{}
	for rows.Next() {
		var coin models.Coin
		err := rows.Scan(
			&coin.ID,
			&coin.Name,
			&coin.Symbol,
			&coin.Price,
			&coin.MarketCap,
			&coin.MarketCapRank,
			&coin.PriceChange24h,
			&coin.Volume24h,
			&coin.Image,
			&coin.LastUpdated,
		)
		if err != nil {
			return nil, err
		}
		coins = append(coins, coin)
	}

	return coins, rows.Err()
}

func (r *CoinRepository) GetCoin(coinID string) (*models.Coin, error) {
	coin := &models.Coin{}
	query := `
		SELECT c_id, c_name, symbol, price, market_cap, market_cap_rank,
		       price_change_24h, volume_24h, image, last_updated
		FROM coins
		WHERE c_id = ?`

	err := r.db.QueryRow(query, coinID).Scan(
		&coin.ID,
		&coin.Name,
		&coin.Symbol,
		&coin.Price,
		&coin.MarketCap,
		&coin.MarketCapRank,
		&coin.PriceChange24h,
		&coin.Volume24h,
		&coin.Image,
		&coin.LastUpdated,
	)

	if err == sql.ErrNoRows {
		return nil, ErrMonedaNoEncontrada
	}

	return coin, err
}

// GetAllCoinIDs devuelve los identificadores de todas las monedas del catálogo
// (se usa para armar la llamada batch al proveedor de precios)
func (r *CoinRepository) GetAllCoinIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT c_id FROM coins`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// UpsertCoin inserta la moneda o actualiza todos sus campos si ya existe
func (r *CoinRepository) UpsertCoin(coin *models.Coin) error {
	query := `
		INSERT INTO coins (c_id, c_name, symbol, price, market_cap, market_cap_rank,
		                   price_change_24h, volume_24h, image, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(c_id) DO UPDATE SET
			c_name = excluded.c_name,
			symbol = excluded.symbol,
			price = excluded.price,
			market_cap = excluded.market_cap,
			market_cap_rank = excluded.market_cap_rank,
			price_change_24h = excluded.price_change_24h,
			volume_24h = excluded.volume_24h,
			image = excluded.image,
			last_updated = excluded.last_updated`

	_, err := r.db.Exec(query,
		coin.ID, coin.Name, coin.Symbol, coin.Price, coin.MarketCap,
		coin.MarketCapRank, coin.PriceChange24h, coin.Volume24h,
		coin.Image, coin.LastUpdated,
	)
	return err
}

// UpdateCoinPrice actualiza solo los campos de mercado de una moneda existente.
// Las monedas que el proveedor no devuelve quedan sin tocar (nunca se borran).
func (r *CoinRepository) UpdateCoinPrice(coinID string, price models.CoinPrice) error {
	query := `
		UPDATE coins
		SET price = ?, market_cap = ?, price_change_24h = ?, volume_24h = ?, last_updated = ?
		WHERE c_id = ?`

	_, err := r.db.Exec(query,
		price.Price, price.MarketCap, price.PriceChange24h, price.Volume24h,
		time.Now(), coinID,
	)
	return err
}

// InsertCoinIfAbsent inserta la moneda solo si no existe todavía.
// Devuelve true si se insertó una fila nueva.
func (r *CoinRepository) InsertCoinIfAbsent(coin *models.Coin) (bool, error) {
	query := `
		INSERT OR IGNORE INTO coins (c_id, c_name, symbol, price, market_cap,
		                             market_cap_rank, price_change_24h, volume_24h,
		                             image, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.Exec(query,
		coin.ID, coin.Name, coin.Symbol, coin.Price, coin.MarketCap,
		coin.MarketCapRank, coin.PriceChange24h, coin.Volume24h,
		coin.Image, coin.LastUpdated,
	)
	if err != nil {
		return false, err
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return inserted > 0, nil
}
