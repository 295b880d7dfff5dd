package repository

import (
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/models"
	"github.com/google/uuid"
)

var (
	ErrMontoInvalido        = errors.New("monto inválido")
	ErrMismaMoneda          = errors.New("no se puede convertir a la misma moneda")
	ErrSaldoInsuficiente    = errors.New("saldo insuficiente")
	ErrTenenciaInsuficiente = errors.New("tenencia insuficiente")
)

// Cantidad de transacciones que devuelve el historial
const transactionHistoryLimit = 50

// TradingRepository ejecuta las operaciones de compra, venta y conversión.
// Cada operación corre dentro de una única transacción SQL: el débito/crédito de la
// billetera, la actualización de la tenencia y el registro de la transacción se
// confirman juntos o no se confirman.
type TradingRepository struct {
	db *sql.DB
}

func NewTradingRepository(db *sql.DB) *TradingRepository {
	return &TradingRepository{db: db}
}

// redondear a 6 decimales (cantidad destino de una conversión)
func round6(value float64) float64 {
	return math.Round(value*1e6) / 1e6
}

// Buy compra amount unidades de coinID al precio actual del catálogo.
// Devuelve el nuevo saldo y la tenencia resultante.
func (r *TradingRepository) Buy(userID, coinID string, amount float64) (float64, *models.Holding, error) {
	if amount <= 0 {
		return 0, nil, ErrMontoInvalido
	}

	coin, err := r.getCoin(coinID)
	if err != nil {
		return 0, nil, err
	}

	cost := amount * coin.Price

	tx, err := r.db.Begin()
	if err != nil {
		return 0, nil, err
	}
	defer tx.Rollback()

	wallet, err := getOrCreateWallet(tx, userID)
	if err != nil {
		return 0, nil, err
	}

	if wallet.Balance < cost {
		return 0, nil, ErrSaldoInsuficiente
	}

	newBalance := wallet.Balance - cost
	if err := updateWalletBalance(tx, userID, newBalance); err != nil {
		return 0, nil, err
	}

	holding, err := mergeHolding(tx, userID, coinID, amount, coin.Price)
	if err != nil {
		return 0, nil, err
	}

	err = appendTransaction(tx, &models.Transaction{
		UserID:     userID,
		Type:       models.TransactionBuy,
		CoinID:     coinID,
		Amount:     amount,
		Price:      coin.Price,
		TotalValue: cost,
	})
	if err != nil {
		return 0, nil, err
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, err
	}

	return newBalance, holding, nil
}

// Sell vende amount unidades de coinID al precio actual.
// El precio promedio de compra no cambia en ventas parciales; si la tenencia
// queda en cero se elimina.
func (r *TradingRepository) Sell(userID, coinID string, amount float64) (float64, *models.Holding, error) {
	if amount <= 0 {
		return 0, nil, ErrMontoInvalido
	}

	coin, err := r.getCoin(coinID)
	if err != nil {
		return 0, nil, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, nil, err
	}
	defer tx.Rollback()

	holding, err := getHolding(tx, userID, coinID)
	if err != nil {
		return 0, nil, err
	}
	if holding == nil || holding.Amount < amount {
		return 0, nil, ErrTenenciaInsuficiente
	}

	value := amount * coin.Price

	wallet, err := getOrCreateWallet(tx, userID)
	if err != nil {
		return 0, nil, err
	}

	newBalance := wallet.Balance + value
	if err := updateWalletBalance(tx, userID, newBalance); err != nil {
		return 0, nil, err
	}

	remaining, err := reduceHolding(tx, holding, amount)
	if err != nil {
		return 0, nil, err
	}

	err = appendTransaction(tx, &models.Transaction{
		UserID:     userID,
		Type:       models.TransactionSell,
		CoinID:     coinID,
		Amount:     amount,
		Price:      coin.Price,
		TotalValue: value,
	})
	if err != nil {
		return 0, nil, err
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, err
	}

	return newBalance, remaining, nil
}

// Convert cambia amount unidades de fromCoinID por su equivalente en toCoinID
// al precio actual de ambas. La cantidad destino se redondea a 6 decimales.
func (r *TradingRepository) Convert(userID, fromCoinID, toCoinID string, amount float64) (*models.Holding, *models.Holding, error) {
	if amount <= 0 {
		return nil, nil, ErrMontoInvalido
	}
	if fromCoinID == toCoinID {
		return nil, nil, ErrMismaMoneda
	}

	fromCoin, err := r.getCoin(fromCoinID)
	if err != nil {
		return nil, nil, err
	}
	toCoin, err := r.getCoin(toCoinID)
	if err != nil {
		return nil, nil, err
	}

	sourceValue := amount * fromCoin.Price
	destAmount := round6(sourceValue / toCoin.Price)

	tx, err := r.db.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	sourceHolding, err := getHolding(tx, userID, fromCoinID)
	if err != nil {
		return nil, nil, err
	}
	if sourceHolding == nil || sourceHolding.Amount < amount {
		return nil, nil, ErrTenenciaInsuficiente
	}

	remaining, err := reduceHolding(tx, sourceHolding, amount)
	if err != nil {
		return nil, nil, err
	}

	destination, err := mergeHolding(tx, userID, toCoinID, destAmount, toCoin.Price)
	if err != nil {
		return nil, nil, err
	}

	err = appendTransaction(tx, &models.Transaction{
		UserID:     userID,
		Type:       models.TransactionConvert,
		CoinID:     fromCoinID,
		Amount:     amount,
		Price:      fromCoin.Price,
		TotalValue: sourceValue,
		ToCoinID:   toCoinID,
		ToAmount:   destAmount,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	return remaining, destination, nil
}

// GetPortfolio devuelve el saldo actual y las tenencias no nulas del usuario.
// Si el usuario todavía no tiene billetera se crea con el saldo inicial.
func (r *TradingRepository) GetPortfolio(userID string) (*models.Portfolio, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	wallet, err := getOrCreateWallet(tx, userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, coin_id, amount, avg_buy_price, created_at, updated_at
		FROM holdings
		WHERE user_id = ? AND amount > 0
		ORDER BY coin_id`

	rows, err := tx.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holdings := []models.Holding{}
	for rows.Next() {
		var h models.Holding
		err := rows.Scan(&h.ID, &h.UserID, &h.CoinID, &h.Amount, &h.AvgBuyPrice, &h.CreatedAt, &h.UpdatedAt)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.Portfolio{
		Balance:  wallet.Balance,
		Holdings: holdings,
	}, nil
}

// GetRecentTransactions devuelve las últimas 50 transacciones del usuario,
// de la más nueva a la más vieja.
func (r *TradingRepository) GetRecentTransactions(userID string) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, type, coin_id, amount, price, total_value, to_coin_id, to_amount, timestamp
		FROM transactions
		WHERE user_id = ?
		ORDER BY timestamp DESC
		LIMIT ?`

	rows, err := r.db.Query(query, userID, transactionHistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var toCoinID sql.NullString
		var toAmount sql.NullFloat64
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Type, &t.CoinID, &t.Amount,
			&t.Price, &t.TotalValue, &toCoinID, &toAmount, &t.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		t.ToCoinID = toCoinID.String
		t.ToAmount = toAmount.Float64
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}

// CreateWallet crea la billetera inicial del usuario (se llama en el registro)
func (r *TradingRepository) CreateWallet(userID string) error {
	query := `INSERT OR IGNORE INTO wallets (id, user_id, balance) VALUES (?, ?, ?)`
	_, err := r.db.Exec(query, uuid.NewString(), userID, float64(models.InitialBalance))
	return err
}

func (r *TradingRepository) getCoin(coinID string) (*models.Coin, error) {
	coin := &models.Coin{}
	query := `SELECT c_id, price FROM coins WHERE c_id = ?`

	err := r.db.QueryRow(query, coinID).Scan(&coin.ID, &coin.Price)
	if err == sql.ErrNoRows {
		return nil, ErrMonedaNoEncontrada
	}

	return coin, err
}

// --- helpers que operan dentro de la transacción SQL ---

func getOrCreateWallet(tx *sql.Tx, userID string) (*models.Wallet, error) {
	wallet := &models.Wallet{UserID: userID}
	query := `SELECT id, balance FROM wallets WHERE user_id = ?`

	err := tx.QueryRow(query, userID).Scan(&wallet.ID, &wallet.Balance)
	if err == sql.ErrNoRows {
		wallet.ID = uuid.NewString()
		wallet.Balance = models.InitialBalance
		insertQuery := `INSERT INTO wallets (id, user_id, balance) VALUES (?, ?, ?)`
		if _, err := tx.Exec(insertQuery, wallet.ID, userID, wallet.Balance); err != nil {
			return nil, err
		}
		return wallet, nil
	}
	if err != nil {
		return nil, err
	}

	return wallet, nil
}

func updateWalletBalance(tx *sql.Tx, userID string, balance float64) error {
	query := `UPDATE wallets SET balance = ?, updated_at = ? WHERE user_id = ?`
	_, err := tx.Exec(query, balance, time.Now(), userID)
	return err
}

// getHolding devuelve la tenencia del usuario en la moneda, o nil si no existe
func getHolding(tx *sql.Tx, userID, coinID string) (*models.Holding, error) {
	holding := &models.Holding{}
	query := `
		SELECT id, user_id, coin_id, amount, avg_buy_price
		FROM holdings
		WHERE user_id = ? AND coin_id = ?`

	err := tx.QueryRow(query, userID, coinID).Scan(
		&holding.ID, &holding.UserID, &holding.CoinID,
		&holding.Amount, &holding.AvgBuyPrice,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return holding, nil
}

// mergeHolding suma amount a la tenencia aplicando precio promedio ponderado:
// nuevoPromedio = (cantVieja*promedioViejo + cant*precio) / (cantVieja + cant)
func mergeHolding(tx *sql.Tx, userID, coinID string, amount, price float64) (*models.Holding, error) {
	holding, err := getHolding(tx, userID, coinID)
	if err != nil {
		return nil, err
	}

	if holding == nil {
		holding = &models.Holding{
			ID:          uuid.NewString(),
			UserID:      userID,
			CoinID:      coinID,
			Amount:      amount,
			AvgBuyPrice: price,
		}
		insertQuery := `
			INSERT INTO holdings (id, user_id, coin_id, amount, avg_buy_price)
			VALUES (?, ?, ?, ?, ?)`
		if _, err := tx.Exec(insertQuery, holding.ID, userID, coinID, amount, price); err != nil {
			return nil, err
		}
		return holding, nil
	}

	newAmount := holding.Amount + amount
	newAvg := (holding.Amount*holding.AvgBuyPrice + amount*price) / newAmount

	updateQuery := `
		UPDATE holdings
		SET amount = ?, avg_buy_price = ?, updated_at = ?
		WHERE id = ?`
	if _, err := tx.Exec(updateQuery, newAmount, newAvg, time.Now(), holding.ID); err != nil {
		return nil, err
	}

	holding.Amount = newAmount
	holding.AvgBuyPrice = newAvg
	return holding, nil
}

// reduceHolding resta amount de la tenencia; si queda en cero (o menos) la
// elimina y devuelve nil
func reduceHolding(tx *sql.Tx, holding *models.Holding, amount float64) (*models.Holding, error) {
	newAmount := holding.Amount - amount

	if newAmount <= 0 {
		if _, err := tx.Exec(`DELETE FROM holdings WHERE id = ?`, holding.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	updateQuery := `UPDATE holdings SET amount = ?, updated_at = ? WHERE id = ?`
	if _, err := tx.Exec(updateQuery, newAmount, time.Now(), holding.ID); err != nil {
		return nil, err
	}

	holding.Amount = newAmount
	return holding, nil
}

func appendTransaction(tx *sql.Tx, t *models.Transaction) error {
	t.ID = uuid.NewString()
	t.Timestamp = time.Now()

	var toCoinID interface{}
	var toAmount interface{}
	if t.Type == models.TransactionConvert {
		toCoinID = t.ToCoinID
		toAmount = t.ToAmount
	}

	query := `
		INSERT INTO transactions (id, user_id, type, coin_id, amount, price, total_value, to_coin_id, to_amount, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := tx.Exec(query,
		t.ID, t.UserID, t.Type, t.CoinID, t.Amount,
		t.Price, t.TotalValue, toCoinID, toAmount, t.Timestamp,
	)
	return err
}
