package models

import "time"

// Tipos de transacción permitidos
const (
	TransactionBuy     = "buy"
	TransactionSell    = "sell"
	TransactionConvert = "convert"
)

// Transaction es un registro inmutable de una operación de compra, venta o conversión.
// Para las conversiones, ToCoinID y ToAmount describen la pata de destino.
type Transaction struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Type       string    `json:"type"`
	CoinID     string    `json:"coin_id"`
	Amount     float64   `json:"amount"`
	Price      float64   `json:"price"`
	TotalValue float64   `json:"total_value"`
	ToCoinID   string    `json:"to_coin_id,omitempty"`
	ToAmount   float64   `json:"to_amount,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
