package models

import "time"

// Holding es la posición de un usuario en una moneda.
// Invariante: amount > 0; una tenencia que llega a cero se elimina, no se conserva.
type Holding struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CoinID      string    `json:"coin_id"`
	Amount      float64   `json:"amount"`
	AvgBuyPrice float64   `json:"avg_buy_price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Portfolio es la respuesta del endpoint de portafolio: saldo más tenencias no nulas
type Portfolio struct {
	Balance  float64   `json:"balance"`
	Holdings []Holding `json:"holdings"`
}
