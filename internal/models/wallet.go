package models

import "time"

// Saldo inicial de toda billetera nueva
const InitialBalance = 10000

// Wallet es la billetera simulada del usuario (una por usuario)
type Wallet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
