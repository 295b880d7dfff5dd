package database

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

func InitDB() error {
	// Permitir sobrescribir la ruta de la base de datos (útil para tests)
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		// Crear el directorio database si no existe
		if err := os.MkdirAll("database", 0755); err != nil {
			return err
		}
		dbPath = filepath.Join("database", "trading.db")
	}

	var err error
	DB, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	// Habilitar claves foráneas en SQLite
	if _, err := DB.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return err
	}

	// Crear tabla de usuarios si no existe
	createUsersTableSQL := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	_, err = DB.Exec(createUsersTableSQL)
	if err != nil {
		return err
	}

	// Crear tabla del catálogo de monedas
	createCoinsTableSQL := `
	CREATE TABLE IF NOT EXISTS coins (
		c_id TEXT PRIMARY KEY,
		c_name TEXT NOT NULL,
		symbol TEXT NOT NULL,
		price REAL DEFAULT 0,
		market_cap REAL DEFAULT 0,
		market_cap_rank INTEGER DEFAULT 0,
		price_change_24h REAL DEFAULT 0,
		volume_24h REAL DEFAULT 0,
		image TEXT DEFAULT '',
		last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	_, err = DB.Exec(createCoinsTableSQL)
	if err != nil {
		return err
	}

	// Crear tabla de billeteras (una por usuario, saldo inicial 10000)
	createWalletsTableSQL := `
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		user_id TEXT UNIQUE NOT NULL,
		balance REAL NOT NULL DEFAULT 10000,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	_, err = DB.Exec(createWalletsTableSQL)
	if err != nil {
		return err
	}

	// Crear tabla de tenencias por usuario y moneda
	createHoldingsTableSQL := `
	CREATE TABLE IF NOT EXISTS holdings (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		coin_id TEXT NOT NULL,
		amount REAL NOT NULL DEFAULT 0,
		avg_buy_price REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, coin_id),
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	_, err = DB.Exec(createHoldingsTableSQL)
	if err != nil {
		return err
	}

	// Crear tabla de transacciones (registro inmutable, solo inserciones)
	createTransactionsTableSQL := `
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL CHECK(type IN ('buy', 'sell', 'convert')),
		coin_id TEXT NOT NULL,
		amount REAL NOT NULL,
		price REAL NOT NULL,
		total_value REAL NOT NULL,
		to_coin_id TEXT,
		to_amount REAL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	_, err = DB.Exec(createTransactionsTableSQL)
	if err != nil {
		return err
	}

	// Crear índice para búsqueda rápida del historial por usuario y fecha
	createTransactionsIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_transactions_user_timestamp
	ON transactions(user_id, timestamp);`

	_, err = DB.Exec(createTransactionsIndexSQL)
	if err != nil {
		return err
	}

	// Ejecutar migraciones para actualizar el esquema
	err = RunMigrations()
	return err
}
