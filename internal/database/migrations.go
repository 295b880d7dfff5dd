package database

import (
	"log"
)

// RunMigrations ejecuta las migraciones necesarias para actualizar el esquema de la base de datos
func RunMigrations() error {
	log.Println("Ejecutando migraciones de la base de datos...")

	// Migración para añadir los campos de mercado a la tabla coins
	// (las instalaciones viejas solo tenían c_id, c_name y price)
	addMarketColumnsSQL := `
	ALTER TABLE coins ADD COLUMN market_cap_rank INTEGER DEFAULT 0;
	ALTER TABLE coins ADD COLUMN volume_24h REAL DEFAULT 0;
	ALTER TABLE coins ADD COLUMN image TEXT DEFAULT '';
	`

	_, err := DB.Exec(addMarketColumnsSQL)
	if err != nil {
		log.Printf("Error al añadir columnas de mercado: %v", err)
		// No retornamos error porque SQLite puede dar error si la columna ya existe
		// y queremos que la migración continúe
	} else {
		log.Println("Columnas de mercado añadidas correctamente")
	}

	return nil
}
