package database

import "fmt"

func (d *Database) RunMigrations() error {
	// Create the market listings table
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_listings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			zona TEXT NOT NULL,
			m2 REAL NOT NULL,
			recamaras REAL NOT NULL,
			banos REAL NOT NULL,
			estacionamientos REAL NOT NULL,
			precio_venta_mxn REAL NOT NULL,
			antiguedad_anios REAL NOT NULL,
			vacancia_pct REAL NOT NULL,
			riesgo_zona REAL NOT NULL,
			renta_mensual_mxn REAL NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create market_listings table: %w", err)
	}

	// Zone lookups for the selector and per-zone stats
	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_market_listings_zona
		ON market_listings(zona);
	`)
	if err != nil {
		return err
	}

	return nil
}
