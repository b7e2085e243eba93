package database

import (
	"database/sql"
	"fmt"

	"dealscreener/server/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

// GetAllListings returns every comparable listing of the market table
func (d *Database) GetAllListings() ([]models.Listing, error) {
	rows, err := d.db.Query(`
        SELECT
            id,
            zona,
            m2,
            recamaras,
            banos,
            estacionamientos,
            precio_venta_mxn,
            antiguedad_anios,
            vacancia_pct,
            riesgo_zona,
            renta_mensual_mxn
        FROM market_listings
        ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		var zone sql.NullString
		var m2, bedrooms, bathrooms, parking, price, age, vacancy, risk, rent sql.NullFloat64

		err := rows.Scan(
			&l.ID,
			&zone,
			&m2,
			&bedrooms,
			&bathrooms,
			&parking,
			&price,
			&age,
			&vacancy,
			&risk,
			&rent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}

		// Every numeric column is required for training
		for _, v := range []sql.NullFloat64{m2, bedrooms, bathrooms, parking, price, age, vacancy, risk, rent} {
			if !v.Valid {
				return nil, fmt.Errorf("listing %d has a NULL numeric column", l.ID)
			}
		}

		if zone.Valid {
			l.Zone = zone.String
		}
		l.BuiltArea = m2.Float64
		l.Bedrooms = bedrooms.Float64
		l.Bathrooms = bathrooms.Float64
		l.Parking = parking.Float64
		l.SalePrice = price.Float64
		l.AgeYears = age.Float64
		l.VacancyPct = vacancy.Float64
		l.ZoneRisk = risk.Float64
		l.MonthlyRent = rent.Float64

		listings = append(listings, l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	return listings, nil
}

// GetZones returns the distinct zone names present in the market table
func (d *Database) GetZones() ([]string, error) {
	rows, err := d.db.Query(`
        SELECT DISTINCT zona
        FROM market_listings
        WHERE zona IS NOT NULL AND zona != ''
        ORDER BY zona
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	zones := []string{}
	for rows.Next() {
		var zone string
		if err := rows.Scan(&zone); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zones = append(zones, zone)
	}
	return zones, rows.Err()
}

// CountListings returns the number of rows in the market table
func (d *Database) CountListings() (int, error) {
	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM market_listings").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}

// InsertListings inserts a batch of listings into the market table
func (d *Database) InsertListings(listings []models.Listing) error {
	return d.withTx(func(tx *sql.Tx) error {
		return insertListings(tx, listings)
	})
}

// ReplaceListings swaps the whole market table for listings in one transaction
func (d *Database) ReplaceListings(listings []models.Listing) error {
	return d.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM market_listings"); err != nil {
			return fmt.Errorf("failed to clear listings: %w", err)
		}
		return insertListings(tx, listings)
	})
}

func (d *Database) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertListings(tx *sql.Tx, listings []models.Listing) error {
	stmt, err := tx.Prepare(`
		INSERT INTO market_listings
		(zona, m2, recamaras, banos, estacionamientos, precio_venta_mxn,
		 antiguedad_anios, vacancia_pct, riesgo_zona, renta_mensual_mxn)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, l := range listings {
		_, err = stmt.Exec(
			l.Zone,
			l.BuiltArea,
			l.Bedrooms,
			l.Bathrooms,
			l.Parking,
			l.SalePrice,
			l.AgeYears,
			l.VacancyPct,
			l.ZoneRisk,
			l.MonthlyRent,
		)
		if err != nil {
			return fmt.Errorf("failed to insert listing: %w", err)
		}
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
