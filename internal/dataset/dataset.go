// Package dataset loads the market table the estimators are trained on.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dealscreener/server/internal/database"
	"dealscreener/server/internal/estimator"
	"dealscreener/server/internal/models"
)

var (
	ErrSchemaMismatch    = errors.New("dataset schema mismatch")
	ErrEmptyDataset      = errors.New("dataset has no rows")
	ErrUnsupportedSource = errors.New("unsupported dataset source")
)

// Dataset is an immutable snapshot of the market table.
type Dataset struct {
	Source      string
	Fingerprint string
	Listings    []models.Listing
}

// Load reads the dataset at path. CSV files and SQLite databases are supported.
func Load(path string) (*Dataset, error) {
	fingerprint, err := Fingerprint(path)
	if err != nil {
		return nil, err
	}

	var listings []models.Listing
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		listings, err = loadCSV(path)
	case ".db", ".sqlite", ".sqlite3":
		listings, err = loadSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, path)
	}
	if err != nil {
		return nil, err
	}

	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDataset, path)
	}

	return &Dataset{
		Source:      path,
		Fingerprint: fingerprint,
		Listings:    listings,
	}, nil
}

// Fingerprint identifies the current version of a dataset source.
func Fingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat dataset: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrUnsupportedSource, path)
	}
	return fmt.Sprintf("%d-%d", info.Size(), info.ModTime().UnixNano()), nil
}

func loadSQLite(path string) ([]models.Listing, error) {
	db, err := database.NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset database: %w", err)
	}
	defer db.Close()

	listings, err := db.GetAllListings()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	for _, l := range listings {
		for j, v := range l.Values() {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: listing %d column %s is not a finite number", ErrSchemaMismatch, l.ID, models.NumericColumns[j])
			}
		}
	}
	return listings, nil
}

// Table returns the numeric columns as an estimator table.
func (d *Dataset) Table() *estimator.Table {
	t := estimator.NewTable(models.NumericColumns...)
	for _, l := range d.Listings {
		// Values always matches NumericColumns
		_ = t.Append(l.Values()...)
	}
	return t
}

// Zones returns the distinct zone names, sorted.
func (d *Dataset) Zones() []string {
	seen := make(map[string]struct{})
	for _, l := range d.Listings {
		if l.Zone != "" {
			seen[l.Zone] = struct{}{}
		}
	}

	zones := make([]string, 0, len(seen))
	for z := range seen {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones
}

// Len returns the number of listings.
func (d *Dataset) Len() int {
	return len(d.Listings)
}
