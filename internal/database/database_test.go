package database

import (
	"path/filepath"
	"testing"

	"dealscreener/server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "market.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations())
	return db
}

func sampleListings() []models.Listing {
	return []models.Listing{
		{Zone: "Juriquilla", BuiltArea: 120, Bedrooms: 3, Bathrooms: 2, Parking: 2, SalePrice: 4_100_000, AgeYears: 5, VacancyPct: 4, ZoneRisk: 2, MonthlyRent: 24_000},
		{Zone: "Centro", BuiltArea: 85, Bedrooms: 2, Bathrooms: 1, Parking: 0, SalePrice: 2_300_000, AgeYears: 30, VacancyPct: 8, ZoneRisk: 4, MonthlyRent: 13_500},
		{Zone: "Juriquilla", BuiltArea: 180, Bedrooms: 4, Bathrooms: 3, Parking: 2, SalePrice: 6_900_000, AgeYears: 2, VacancyPct: 3.5, ZoneRisk: 2, MonthlyRent: 36_000},
	}
}

func TestInsertAndGetListings(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.InsertListings(sampleListings()))

	listings, err := db.GetAllListings()
	require.NoError(t, err)
	require.Len(t, listings, 3)

	first := listings[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "Juriquilla", first.Zone)
	assert.Equal(t, 4_100_000.0, first.SalePrice)
	assert.Equal(t, 24_000.0, first.MonthlyRent)
	assert.Equal(t, 3.5, listings[2].VacancyPct)

	count, err := db.CountListings()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGetZones(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.InsertListings(sampleListings()))

	zones, err := db.GetZones()
	require.NoError(t, err)
	assert.Equal(t, []string{"Centro", "Juriquilla"}, zones)
}

func TestReplaceListings(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.InsertListings(sampleListings()))
	require.NoError(t, db.ReplaceListings(sampleListings()[:1]))

	count, err := db.CountListings()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := newTestDatabase(t)
	assert.NoError(t, db.RunMigrations())
}

func TestGetAllListings_WithoutTable(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.GetAllListings()
	assert.Error(t, err)
}
