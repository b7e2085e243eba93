// Command import loads a market CSV into a SQLite dataset file the server can read.
package main

import (
	"flag"
	"os"

	"dealscreener/server/internal/database"
	"dealscreener/server/internal/dataset"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	csvPath := flag.String("csv", "data/base_mercado_qro.csv", "market CSV to import")
	dbPath := flag.String("db", "data/base_mercado_qro.db", "SQLite dataset to write")
	appendRows := flag.Bool("append", false, "append instead of replacing existing listings")
	flag.Parse()

	f, err := os.Open(*csvPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open CSV")
	}
	defer f.Close()

	listings, err := dataset.ReadCSV(f)
	if err != nil {
		logger.WithError(err).Fatal("Failed to read CSV")
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	if *appendRows {
		err = db.InsertListings(listings)
	} else {
		err = db.ReplaceListings(listings)
	}
	if err != nil {
		logger.WithError(err).Fatal("Failed to import listings")
	}

	total, err := db.CountListings()
	if err != nil {
		logger.WithError(err).Fatal("Failed to count listings")
	}

	zones, err := db.GetZones()
	if err != nil {
		logger.WithError(err).Fatal("Failed to list zones")
	}

	logger.WithFields(logrus.Fields{
		"csv":      *csvPath,
		"db":       *dbPath,
		"imported": len(listings),
		"total":    total,
		"zones":    len(zones),
	}).Info("Import completed")
}
