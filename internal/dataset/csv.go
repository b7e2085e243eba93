package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"dealscreener/server/internal/models"
)

var schemaColumns = append([]string{models.ColZone}, models.NumericColumns...)

func loadCSV(path string) ([]models.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses a market table with a header row. Columns may come in any order;
// extra columns are ignored.
func ReadCSV(r io.Reader) ([]models.Listing, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		// Spreadsheet exports often start with a UTF-8 BOM
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		index[name] = i
	}

	var missing []string
	for _, c := range schemaColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	var listings []models.Listing
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		values := make([]float64, len(models.NumericColumns))
		for j, c := range models.NumericColumns {
			raw := strings.TrimSpace(record[index[c]])
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %q is not numeric", ErrSchemaMismatch, line, c, raw)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: line %d column %s: %q is not a finite number", ErrSchemaMismatch, line, c, raw)
			}
			values[j] = v
		}

		listings = append(listings, models.Listing{
			Zone:        strings.TrimSpace(record[index[models.ColZone]]),
			BuiltArea:   values[0],
			Bedrooms:    values[1],
			Bathrooms:   values[2],
			Parking:     values[3],
			SalePrice:   values[4],
			AgeYears:    values[5],
			VacancyPct:  values[6],
			ZoneRisk:    values[7],
			MonthlyRent: values[8],
		})
	}

	return listings, nil
}
