// Package ingest loads venue price lists from CSV exports.
//
// Each file covers one venue. The venue name comes from the filename, which
// follows the "Drink Pricing - <venue>.csv" convention, falling back to the
// bare filename when the prefix is absent. Headers are matched loosely so
// that minor export differences (casing, "Type of Liquor" vs "Type") do not
// break imports.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pourcost/topshelf/internal/common"
	"github.com/pourcost/topshelf/internal/model"
)

const filenamePrefix = "Drink Pricing - "

// VenueFromFilename derives the venue name from a price list filename.
func VenueFromFilename(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.TrimPrefix(name, filenamePrefix)
	return strings.TrimSpace(name)
}

// LoadFile parses one venue's price list. Rows with a missing bottle name or
// an unparseable price are skipped with a warning rather than failing the
// whole import.
func LoadFile(path string) ([]model.PriceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price list: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := Parse(f, VenueFromFilename(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// LoadDir loads every CSV price list in a directory.
func LoadDir(dir string) ([]model.PriceRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var all []model.PriceRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		records, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: no price lists found in %s", common.ErrInsufficientData, dir)
	}
	return all, nil
}

// Parse reads price records for a single venue from CSV data.
func Parse(r io.Reader, venue string) ([]model.PriceRecord, error) {
	if strings.TrimSpace(venue) == "" {
		return nil, fmt.Errorf("venue name is required")
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty price list", common.ErrInsufficientData)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var (
		records []model.PriceRecord
		skipped int
		line    = 1
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			slog.Warn("skipping malformed row", "venue", venue, "line", line, "error", err)
			skipped++
			continue
		}

		rec, ok := parseRow(row, cols, venue)
		if !ok {
			slog.Debug("skipping incomplete row", "venue", venue, "line", line)
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		slog.Warn("skipped rows during import", "venue", venue, "skipped", skipped, "loaded", len(records))
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no usable rows for venue %q", common.ErrInsufficientData, venue)
	}
	return records, nil
}

type columns struct {
	name, typ, price int
}

// mapColumns locates the name, type, and price columns by loose header match.
func mapColumns(header []string) (columns, error) {
	cols := columns{name: -1, typ: -1, price: -1}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		switch {
		case cols.name < 0 && (key == "name" || key == "bottle" || strings.Contains(key, "product")):
			cols.name = i
		case cols.typ < 0 && strings.Contains(key, "type"):
			cols.typ = i
		case cols.price < 0 && strings.Contains(key, "price"):
			cols.price = i
		}
	}
	if cols.name < 0 || cols.price < 0 {
		return cols, fmt.Errorf("price list is missing a name or price column (headers: %s)", strings.Join(header, ", "))
	}
	return cols, nil
}

func parseRow(row []string, cols columns, venue string) (model.PriceRecord, bool) {
	field := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	bottle := field(cols.name)
	if bottle == "" {
		return model.PriceRecord{}, false
	}

	price, err := parsePrice(field(cols.price))
	if err != nil || price <= 0 {
		return model.PriceRecord{}, false
	}

	bottleType := field(cols.typ)
	if bottleType == "" {
		bottleType = "Unknown"
	}

	return model.PriceRecord{
		Venue:  venue,
		Bottle: bottle,
		Type:   bottleType,
		Price:  price,
	}, true
}

// parsePrice handles currency formatting in exported sheets, e.g. "$1,200.00".
func parsePrice(s string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if cleaned == "" {
		return 0, fmt.Errorf("empty price")
	}
	return strconv.ParseFloat(cleaned, 64)
}
