package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pourcost/topshelf/internal/model"
)

// SavePriceRecords replaces the stored record set with the given records.
// The record set is supplied wholesale once per benchmarking cycle, so a
// partial update has no meaning here. Duplicate (venue, bottle) listings
// within one batch resolve last-wins.
func (s *SQLiteStorage) SavePriceRecords(ctx context.Context, records []model.PriceRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePriceRecords(records); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM price_records"); err != nil {
		return fmt.Errorf("failed to clear price records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO price_records (venue, bottle, bottle_normalized, type, price)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Venue, r.Bottle, model.NormalizedBottle(r.Bottle), r.Type, r.Price); err != nil {
			return fmt.Errorf("failed to insert record for %q at %q: %w", r.Bottle, r.Venue, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// GetPriceRecords returns the full stored record set.
func (s *SQLiteStorage) GetPriceRecords(ctx context.Context) ([]model.PriceRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT venue, bottle, type, price
		FROM price_records
		ORDER BY venue, bottle_normalized`)
	if err != nil {
		return nil, fmt.Errorf("failed to query price records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// GetPriceRecordsByVenue returns the stored records for one venue.
func (s *SQLiteStorage) GetPriceRecordsByVenue(ctx context.Context, venue string) ([]model.PriceRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(venue, "venue"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT venue, bottle, type, price
		FROM price_records
		WHERE venue = ?
		ORDER BY bottle_normalized`, venue)
	if err != nil {
		return nil, fmt.Errorf("failed to query price records for venue %q: %w", venue, err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// GetVenues returns the distinct venues in the stored record set.
func (s *SQLiteStorage) GetVenues(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT venue FROM price_records ORDER BY venue`)
	if err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var venues []string
	for rows.Next() {
		var venue string
		if err := rows.Scan(&venue); err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		venues = append(venues, venue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate venues: %w", err)
	}
	return venues, nil
}

func scanRecords(rows *sql.Rows) ([]model.PriceRecord, error) {
	var records []model.PriceRecord
	for rows.Next() {
		var r model.PriceRecord
		if err := rows.Scan(&r.Venue, &r.Bottle, &r.Type, &r.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price records: %w", err)
	}
	return records, nil
}
