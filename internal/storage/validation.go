package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pourcost/topshelf/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrEmptySlice     = errors.New("slice cannot be empty")
	ErrInvalidRecord  = errors.New("invalid price record")
	ErrInvalidCost    = errors.New("invalid cost entry")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validatePriceRecords validates a slice of price records.
func validatePriceRecords(records []model.PriceRecord) error {
	if records == nil {
		return fmt.Errorf("%w: records", ErrNilParameter)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: records", ErrEmptySlice)
	}

	for i, r := range records {
		if err := validatePriceRecord(r); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}
	return nil
}

// validatePriceRecord validates a single price record.
func validatePriceRecord(r model.PriceRecord) error {
	if strings.TrimSpace(r.Venue) == "" {
		return fmt.Errorf("%w: venue is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Bottle) == "" {
		return fmt.Errorf("%w: bottle is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Type) == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidRecord)
	}
	if r.Price <= 0 || math.IsNaN(r.Price) || math.IsInf(r.Price, 0) {
		return fmt.Errorf("%w: price must be positive, got %v", ErrInvalidRecord, r.Price)
	}
	return nil
}

// validateCostValue validates a cost amount.
func validateCostValue(cost float64, name string) error {
	if cost < 0 || math.IsNaN(cost) || math.IsInf(cost, 0) {
		return fmt.Errorf("%w: %s must be non-negative, got %v", ErrInvalidCost, name, cost)
	}
	return nil
}
