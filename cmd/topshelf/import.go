package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pourcost/topshelf/internal/cli"
	"github.com/pourcost/topshelf/internal/ingest"
	"github.com/pourcost/topshelf/internal/model"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [path...]",
		Short: "Import venue price lists from CSV files",
		Long: `Import price lists exported as "Drink Pricing - <venue>.csv" files.
Each path may be a CSV file or a directory of them. Importing replaces the
stored record set, so pass every venue's list in one call.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := loadPaths(args)
	if err != nil {
		return err
	}

	if err := store.SavePriceRecords(ctx, records); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}

	venues := make(map[string]struct{})
	for _, r := range records {
		venues[r.Venue] = struct{}{}
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d listings across %d venues", len(records), len(venues))))
	return nil
}

// loadPaths loads every given file or directory of price lists.
func loadPaths(paths []string) ([]model.PriceRecord, error) {
	var all []model.PriceRecord
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}

		var records []model.PriceRecord
		if info.IsDir() {
			records, err = ingest.LoadDir(path)
		} else {
			records, err = ingest.LoadFile(path)
		}
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}
