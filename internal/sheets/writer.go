package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/pourcost/topshelf/internal/common"
	"github.com/pourcost/topshelf/internal/model"
	"github.com/pourcost/topshelf/internal/service"
)

// Writer exports pricing reports to Google Sheets.
type Writer struct {
	service *sheetsapi.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	svc, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: svc,
		logger:  logger,
	}, nil
}

// Write exports the report, replacing any previous contents.
func (w *Writer) Write(ctx context.Context, data *ReportData) error {
	w.logger.Info("starting report export",
		"recommendations", len(data.Recommendations),
		"venues", len(data.VenueSummary))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := prepareReportValues(data)

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	w.logger.Info("report export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheetsapi.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheetsapi.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheetsapi.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheetsapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheetsapi.Spreadsheet{
		Properties: &sheetsapi.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheetsapi.Sheet{
			{
				Properties: &sheetsapi.SheetProperties{
					Title: "Recommendations",
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

// clearSheet clears all data from the sheet.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheetsapi.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeData writes the prepared values starting at A1.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	valueRange := &sheetsapi.ValueRange{Values: values}
	_, err := w.service.Spreadsheets.Values.
		Update(spreadsheetID, "A1", valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

// prepareReportValues flattens the report into sheet rows.
func prepareReportValues(data *ReportData) [][]any {
	estimatedRows := 10 + len(data.VenueSummary) + len(data.TypeSummary) + len(data.Recommendations)
	values := make([][]any, 0, estimatedRows)

	values = append(values,
		[]any{"Bottle Pricing Report", data.GeneratedAt.Format("Jan 2, 2006 15:04")},
		[]any{"Market median", data.GlobalMedian.StringFixed(2)},
		[]any{},
		[]any{"Venue", "Index", "Premium %", "Products"},
	)
	for _, v := range data.VenueSummary {
		values = append(values, []any{
			v.Venue, v.VPI.StringFixed(3), v.PremiumPct.StringFixed(1), v.Products,
		})
	}

	values = append(values,
		[]any{},
		[]any{"Type", "Median Price"},
	)
	for _, t := range data.TypeSummary {
		values = append(values, []any{t.Type, t.MedianPrice.StringFixed(2)})
	}

	values = append(values,
		[]any{},
		[]any{"Venue", "Bottle", "Type", "Current", "Recommended", "Change %", "Method", "Margin Shortfall", "Rationale"},
	)
	for _, r := range data.Recommendations {
		shortfall := ""
		if r.MarginShortfall {
			shortfall = "YES"
		}
		values = append(values, []any{
			r.Venue, r.Bottle, r.Type,
			r.CurrentPrice.StringFixed(2), r.RecommendedPrice.StringFixed(2), r.DeltaPct.StringFixed(1),
			r.Method, shortfall, r.Rationale,
		})
	}

	return values
}

// BuildReportData converts a bulk run and market analysis into export rows.
func BuildReportData(recs []model.Recommendation, analysis service.MarketAnalysis, productsPerVenue map[string]int, now time.Time) *ReportData {
	data := &ReportData{
		GeneratedAt:  now,
		GlobalMedian: decimal.NewFromFloat(analysis.GlobalMedian),
	}

	for _, v := range analysis.Venues {
		data.VenueSummary = append(data.VenueSummary, VenueSummaryRow{
			Venue:      v.Venue,
			VPI:        decimal.NewFromFloat(v.VPI),
			PremiumPct: decimal.NewFromFloat(v.PremiumPct),
			Products:   productsPerVenue[v.Venue],
		})
	}

	for _, t := range analysis.TypeMedians {
		data.TypeSummary = append(data.TypeSummary, TypeSummaryRow{
			Type:        t.Type,
			MedianPrice: decimal.NewFromFloat(t.Median),
		})
	}

	for _, rec := range recs {
		data.Recommendations = append(data.Recommendations, RecommendationRow{
			Venue:            rec.Venue,
			Bottle:           rec.Bottle,
			Type:             rec.Type,
			CurrentPrice:     decimal.NewFromFloat(rec.CurrentPrice),
			RecommendedPrice: decimal.NewFromFloat(rec.RecommendedPrice),
			DeltaPct:         decimal.NewFromFloat(rec.DeltaPct),
			Method:           string(rec.Method),
			Rationale:        rec.Rationale,
			MarginShortfall:  rec.MarginShortfall,
		})
	}

	return data
}
