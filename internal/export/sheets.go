package export

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

// SheetsExporter mirrors the reservation ledger into a Google Sheet via
// a service-account credential.
type SheetsExporter struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewSheetsExporter(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsExporter, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return &SheetsExporter{service: srv, spreadsheetID: spreadsheetID}, nil
}

// TestConnection checks the spreadsheet is reachable.
func (s *SheetsExporter) TestConnection() error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheetName+"!A1").Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// Export rewrites the reservations sheet with the current ledger.
func (s *SheetsExporter) Export(ctx context.Context, reservations []*models.Reservation) error {
	var values [][]interface{}

	headers := make([]interface{}, len(columns))
	for i, c := range columns {
		headers[i] = c
	}
	values = append(values, headers)

	for _, res := range reservations {
		values = append(values, []interface{}{
			res.ID,
			res.Client.FullName(),
			res.Client.Email,
			res.Client.Phone,
			res.Item.String(),
			res.Count,
			res.TotalDue,
			res.AmountPaid,
			string(res.Plan),
			string(res.Status),
			res.CreatedAt.Format("02.01.2006 15:04"),
		})
	}

	rangeRef := sheetName + "!A1"
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, sheetName, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to clear sheet: %w", err)
	}
	_, err := s.service.Spreadsheets.Values.
		Update(s.spreadsheetID, rangeRef, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to update sheet: %w", err)
	}
	return nil
}
