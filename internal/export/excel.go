// Package export writes the reservation ledger out for the back office:
// Excel workbooks and Google Sheets.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

const sheetName = "Reservations"

var columns = []string{
	"ID", "Client", "Email", "Phone", "Item", "Places",
	"Total due", "Amount paid", "Plan", "Status", "Created at",
}

// ExcelExporter renders reservations into an xlsx workbook.
type ExcelExporter struct {
	dir string
}

func NewExcelExporter(dir string) *ExcelExporter {
	return &ExcelExporter{dir: dir}
}

func buildWorkbook(reservations []*models.Reservation) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating style: %w", err)
	}

	for col, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheetName, cell, name)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, res := range reservations {
		row := i + 2
		values := []interface{}{
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
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 38)
	f.SetColWidth(sheetName, "B", "E", 24)

	return f, nil
}

// Write streams the workbook, for HTTP downloads.
func (e *ExcelExporter) Write(w io.Writer, reservations []*models.Reservation) error {
	f, err := buildWorkbook(reservations)
	if err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// SaveToFile writes the workbook under the export directory and returns
// its path.
func (e *ExcelExporter) SaveToFile(reservations []*models.Reservation) (string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := buildWorkbook(reservations)
	if err != nil {
		return "", err
	}

	path := filepath.Join(e.dir, fmt.Sprintf("reservations-%s.xlsx", time.Now().Format("20060102-150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("error saving workbook: %w", err)
	}
	return path, nil
}
