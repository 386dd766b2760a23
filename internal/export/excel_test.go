package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

func TestExcelExporterWrite(t *testing.T) {
	reservations := []*models.Reservation{
		{
			ID:         "res-1",
			Client:     models.Client{FirstName: "Ayao", LastName: "Gbohouili", Email: "ayao@example.com", Phone: "+22990000000"},
			Item:       models.ItemRef{Kind: models.KindEvent, ID: "evt-1"},
			Count:      2,
			TotalDue:   10000,
			AmountPaid: 5000,
			Plan:       models.PlanTwoPart,
			Status:     models.StatusPartial,
			CreatedAt:  time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	exporter := NewExcelExporter(t.TempDir())
	require.NoError(t, exporter.Write(&buf, reservations))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	id, err := f.GetCellValue(sheetName, "A2")
	require.NoError(t, err)
	require.Equal(t, "res-1", id)

	name, err := f.GetCellValue(sheetName, "B2")
	require.NoError(t, err)
	require.Equal(t, "Ayao Gbohouili", name)

	status, err := f.GetCellValue(sheetName, "J2")
	require.NoError(t, err)
	require.Equal(t, "partial", status)
}

func TestExcelExporterSaveToFile(t *testing.T) {
	exporter := NewExcelExporter(t.TempDir())
	path, err := exporter.SaveToFile(nil)
	require.NoError(t, err)
	require.FileExists(t, path)
}
