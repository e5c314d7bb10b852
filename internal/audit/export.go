package audit

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/alifh/alifh/internal/models"
)

const exportSheet = "Audit Log"

var ExportHeader = []string{
	"Time (UTC)",
	"Action",
	"Actor ID",
	"Resource Type",
	"Resource ID",
	"IP Address",
	"Event ID",
	"Details",
}

var exportColumnWidths = []float64{22, 28, 38, 18, 38, 18, 28, 60}

// Export renders logs as an xlsx workbook with one row per entry.
func Export(logs []models.AuditLog) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &ExportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(ExportHeader), 1)
	if err != nil {
		return nil, fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("set header style: %w", err)
	}

	for i, width := range exportColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(exportSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, l := range logs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row cell: %w", err)
		}
		row := exportRow(l)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func exportRow(l models.AuditLog) []any {
	row := []any{
		l.CreatedAt.UTC().Format(time.DateTime),
		l.Action,
		"",
		l.ResourceType,
		"",
		"",
		l.EventID,
		string(l.Details),
	}
	if l.ActorID != nil {
		row[2] = l.ActorID.String()
	}
	if l.ResourceID != nil {
		row[4] = l.ResourceID.String()
	}
	if l.IPAddress != nil {
		row[5] = l.IPAddress.String()
	}
	return row
}
