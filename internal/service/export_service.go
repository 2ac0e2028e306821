package service

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"bankstmt/internal/models"
	"bankstmt/pkg/metrics"
)

const exportSheet = "Transactions"

// exportHeader matches the Transaction field names, one column per field.
var exportHeader = []interface{}{"Date", "Description", "Amount", "Type", "Balance"}

type ExportService struct {
	logger *zap.Logger
}

// NewExportService creates the XLSX writer.
func NewExportService(logger *zap.Logger) *ExportService {
	return &ExportService{logger: logger}
}

// WriteXLSX serializes a table view into a single-sheet workbook: header row
// plus one row per record. An empty view fails with ErrExport.
func (s *ExportService) WriteXLSX(view []models.Transaction) ([]byte, error) {
	if len(view) == 0 {
		return nil, fmt.Errorf("%w: nothing to export", models.ErrExport)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExport, err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExport, err)
	}

	for i, tx := range view {
		amount, _ := tx.Amount.Float64()
		row := []interface{}{
			tx.Date.Format("2006-01-02"),
			tx.Description,
			amount,
			string(tx.Type),
		}
		if tx.Balance.Valid {
			bal, _ := tx.Balance.Decimal.Float64()
			row = append(row, bal)
		} else {
			row = append(row, "")
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrExport, err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrExport, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExport, err)
	}

	metrics.ExportBytes.Add(float64(buf.Len()))
	s.logger.Info("Workbook written",
		zap.Int("rows", len(view)),
		zap.Int("bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}
