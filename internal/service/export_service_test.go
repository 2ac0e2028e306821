package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"bankstmt/internal/models"
)

func exportFixture() []models.Transaction {
	coffee, _ := decimal.NewFromString("4.50")
	payroll, _ := decimal.NewFromString("2000.00")
	balance, _ := decimal.NewFromString("2995.50")
	return []models.Transaction{
		{
			Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			Description: "Coffee Shop",
			Amount:      coffee,
			Type:        models.TypeDebit,
		},
		{
			Date:        time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC),
			Description: "Payroll",
			Amount:      payroll,
			Type:        models.TypeCredit,
			Balance:     decimal.NullDecimal{Decimal: balance, Valid: true},
		},
	}
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	svc := NewExportService(zap.NewNop())

	data, err := svc.WriteXLSX(exportFixture())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per record")

	assert.Equal(t, []string{"Date", "Description", "Amount", "Type", "Balance"}, rows[0])

	assert.Equal(t, "2024-01-05", rows[1][0])
	assert.Equal(t, "Coffee Shop", rows[1][1])
	assert.Equal(t, "4.5", rows[1][2])
	assert.Equal(t, "debit", rows[1][3])

	assert.Equal(t, "2024-01-06", rows[2][0])
	assert.Equal(t, "Payroll", rows[2][1])
	assert.Equal(t, "2000", rows[2][2])
	assert.Equal(t, "credit", rows[2][3])
	assert.Equal(t, "2995.5", rows[2][4])
}

func TestWriteXLSXEmptyView(t *testing.T) {
	svc := NewExportService(zap.NewNop())

	_, err := svc.WriteXLSX(nil)
	assert.ErrorIs(t, err, models.ErrExport)

	_, err = svc.WriteXLSX([]models.Transaction{})
	assert.ErrorIs(t, err, models.ErrExport)
}
