package dto

import (
	"time"

	"bankstmt/internal/models"
)

// Decimal values are rendered as strings so the UI never loses cents to
// float rounding.

type TransactionResponse struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	Type        string  `json:"type"`
	Balance     *string `json:"balance,omitempty"`
}

type SummaryResponse struct {
	TotalCredits string  `json:"total_credits"`
	TotalDebits  string  `json:"total_debits"`
	NetBalance   string  `json:"net_balance"`
	CreditCount  int     `json:"credit_count"`
	DebitCount   int     `json:"debit_count"`
	Count        int     `json:"count"`
	LastBalance  *string `json:"last_balance,omitempty"`
}

type StatementResponse struct {
	ID           string                `json:"id"`
	FileName     string                `json:"file_name"`
	PageCount    int                   `json:"page_count"`
	Model        string                `json:"model"`
	DroppedRows  int                   `json:"dropped_rows"`
	CreatedAt    string                `json:"created_at"`
	Transactions []TransactionResponse `json:"transactions"`
	Summary      SummaryResponse       `json:"summary"`
}

func NewTransactionResponse(tx models.Transaction) TransactionResponse {
	resp := TransactionResponse{
		Date:        tx.Date.Format("2006-01-02"),
		Description: tx.Description,
		Amount:      tx.Amount.StringFixed(2),
		Type:        string(tx.Type),
	}
	if tx.Balance.Valid {
		bal := tx.Balance.Decimal.StringFixed(2)
		resp.Balance = &bal
	}
	return resp
}

func NewSummaryResponse(s models.Summary) SummaryResponse {
	resp := SummaryResponse{
		TotalCredits: s.TotalCredits.StringFixed(2),
		TotalDebits:  s.TotalDebits.StringFixed(2),
		NetBalance:   s.NetBalance.StringFixed(2),
		CreditCount:  s.CreditCount,
		DebitCount:   s.DebitCount,
		Count:        s.Count,
	}
	if s.LastBalance.Valid {
		bal := s.LastBalance.Decimal.StringFixed(2)
		resp.LastBalance = &bal
	}
	return resp
}

func NewStatementResponse(stmt *models.Statement, view []models.Transaction, summary models.Summary) StatementResponse {
	txs := make([]TransactionResponse, len(view))
	for i, tx := range view {
		txs[i] = NewTransactionResponse(tx)
	}
	return StatementResponse{
		ID:           stmt.ID.String(),
		FileName:     stmt.FileName,
		PageCount:    stmt.PageCount,
		Model:        stmt.ModelID,
		DroppedRows:  stmt.DroppedRows,
		CreatedAt:    stmt.CreatedAt.Format(time.RFC3339),
		Transactions: txs,
		Summary:      NewSummaryResponse(summary),
	}
}
