package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDebit  TransactionType = "debit"
	TypeCredit TransactionType = "credit"
)

// ParseTransactionType maps the vocabulary the model tends to use for the
// type column onto the two canonical types. ok is false for anything else.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch s {
	case "debit", "expense", "withdrawal", "dr", "db":
		return TypeDebit, true
	case "credit", "income", "deposit", "cr":
		return TypeCredit, true
	}
	return "", false
}

// Transaction is one parsed statement line-item. Amount is always the
// positive magnitude; Type carries the direction. Balance is the running
// balance when the statement reported one.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Type        TransactionType
	Balance     decimal.NullDecimal
	Raw         string
}

// SignedAmount returns the amount with its conventional sign: positive for
// credits, negative for debits.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Statement is everything extracted from one uploaded document. Transactions
// keep the order the model returned them in.
type Statement struct {
	ID           uuid.UUID
	FileName     string
	PageCount    int
	ModelID      string
	Transactions []Transaction
	DroppedRows  int
	CreatedAt    time.Time
}

// Summary holds the aggregates derived from a table view. TotalCredits and
// TotalDebits are sums of magnitudes; NetBalance is credits minus debits.
// LastBalance is set when the final record of the view carried a running
// balance.
type Summary struct {
	TotalCredits decimal.Decimal
	TotalDebits  decimal.Decimal
	NetBalance   decimal.Decimal
	CreditCount  int
	DebitCount   int
	Count        int
	LastBalance  decimal.NullDecimal
}

// Filter is a transient query over a statement's transactions. Nil fields
// match everything; the date range is inclusive on both ends.
type Filter struct {
	Type *TransactionType
	From *time.Time
	To   *time.Time
}
