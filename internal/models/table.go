package models

import "github.com/shopspring/decimal"

// ApplyFilter returns a new slice holding the transactions that match the
// filter, in their original order. It never mutates the input, and applying
// the same filter to its own result is a no-op.
func ApplyFilter(txs []Transaction, f Filter) []Transaction {
	view := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Type != nil && tx.Type != *f.Type {
			continue
		}
		if f.From != nil && tx.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && tx.Date.After(*f.To) {
			continue
		}
		view = append(view, tx)
	}
	return view
}

// Summarize computes the aggregates for a view. An empty view yields a
// Summary with zero totals and counts. The invariant
// TotalCredits - TotalDebits == sum of signed amounts always holds because
// both sides are built from the same magnitudes.
func Summarize(view []Transaction) Summary {
	s := Summary{
		TotalCredits: decimal.Zero,
		TotalDebits:  decimal.Zero,
		NetBalance:   decimal.Zero,
		Count:        len(view),
	}
	for _, tx := range view {
		switch tx.Type {
		case TypeCredit:
			s.TotalCredits = s.TotalCredits.Add(tx.Amount)
			s.CreditCount++
		case TypeDebit:
			s.TotalDebits = s.TotalDebits.Add(tx.Amount)
			s.DebitCount++
		}
	}
	s.NetBalance = s.TotalCredits.Sub(s.TotalDebits)
	if len(view) > 0 {
		if last := view[len(view)-1]; last.Balance.Valid {
			s.LastBalance = last.Balance
		}
	}
	return s
}
