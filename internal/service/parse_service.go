package service

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bankstmt/internal/models"
	"bankstmt/pkg/metrics"
)

// endSentinel terminates the data block in the model's reply; anything after
// it is ignored.
const endSentinel = "END"

// dateLayouts are tried in order against the first field of a candidate row.
// A line whose first field matches none of them is treated as commentary and
// skipped, not dropped.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2 2006",
	"Jan 02 2006",
	"2 January 2006",
}

type ParseService struct {
	logger *zap.Logger
}

// NewParseService creates the parser for model replies.
func NewParseService(logger *zap.Logger) *ParseService {
	return &ParseService{logger: logger}
}

// Parse converts a raw model reply into transactions. The policy is
// tolerant-skip: prose, headers, markdown fences and table decoration are
// ignored silently, while lines that look transactional (a parsable date and
// a plausible field count) but carry an unparsable amount are dropped and
// counted. A non-empty reply yielding zero transactions fails with
// ErrMalformedResponse.
func (s *ParseService) Parse(raw string) ([]models.Transaction, int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, 0, fmt.Errorf("%w: empty reply", models.ErrMalformedResponse)
	}

	var txs []models.Transaction
	dropped := 0

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		if strings.EqualFold(line, endSentinel) {
			break
		}

		fields, ok := splitRow(line)
		if !ok {
			continue
		}

		date, ok := parseDate(fields[0])
		if !ok {
			// Header or commentary that happened to delimit, skip.
			continue
		}

		tx, err := buildTransaction(date, fields, line)
		if err != nil {
			dropped++
			s.logger.Debug("Dropping unparsable row",
				zap.String("line", line),
				zap.Error(err),
			)
			continue
		}
		txs = append(txs, tx)
	}

	if len(txs) == 0 {
		if dropped > 0 {
			return nil, dropped, fmt.Errorf("%w: all %d candidate rows were unparsable", models.ErrMalformedResponse, dropped)
		}
		return nil, 0, fmt.Errorf("%w: no transaction rows found", models.ErrMalformedResponse)
	}

	metrics.RowsParsed.Add(float64(len(txs)))
	metrics.RowsDropped.Add(float64(dropped))
	s.logger.Info("Model reply parsed",
		zap.Int("transactions", len(txs)),
		zap.Int("dropped", dropped),
	)

	return txs, dropped, nil
}

// splitRow splits a line into candidate fields. Pipe-delimited rows (the
// model sometimes falls back to a markdown table) are accepted alongside the
// instructed comma format; ok is false for lines that cannot be a
// transaction row.
func splitRow(line string) ([]string, bool) {
	var fields []string
	if strings.Contains(line, "|") {
		trimmed := strings.Trim(line, "|")
		if strings.Trim(trimmed, "-:| ") == "" {
			// Table separator row.
			return nil, false
		}
		for _, f := range strings.Split(trimmed, "|") {
			fields = append(fields, strings.TrimSpace(f))
		}
	} else {
		r := csv.NewReader(strings.NewReader(line))
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		rec, err := r.Read()
		if err != nil {
			return nil, false
		}
		for _, f := range rec {
			fields = append(fields, strings.TrimSpace(f))
		}
	}

	if len(fields) < 3 || len(fields) > 5 {
		return nil, false
	}
	return fields, true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.UTC(), true
		}
	}
	return time.Time{}, false
}

// buildTransaction assembles a record from fields already known to start
// with a valid date. Field order is date, description, amount, then an
// optional type and an optional running balance; a fourth field that parses
// as a number rather than a type keyword is taken as the balance.
func buildTransaction(date time.Time, fields []string, raw string) (models.Transaction, error) {
	amount, suffixType, err := parseAmount(fields[2])
	if err != nil {
		return models.Transaction{}, fmt.Errorf("amount %q: %w", fields[2], err)
	}

	tx := models.Transaction{
		Date:        date,
		Description: sanitizeUTF8(fields[1]),
		Raw:         raw,
	}

	explicitType := suffixType
	rest := fields[3:]
	if len(rest) > 0 {
		if t, ok := models.ParseTransactionType(strings.ToLower(rest[0])); ok {
			explicitType = string(t)
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		bal, _, err := parseAmount(rest[0])
		if err != nil {
			return models.Transaction{}, fmt.Errorf("balance %q: %w", rest[0], err)
		}
		tx.Balance = decimal.NullDecimal{Decimal: bal, Valid: true}
	}

	// An explicit type field (or a CR/DR suffix on the amount) wins over the
	// sign; otherwise a negative amount means money out.
	switch {
	case explicitType != "":
		t, _ := models.ParseTransactionType(explicitType)
		tx.Type = t
	case amount.IsNegative():
		tx.Type = models.TypeDebit
	default:
		tx.Type = models.TypeCredit
	}
	tx.Amount = amount.Abs()

	return tx, nil
}

// parseAmount normalizes a money string: currency symbols and codes and
// thousands separators are stripped, parentheses mean negative, and a
// trailing CR/DR suffix is returned as a type hint.
func parseAmount(s string) (decimal.Decimal, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, "", fmt.Errorf("empty amount")
	}

	suffix := ""
	upper := strings.ToUpper(s)
	for _, suff := range []string{"CR", "DR", "DB"} {
		if strings.HasSuffix(upper, suff) {
			s = strings.TrimSpace(s[:len(s)-len(suff)])
			if suff == "CR" {
				suffix = "credit"
			} else {
				suffix = "debit"
			}
			break
		}
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	// Keep digits, sign and decimal point; everything else (currency
	// symbols, codes, thousands separators, spaces) goes. Commas are always
	// treated as thousands separators.
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '+':
			sb.WriteRune(r)
		}
	}
	cleaned := sb.String()
	if cleaned == "" {
		return decimal.Zero, "", fmt.Errorf("no numeric content in %q", s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, "", err
	}
	if negative {
		d = d.Neg()
	}
	return d, suffix, nil
}
