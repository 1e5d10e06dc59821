package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/antonw/duitbot/internal/domain"
)

// numericScale matches BigQuery NUMERIC's nine fractional digits.
const numericScale = 9

// transactionRow maps a TransactionRecord onto the ledger.transactions
// table schema. Amounts travel as NUMERIC (*big.Rat), dates as DATE.
type transactionRow struct {
	ID     int64  `bigquery:"id"`      // REQUIRED
	UserID string `bigquery:"user_id"` // NULLABLE

	Direction string   `bigquery:"direction"` // REQUIRED
	Amount    *big.Rat `bigquery:"amount"`    // REQUIRED NUMERIC
	Ambiguous bool     `bigquery:"ambiguous"`

	Source      bigquery.NullString `bigquery:"source"`      // NULLABLE
	Destination bigquery.NullString `bigquery:"destination"` // NULLABLE
	Category    string              `bigquery:"category"`

	ParsedDate civil.Date `bigquery:"parsed_date"` // REQUIRED DATE
	ParsedTS   time.Time  `bigquery:"parsed_ts"`   // REQUIRED TIMESTAMP

	RawText string `bigquery:"raw_text"`
}

// budgetRow maps a BudgetConfig onto the ledger.budgets table schema.
type budgetRow struct {
	UserID           string    `bigquery:"user_id"` // REQUIRED
	DailyLimit       *big.Rat  `bigquery:"daily_limit"`
	Payday           int64     `bigquery:"payday"`
	WarningThreshold float64   `bigquery:"warning_threshold"`
	UpdatedTS        time.Time `bigquery:"updated_ts"`
}

// accountRow maps an Account onto the ledger.accounts table schema.
type accountRow struct {
	ID          int64               `bigquery:"id"`      // REQUIRED
	UserID      string              `bigquery:"user_id"` // REQUIRED
	Name        string              `bigquery:"name"`    // REQUIRED
	AccountType string              `bigquery:"account_type"`
	Description bigquery.NullString `bigquery:"description"` // NULLABLE
	IsSystem    bool                `bigquery:"is_system"`
	CreatedTS   time.Time           `bigquery:"created_ts"`
}

// aliasRow maps an alias onto the ledger.account_aliases table schema.
// Aliases are stored normalized (trimmed, lowercased).
type aliasRow struct {
	Alias     string    `bigquery:"alias"` // REQUIRED
	AccountID int64     `bigquery:"account_id"`
	UserID    string    `bigquery:"user_id"`
	CreatedTS time.Time `bigquery:"created_ts"`
}

func rowFromAccount(a domain.Account) *accountRow {
	return &accountRow{
		ID:          a.ID,
		UserID:      a.UserID,
		Name:        a.Name,
		AccountType: string(a.Type),
		Description: nullString(a.Description),
		IsSystem:    a.System,
		CreatedTS:   a.CreatedAt,
	}
}

func (row *accountRow) toAccount() domain.Account {
	return domain.Account{
		ID:          row.ID,
		UserID:      row.UserID,
		Name:        row.Name,
		Type:        domain.AccountType(row.AccountType),
		Description: row.Description.StringVal,
		System:      row.IsSystem,
		CreatedAt:   row.CreatedTS,
	}
}

func rowFromRecord(r domain.TransactionRecord) *transactionRow {
	return &transactionRow{
		ID:          r.ID,
		UserID:      r.UserID,
		Direction:   string(r.Direction),
		Amount:      r.Amount.Amount.Rat(),
		Ambiguous:   r.Amount.Ambiguous,
		Source:      nullString(r.Source),
		Destination: nullString(r.Destination),
		Category:    r.Category,
		ParsedDate:  civil.DateOf(r.ParsedAt),
		ParsedTS:    r.ParsedAt,
		RawText:     r.RawText,
	}
}

func (row *transactionRow) toRecord() domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:     row.ID,
		UserID: row.UserID,
		Direction: domain.Direction(row.Direction),
		Amount: domain.AmountValue{
			Amount:    decimal.NewFromBigRat(row.Amount, numericScale),
			Ambiguous: row.Ambiguous,
		},
		Source:      row.Source.StringVal,
		Destination: row.Destination.StringVal,
		Category:    row.Category,
		ParsedAt:    row.ParsedTS,
		RawText:     row.RawText,
	}
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func decimalFromRat(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, numericScale)
}
