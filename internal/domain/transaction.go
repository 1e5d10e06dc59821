package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the semantic category of a transaction.
type Direction string

const (
	// DirectionExpense is money leaving a tracked account.
	DirectionExpense Direction = "expense"
	// DirectionIncome is money arriving into a tracked account.
	DirectionIncome Direction = "income"
	// DirectionTransfer is money moving between two tracked accounts.
	// Transfers do not change net worth.
	DirectionTransfer Direction = "transfer"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionExpense, DirectionIncome, DirectionTransfer:
		return true
	}
	return false
}

func (d Direction) String() string {
	return string(d)
}

// DefaultCategory is assigned when no category phrase was present.
const DefaultCategory = "uncategorized"

// AmountValue is an exact, non-negative decimal magnitude. Ambiguous is
// set when the literal had more than one plausible reading (decimal
// point vs thousands separator) so the caller can ask for confirmation
// instead of guessing.
type AmountValue struct {
	Amount    decimal.Decimal `json:"amount"`
	Ambiguous bool            `json:"ambiguous,omitempty"`
}

// TransactionRecord is the finalized output of a parse. The ID is
// assigned by the ledger store on append, not by the parser; records
// coming straight out of the parser carry ID 0.
type TransactionRecord struct {
	ID     int64  `json:"id,omitempty"`
	UserID string `json:"user_id,omitempty"`

	Direction Direction   `json:"direction"`
	Amount    AmountValue `json:"amount"`

	// Source is required for expenses and transfers, absent for income.
	Source string `json:"source,omitempty"`
	// Destination is required for income and transfers, absent for expenses.
	Destination string `json:"destination,omitempty"`

	Category string    `json:"category"`
	ParsedAt time.Time `json:"parsed_at"`

	// RawText is the original input, retained for audit and undo.
	RawText string `json:"raw_text"`
}

// Validate checks the directional invariants: an expense never has a
// destination, income never has a source, and a transfer has both and
// they are distinct.
func (r TransactionRecord) Validate() error {
	if !r.Direction.Valid() {
		return ErrIncompleteTransaction
	}
	if r.Amount.Amount.IsNegative() {
		return ErrMalformedAmount
	}
	switch r.Direction {
	case DirectionExpense:
		if r.Source == "" || r.Destination != "" {
			return ErrIncompleteTransaction
		}
	case DirectionIncome:
		if r.Destination == "" || r.Source != "" {
			return ErrIncompleteTransaction
		}
	case DirectionTransfer:
		if r.Source == "" || r.Destination == "" || r.Source == r.Destination {
			return ErrIncompleteTransaction
		}
	}
	return nil
}
