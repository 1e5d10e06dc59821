package parse

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/antonw/duitbot/internal/domain"
)

// MaxTextLength bounds input size; anything longer is not a transaction
// statement.
const MaxTextLength = 500

// ErrTextTooLong is returned for inputs over MaxTextLength bytes.
var ErrTextTooLong = fmt.Errorf("text exceeds %d characters", MaxTextLength)

// Parser converts informal transaction statements into validated
// records. It holds no mutable state and is safe for concurrent use.
type Parser struct {
	log zerolog.Logger
}

// NewParser creates a parser that logs through the given logger.
func NewParser(log zerolog.Logger) *Parser {
	return &Parser{log: log}
}

// Parse turns a statement like "16k from gopay for commuting" into a
// TransactionRecord. The returned bool reports whether the caller should
// ask the user to confirm before persisting: true when the amount was
// ambiguous or when several phrases competed for the same role.
//
// The record's ID is zero; the ledger store assigns one on append.
func (p *Parser) Parse(text string) (*domain.TransactionRecord, bool, error) {
	if len(text) > MaxTextLength {
		return nil, false, ErrTextTooLong
	}

	tokens, err := Tokenize(text)
	if err != nil {
		return nil, false, err
	}

	literal, suffix := firstAmount(tokens)
	amount, err := ResolveAmount(literal, suffix)
	if err != nil {
		return nil, false, err
	}

	c := Classify(tokens)

	record := &domain.TransactionRecord{
		Direction:   c.direction,
		Amount:      amount,
		Source:      c.source,
		Destination: c.destination,
		Category:    c.category,
		ParsedAt:    time.Now(),
		RawText:     text,
	}
	if record.Category == "" {
		record.Category = domain.DefaultCategory
	}

	if err := validateRoles(record); err != nil {
		return nil, false, err
	}

	needsConfirmation := amount.Ambiguous || c.contested
	p.log.Debug().
		Str("direction", record.Direction.String()).
		Str("amount", record.Amount.Amount.String()).
		Bool("needs_confirmation", needsConfirmation).
		Msg("parsed transaction")

	return record, needsConfirmation, nil
}

// firstAmount returns the first numeric literal and, when the very next
// token is a magnitude word, its suffix.
func firstAmount(tokens []Token) (literal, suffix string) {
	for i, tok := range tokens {
		if tok.Kind != TokenNumber {
			continue
		}
		literal = tok.Text
		if i+1 < len(tokens) && tokens[i+1].Kind == TokenMagnitude {
			suffix = tokens[i+1].Text
		}
		return literal, suffix
	}
	return "", ""
}

// validateRoles enforces the directional invariants, reporting which
// required role is missing.
func validateRoles(r *domain.TransactionRecord) error {
	switch r.Direction {
	case domain.DirectionExpense:
		if r.Source == "" {
			return fmt.Errorf("expense needs a source account: %w", domain.ErrIncompleteTransaction)
		}
	case domain.DirectionIncome:
		if r.Destination == "" {
			return fmt.Errorf("income needs a destination account: %w", domain.ErrIncompleteTransaction)
		}
	case domain.DirectionTransfer:
		if r.Source == "" || r.Destination == "" {
			return fmt.Errorf("transfer needs both accounts: %w", domain.ErrIncompleteTransaction)
		}
		if r.Source == r.Destination {
			return fmt.Errorf("transfer accounts must differ: %w", domain.ErrIncompleteTransaction)
		}
	}
	return r.Validate()
}
