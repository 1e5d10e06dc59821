package domain

import "errors"

// Sentinel errors shared between the parsing engine and its callers.
// All of them are recoverable: the connector reports the failure back to
// the user and asks for a rephrased message.
var (
	// ErrNoNumericToken means the input contained no numeric literal.
	// Every supported transaction format carries exactly one amount.
	ErrNoNumericToken = errors.New("no numeric token found")

	// ErrMalformedAmount means a numeric literal was not reducible to
	// digits and at most one separator.
	ErrMalformedAmount = errors.New("malformed amount")

	// ErrIncompleteTransaction means a required role (source or
	// destination account) could not be bound from the input.
	ErrIncompleteTransaction = errors.New("incomplete transaction")

	// ErrInvalidBudgetConfig means the budget configuration failed
	// validation (non-positive limit or payday outside 1-31).
	ErrInvalidBudgetConfig = errors.New("invalid budget config")

	// ErrInvalidAccount means an account failed validation (empty name
	// or unknown type).
	ErrInvalidAccount = errors.New("invalid account")
)
