// Package store defines the storage collaborator contract the engine
// consumes. The core treats query results as read-only snapshots; it
// never mutates stored records.
package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/antonw/duitbot/internal/domain"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a create would collide with an
// existing entity's unique key (account name, alias).
var ErrAlreadyExists = errors.New("already exists")

// Filter narrows a ledger query. Zero-valued fields match everything.
// Account matches either side of a record (source or destination);
// Accounts is the alias-expanded form of the same match, set when an
// account name resolved through the registry and any of its aliases
// should count.
type Filter struct {
	UserID    string
	Account   string
	Accounts  []string
	Category  string
	Direction domain.Direction
	From      civil.Date
	To        civil.Date
}

// Matches reports whether a record passes the filter. Implementations
// that push filtering into their query language can ignore it; the
// in-memory store applies it directly.
func (f Filter) Matches(r domain.TransactionRecord) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.Account != "" && r.Source != f.Account && r.Destination != f.Account {
		return false
	}
	if len(f.Accounts) > 0 && !f.matchesAnyAccount(r) {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Direction != "" && r.Direction != f.Direction {
		return false
	}
	day := civil.DateOf(r.ParsedAt)
	if f.From.IsValid() && day.Before(f.From) {
		return false
	}
	if f.To.IsValid() && day.After(f.To) {
		return false
	}
	return true
}

func (f Filter) matchesAnyAccount(r domain.TransactionRecord) bool {
	for _, a := range f.Accounts {
		if r.Source == a || r.Destination == a {
			return true
		}
	}
	return false
}

// Ledger is the transaction store contract. Append assigns monotonically
// increasing identifiers; Query returns records ordered by timestamp
// ascending.
type Ledger interface {
	Append(ctx context.Context, record domain.TransactionRecord) (int64, error)
	Query(ctx context.Context, filter Filter) ([]domain.TransactionRecord, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// BudgetStore holds per-user budget configurations.
type BudgetStore interface {
	Get(ctx context.Context, userID string) (domain.BudgetConfig, error)
	Put(ctx context.Context, config domain.BudgetConfig) error
}

// AccountStore holds the per-user account registry: canonical accounts
// plus the alias names that resolve to them. CreateAccount registers
// the account's normalized name as its first alias, so the canonical
// name always resolves.
type AccountStore interface {
	CreateAccount(ctx context.Context, account domain.Account) (int64, error)
	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	ResolveAlias(ctx context.Context, userID, alias string) (domain.Account, error)
	AddAlias(ctx context.Context, userID, alias string, accountID int64) error
	RemoveAlias(ctx context.Context, userID, alias string) (bool, error)
	Aliases(ctx context.Context, userID string, accountID int64) ([]string, error)
}

// EnsureDefaultAccounts creates the system accounts a user starts with.
// Idempotent: accounts that already exist are left alone.
func EnsureDefaultAccounts(ctx context.Context, accounts AccountStore, userID string) error {
	for _, a := range domain.DefaultAccounts(userID) {
		if _, err := accounts.CreateAccount(ctx, a); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("ensure default accounts: %w", err)
		}
	}
	return nil
}
