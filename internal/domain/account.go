package domain

import (
	"fmt"
	"strings"
	"time"
)

// AccountType classifies what a canonical account represents. Assets
// and expenses are debit-normal; the rest are credit-normal.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountRevenue   AccountType = "revenue"
	AccountExpense   AccountType = "expense"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountRevenue, AccountExpense:
		return true
	}
	return false
}

func (t AccountType) String() string {
	return string(t)
}

// Account is a canonical named account in a user's registry. Users
// refer to it through aliases ("bca", "bca main", "my bank"); the
// registry resolves those back to one Account. The display name keeps
// its original casing, but name uniqueness is case-insensitive per
// user.
type Account struct {
	ID     int64  `json:"id,omitempty"`
	UserID string `json:"user_id,omitempty"`

	Name string      `json:"name"`
	Type AccountType `json:"type"`

	Description string `json:"description,omitempty"`

	// System marks the default accounts created for every user. They
	// cannot be confused with user-created ones when bootstrapping.
	System bool `json:"system,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Validate rejects an account before it reaches a store.
func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidAccount)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAccount, a.Type)
	}
	return nil
}

// NormalizeAlias canonicalizes an alias for lookup: surrounding
// whitespace stripped, lowercased. All alias storage and resolution
// goes through this, so "GoPay " and "gopay" are the same alias.
func NormalizeAlias(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}

// DefaultAccounts returns the system accounts every user starts with.
func DefaultAccounts(userID string) []Account {
	return []Account{
		{UserID: userID, Name: "Income", Type: AccountRevenue, Description: "Default income account", System: true},
		{UserID: userID, Name: "Expense", Type: AccountExpense, Description: "Default expense account", System: true},
		{UserID: userID, Name: "Cash", Type: AccountAsset, Description: "Default cash/wallet account", System: true},
	}
}

// InferAccountType guesses a type for an unregistered account name.
// Unknown names default to asset, the most common case for a personal
// ledger (wallets, banks, e-money).
func InferAccountType(name string) AccountType {
	name = strings.ToLower(strings.TrimSpace(name))

	for _, kw := range []string{"income", "salary", "wage", "revenue", "earnings", "bonus", "commission", "dividend", "interest"} {
		if strings.Contains(name, kw) {
			return AccountRevenue
		}
	}
	for _, kw := range []string{"expense", "food", "lunch", "dinner", "breakfast", "transport", "commute", "rent", "utility", "subscription", "shopping", "entertainment", "coffee", "snack"} {
		if strings.Contains(name, kw) {
			return AccountExpense
		}
	}
	for _, kw := range []string{"loan", "debt", "credit card", "mortgage", "payable", "owe"} {
		if strings.Contains(name, kw) {
			return AccountLiability
		}
	}
	return AccountAsset
}
