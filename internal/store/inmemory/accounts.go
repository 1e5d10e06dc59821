package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/antonw/duitbot/internal/domain"
	"github.com/antonw/duitbot/internal/store"
)

// Accounts is an in-memory account registry, safe for concurrent use.
type Accounts struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]domain.Account
	aliases  map[string]map[string]int64 // user ID -> normalized alias -> account ID
}

// NewAccounts creates an empty account registry.
func NewAccounts() *Accounts {
	return &Accounts{
		nextID:   1,
		accounts: make(map[int64]domain.Account),
		aliases:  make(map[string]map[string]int64),
	}
}

// CreateAccount stores the account, assigns the next monotonic ID, and
// registers the normalized name as its first alias. Names are unique
// per user, case-insensitively.
func (a *Accounts) CreateAccount(ctx context.Context, account domain.Account) (int64, error) {
	if err := account.Validate(); err != nil {
		return 0, fmt.Errorf("inmemory create account: %w", err)
	}
	account.Name = strings.TrimSpace(account.Name)

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, existing := range a.accounts {
		if existing.UserID == account.UserID && strings.EqualFold(existing.Name, account.Name) {
			return 0, fmt.Errorf("account %q: %w", account.Name, store.ErrAlreadyExists)
		}
	}

	account.ID = a.nextID
	a.nextID++
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	a.accounts[account.ID] = account
	a.userAliases(account.UserID)[domain.NormalizeAlias(account.Name)] = account.ID
	return account.ID, nil
}

// ListAccounts returns a user's accounts ordered by name.
func (a *Accounts) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []domain.Account
	for _, account := range a.accounts {
		if account.UserID == userID {
			result = append(result, account)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// ResolveAlias maps an alias to its canonical account, or
// store.ErrNotFound when the name is unregistered.
func (a *Accounts) ResolveAlias(ctx context.Context, userID, alias string) (domain.Account, error) {
	normalized := domain.NormalizeAlias(alias)
	if normalized == "" {
		return domain.Account{}, fmt.Errorf("alias %q: %w", alias, store.ErrNotFound)
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	id, ok := a.aliases[userID][normalized]
	if !ok {
		return domain.Account{}, fmt.Errorf("alias %q: %w", normalized, store.ErrNotFound)
	}
	return a.accounts[id], nil
}

// AddAlias maps a new alias to an existing account. Re-adding an alias
// to the same account is a no-op; an alias taken by a different account
// is store.ErrAlreadyExists.
func (a *Accounts) AddAlias(ctx context.Context, userID, alias string, accountID int64) error {
	normalized := domain.NormalizeAlias(alias)
	if normalized == "" {
		return fmt.Errorf("inmemory add alias: %w: alias must not be empty", domain.ErrInvalidAccount)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	account, ok := a.accounts[accountID]
	if !ok || account.UserID != userID {
		return fmt.Errorf("account %d: %w", accountID, store.ErrNotFound)
	}

	userAliases := a.userAliases(userID)
	if existing, ok := userAliases[normalized]; ok {
		if existing == accountID {
			return nil
		}
		return fmt.Errorf("alias %q: %w", normalized, store.ErrAlreadyExists)
	}
	userAliases[normalized] = accountID
	return nil
}

// RemoveAlias deletes an alias mapping, reporting whether it existed.
func (a *Accounts) RemoveAlias(ctx context.Context, userID, alias string) (bool, error) {
	normalized := domain.NormalizeAlias(alias)

	a.mu.Lock()
	defer a.mu.Unlock()

	userAliases, ok := a.aliases[userID]
	if !ok {
		return false, nil
	}
	if _, ok := userAliases[normalized]; !ok {
		return false, nil
	}
	delete(userAliases, normalized)
	return true, nil
}

// Aliases returns every alias mapping to the account, sorted.
func (a *Accounts) Aliases(ctx context.Context, userID string, accountID int64) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []string
	for alias, id := range a.aliases[userID] {
		if id == accountID {
			result = append(result, alias)
		}
	}
	sort.Strings(result)
	return result, nil
}

// userAliases returns the alias map for a user, creating it if needed.
// Callers must hold the write lock.
func (a *Accounts) userAliases(userID string) map[string]int64 {
	m := a.aliases[userID]
	if m == nil {
		m = make(map[string]int64)
		a.aliases[userID] = m
	}
	return m
}

var _ store.AccountStore = (*Accounts)(nil)
