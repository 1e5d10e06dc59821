// Package inmemory provides mutex-guarded in-process implementations of
// the store contracts. Data is lost on restart; it suits tests and
// single-user deployments.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/antonw/duitbot/internal/domain"
	"github.com/antonw/duitbot/internal/store"
)

// Ledger is an in-memory transaction store, safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	nextID  int64
	records []domain.TransactionRecord
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{nextID: 1}
}

// Append stores a copy of the record and assigns the next monotonic ID.
func (l *Ledger) Append(ctx context.Context, record domain.TransactionRecord) (int64, error) {
	if err := record.Validate(); err != nil {
		return 0, fmt.Errorf("inmemory append: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	record.ID = l.nextID
	l.nextID++
	l.records = append(l.records, record)
	return record.ID, nil
}

// Query returns matching records ordered by parse timestamp ascending.
func (l *Ledger) Query(ctx context.Context, filter store.Filter) ([]domain.TransactionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []domain.TransactionRecord
	for _, r := range l.records {
		if filter.Matches(r) {
			result = append(result, r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ParsedAt.Before(result[j].ParsedAt)
	})
	return result, nil
}

// Delete removes a record by ID, reporting whether it existed.
func (l *Ledger) Delete(ctx context.Context, id int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, r := range l.records {
		if r.ID == id {
			l.records = append(l.records[:i], l.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Budgets is an in-memory budget configuration store.
type Budgets struct {
	mu      sync.RWMutex
	configs map[string]domain.BudgetConfig
}

// NewBudgets creates an empty budget store.
func NewBudgets() *Budgets {
	return &Budgets{configs: make(map[string]domain.BudgetConfig)}
}

// Get retrieves the config for a user, or store.ErrNotFound.
func (b *Budgets) Get(ctx context.Context, userID string) (domain.BudgetConfig, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	config, ok := b.configs[userID]
	if !ok {
		return domain.BudgetConfig{}, fmt.Errorf("budget for %q: %w", userID, store.ErrNotFound)
	}
	return config, nil
}

// Put validates and stores a user's config.
func (b *Budgets) Put(ctx context.Context, config domain.BudgetConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("inmemory put budget: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.configs[config.UserID] = config
	return nil
}

var _ store.Ledger = (*Ledger)(nil)
var _ store.BudgetStore = (*Budgets)(nil)
