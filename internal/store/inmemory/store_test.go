package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/antonw/duitbot/internal/domain"
	"github.com/antonw/duitbot/internal/store"
)

func record(user, source, category string, amount int64, at time.Time) domain.TransactionRecord {
	return domain.TransactionRecord{
		UserID:    user,
		Direction: domain.DirectionExpense,
		Amount:    domain.AmountValue{Amount: decimal.NewFromInt(amount)},
		Source:    source,
		Category:  category,
		ParsedAt:  at,
		RawText:   "test",
	}
}

func TestLedger_AppendAssignsMonotonicIDs(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()
	now := time.Now()

	var last int64
	for i := 0; i < 5; i++ {
		id, err := ledger.Append(ctx, record("u1", "cash", "food", 1000, now))
		if err != nil {
			t.Fatalf("Append error: %v", err)
		}
		if id <= last {
			t.Errorf("id %d not greater than previous %d", id, last)
		}
		last = id
	}
}

func TestLedger_AppendRejectsInvalid(t *testing.T) {
	ledger := NewLedger()

	// An expense with a destination violates the directional invariant.
	bad := record("u1", "cash", "food", 1000, time.Now())
	bad.Destination = "savings"

	if _, err := ledger.Append(context.Background(), bad); !errors.Is(err, domain.ErrIncompleteTransaction) {
		t.Errorf("Append error = %v, want ErrIncompleteTransaction", err)
	}
}

func TestLedger_QueryOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Insert out of chronological order.
	ledger.Append(ctx, record("u1", "cash", "food", 100, base.AddDate(0, 0, 2)))
	ledger.Append(ctx, record("u1", "gopay", "transport", 200, base))
	ledger.Append(ctx, record("u2", "cash", "food", 300, base.AddDate(0, 0, 1)))

	all, err := ledger.Query(ctx, store.Filter{})
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d records, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ParsedAt.Before(all[i-1].ParsedAt) {
			t.Error("query results not ordered by timestamp ascending")
		}
	}

	tests := []struct {
		name   string
		filter store.Filter
		want   int
	}{
		{name: "by user", filter: store.Filter{UserID: "u1"}, want: 2},
		{name: "by account", filter: store.Filter{Account: "gopay"}, want: 1},
		{name: "by category", filter: store.Filter{Category: "food"}, want: 2},
		{name: "by direction", filter: store.Filter{Direction: domain.DirectionIncome}, want: 0},
		{name: "by date range", filter: store.Filter{
			From: civil.Date{Year: 2025, Month: time.March, Day: 2},
			To:   civil.Date{Year: 2025, Month: time.March, Day: 3},
		}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ledger.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestLedger_Delete(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()

	id, err := ledger.Append(ctx, record("u1", "cash", "food", 100, time.Now()))
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}

	deleted, err := ledger.Delete(ctx, id)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if !deleted {
		t.Error("expected delete to report true for existing record")
	}

	deleted, err = ledger.Delete(ctx, id)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if deleted {
		t.Error("expected delete to report false for missing record")
	}
}

func TestBudgets_RoundTrip(t *testing.T) {
	ctx := context.Background()
	budgets := NewBudgets()

	if _, err := budgets.Get(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}

	config := domain.BudgetConfig{
		UserID:     "u1",
		DailyLimit: decimal.NewFromInt(50000),
		Payday:     25,
	}
	if err := budgets.Put(ctx, config); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := budgets.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Payday != 25 || !got.DailyLimit.Equal(config.DailyLimit) {
		t.Errorf("got %+v, want %+v", got, config)
	}
}

func TestBudgets_PutRejectsInvalid(t *testing.T) {
	budgets := NewBudgets()
	bad := domain.BudgetConfig{UserID: "u1", Payday: 40}
	if err := budgets.Put(context.Background(), bad); !errors.Is(err, domain.ErrInvalidBudgetConfig) {
		t.Errorf("Put error = %v, want ErrInvalidBudgetConfig", err)
	}
}
