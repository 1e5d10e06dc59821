package inmemory

import (
	"context"
	"errors"
	"testing"

	"github.com/antonw/duitbot/internal/domain"
	"github.com/antonw/duitbot/internal/store"
)

func TestAccounts_CreateAndResolve(t *testing.T) {
	accounts := NewAccounts()
	ctx := context.Background()

	id, err := accounts.CreateAccount(ctx, domain.Account{
		UserID: "u1",
		Name:   "  BCA Main  ",
		Type:   domain.AccountAsset,
	})
	if err != nil {
		t.Fatalf("CreateAccount error: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, want 1", id)
	}

	// The canonical name resolves immediately, in any casing.
	account, err := accounts.ResolveAlias(ctx, "u1", "bca main")
	if err != nil {
		t.Fatalf("ResolveAlias error: %v", err)
	}
	if account.Name != "BCA Main" {
		t.Errorf("name = %q, want trimmed display casing", account.Name)
	}
	if _, err := accounts.ResolveAlias(ctx, "u2", "bca main"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-user resolve error = %v, want ErrNotFound", err)
	}
}

func TestAccounts_DuplicateName(t *testing.T) {
	accounts := NewAccounts()
	ctx := context.Background()

	if _, err := accounts.CreateAccount(ctx, domain.Account{UserID: "u1", Name: "Cash", Type: domain.AccountAsset}); err != nil {
		t.Fatalf("CreateAccount error: %v", err)
	}
	_, err := accounts.CreateAccount(ctx, domain.Account{UserID: "u1", Name: "cash", Type: domain.AccountAsset})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("duplicate error = %v, want ErrAlreadyExists", err)
	}

	// A different user can reuse the name.
	if _, err := accounts.CreateAccount(ctx, domain.Account{UserID: "u2", Name: "Cash", Type: domain.AccountAsset}); err != nil {
		t.Errorf("same name for another user: %v", err)
	}
}

func TestAccounts_AliasRules(t *testing.T) {
	accounts := NewAccounts()
	ctx := context.Background()

	gopay, err := accounts.CreateAccount(ctx, domain.Account{UserID: "u1", Name: "GoPay", Type: domain.AccountAsset})
	if err != nil {
		t.Fatalf("CreateAccount error: %v", err)
	}
	ovo, err := accounts.CreateAccount(ctx, domain.Account{UserID: "u1", Name: "OVO", Type: domain.AccountAsset})
	if err != nil {
		t.Fatalf("CreateAccount error: %v", err)
	}

	if err := accounts.AddAlias(ctx, "u1", " Go-Pay ", gopay); err != nil {
		t.Fatalf("AddAlias error: %v", err)
	}
	// Re-adding the same mapping is a no-op.
	if err := accounts.AddAlias(ctx, "u1", "go-pay", gopay); err != nil {
		t.Errorf("idempotent AddAlias error: %v", err)
	}
	// Claiming it for another account is a conflict.
	if err := accounts.AddAlias(ctx, "u1", "go-pay", ovo); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("conflicting AddAlias error = %v, want ErrAlreadyExists", err)
	}
	// Unknown account.
	if err := accounts.AddAlias(ctx, "u1", "wallet", 99); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("AddAlias to missing account error = %v, want ErrNotFound", err)
	}

	aliases, err := accounts.Aliases(ctx, "u1", gopay)
	if err != nil {
		t.Fatalf("Aliases error: %v", err)
	}
	want := []string{"go-pay", "gopay"}
	if len(aliases) != len(want) || aliases[0] != want[0] || aliases[1] != want[1] {
		t.Errorf("aliases = %v, want %v", aliases, want)
	}

	removed, err := accounts.RemoveAlias(ctx, "u1", "GO-PAY")
	if err != nil || !removed {
		t.Fatalf("RemoveAlias = %v, %v", removed, err)
	}
	removed, err = accounts.RemoveAlias(ctx, "u1", "go-pay")
	if err != nil || removed {
		t.Errorf("second RemoveAlias = %v, %v, want false", removed, err)
	}
}

func TestAccounts_EnsureDefaults(t *testing.T) {
	accounts := NewAccounts()
	ctx := context.Background()

	if err := store.EnsureDefaultAccounts(ctx, accounts, "u1"); err != nil {
		t.Fatalf("EnsureDefaultAccounts error: %v", err)
	}
	// Second run must not fail or duplicate.
	if err := store.EnsureDefaultAccounts(ctx, accounts, "u1"); err != nil {
		t.Fatalf("repeated EnsureDefaultAccounts error: %v", err)
	}

	list, err := accounts.ListAccounts(ctx, "u1")
	if err != nil {
		t.Fatalf("ListAccounts error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("accounts = %d, want the 3 defaults", len(list))
	}
	// Sorted by name: Cash, Expense, Income.
	if list[0].Name != "Cash" || !list[0].System {
		t.Errorf("first account = %+v, want system Cash", list[0])
	}

	cash, err := accounts.ResolveAlias(ctx, "u1", "cash")
	if err != nil || cash.Type != domain.AccountAsset {
		t.Errorf("cash resolves to %+v, %v", cash, err)
	}
}

func TestAccounts_InvalidAccount(t *testing.T) {
	accounts := NewAccounts()
	ctx := context.Background()

	if _, err := accounts.CreateAccount(ctx, domain.Account{UserID: "u1", Name: "  ", Type: domain.AccountAsset}); !errors.Is(err, domain.ErrInvalidAccount) {
		t.Errorf("empty name error = %v, want ErrInvalidAccount", err)
	}
	if _, err := accounts.CreateAccount(ctx, domain.Account{UserID: "u1", Name: "Cash", Type: "crypto"}); !errors.Is(err, domain.ErrInvalidAccount) {
		t.Errorf("unknown type error = %v, want ErrInvalidAccount", err)
	}
}
