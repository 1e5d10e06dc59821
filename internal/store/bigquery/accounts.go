package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/antonw/duitbot/internal/domain"
	"github.com/antonw/duitbot/internal/store"
)

const (
	accountsTable = "accounts"
	aliasesTable  = "account_aliases"
)

// CreateAccount validates the account, assigns the next monotonic ID,
// and streams the account row plus the canonical-name alias row. Names
// are unique per user, case-insensitively.
func (s *Store) CreateAccount(ctx context.Context, account domain.Account) (int64, error) {
	if err := account.Validate(); err != nil {
		return 0, fmt.Errorf("bigquery create account: %w", err)
	}
	account.Name = strings.TrimSpace(account.Name)

	taken, err := s.accountNameTaken(ctx, account.UserID, account.Name)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, fmt.Errorf("account %q: %w", account.Name, store.ErrAlreadyExists)
	}

	id, err := s.nextAccountID(ctx)
	if err != nil {
		return 0, err
	}
	account.ID = id
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	inserter := s.client.Dataset(datasetID).Table(accountsTable).Inserter()
	if err := inserter.Put(ctx, rowFromAccount(account)); err != nil {
		return 0, fmt.Errorf("bigquery create account: inserting row: %w", err)
	}

	alias := &aliasRow{
		Alias:     domain.NormalizeAlias(account.Name),
		AccountID: id,
		UserID:    account.UserID,
		CreatedTS: account.CreatedAt,
	}
	aliasInserter := s.client.Dataset(datasetID).Table(aliasesTable).Inserter()
	if err := aliasInserter.Put(ctx, alias); err != nil {
		return 0, fmt.Errorf("bigquery create account: inserting alias row: %w", err)
	}
	return id, nil
}

func (s *Store) accountNameTaken(ctx context.Context, userID, name string) (bool, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT COUNT(*) AS n FROM %s.%s
		WHERE user_id = @user_id AND LOWER(name) = LOWER(@name)
	`, datasetID, accountsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "name", Value: name},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("bigquery account name check: read: %w", err)
	}
	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return false, fmt.Errorf("bigquery account name check: iter next: %w", err)
	}
	return row.N > 0, nil
}

// nextAccountID reads the current maximum identifier, under the same
// at-most-one-writer discipline as the ledger's nextID.
func (s *Store) nextAccountID(ctx context.Context) (int64, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT IFNULL(MAX(id), 0) AS max_id FROM %s.%s
	`, datasetID, accountsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("bigquery next account id: query read: %w", err)
	}
	var row struct {
		MaxID int64 `bigquery:"max_id"`
	}
	if err := it.Next(&row); err != nil {
		return 0, fmt.Errorf("bigquery next account id: iter next: %w", err)
	}
	return row.MaxID + 1, nil
}

// ListAccounts returns a user's accounts ordered by name.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT id, user_id, name, account_type, description, is_system, created_ts
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY name
	`, datasetID, accountsTable))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery list accounts: read: %w", err)
	}

	var accounts []domain.Account
	for {
		var row accountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery list accounts: iter next: %w", err)
		}
		accounts = append(accounts, row.toAccount())
	}
	return accounts, nil
}

// ResolveAlias maps an alias to its canonical account via a join, or
// store.ErrNotFound when the name is unregistered.
func (s *Store) ResolveAlias(ctx context.Context, userID, alias string) (domain.Account, error) {
	normalized := domain.NormalizeAlias(alias)
	if normalized == "" {
		return domain.Account{}, fmt.Errorf("alias %q: %w", alias, store.ErrNotFound)
	}

	q := s.client.Query(fmt.Sprintf(`
		SELECT g.id, g.user_id, g.name, g.account_type, g.description, g.is_system, g.created_ts
		FROM %s.%s g
		JOIN %s.%s a ON g.id = a.account_id AND g.user_id = a.user_id
		WHERE a.alias = @alias AND a.user_id = @user_id
		LIMIT 1
	`, datasetID, accountsTable, datasetID, aliasesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "alias", Value: normalized},
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("bigquery resolve alias: read: %w", err)
	}

	var row accountRow
	if err := it.Next(&row); err == iterator.Done {
		return domain.Account{}, fmt.Errorf("alias %q: %w", normalized, store.ErrNotFound)
	} else if err != nil {
		return domain.Account{}, fmt.Errorf("bigquery resolve alias: iter next: %w", err)
	}
	return row.toAccount(), nil
}

// AddAlias maps a new alias to an existing account. Re-adding an alias
// to the same account is a no-op; an alias taken by a different account
// is store.ErrAlreadyExists.
func (s *Store) AddAlias(ctx context.Context, userID, alias string, accountID int64) error {
	normalized := domain.NormalizeAlias(alias)
	if normalized == "" {
		return fmt.Errorf("bigquery add alias: %w: alias must not be empty", domain.ErrInvalidAccount)
	}

	accounts, err := s.ListAccounts(ctx, userID)
	if err != nil {
		return err
	}
	found := false
	for _, a := range accounts {
		if a.ID == accountID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("account %d: %w", accountID, store.ErrNotFound)
	}

	existing, err := s.ResolveAlias(ctx, userID, normalized)
	if err == nil {
		if existing.ID == accountID {
			return nil
		}
		return fmt.Errorf("alias %q: %w", normalized, store.ErrAlreadyExists)
	}

	row := &aliasRow{
		Alias:     normalized,
		AccountID: accountID,
		UserID:    userID,
		CreatedTS: time.Now(),
	}
	inserter := s.client.Dataset(datasetID).Table(aliasesTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("bigquery add alias: inserting row: %w", err)
	}
	return nil
}

// RemoveAlias deletes an alias mapping, reporting whether a row was
// affected.
func (s *Store) RemoveAlias(ctx context.Context, userID, alias string) (bool, error) {
	normalized := domain.NormalizeAlias(alias)

	q := s.client.Query(fmt.Sprintf(`
		DELETE FROM %s.%s WHERE alias = @alias AND user_id = @user_id
	`, datasetID, aliasesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "alias", Value: normalized},
		{Name: "user_id", Value: userID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return false, fmt.Errorf("bigquery remove alias: run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return false, fmt.Errorf("bigquery remove alias: wait: %w", err)
	}
	if err := status.Err(); err != nil {
		return false, fmt.Errorf("bigquery remove alias: job: %w", err)
	}

	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows > 0, nil
	}
	return true, nil
}

// Aliases returns every alias mapping to the account, sorted.
func (s *Store) Aliases(ctx context.Context, userID string, accountID int64) ([]string, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT alias FROM %s.%s
		WHERE account_id = @account_id AND user_id = @user_id
		ORDER BY alias
	`, datasetID, aliasesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "account_id", Value: accountID},
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery aliases: read: %w", err)
	}

	var aliases []string
	for {
		var row struct {
			Alias string `bigquery:"alias"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery aliases: iter next: %w", err)
		}
		aliases = append(aliases, row.Alias)
	}
	return aliases, nil
}

var _ store.AccountStore = (*Store)(nil)
