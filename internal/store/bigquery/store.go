// Package bigquery implements the store contracts on top of BigQuery.
// It suits the analytical read path (recaps, exports) more than hot
// writes; ID assignment relies on the caller applying at-most-one-writer
// discipline per user.
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
	datasetID         = "ledger"
	transactionsTable = "transactions"
	budgetsTable      = "budgets"
)

// Store implements store.Ledger and store.BudgetStore against a BigQuery
// dataset. Close releases the underlying client.
type Store struct {
	client *bigquery.Client
}

// New connects to BigQuery in the given project.
func New(ctx context.Context, projectID string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery store: client: %w", err)
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client, used by tests.
func NewWithClient(client *bigquery.Client) *Store {
	return &Store{client: client}
}

// Close releases the BigQuery client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Append validates the record, assigns the next monotonic ID, and
// streams the row into the transactions table.
func (s *Store) Append(ctx context.Context, record domain.TransactionRecord) (int64, error) {
	if err := record.Validate(); err != nil {
		return 0, fmt.Errorf("bigquery append: %w", err)
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return 0, err
	}
	record.ID = id

	inserter := s.client.Dataset(datasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rowFromRecord(record)); err != nil {
		return 0, fmt.Errorf("bigquery append: inserting row: %w", err)
	}
	return id, nil
}

// nextID reads the current maximum identifier. Safe only under the
// at-most-one-writer discipline the engine already requires of callers.
func (s *Store) nextID(ctx context.Context) (int64, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT IFNULL(MAX(id), 0) AS max_id FROM %s.%s
	`, datasetID, transactionsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("bigquery next id: query read: %w", err)
	}

	var row struct {
		MaxID int64 `bigquery:"max_id"`
	}
	if err := it.Next(&row); err != nil {
		return 0, fmt.Errorf("bigquery next id: iter next: %w", err)
	}
	return row.MaxID + 1, nil
}

// Query returns matching records ordered by parse timestamp ascending.
// Filters are pushed down into the SQL WHERE clause.
func (s *Store) Query(ctx context.Context, filter store.Filter) ([]domain.TransactionRecord, error) {
	var (
		clauses []string
		params  []bigquery.QueryParameter
	)
	add := func(clause, name string, value interface{}) {
		clauses = append(clauses, clause)
		params = append(params, bigquery.QueryParameter{Name: name, Value: value})
	}

	if filter.UserID != "" {
		add("user_id = @user_id", "user_id", filter.UserID)
	}
	if filter.Account != "" {
		add("(source = @account OR destination = @account)", "account", filter.Account)
	}
	if len(filter.Accounts) > 0 {
		add("(source IN UNNEST(@accounts) OR destination IN UNNEST(@accounts))", "accounts", filter.Accounts)
	}
	if filter.Category != "" {
		add("category = @category", "category", filter.Category)
	}
	if filter.Direction != "" {
		add("direction = @direction", "direction", string(filter.Direction))
	}
	if filter.From.IsValid() {
		add("parsed_date >= @from_date", "from_date", filter.From)
	}
	if filter.To.IsValid() {
		add("parsed_date <= @to_date", "to_date", filter.To)
	}

	sql := fmt.Sprintf(`
		SELECT id, user_id, direction, amount, ambiguous,
		       source, destination, category,
		       parsed_date, parsed_ts, raw_text
		FROM %s.%s
	`, datasetID, transactionsTable)
	if len(clauses) > 0 {
		sql += " WHERE " + strings.Join(clauses, " AND ")
	}
	sql += " ORDER BY parsed_ts, id"

	q := s.client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery query: read: %w", err)
	}

	var records []domain.TransactionRecord
	for {
		var row transactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery query: iter next: %w", err)
		}
		records = append(records, row.toRecord())
	}
	return records, nil
}

// Delete removes a record by ID, reporting whether a row was affected.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	q := s.client.Query(fmt.Sprintf(`
		DELETE FROM %s.%s WHERE id = @id
	`, datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{{Name: "id", Value: id}}

	job, err := q.Run(ctx)
	if err != nil {
		return false, fmt.Errorf("bigquery delete: run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return false, fmt.Errorf("bigquery delete: wait: %w", err)
	}
	if err := status.Err(); err != nil {
		return false, fmt.Errorf("bigquery delete: job: %w", err)
	}

	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows > 0, nil
	}
	return true, nil
}

// Get retrieves a user's budget config, or store.ErrNotFound.
func (s *Store) Get(ctx context.Context, userID string) (domain.BudgetConfig, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT user_id, daily_limit, payday, warning_threshold
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY updated_ts DESC
		LIMIT 1
	`, datasetID, budgetsTable))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	it, err := q.Read(ctx)
	if err != nil {
		return domain.BudgetConfig{}, fmt.Errorf("bigquery get budget: read: %w", err)
	}

	var row budgetRow
	if err := it.Next(&row); err == iterator.Done {
		return domain.BudgetConfig{}, fmt.Errorf("budget for %q: %w", userID, store.ErrNotFound)
	} else if err != nil {
		return domain.BudgetConfig{}, fmt.Errorf("bigquery get budget: iter next: %w", err)
	}

	return domain.BudgetConfig{
		UserID:           row.UserID,
		DailyLimit:       decimalFromRat(row.DailyLimit),
		Payday:           int(row.Payday),
		WarningThreshold: row.WarningThreshold,
	}, nil
}

// Put validates and streams a budget config row. The latest row per
// user wins on read.
func (s *Store) Put(ctx context.Context, config domain.BudgetConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("bigquery put budget: %w", err)
	}

	row := &budgetRow{
		UserID:           config.UserID,
		DailyLimit:       config.DailyLimit.Rat(),
		Payday:           int64(config.Payday),
		WarningThreshold: config.WarningThreshold,
		UpdatedTS:        time.Now(),
	}
	inserter := s.client.Dataset(datasetID).Table(budgetsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("bigquery put budget: inserting row: %w", err)
	}
	return nil
}

var _ store.Ledger = (*Store)(nil)
var _ store.BudgetStore = (*Store)(nil)
