package notionsync

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"

	"github.com/antonw/duitbot/internal/domain"
	"github.com/antonw/duitbot/internal/store"
	"github.com/antonw/duitbot/internal/store/inmemory"
)

// mockNotion records calls instead of talking to the API.
type mockNotion struct {
	pages    []notionapi.Page
	created  []notionapi.Properties
	updated  map[string]notionapi.Properties
	archived []string
}

func (m *mockNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	m.created = append(m.created, properties)
	return &notionapi.Page{ID: notionapi.ObjectID("new-page")}, nil
}

func (m *mockNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if m.updated == nil {
		m.updated = make(map[string]notionapi.Properties)
	}
	m.updated[pageID] = properties
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (m *mockNotion) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: m.pages, HasMore: false}, nil
}

func (m *mockNotion) DeletePage(ctx context.Context, pageID string) error {
	m.archived = append(m.archived, pageID)
	return nil
}

func pageForRecord(pageID string, recordID string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(pageID),
		Properties: notionapi.Properties{
			"Record ID": &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: recordID}},
			},
		},
	}
}

func seedLedger(t *testing.T, ledger store.Ledger) int64 {
	t.Helper()
	id, err := ledger.Append(context.Background(), domain.TransactionRecord{
		UserID:    "u1",
		Direction: domain.DirectionExpense,
		Amount:    domain.AmountValue{Amount: decimal.NewFromInt(16000)},
		Source:    "gopay",
		Category:  "commuting",
		ParsedAt:  time.Now(),
		RawText:   "16k from gopay for commuting",
	})
	if err != nil {
		t.Fatalf("seeding ledger: %v", err)
	}
	return id
}

func TestSyncRecords_CreatesMissing(t *testing.T) {
	ledger := inmemory.NewLedger()
	seedLedger(t, ledger)

	notion := &mockNotion{}
	err := SyncRecords(context.Background(), ledger, notion, "db", store.Filter{UserID: "u1"}, false)
	if err != nil {
		t.Fatalf("SyncRecords error: %v", err)
	}

	if len(notion.created) != 1 {
		t.Fatalf("created %d pages, want 1", len(notion.created))
	}
	if len(notion.archived) != 0 {
		t.Errorf("archived %d pages, want 0", len(notion.archived))
	}
}

func TestSyncRecords_RefreshesExisting(t *testing.T) {
	ledger := inmemory.NewLedger()
	id := seedLedger(t, ledger)

	notion := &mockNotion{
		pages: []notionapi.Page{pageForRecord("p1", "1")},
	}
	err := SyncRecords(context.Background(), ledger, notion, "db", store.Filter{UserID: "u1"}, false)
	if err != nil {
		t.Fatalf("SyncRecords error: %v", err)
	}

	if len(notion.created) != 0 {
		t.Errorf("created %d pages for record %d, want 0", len(notion.created), id)
	}
	props, ok := notion.updated["p1"]
	if !ok {
		t.Fatalf("updated pages = %v, want a refresh of p1", notion.updated)
	}
	// The refresh carries the ledger's current view of the record.
	title, ok := props["Description"].(notionapi.TitleProperty)
	if !ok || title.Title[0].Text.Content != "16k from gopay for commuting" {
		t.Errorf("refreshed Description = %+v", props["Description"])
	}
}

func TestSyncRecords_ArchivesStale(t *testing.T) {
	ledger := inmemory.NewLedger()

	// Page 99 has no matching ledger record any more.
	notion := &mockNotion{
		pages: []notionapi.Page{pageForRecord("p-stale", "99")},
	}
	err := SyncRecords(context.Background(), ledger, notion, "db", store.Filter{UserID: "u1"}, false)
	if err != nil {
		t.Fatalf("SyncRecords error: %v", err)
	}

	if len(notion.archived) != 1 || notion.archived[0] != "p-stale" {
		t.Errorf("archived = %v, want [p-stale]", notion.archived)
	}
}

func TestSyncRecords_DryRunTouchesNothing(t *testing.T) {
	ledger := inmemory.NewLedger()
	seedLedger(t, ledger)

	notion := &mockNotion{
		pages: []notionapi.Page{pageForRecord("p-stale", "99")},
	}
	err := SyncRecords(context.Background(), ledger, notion, "db", store.Filter{UserID: "u1"}, true)
	if err != nil {
		t.Fatalf("SyncRecords error: %v", err)
	}

	if len(notion.created) != 0 || len(notion.updated) != 0 || len(notion.archived) != 0 {
		t.Errorf("dry run mutated Notion: created %d, updated %d, archived %d",
			len(notion.created), len(notion.updated), len(notion.archived))
	}
}

func TestRecordToNotionProperties(t *testing.T) {
	record := domain.TransactionRecord{
		ID:          7,
		UserID:      "u1",
		Direction:   domain.DirectionTransfer,
		Amount:      domain.AmountValue{Amount: decimal.NewFromInt(100000), Ambiguous: true},
		Source:      "bca",
		Destination: "gopay",
		Category:    domain.DefaultCategory,
		ParsedAt:    time.Date(2026, time.March, 30, 12, 0, 0, 0, time.UTC),
		RawText:     "transfer 100k from bca to gopay",
	}

	props := RecordToNotionProperties(record)

	title, ok := props["Description"].(notionapi.TitleProperty)
	if !ok || title.Title[0].Text.Content != record.RawText {
		t.Errorf("Description = %+v", props["Description"])
	}
	idProp, ok := props["Record ID"].(notionapi.RichTextProperty)
	if !ok || idProp.RichText[0].Text.Content != "7" {
		t.Errorf("Record ID = %+v", props["Record ID"])
	}
	amount, ok := props["Amount"].(notionapi.NumberProperty)
	if !ok || amount.Number != 100000 {
		t.Errorf("Amount = %+v", props["Amount"])
	}
	confirm, ok := props["Needs Confirmation"].(notionapi.CheckboxProperty)
	if !ok || !confirm.Checkbox {
		t.Errorf("Needs Confirmation = %+v", props["Needs Confirmation"])
	}
	if _, ok := props["Source"]; !ok {
		t.Error("expected a Source property for a transfer")
	}
	if _, ok := props["Destination"]; !ok {
		t.Error("expected a Destination property for a transfer")
	}
}
